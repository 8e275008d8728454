package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"flightstats/internal/analytics"
	apierrors "flightstats/internal/errors"
	"flightstats/internal/services"
	"flightstats/internal/shared/testutil"
	"flightstats/pkg/contracts/domain"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  *int            `json:"count"`
}

func newKPIRouter(t *testing.T, svc QueryFacade) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewKPIHandler(svc, 500, logger, apierrors.NewErrorHandler(logger, false))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, "success", env.Status)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func scalar(name string, v float64) domain.KPIResult {
	return domain.KPIResult{Name: name, Kind: domain.KPIKindScalar, Value: v}
}

func TestKPIHandler_GetScalar(t *testing.T) {
	svc := new(MockQueryService)
	want := domain.Filter{Company: "AAA", Year: 2025, Side: domain.SideOrigin}
	svc.On("Scalar", analytics.MeasurePassengers, want).Return(scalar("passengers", 165), nil)

	rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/kpi/passengers?company=AAA&year=2025&side=origin", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got domain.KPIResult
	decodeEnvelope(t, rec, &got)
	assert.Equal(t, 165.0, got.Value)
	assert.False(t, got.NoData)
	svc.AssertExpectations(t)
}

func TestKPIHandler_NoDataIsNotAnError(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Scalar", analytics.MeasureOccupancy, domain.Filter{}).
		Return(domain.NoDataResult("occupancy_rate", domain.KPIKindScalar, analytics.ReasonNotLoaded), nil)

	rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/kpi/occupancy_rate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.KPIResult
	decodeEnvelope(t, rec, &got)
	assert.True(t, got.NoData)
	assert.Equal(t, analytics.ReasonNotLoaded, got.Reason)
}

func TestKPIHandler_InvalidFilter(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"month out of range", "month=13"},
		{"year not a number", "year=twenty"},
		{"unknown side", "side=north"},
		{"exclude not a bool", "exclude=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockQueryService)
			rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/kpi/passengers?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
			svc.AssertNotCalled(t, "Scalar", mock.Anything, mock.Anything)
		})
	}
}

func TestKPIHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "unknown measure",
			err:            apierrors.NewAppError(apierrors.ErrTypeValidation, "invalid query", analytics.ErrUnknownMeasure),
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "deadline exceeded",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockQueryService)
			svc.On("Scalar", analytics.Measure("weather"), domain.Filter{}).Return(domain.KPIResult{}, tt.err)

			rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/kpi/weather", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "json")
		})
	}
}

func TestKPIHandler_GetCompanyRanking(t *testing.T) {
	table := domain.KPIResult{
		Name: "passengers_by_company",
		Kind: domain.KPIKindTable,
		Rows: []domain.KPIRow{{Key: "AAA", Label: "COMPANY A", Value: 165}},
	}

	t.Run("limit and order are passed through", func(t *testing.T) {
		svc := new(MockQueryService)
		svc.On("CompanyRanking", analytics.MeasurePassengers, domain.Filter{}, 3, analytics.OrderAsc).Return(table, nil)

		rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/rankings/companies/passengers?limit=3&order=asc", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var got domain.KPIResult
		decodeEnvelope(t, rec, &got)
		require.Len(t, got.Rows, 1)
		assert.Equal(t, "AAA", got.Rows[0].Key)
		svc.AssertExpectations(t)
	})

	t.Run("defaults leave limit and order to the façade", func(t *testing.T) {
		svc := new(MockQueryService)
		svc.On("CompanyRanking", analytics.MeasurePassengers, domain.Filter{}, 0, analytics.Order("")).Return(table, nil)

		rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/rankings/companies/passengers", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	for _, query := range []string{"limit=0", "limit=501", "limit=ten", "order=sideways"} {
		t.Run("rejects "+query, func(t *testing.T) {
			svc := new(MockQueryService)
			rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/rankings/companies/passengers?"+query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			svc.AssertNotCalled(t, "CompanyRanking", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestKPIHandler_GetRegionDemand(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("RegionDemand", analytics.DimDestinationCountry, domain.Filter{Exclude: true, Country: "BRASIL"}, 5).
		Return(domain.KPIResult{Name: "passengers_by_destination_country", Kind: domain.KPIKindTable}, nil)

	rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/rankings/regions/destination_country?country=BRASIL&exclude=true&limit=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestKPIHandler_GetSeriesAndCounts(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Monthly", analytics.MeasurePassengers, domain.Filter{Company: "AAA"}).Return(domain.KPIResult{
		Name:   "monthly_passengers",
		Kind:   domain.KPIKindSeries,
		Points: []domain.SeriesPoint{{Year: 2025, Month: 1, Value: 110}, {Year: 2025, Month: 2, Value: 55}},
	}, nil)
	svc.On("Distinct", analytics.EntityAirports, domain.Filter{}).Return(scalar("distinct_airports", 3), nil)
	router := newKPIRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/series/passengers?company=AAA", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var series domain.KPIResult
	decodeEnvelope(t, rec, &series)
	assert.Len(t, series.Points, 2)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/counts/airports", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var count domain.KPIResult
	decodeEnvelope(t, rec, &count)
	assert.Equal(t, 3.0, count.Value)
}

func TestKPIHandler_Efficiency(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("CompanyEfficiency", domain.Filter{}, analytics.MeasurePassengersPerLiter, analytics.OrderDesc, 0).
		Return(domain.KPIResult{Name: "company_efficiency", Kind: domain.KPIKindTable}, nil)
	svc.On("ConsumptionStats", domain.Filter{Year: 2025}).
		Return(domain.KPIResult{Name: "consumption_stats", Kind: domain.KPIKindTable}, nil)
	router := newKPIRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/efficiency/companies?sort=passengers_per_liter&order=desc", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/efficiency/companies/stats?year=2025", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	svc.AssertExpectations(t)
}

func TestKPIHandler_Airports(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("AirportsByCountry", "BRASIL").Return(domain.KPIResult{Name: "airports", Kind: domain.KPIKindTable}, nil)
	svc.On("AirportsByCountry", "").Return(domain.KPIResult{}, apierrors.NewAppValidationError("country is required"))
	svc.On("Countries", domain.Filter{}).Return(domain.KPIResult{Name: "countries", Kind: domain.KPIKindTable}, nil)
	router := newKPIRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/airports?country=BRASIL", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/airports", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/airports/countries", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestKPIHandler_GetFlights(t *testing.T) {
	svc := new(MockQueryService)
	records := testutil.ScenarioFlights()[:2]
	svc.On("FlightsAt", "SBGR", domain.Filter{Month: 1}, 2).Return(records, nil)

	rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/airports/SBGR/flights?month=1&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got []domain.FlightRecord
	env := decodeEnvelope(t, rec, &got)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
	assert.Len(t, got, 2)
}

func TestKPIHandler_GetFlightsRejectsBadCode(t *testing.T) {
	svc := new(MockQueryService)

	rec := serve(newKPIRouter(t, svc), httptest.NewRequest(http.MethodGet, "/airports/GR1/flights", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ICAO")
	svc.AssertNotCalled(t, "FlightsAt", mock.Anything, mock.Anything, mock.Anything)
}

func TestKPIHandler_PostQuery(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		svc := new(MockQueryService)
		want := services.QueryRequest{Measure: "passengers", Dimension: "company", Limit: 5, Filter: domain.Filter{Year: 2025}}
		svc.On("Query", want).Return(domain.KPIResult{Name: "passengers_by_company", Kind: domain.KPIKindTable}, nil)

		req := httptest.NewRequest(http.MethodPost, "/query",
			strings.NewReader(`{"measure":"passengers","dimension":"company","limit":5,"filter":{"year":2025}}`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(newKPIRouter(t, svc), req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := new(MockQueryService)
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"measure":`))
		req.Header.Set("Content-Type", "application/json")
		rec := serve(newKPIRouter(t, svc), req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_JSON")
		svc.AssertNotCalled(t, "Query", mock.Anything)
	})

	t.Run("missing content type", func(t *testing.T) {
		svc := new(MockQueryService)
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"measure":"passengers"}`))
		rec := serve(newKPIRouter(t, svc), req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNSUPPORTED_MEDIA_TYPE")
		svc.AssertNotCalled(t, "Query", mock.Anything)
	})

	t.Run("json with charset", func(t *testing.T) {
		svc := new(MockQueryService)
		svc.On("Query", services.QueryRequest{Measure: "passengers"}).Return(domain.KPIResult{Name: "passengers"}, nil)
		req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"measure":"passengers"}`))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := serve(newKPIRouter(t, svc), req)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func TestKPIHandler_GetDashboard(t *testing.T) {
	svc := new(MockQueryService)
	svc.On("Dashboard", domain.Filter{}).Return(&services.Dashboard{Occupancy: scalar("occupancy_rate", 44.1)}, nil)
	svc.On("Dashboard", domain.Filter{Company: "ZZZ"}).Return(nil, context.Canceled)
	router := newKPIRouter(t, svc)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var d services.Dashboard
	decodeEnvelope(t, rec, &d)
	assert.Equal(t, 44.1, d.Occupancy.Value)

	rec = serve(router, httptest.NewRequest(http.MethodGet, "/dashboard?company=ZZZ", nil))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}
