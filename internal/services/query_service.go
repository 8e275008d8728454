package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"flightstats/internal/analytics"
	apierrors "flightstats/internal/errors"
	"flightstats/internal/infrastructure"
	"flightstats/pkg/contracts/domain"
)

// ReasonQueryFailed is the NoData reason used when the store could not
// answer a query. The underlying error is logged, not returned.
const ReasonQueryFailed = "query failed"

// DimensionMonth turns a QueryRequest into a monthly series.
const DimensionMonth = "month"

// QueryRequest is the generic façade request. Without a dimension it yields
// a scalar, with DimensionMonth a monthly series, otherwise a ranked
// breakdown.
type QueryRequest struct {
	Measure   string        `json:"measure" validate:"required,measure"`
	Dimension string        `json:"dimension,omitempty" validate:"omitempty,dimension"`
	Agg       string        `json:"agg,omitempty" validate:"omitempty,oneof=sum mean"`
	Filter    domain.Filter `json:"filter"`
	Limit     int           `json:"limit,omitempty" validate:"omitempty,min=1"`
	Order     string        `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// QueryOptions bounds result sizes.
type QueryOptions struct {
	DefaultLimit int
	MaxLimit     int
}

// Dashboard is the set of headline KPIs computed together for one filter.
type Dashboard struct {
	Totals             domain.KPIResult `json:"totals"`
	Occupancy          domain.KPIResult `json:"occupancy_rate"`
	FuelPerKm          domain.KPIResult `json:"fuel_per_km"`
	PassengersPerLiter domain.KPIResult `json:"passengers_per_liter"`
	TopCompanies       domain.KPIResult `json:"top_companies"`
	TopDestinations    domain.KPIResult `json:"top_destinations"`
	MostFlights        domain.KPIResult `json:"most_flights"`
	NatureShare        domain.KPIResult `json:"nature_share"`
	MonthlyPassengers  domain.KPIResult `json:"monthly_passengers"`
}

// QueryService is the read interface over the aggregation engine.
type QueryService struct {
	engine   *analytics.Engine
	opts     QueryOptions
	validate *validator.Validate
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewQueryService creates the façade. metrics may be nil.
func NewQueryService(engine *analytics.Engine, opts QueryOptions, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = analytics.DefaultLimit
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}

	return &QueryService{
		engine:   engine,
		opts:     opts,
		validate: newValidator(),
		metrics:  metrics,
		logger:   logger.With(slog.String("component", "query_service")),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("measure", func(fl validator.FieldLevel) bool {
		return analytics.Measure(fl.Field().String()).Valid()
	})
	v.RegisterValidation("dimension", func(fl validator.FieldLevel) bool {
		d := fl.Field().String()
		return d == DimensionMonth || analytics.Dimension(d).Valid()
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Query runs a generic façade request.
func (s *QueryService) Query(ctx context.Context, req QueryRequest) (domain.KPIResult, error) {
	if err := s.check(req); err != nil {
		return domain.KPIResult{}, err
	}
	limit, err := s.limit(req.Limit)
	if err != nil {
		return domain.KPIResult{}, err
	}

	m := analytics.Measure(req.Measure)
	switch req.Dimension {
	case "":
		return s.Scalar(ctx, m, req.Filter)
	case DimensionMonth:
		return s.Monthly(ctx, m, req.Filter)
	}

	return s.run(ctx, fmt.Sprintf("%s_by_%s", req.Measure, req.Dimension), domain.KPIKindTable,
		func(ctx context.Context) (domain.KPIResult, error) {
			return s.engine.Breakdown(ctx, analytics.BreakdownRequest{
				Dimension: analytics.Dimension(req.Dimension),
				Measure:   m,
				Agg:       analytics.Aggregation(req.Agg),
				Filter:    req.Filter,
				Limit:     limit,
				Order:     analytics.Order(req.Order),
			})
		})
}

// Scalar computes one measure over the filtered relation.
func (s *QueryService) Scalar(ctx context.Context, m analytics.Measure, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, string(m), domain.KPIKindScalar, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Scalar(ctx, m, f)
	})
}

// Totals returns the headline traffic figures.
func (s *QueryService) Totals(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "totals", domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Totals(ctx, f)
	})
}

// CompanyRanking ranks airlines by m.
func (s *QueryService) CompanyRanking(ctx context.Context, m analytics.Measure, f domain.Filter, limit int, order analytics.Order) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	n, err := s.limit(limit)
	if err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, fmt.Sprintf("%s_by_company", m), domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.CompanyRanking(ctx, m, f, n, order)
	})
}

// RegionDemand ranks the groups of a geographic dimension by passengers.
func (s *QueryService) RegionDemand(ctx context.Context, d analytics.Dimension, f domain.Filter, limit int) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	n, err := s.limit(limit)
	if err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, fmt.Sprintf("passengers_by_%s", d), domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.RegionDemand(ctx, d, f, n)
	})
}

// Breakdown exposes the full breakdown request for callers that need the
// aggregation or order knobs.
func (s *QueryService) Breakdown(ctx context.Context, req analytics.BreakdownRequest) (domain.KPIResult, error) {
	if err := s.check(req.Filter); err != nil {
		return domain.KPIResult{}, err
	}
	n, err := s.limit(req.Limit)
	if err != nil {
		return domain.KPIResult{}, err
	}
	req.Limit = n
	return s.run(ctx, fmt.Sprintf("%s_by_%s", req.Measure, req.Dimension), domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Breakdown(ctx, req)
	})
}

// Monthly returns the chronological series of m.
func (s *QueryService) Monthly(ctx context.Context, m analytics.Measure, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "monthly_"+string(m), domain.KPIKindSeries, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Monthly(ctx, m, f)
	})
}

// Distinct counts an entity over the union of its columns.
func (s *QueryService) Distinct(ctx context.Context, ent analytics.Entity, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "distinct_"+string(ent), domain.KPIKindScalar, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Distinct(ctx, ent, f)
	})
}

// CompanyEfficiency builds the per-airline efficiency table.
func (s *QueryService) CompanyEfficiency(ctx context.Context, f domain.Filter, sortBy analytics.Measure, order analytics.Order, limit int) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	n, err := s.limit(limit)
	if err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "company_efficiency", domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.CompanyEfficiency(ctx, f, sortBy, order, n)
	})
}

// ConsumptionStats describes each airline's monthly fuel per km.
func (s *QueryService) ConsumptionStats(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "consumption_stats", domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.ConsumptionStats(ctx, f)
	})
}

// Countries lists every country on either side of a route.
func (s *QueryService) Countries(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	if err := s.check(f); err != nil {
		return domain.KPIResult{}, err
	}
	return s.run(ctx, "countries", domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.Countries(ctx, f)
	})
}

// AirportsByCountry lists the airports of one country.
func (s *QueryService) AirportsByCountry(ctx context.Context, country string) (domain.KPIResult, error) {
	if strings.TrimSpace(country) == "" {
		return domain.KPIResult{}, apierrors.NewAppValidationError("country is required")
	}
	return s.run(ctx, "airports", domain.KPIKindTable, func(ctx context.Context) (domain.KPIResult, error) {
		return s.engine.AirportsByCountry(ctx, country)
	})
}

// FlightsAt lists the records touching an airport. A store failure yields
// an empty list.
func (s *QueryService) FlightsAt(ctx context.Context, code string, f domain.Filter, limit int) ([]domain.FlightRecord, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apierrors.NewAppValidationError("airport code is required")
	}
	if err := s.check(f); err != nil {
		return nil, err
	}
	n, err := s.limit(limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := s.engine.FlightsAt(ctx, code, f, n)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.ErrorContext(ctx, "flight listing failed",
			slog.String("airport", code),
			slog.String("error", err.Error()))
		records = nil
	}
	infrastructure.RecordKPIMetrics(ctx, s.metrics, "flights_at_airport", time.Since(start), len(records) == 0)
	if records == nil {
		records = []domain.FlightRecord{}
	}
	return records, nil
}

// Dashboard computes the headline KPIs concurrently. Call-out rankings use
// the shorter dashboard limit.
func (s *QueryService) Dashboard(ctx context.Context, f domain.Filter) (*Dashboard, error) {
	if err := s.check(f); err != nil {
		return nil, err
	}

	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	scalar := func(dst *domain.KPIResult, m analytics.Measure) {
		g.Go(func() error {
			r, err := s.Scalar(gctx, m, f)
			*dst = r
			return err
		})
	}
	breakdown := func(dst *domain.KPIResult, req analytics.BreakdownRequest) {
		req.Filter = f
		g.Go(func() error {
			r, err := s.Breakdown(gctx, req)
			*dst = r
			return err
		})
	}

	g.Go(func() error {
		r, err := s.Totals(gctx, f)
		d.Totals = r
		return err
	})
	scalar(&d.Occupancy, analytics.MeasureOccupancy)
	scalar(&d.FuelPerKm, analytics.MeasureFuelPerKm)
	scalar(&d.PassengersPerLiter, analytics.MeasurePassengersPerLiter)
	breakdown(&d.TopCompanies, analytics.BreakdownRequest{
		Dimension: analytics.DimCompany, Measure: analytics.MeasurePassengers, Limit: analytics.DefaultDashboardLimit,
	})
	breakdown(&d.TopDestinations, analytics.BreakdownRequest{
		Dimension: analytics.DimDestinationAirport, Measure: analytics.MeasurePassengers, Limit: analytics.DefaultDashboardLimit,
	})
	breakdown(&d.MostFlights, analytics.BreakdownRequest{
		Dimension: analytics.DimCompany, Measure: analytics.MeasureFlights, Limit: 1,
	})
	breakdown(&d.NatureShare, analytics.BreakdownRequest{
		Dimension: analytics.DimNature, Measure: analytics.MeasurePassengers, Limit: analytics.DefaultLimit,
	})
	g.Go(func() error {
		r, err := s.Monthly(gctx, analytics.MeasurePassengers, f)
		d.MonthlyPassengers = r
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// run executes one engine call. Unknown measures, dimensions and entities
// become validation errors, cancellation is returned as is, and any other
// failure is logged and reported as NoData.
func (s *QueryService) run(ctx context.Context, name string, kind domain.KPIKind, fn func(context.Context) (domain.KPIResult, error)) (domain.KPIResult, error) {
	start := time.Now()
	result, err := fn(ctx)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrUnknownMeasure),
			errors.Is(err, analytics.ErrUnknownDimension),
			errors.Is(err, analytics.ErrUnknownEntity):
			return domain.KPIResult{}, apierrors.NewAppError(apierrors.ErrTypeValidation, "invalid query", err)
		case ctx.Err() != nil:
			return domain.KPIResult{}, ctx.Err()
		}

		s.logger.ErrorContext(ctx, "KPI query failed",
			slog.String("kpi", name),
			slog.String("error", err.Error()))
		result = domain.NoDataResult(name, kind, ReasonQueryFailed)
	}

	if result.NoData {
		s.logger.DebugContext(ctx, "KPI has no data",
			slog.String("kpi", name),
			slog.String("reason", result.Reason))
	}
	infrastructure.RecordKPIMetrics(ctx, s.metrics, name, time.Since(start), result.NoData)
	return result, nil
}

// check validates a request or filter struct.
func (s *QueryService) check(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return apierrors.NewAppValidationError(err.Error())
	}

	details := make([]apierrors.ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		details = append(details, apierrors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("failed %s validation", fe.Tag()),
		})
	}
	return apierrors.NewValidationErrors(details)
}

// limit applies the default and rejects values outside 1..MaxLimit.
func (s *QueryService) limit(n int) (int, error) {
	switch {
	case n == 0:
		return s.opts.DefaultLimit, nil
	case n < 0 || n > s.opts.MaxLimit:
		return 0, apierrors.ErrValidation("limit", fmt.Sprintf("limit must be between 1 and %d", s.opts.MaxLimit))
	}
	return n, nil
}
