package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"flightstats/internal/analytics"
	apierrors "flightstats/internal/errors"
	"flightstats/internal/middleware"
	"flightstats/internal/services"
	api "flightstats/pkg/contracts/api/v1"
	"flightstats/pkg/contracts/domain"
)

// KPIHandler serves the read-only KPI endpoints of the query façade.
type KPIHandler struct {
	service      QueryFacade
	params       *paramParser
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewKPIHandler creates a KPI handler. maxLimit bounds the limit parameter.
func NewKPIHandler(service QueryFacade, maxLimit int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *KPIHandler {
	logger = logger.With(slog.String("component", "kpi_handler"))
	return &KPIHandler{
		service:      service,
		params:       newParamParser(logger, errorHandler, maxLimit),
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// RegisterRoutes mounts the KPI endpoints on r.
func (h *KPIHandler) RegisterRoutes(r chi.Router) {
	r.Get("/kpi/{measure}", h.GetScalar)
	r.Get("/rankings/companies/{measure}", h.GetCompanyRanking)
	r.Get("/rankings/regions/{dimension}", h.GetRegionDemand)
	r.Get("/series/{measure}", h.GetSeries)
	r.Get("/counts/{entity}", h.GetCount)

	r.Route("/efficiency/companies", func(r chi.Router) {
		r.Get("/", h.GetCompanyEfficiency)
		r.Get("/stats", h.GetConsumptionStats)
	})

	r.Route("/airports", func(r chi.Router) {
		r.Get("/", h.GetAirports)
		r.Get("/countries", h.GetCountries)
		r.With(h.AirportCtx).Get("/{code}/flights", h.GetFlights)
	})

	r.With(h.validation.RequireContentType("application/json"), h.validation.ValidateRequest).Post("/query", h.PostQuery)
	r.Get("/dashboard", h.GetDashboard)
}

// AirportCtx rejects airport codes that are not ICAO codes.
func (h *KPIHandler) AirportCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimSpace(chi.URLParam(r, "code"))
		if err := h.validation.ValidateVar("code", code, "required,airportcode"); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetScalar handles GET /kpi/{measure}
func (h *KPIHandler) GetScalar(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	result, err := h.service.Scalar(r.Context(), analytics.Measure(chi.URLParam(r, "measure")), f)
	h.respond(w, r, result, err)
}

// GetCompanyRanking handles GET /rankings/companies/{measure}
func (h *KPIHandler) GetCompanyRanking(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	limit, ok := h.params.limit(w, r)
	if !ok {
		return
	}
	order, ok := h.params.order(w, r, "")
	if !ok {
		return
	}

	result, err := h.service.CompanyRanking(r.Context(),
		analytics.Measure(chi.URLParam(r, "measure")), f, limit, analytics.Order(order))
	h.respond(w, r, result, err)
}

// GetRegionDemand handles GET /rankings/regions/{dimension}
func (h *KPIHandler) GetRegionDemand(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	limit, ok := h.params.limit(w, r)
	if !ok {
		return
	}

	result, err := h.service.RegionDemand(r.Context(), analytics.Dimension(chi.URLParam(r, "dimension")), f, limit)
	h.respond(w, r, result, err)
}

// GetSeries handles GET /series/{measure}
func (h *KPIHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	result, err := h.service.Monthly(r.Context(), analytics.Measure(chi.URLParam(r, "measure")), f)
	h.respond(w, r, result, err)
}

// GetCount handles GET /counts/{entity}
func (h *KPIHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	result, err := h.service.Distinct(r.Context(), analytics.Entity(chi.URLParam(r, "entity")), f)
	h.respond(w, r, result, err)
}

// GetCompanyEfficiency handles GET /efficiency/companies
func (h *KPIHandler) GetCompanyEfficiency(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	limit, ok := h.params.limit(w, r)
	if !ok {
		return
	}
	order, ok := h.params.order(w, r, "")
	if !ok {
		return
	}

	sortBy := analytics.Measure(r.URL.Query().Get("sort"))
	result, err := h.service.CompanyEfficiency(r.Context(), f, sortBy, analytics.Order(order), limit)
	h.respond(w, r, result, err)
}

// GetConsumptionStats handles GET /efficiency/companies/stats
func (h *KPIHandler) GetConsumptionStats(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	result, err := h.service.ConsumptionStats(r.Context(), f)
	h.respond(w, r, result, err)
}

// GetAirports handles GET /airports?country=
func (h *KPIHandler) GetAirports(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.AirportsByCountry(r.Context(), r.URL.Query().Get("country"))
	h.respond(w, r, result, err)
}

// GetCountries handles GET /airports/countries
func (h *KPIHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	result, err := h.service.Countries(r.Context(), f)
	h.respond(w, r, result, err)
}

// GetFlights handles GET /airports/{code}/flights
func (h *KPIHandler) GetFlights(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}
	limit, ok := h.params.limit(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	records, err := h.service.FlightsAt(r.Context(), code, f, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "flights listed",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("airport", code),
		slog.Int("count", len(records)))
	render.JSON(w, r, api.NewListResponse(records, len(records)))
}

// PostQuery handles POST /query
func (h *KPIHandler) PostQuery(w http.ResponseWriter, r *http.Request) {
	var req services.QueryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	result, err := h.service.Query(r.Context(), req)
	h.respond(w, r, result, err)
}

// GetDashboard handles GET /dashboard
func (h *KPIHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}

	d, err := h.service.Dashboard(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewDataResponse(d))
}

func (h *KPIHandler) respond(w http.ResponseWriter, r *http.Request, result domain.KPIResult, err error) {
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "KPI served",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("kpi", result.Name),
		slog.Bool("no_data", result.NoData))
	render.JSON(w, r, api.NewDataResponse(result))
}
