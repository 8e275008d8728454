package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "flightstats/internal/errors"
	"flightstats/internal/middleware"
	"flightstats/internal/services"
	api "flightstats/pkg/contracts/api/v1"
)

// IngestionHandler triggers re-ingestion and reports its status.
type IngestionHandler struct {
	service      IngestionRunner
	validation   *middleware.ValidationMiddleware
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewIngestionHandler creates a new ingestion handler
func NewIngestionHandler(service IngestionRunner, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *IngestionHandler {
	return &IngestionHandler{
		service:      service,
		validation:   middleware.NewValidationMiddleware(logger, errorHandler),
		logger:       logger.With(slog.String("component", "ingestion_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the ingestion routes
func (h *IngestionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(h.validation.ValidateRequest).Post("/", h.Trigger)
	r.Get("/status", h.Status)
	return r
}

// Trigger handles POST /ingestion. The run is synchronous; a concurrent
// trigger gets 409 and a header mismatch 422, both leaving the visible
// snapshot in place.
func (h *IngestionHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var req api.IngestionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "re-ingestion requested",
		slog.String("request_id", reqID),
		slog.String("path", req.Path))

	result, err := h.service.Ingest(r.Context(), req.Path)
	if err != nil {
		if services.IsSchemaMismatch(err) {
			h.logger.WarnContext(r.Context(), "extract rejected",
				slog.String("request_id", reqID),
				slog.String("error", err.Error()))
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, api.NewDataResponse(result))
}

// Status handles GET /ingestion/status
func (h *IngestionHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.service.Status()
	resp := api.IngestionStatusResponse{
		Running:   st.Running,
		Snapshot:  st.Snapshot,
		LastRunAt: st.LastRunAt,
		LastError: st.LastError,
	}
	if st.LastReport != nil {
		resp.LastReport = st.LastReport
	}
	render.JSON(w, r, api.NewDataResponse(resp))
}
