package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "flightstats/internal/errors"
	"flightstats/internal/exporter"
	"flightstats/internal/middleware"
	api "flightstats/pkg/contracts/api/v1"
)

// ExportHandler serves KPI reports and the canonical rows as downloads.
type ExportHandler struct {
	exporter     ReportExporter
	params       *paramParser
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewExportHandler creates a new export handler
func NewExportHandler(exp ReportExporter, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	logger = logger.With(slog.String("component", "export_handler"))
	return &ExportHandler{
		exporter:     exp,
		params:       newParamParser(logger, errorHandler, 0),
		logger:       logger,
		errorHandler: errorHandler,
	}
}

// Routes returns the export routes
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListReports)
	r.Get("/{file}", h.Download)
	return r
}

// ListReports handles GET /export
func (h *ExportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	reports := exporter.Reports()
	render.JSON(w, r, api.NewListResponse(reports, len(reports)))
}

// Download handles GET /export/{report}.{csv|xlsx}. The body is rendered in
// memory first so that failures still produce a problem response.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	ext := path.Ext(file)
	report := strings.TrimSuffix(file, ext)
	if ext == "" || report == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "expected <report>.csv or <report>.xlsx"))
		return
	}

	format, err := exporter.ParseFormat(ext)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format", err.Error()))
		return
	}

	f, ok := h.params.filter(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Export(r.Context(), &buf, report, format, f); err != nil {
		h.errorHandler.HandleError(w, r, exportError(report, err))
		return
	}

	h.logger.InfoContext(r.Context(), "report downloaded",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("report", report),
		slog.String("format", string(format)),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.FileName(report, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func exportError(report string, err error) error {
	switch {
	case errors.Is(err, exporter.ErrUnknownReport):
		return apierrors.UnknownReport(report, exporter.Reports())
	case errors.Is(err, exporter.ErrSingleSheet), errors.Is(err, exporter.ErrUnknownFormat):
		return apierrors.ErrValidation("format", err.Error())
	}
	return err
}
