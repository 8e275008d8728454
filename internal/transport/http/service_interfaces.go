package http

import (
	"context"
	"io"

	"flightstats/internal/analytics"
	"flightstats/internal/exporter"
	"flightstats/internal/services"
	"flightstats/pkg/contracts/domain"
)

// QueryFacade is the read side the KPI handlers depend on.
type QueryFacade interface {
	Query(ctx context.Context, req services.QueryRequest) (domain.KPIResult, error)
	Scalar(ctx context.Context, m analytics.Measure, f domain.Filter) (domain.KPIResult, error)
	CompanyRanking(ctx context.Context, m analytics.Measure, f domain.Filter, limit int, order analytics.Order) (domain.KPIResult, error)
	RegionDemand(ctx context.Context, d analytics.Dimension, f domain.Filter, limit int) (domain.KPIResult, error)
	Monthly(ctx context.Context, m analytics.Measure, f domain.Filter) (domain.KPIResult, error)
	Distinct(ctx context.Context, ent analytics.Entity, f domain.Filter) (domain.KPIResult, error)
	CompanyEfficiency(ctx context.Context, f domain.Filter, sortBy analytics.Measure, order analytics.Order, limit int) (domain.KPIResult, error)
	ConsumptionStats(ctx context.Context, f domain.Filter) (domain.KPIResult, error)
	Countries(ctx context.Context, f domain.Filter) (domain.KPIResult, error)
	AirportsByCountry(ctx context.Context, country string) (domain.KPIResult, error)
	FlightsAt(ctx context.Context, code string, f domain.Filter, limit int) ([]domain.FlightRecord, error)
	Dashboard(ctx context.Context, f domain.Filter) (*services.Dashboard, error)
}

// IngestionRunner triggers re-ingestion and reports its status.
type IngestionRunner interface {
	Ingest(ctx context.Context, path string) (*services.IngestionResult, error)
	Status() services.IngestionStatus
}

// ReportExporter renders downloadable reports.
type ReportExporter interface {
	Export(ctx context.Context, out io.Writer, report string, format exporter.Format, f domain.Filter) error
}

// HealthReporter backs the health endpoints.
type HealthReporter interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
