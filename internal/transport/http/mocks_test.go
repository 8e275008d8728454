package http

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"flightstats/internal/analytics"
	"flightstats/internal/exporter"
	"flightstats/internal/services"
	"flightstats/pkg/contracts/domain"
)

// MockQueryService is a mock implementation of QueryFacade
type MockQueryService struct {
	mock.Mock
}

func (m *MockQueryService) result(args mock.Arguments) (domain.KPIResult, error) {
	return args.Get(0).(domain.KPIResult), args.Error(1)
}

func (m *MockQueryService) Query(ctx context.Context, req services.QueryRequest) (domain.KPIResult, error) {
	return m.result(m.Called(req))
}

func (m *MockQueryService) Scalar(ctx context.Context, measure analytics.Measure, f domain.Filter) (domain.KPIResult, error) {
	return m.result(m.Called(measure, f))
}

func (m *MockQueryService) CompanyRanking(ctx context.Context, measure analytics.Measure, f domain.Filter, limit int, order analytics.Order) (domain.KPIResult, error) {
	return m.result(m.Called(measure, f, limit, order))
}

func (m *MockQueryService) RegionDemand(ctx context.Context, d analytics.Dimension, f domain.Filter, limit int) (domain.KPIResult, error) {
	return m.result(m.Called(d, f, limit))
}

func (m *MockQueryService) Monthly(ctx context.Context, measure analytics.Measure, f domain.Filter) (domain.KPIResult, error) {
	return m.result(m.Called(measure, f))
}

func (m *MockQueryService) Distinct(ctx context.Context, ent analytics.Entity, f domain.Filter) (domain.KPIResult, error) {
	return m.result(m.Called(ent, f))
}

func (m *MockQueryService) CompanyEfficiency(ctx context.Context, f domain.Filter, sortBy analytics.Measure, order analytics.Order, limit int) (domain.KPIResult, error) {
	return m.result(m.Called(f, sortBy, order, limit))
}

func (m *MockQueryService) ConsumptionStats(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	return m.result(m.Called(f))
}

func (m *MockQueryService) Countries(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	return m.result(m.Called(f))
}

func (m *MockQueryService) AirportsByCountry(ctx context.Context, country string) (domain.KPIResult, error) {
	return m.result(m.Called(country))
}

func (m *MockQueryService) FlightsAt(ctx context.Context, code string, f domain.Filter, limit int) ([]domain.FlightRecord, error) {
	args := m.Called(code, f, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FlightRecord), args.Error(1)
}

func (m *MockQueryService) Dashboard(ctx context.Context, f domain.Filter) (*services.Dashboard, error) {
	args := m.Called(f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Dashboard), args.Error(1)
}

// MockIngestionService is a mock implementation of IngestionRunner
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, path string) (*services.IngestionResult, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IngestionResult), args.Error(1)
}

func (m *MockIngestionService) Status() services.IngestionStatus {
	return m.Called().Get(0).(services.IngestionStatus)
}

// MockExporter is a mock implementation of ReportExporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, out io.Writer, report string, format exporter.Format, f domain.Filter) error {
	args := m.Called(report, format, f)
	if body, ok := args.Get(0).(string); ok && body != "" {
		io.WriteString(out, body)
	}
	return args.Error(1)
}
