package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"flightstats/internal/analytics"
	"flightstats/internal/dataprocessing"
	"flightstats/internal/services"
	"flightstats/pkg/contracts/domain"
)

var (
	ErrUnknownReport = errors.New("unknown report")
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrSingleSheet is returned for multi-table reports requested as CSV.
	ErrSingleSheet = errors.New("report has several tables and is only available as xlsx")
)

// Report names accepted by Export.
const (
	ReportTotals       = "totals"
	ReportCompanies    = "companies"
	ReportEfficiency   = "efficiency"
	ReportConsumption  = "consumption"
	ReportMonthly      = "monthly"
	ReportDestinations = "destinations"
	ReportCountries    = "countries"
	ReportDashboard    = "dashboard"
	ReportFlights      = "flights"
)

// Queries is the read side the KPI reports are built from.
type Queries interface {
	Totals(ctx context.Context, f domain.Filter) (domain.KPIResult, error)
	CompanyRanking(ctx context.Context, m analytics.Measure, f domain.Filter, limit int, order analytics.Order) (domain.KPIResult, error)
	RegionDemand(ctx context.Context, d analytics.Dimension, f domain.Filter, limit int) (domain.KPIResult, error)
	Monthly(ctx context.Context, m analytics.Measure, f domain.Filter) (domain.KPIResult, error)
	CompanyEfficiency(ctx context.Context, f domain.Filter, sortBy analytics.Measure, order analytics.Order, limit int) (domain.KPIResult, error)
	ConsumptionStats(ctx context.Context, f domain.Filter) (domain.KPIResult, error)
	Countries(ctx context.Context, f domain.Filter) (domain.KPIResult, error)
	Dashboard(ctx context.Context, f domain.Filter) (*services.Dashboard, error)
}

// RowSource streams the canonical relation.
type RowSource interface {
	Scan(ctx context.Context, fn func(domain.FlightRecord) error) error
}

type tableFunc func(ctx context.Context, q Queries, f domain.Filter) ([]Table, error)

func single(fn func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error)) tableFunc {
	return func(ctx context.Context, q Queries, f domain.Filter) ([]Table, error) {
		r, err := fn(ctx, q, f)
		if err != nil {
			return nil, err
		}
		return []Table{KPITable(r)}, nil
	}
}

var kpiReports = map[string]tableFunc{
	ReportTotals: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.Totals(ctx, f)
	}),
	ReportCompanies: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.CompanyRanking(ctx, analytics.MeasurePassengers, f, 0, analytics.OrderDesc)
	}),
	ReportEfficiency: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.CompanyEfficiency(ctx, f, analytics.MeasureFuelPerKm, analytics.OrderAsc, 0)
	}),
	ReportConsumption: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.ConsumptionStats(ctx, f)
	}),
	ReportMonthly: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.Monthly(ctx, analytics.MeasurePassengers, f)
	}),
	ReportDestinations: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.RegionDemand(ctx, analytics.DimDestinationAirport, f, 0)
	}),
	ReportCountries: single(func(ctx context.Context, q Queries, f domain.Filter) (domain.KPIResult, error) {
		return q.Countries(ctx, f)
	}),
	ReportDashboard: func(ctx context.Context, q Queries, f domain.Filter) ([]Table, error) {
		d, err := q.Dashboard(ctx, f)
		if err != nil {
			return nil, err
		}
		results := []domain.KPIResult{
			d.Totals, d.Occupancy, d.FuelPerKm, d.PassengersPerLiter,
			d.TopCompanies, d.TopDestinations, d.MostFlights, d.NatureShare, d.MonthlyPassengers,
		}
		tables := make([]Table, len(results))
		for i, r := range results {
			tables[i] = KPITable(r)
		}
		return tables, nil
	},
}

// Reports lists every exportable report, sorted.
func Reports() []string {
	names := make([]string, 0, len(kpiReports)+1)
	for name := range kpiReports {
		names = append(names, name)
	}
	names = append(names, ReportFlights)
	sort.Strings(names)
	return names
}

// Exporter renders KPI reports and the canonical rows as CSV or XLSX.
type Exporter struct {
	queries Queries
	rows    RowSource
	csv     *CSVWriter
	decimal dataprocessing.DecimalPolicy
	logger  *slog.Logger
}

// New creates an exporter. csv is only needed by ExportFile.
func New(queries Queries, rows RowSource, csv *CSVWriter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		queries: queries,
		rows:    rows,
		csv:     csv,
		logger:  logger.With(slog.String("component", "exporter")),
	}
}

// WithDecimal sets the decimal mark of the flights CSV export. It should
// match the ingestion policy so an export can be ingested again.
func (e *Exporter) WithDecimal(policy dataprocessing.DecimalPolicy) *Exporter {
	e.decimal = policy
	return e
}

// Tables computes the tables of a KPI report.
func (e *Exporter) Tables(ctx context.Context, report string, f domain.Filter) ([]Table, error) {
	fn, ok := kpiReports[report]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownReport, report)
	}
	return fn(ctx, e.queries, f)
}

// Check reports whether report can be produced in format.
func Check(report string, format Format) error {
	if report == ReportDashboard && format == FormatCSV {
		return ErrSingleSheet
	}
	if _, ok := kpiReports[report]; !ok && report != ReportFlights {
		return fmt.Errorf("%w: %s", ErrUnknownReport, report)
	}
	return nil
}

// Export writes report to out. The flights report ignores the filter and
// dumps the whole relation in the extract layout, so a CSV export can be
// ingested again.
func (e *Exporter) Export(ctx context.Context, out io.Writer, report string, format Format, f domain.Filter) error {
	if err := Check(report, format); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		e.logger.InfoContext(ctx, "Report exported",
			slog.String("report", report),
			slog.String("format", string(format)),
			slog.Duration("duration", time.Since(start)))
	}()

	if report == ReportFlights {
		return e.exportFlights(ctx, out, format)
	}

	tables, err := e.Tables(ctx, report, f)
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return WriteXLSX(out, tables...)
	}
	return WriteTableCSV(out, tables[0])
}

func (e *Exporter) exportFlights(ctx context.Context, out io.Writer, format Format) error {
	header := dataprocessing.ExtractHeader()

	if format == FormatCSV {
		sw, err := NewStreamWriter(out, header, ';')
		if err != nil {
			return err
		}
		if err := e.rows.Scan(ctx, func(r domain.FlightRecord) error {
			return sw.WriteRecord(dataprocessing.ExtractCellsWith(r, e.decimal))
		}); err != nil {
			return fmt.Errorf("failed to export flights: %w", err)
		}
		return sw.Close()
	}

	rs, err := NewRowStream(ReportFlights, header)
	if err != nil {
		return fmt.Errorf("failed to start workbook: %w", err)
	}
	if err := e.rows.Scan(ctx, func(r domain.FlightRecord) error {
		return rs.WriteRow(recordCells(r))
	}); err != nil {
		rs.file.Close()
		return fmt.Errorf("failed to export flights: %w", err)
	}
	_, err = rs.WriteTo(out)
	return err
}

// recordCells is ExtractCells with numbers kept numeric.
func recordCells(r domain.FlightRecord) []interface{} {
	text := dataprocessing.ExtractCells(r)
	cells := make([]interface{}, len(text))
	for i, spec := range dataprocessing.CanonicalSchema {
		switch spec.Kind {
		case dataprocessing.KindInt, dataprocessing.KindReal:
			cells[i] = numericCell(text[i])
		default:
			cells[i] = text[i]
		}
	}
	return cells
}

func numericCell(s string) interface{} {
	v, err := dataprocessing.ParseReal(s, dataprocessing.DecimalDot)
	if err != nil {
		return s
	}
	return v
}

// ExportFile writes report to the reports directory and returns its path.
func (e *Exporter) ExportFile(ctx context.Context, report string, format Format, f domain.Filter) (string, error) {
	if err := Check(report, format); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s.%s", report, time.Now().Format("20060102_150405"), format)
	csvw := e.csv
	if csvw == nil {
		csvw = NewCSVWriter(nil, e.logger)
	}

	file, path, err := csvw.Create(name)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if err := e.Export(ctx, file, report, format, f); err != nil {
		file.Close()
		os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// FileName is the download name of a report.
func FileName(report string, format Format) string {
	return strings.ToLower(report) + "." + string(format)
}
