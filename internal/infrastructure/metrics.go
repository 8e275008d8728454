package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// BusinessMetrics holds the HTTP, ingestion and query instruments.
type BusinessMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	IngestionRuns     metric.Int64Counter
	IngestionDuration metric.Float64Histogram
	RowsRead          metric.Int64Counter
	RowsDropped       metric.Int64Counter
	LoadDuration      metric.Float64Histogram
	SnapshotRows      metric.Int64Gauge

	KPIQueries      metric.Int64Counter
	KPIQueryLatency metric.Float64Histogram
	KPINoData       metric.Int64Counter
}

// instruments registers on one meter and keeps the first error.
type instruments struct {
	meter metric.Meter
	err   error
}

func (in *instruments) counter(name, desc string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc))
	in.keep(err)
	return c
}

func (in *instruments) seconds(name, desc string) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	in.keep(err)
	return h
}

func (in *instruments) keep(err error) {
	if in.err == nil {
		in.err = err
	}
}

// CreateBusinessMetrics registers the application instruments on meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	in := &instruments{meter: meter}
	m := &BusinessMetrics{
		HTTPRequestsTotal:   in.counter("http_requests_total", "HTTP requests by route and status"),
		HTTPRequestDuration: in.seconds("http_request_duration_seconds", "HTTP request duration"),

		IngestionRuns:     in.counter("ingestion_runs_total", "Ingestion runs by outcome"),
		IngestionDuration: in.seconds("ingestion_duration_seconds", "End to end ingestion duration"),
		RowsRead:          in.counter("ingestion_rows_read_total", "Source rows read"),
		RowsDropped:       in.counter("ingestion_rows_dropped_total", "Source rows rejected by the sanitizer"),
		LoadDuration:      in.seconds("store_load_duration_seconds", "Duration of the atomic relation replacement"),

		KPIQueries:      in.counter("kpi_queries_total", "KPI queries by name"),
		KPIQueryLatency: in.seconds("kpi_query_duration_seconds", "KPI query latency"),
		KPINoData:       in.counter("kpi_no_data_total", "KPI queries answered with no data"),
	}

	var err error
	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("In-flight HTTP requests"))
	in.keep(err)
	m.SnapshotRows, err = meter.Int64Gauge("snapshot_rows",
		metric.WithDescription("Rows in the current canonical relation"))
	in.keep(err)

	if in.err != nil {
		return nil, in.err
	}
	return m, nil
}

// RecordIngestionMetrics records the outcome of one ingestion run.
func RecordIngestionMetrics(ctx context.Context, metrics *BusinessMetrics, status string, read, dropped int64, load, total time.Duration) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("status", status))
	metrics.IngestionRuns.Add(ctx, 1, attrs)
	metrics.IngestionDuration.Record(ctx, total.Seconds(), attrs)
	metrics.RowsRead.Add(ctx, read)
	metrics.RowsDropped.Add(ctx, dropped)
	if status == "success" {
		metrics.LoadDuration.Record(ctx, load.Seconds())
		metrics.SnapshotRows.Record(ctx, read-dropped)
	}

	trace.SpanFromContext(ctx).AddEvent("ingestion.recorded", trace.WithAttributes(
		attribute.String("status", status),
		attribute.Int64("rows_read", read),
		attribute.Int64("rows_dropped", dropped),
	))
}

// RecordKPIMetrics records one KPI query.
func RecordKPIMetrics(ctx context.Context, metrics *BusinessMetrics, name string, duration time.Duration, noData bool) {
	if metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("kpi", name))
	metrics.KPIQueries.Add(ctx, 1, attrs)
	metrics.KPIQueryLatency.Record(ctx, duration.Seconds(), attrs)
	if noData {
		metrics.KPINoData.Add(ctx, 1, attrs)
	}
}
