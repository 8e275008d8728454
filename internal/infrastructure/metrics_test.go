package infrastructure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestBusinessMetricsExported(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), NewLogger(io.Discard, "info"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordIngestionMetrics(ctx, metrics, "success", 3, 1, 20*time.Millisecond, 50*time.Millisecond)
	RecordKPIMetrics(ctx, metrics, "passengers", 2*time.Millisecond, false)
	RecordKPIMetrics(ctx, metrics, "occupancy_rate", time.Millisecond, true)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, "ingestion_runs_total")
	assert.Contains(t, out, "ingestion_rows_dropped_total")
	assert.Contains(t, out, "snapshot_rows")
	assert.Contains(t, out, "kpi_queries_total")
	assert.Contains(t, out, `kpi="occupancy_rate"`)
}

func TestBusinessMetricsOnNoopMeter(t *testing.T) {
	metrics, err := CreateBusinessMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	assert.NotNil(t, metrics.HTTPActiveRequests)
	assert.NotNil(t, metrics.SnapshotRows)
}

func TestRecordMetricsNil(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordIngestionMetrics(context.Background(), nil, "failure", 0, 0, 0, 0)
		RecordKPIMetrics(context.Background(), nil, "x", 0, true)
	})
}
