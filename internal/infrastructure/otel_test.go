package infrastructure

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitializeOTelDefaults(t *testing.T) {
	providers, err := InitializeOTel(nil, NewLogger(io.Discard, "info"))
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestInitializeOTelExporters(t *testing.T) {
	tests := []struct {
		name    string
		config  *OTelConfig
		wantErr string
	}{
		{name: "stdout tracing", config: &OTelConfig{
			ServiceName: "test", TraceExporter: ExporterStdout, MetricExporter: ExporterPrometheus,
			EnableMetrics: true, EnableTracing: true, SampleRatio: 1.0,
		}},
		{name: "everything off", config: &OTelConfig{
			ServiceName: "test", TraceExporter: ExporterNone, MetricExporter: ExporterNone,
		}},
		{name: "unknown metric exporter", config: &OTelConfig{
			ServiceName: "test", MetricExporter: "statsd", EnableMetrics: true,
		}, wantErr: "statsd"},
		{name: "unknown trace exporter", config: &OTelConfig{
			ServiceName: "test", TraceExporter: "jaeger", EnableTracing: true,
		}, wantErr: "jaeger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.config, NewLogger(io.Discard, "info"))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, providers.Meter)
			assert.NotNil(t, providers.Tracer)
			assert.NoError(t, providers.Shutdown(context.Background()))
		})
	}
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "ingest")
	RecordError(ctx, errors.New("header rejected"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "header rejected", ended[0].Status().Description)
	require.NotEmpty(t, ended[0].Events())
	assert.Equal(t, "exception", ended[0].Events()[0].Name)

	assert.NotPanics(t, func() { RecordError(context.Background(), errors.New("no span")) })
}
