package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightstats/internal/config"
	"flightstats/internal/infrastructure"
	"flightstats/internal/shared/testutil"
	"flightstats/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("FLIGHTSTATS_PATHS_BASE_DIR", t.TempDir())
	t.Setenv("FLIGHTSTATS_LOGGING_OUTPUT", "console")
	t.Setenv("FLIGHTSTATS_LOGGING_LEVEL", "error")
	t.Setenv("FLIGHTSTATS_INGESTION_ENCODING", "utf-8")
	t.Setenv("FLIGHTSTATS_INGESTION_DELIMITER", ";")

	cfg, err := config.LoadFrom("")
	require.NoError(t, err)
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	infrastructure.ResetLoggerForTesting()

	a, err := NewApplication(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.Services.DB.Close()
		a.OTelProviders.Shutdown(context.Background())
		infrastructure.ResetLoggerForTesting()
	})
	return a
}

func do(a *Application, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewApplication(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApplication(t, cfg)

	require.NotNil(t, a.Services)
	assert.NotNil(t, a.Services.DB)
	assert.NotNil(t, a.Services.Ingestion)
	assert.NotNil(t, a.Services.Query)
	assert.NotNil(t, a.Services.Health)
	assert.NotNil(t, a.Services.Exporter)
	assert.NotNil(t, a.Services.WebSocket)
	assert.NotNil(t, a.Metrics)

	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, config.DefaultDatabaseFile), a.Services.DB.Path())
	assert.FileExists(t, a.Services.DB.Path())
	assert.DirExists(t, a.Paths.ReportsDir)

	assert.Equal(t, fmt.Sprintf(":%d", cfg.Server.Port), a.Server.Addr)
	assert.Equal(t, cfg.Server.MaxHeaderBytes, a.Server.MaxHeaderBytes)
	assert.Equal(t, a.Router, a.Server.Handler)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApplication(t, testConfig(t))

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{"health", http.MethodGet, "/api/v1/health", http.StatusOK, `"status":"ok"`},
		{"ready without snapshot", http.MethodGet, "/api/v1/health/ready", http.StatusOK, "no snapshot loaded"},
		{"live", http.MethodGet, "/api/v1/health/live", http.StatusOK, `"status":"alive"`},
		{"version", http.MethodGet, "/api/v1/version", http.StatusOK, `"api_version"`},
		{"kpi before any load", http.MethodGet, "/api/v1/kpi/passengers", http.StatusOK, `"no_data":true`},
		{"trailing slash", http.MethodGet, "/api/v1/kpi/passengers/", http.StatusOK, `"no_data":true`},
		{"unknown measure", http.MethodGet, "/api/v1/kpi/bogus", http.StatusBadRequest, ""},
		{"ingestion status", http.MethodGet, "/api/v1/ingestion/status", http.StatusOK, `"running":false`},
		{"export list", http.MethodGet, "/api/v1/export", http.StatusOK, `"companies"`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, ""},
		{"unknown route", http.MethodGet, "/api/v1/nope", http.StatusNotFound, `"status":404`},
		{"wrong method", http.MethodDelete, "/api/v1/health", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(a, tt.method, tt.path, "")

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			if tt.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tt.expectedBody)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_IngestThenQuery(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApplication(t, cfg)
	extract := testutil.WriteExtract(t, t.TempDir(), "resumo_anual_2025.csv", testutil.ScenarioFlights())

	rec := do(a, http.MethodPost, "/api/v1/ingestion", fmt.Sprintf(`{"path":%q}`, extract))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(a, http.MethodGet, "/api/v1/kpi/passengers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data domain.KPIResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(t, env.Data.NoData)
	assert.InDelta(t, 165, env.Data.Value, 1e-9)

	rec = do(a, http.MethodGet, "/api/v1/export/companies.csv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "AAA")

	snapshot, ok := a.Services.Ingestion.Snapshot()
	require.True(t, ok)
	assert.Equal(t, filepath.Base(extract), snapshot.Source)
}

func TestApplication_IngestSchemaMismatch(t *testing.T) {
	a := newTestApplication(t, testConfig(t))
	bad := testutil.WriteFile(t, t.TempDir(), "bad.csv", "EMPRESA (SIGLA);ANO\nAAA;2025\n")

	rec := do(a, http.MethodPost, "/api/v1/ingestion", fmt.Sprintf(`{"path":%q}`, bad))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"missing"`)
	_, ok := a.Services.Ingestion.Snapshot()
	assert.False(t, ok)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Port = freePort(t)
	cfg.Ingestion.LoadOnStart = true
	cfg.Ingestion.SourcePath = testutil.WriteExtract(t, t.TempDir(), "resumo.csv", testutil.ScenarioFlights())

	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)
	a, err := NewApplication(context.Background(), cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx, cancel))

	url := fmt.Sprintf("http://127.0.0.1:%d/api/v1/health", cfg.Server.Port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := a.Services.Ingestion.Snapshot()
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, a.Stop(context.Background()))
	assert.Error(t, a.Services.DB.Ping(context.Background()))
}

func TestApplication_RestoresSnapshotOnStart(t *testing.T) {
	cfg := testConfig(t)
	first := newTestApplication(t, cfg)
	extract := testutil.WriteExtract(t, t.TempDir(), "resumo.csv", testutil.ScenarioFlights())
	_, err := first.Services.Ingestion.Ingest(context.Background(), extract)
	require.NoError(t, err)
	require.NoError(t, first.Services.DB.Close())

	cfg.Server.Port = freePort(t)
	second := newTestApplication(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, second.Start(ctx, cancel))
	t.Cleanup(func() { second.Stop(context.Background()) })

	snapshot, ok := second.Services.Ingestion.Snapshot()
	require.True(t, ok)
	assert.Positive(t, snapshot.RetainedRows)
}

func TestApplication_getCORSConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.AllowedOrigins = []string{"https://dashboard.example"}
	a := newTestApplication(t, cfg)

	cors := a.getCORSConfig()

	assert.Contains(t, cors.AllowedOrigins, fmt.Sprintf("http://localhost:%d", cfg.Server.Port))
	assert.Contains(t, cors.AllowedOrigins, "https://dashboard.example")
	assert.Contains(t, cors.ExposedHeaders, "Content-Disposition")
	assert.ElementsMatch(t, []string{"GET", "POST", "OPTIONS"}, cors.AllowedMethods)
}

func TestApplication_performStartupHealthCheck(t *testing.T) {
	t.Run("passes with writable directories", func(t *testing.T) {
		a := newTestApplication(t, testConfig(t))
		assert.NoError(t, a.performStartupHealthCheck(context.Background()))
	})

	t.Run("warns about a missing source", func(t *testing.T) {
		a := newTestApplication(t, testConfig(t))
		a.Paths.SourceFile = filepath.Join(t.TempDir(), "missing.csv")

		err := a.performStartupHealthCheck(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing.csv")
	})
}
