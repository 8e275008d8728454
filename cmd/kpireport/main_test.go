package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flightstats/internal/exporter"
	"flightstats/internal/shared/testutil"
	"flightstats/internal/storage"
)

func seedDB(t *testing.T) (db, out string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FLIGHTSTATS_PATHS_BASE_DIR", dir)
	t.Setenv("FLIGHTSTATS_LOGGING_LEVEL", "error")

	db = filepath.Join(dir, "flights.db")
	store, err := storage.Open(context.Background(), storage.Options{Path: db}, nil)
	require.NoError(t, err)
	defer store.Close()
	_, err = storage.NewLoader(store, 0, nil).Replace(context.Background(), testutil.ScenarioFlights())
	require.NoError(t, err)

	return db, filepath.Join(dir, "out")
}

func outputLines(s string) []string {
	return strings.Fields(strings.TrimSpace(s))
}

func TestRun_SelectedReports(t *testing.T) {
	db, out := seedDB(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-db", db, "-out", out, "-report", "companies, monthly", "-year", "2025"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	paths := outputLines(stdout.String())
	require.Len(t, paths, 2)
	for _, p := range paths {
		assert.Equal(t, out, filepath.Dir(p))
		assert.Equal(t, ".csv", filepath.Ext(p))
	}

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAA")
}

func TestRun_AllAsWorkbooks(t *testing.T) {
	db, out := seedDB(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-db", db, "-out", out, "-format", "xlsx"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	paths := outputLines(stdout.String())
	assert.Len(t, paths, len(exporter.Reports()))

	f, err := excelize.OpenFile(paths[0])
	require.NoError(t, err)
	defer f.Close()
	assert.NotEmpty(t, f.GetSheetList())
}

func TestRun_AllAsCSVSkipsDashboard(t *testing.T) {
	db, out := seedDB(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-db", db, "-out", out, "-format", "csv"}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	for _, p := range outputLines(stdout.String()) {
		assert.NotContains(t, filepath.Base(p), exporter.ReportDashboard)
	}
	assert.Len(t, outputLines(stdout.String()), len(exporter.Reports())-1)
}

func TestRun_UsageErrors(t *testing.T) {
	db, out := seedDB(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"unknown report", []string{"-db", db, "-out", out, "-report", "weather"}, 2},
		{"dashboard as csv", []string{"-db", db, "-out", out, "-report", "dashboard"}, 2},
		{"unknown format", []string{"-db", db, "-out", out, "-format", "pdf"}, 2},
		{"empty selection", []string{"-db", db, "-out", out, "-report", ","}, 2},
		{"invalid filter", []string{"-db", db, "-out", out, "-report", "companies", "-month", "13"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.code, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}
