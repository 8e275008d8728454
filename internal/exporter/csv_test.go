package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightstats/internal/config"
)

func TestCSVWriterCreate(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(&config.Paths{ReportsDir: filepath.Join(dir, "reports")}, nil)

	file, path, err := writer.Create("summary/kpis.csv")
	require.NoError(t, err)
	require.NoError(t, Write(file, WriteOptions{
		Headers:   []string{"kpi", "value"},
		Records:   [][]string{{"passengers", "185"}, {"note", "a,b"}},
		BOMPrefix: true,
	}))
	require.NoError(t, file.Close())
	assert.Equal(t, filepath.Join(dir, "reports", "summary", "kpis.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Equal(t, "kpi,value\npassengers,185\nnote,\"a,b\"\n", string(data[len(utf8BOM):]))
}

func TestCSVWriterCreateAbsolutePath(t *testing.T) {
	writer := NewCSVWriter(&config.Paths{ReportsDir: "unused"}, nil)
	target := filepath.Join(t.TempDir(), "out.csv")

	file, path, err := writer.Create(target)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, target, path)
}

func TestWriteTableCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteTableCSV(&buf, Table{
		Headers: []string{"key", "value"},
		Rows:    [][]interface{}{{"AAA", float64(165)}, {"BBB", 0.125}},
	})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(buf.Bytes(), utf8BOM))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"key", "value"}, {"AAA", "165"}, {"BBB", "0.125"}}, records)
}

func TestStreamWriter(t *testing.T) {
	var buf bytes.Buffer

	sw, err := NewStreamWriter(&buf, []string{"a", "b"}, ';')
	require.NoError(t, err)
	for _, rec := range [][]string{{"1", "2"}, {"3", "4"}} {
		require.NoError(t, sw.WriteRecord(rec))
	}
	require.NoError(t, sw.Close())

	assert.Equal(t, "a;b\n1;2\n3;4\n", buf.String())
}
