package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"flightstats/internal/dataprocessing"
	"flightstats/pkg/contracts/domain"
)

// ExtractOptions matches the files written by WriteExtract.
var ExtractOptions = dataprocessing.ReaderOptions{Delimiter: ";", Encoding: "utf-8"}

// WriteExtract writes records as a semicolon separated UTF-8 extract in dir
// and returns its path.
func WriteExtract(t *testing.T, dir, name string, records []domain.FlightRecord) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(strings.Join(dataprocessing.ExtractHeader(), ";"))
	b.WriteString("\n")
	for _, r := range records {
		b.WriteString(strings.Join(dataprocessing.ExtractCells(r), ";"))
		b.WriteString("\n")
	}
	return WriteFile(t, dir, name, b.String())
}

// WriteFile writes raw content, for malformed extracts.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
