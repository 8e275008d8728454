package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{name: "zero value", input: 0.0, expected: "0"},
		{name: "positive integer", input: 123.0, expected: "123"},
		{name: "decimal with trailing zeros", input: 123.456000, expected: "123.456"},
		{name: "small decimal", input: 0.001234, expected: "0.001234"},
		{name: "rounded to six places", input: 4000.0 / 700, expected: "5.714286"},
		{name: "large number", input: 1234567.890123, expected: "1234567.890123"},
		{name: "not a number", input: math.NaN(), expected: "0"},
		{name: "infinity", input: math.Inf(1), expected: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestCellString(t *testing.T) {
	assert.Equal(t, "", cellString(nil))
	assert.Equal(t, "AAA", cellString("AAA"))
	assert.Equal(t, "42", cellString(int64(42)))
	assert.Equal(t, "7", cellString(7))
	assert.Equal(t, "0.5", cellString(0.5))
	assert.Equal(t, "true", cellString(true))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("CSV")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(".xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
