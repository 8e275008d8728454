package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReal(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		policy  DecimalPolicy
		want    float64
		wantErr bool
	}{
		{name: "dot decimal", in: "1234.56", policy: DecimalAuto, want: 1234.56},
		{name: "comma decimal", in: "1234,56", policy: DecimalAuto, want: 1234.56},
		{name: "brazilian grouping", in: "1.234.567,89", policy: DecimalAuto, want: 1234567.89},
		{name: "english grouping", in: "1,234,567.89", policy: DecimalAuto, want: 1234567.89},
		{name: "repeated dot is grouping", in: "1.234.567", policy: DecimalAuto, want: 1234567},
		{name: "repeated comma is grouping", in: "1,234,567", policy: DecimalAuto, want: 1234567},
		{name: "comma policy grouping", in: "1.234", policy: DecimalComma, want: 1234},
		{name: "dot policy grouping", in: "1,234", policy: DecimalDot, want: 1234},
		{name: "exponent", in: "1.5e3", policy: DecimalAuto, want: 1500},
		{name: "zero", in: "0", policy: DecimalAuto, want: 0},
		{name: "surrounding spaces", in: "  42 ", policy: DecimalAuto, want: 42},
		{name: "empty", in: "  ", policy: DecimalAuto, wantErr: true},
		{name: "text", in: "abc", policy: DecimalAuto, wantErr: true},
		{name: "negative", in: "-1", policy: DecimalAuto, wantErr: true},
		{name: "nan", in: "NaN", policy: DecimalAuto, wantErr: true},
		{name: "inf", in: "Inf", policy: DecimalAuto, wantErr: true},
		{name: "overflow", in: "1e999", policy: DecimalAuto, wantErr: true},
		{name: "hex float", in: "0x1p3", policy: DecimalAuto, wantErr: true},
		{name: "two decimal marks", in: "1,2,3", policy: DecimalComma, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReal(tt.in, tt.policy)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "integer", in: "150", want: 150},
		{name: "integral decimal", in: "12.0", want: 12},
		{name: "integral comma decimal", in: "12,00", want: 12},
		{name: "grouped", in: "1.234.567", want: 1234567},
		{name: "fractional", in: "12.5", wantErr: true},
		{name: "negative", in: "-3", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "text", in: "n/a", wantErr: true},
		{name: "largest int64", in: "9223372036854775807", want: math.MaxInt64},
		{name: "one past int64", in: "9223372036854775808", wantErr: true},
		{name: "exponent past int64", in: "1e19", wantErr: true},
		{name: "exponent", in: "1e3", want: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.in, DecimalAuto)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
