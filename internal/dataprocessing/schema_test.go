package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "ANO", want: "ANO"},
		{name: "accent", in: "MÊS", want: "MES"},
		{name: "lower case accent", in: "combustível (litros)", want: "COMBUSTIVEL (LITROS)"},
		{name: "bom and spaces", in: "\ufeff  EMPRESA   (SIGLA) ", want: "EMPRESA (SIGLA)"},
		{name: "decomposed accent", in: "PAI\u0301S", want: "PAIS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHeader(tt.in))
		})
	}
}

func TestCanonicalSchemaIsConsistent(t *testing.T) {
	names := make(map[string]bool)
	headers := make(map[string]bool)
	optional := 0

	for _, f := range CanonicalSchema {
		assert.False(t, names[f.Name], "duplicate canonical name %s", f.Name)
		names[f.Name] = true

		h := NormalizeHeader(f.Header)
		assert.False(t, headers[h], "duplicate header %s", f.Header)
		headers[h] = true

		if f.Group == GroupOptionalGeo {
			optional++
			assert.Equal(t, KindText, f.Kind)
		}
	}

	assert.Len(t, CanonicalSchema, 38)
	assert.Equal(t, 4, optional)
}

func TestEveryFieldHasASetter(t *testing.T) {
	for _, f := range CanonicalSchema {
		var ok bool
		switch {
		case f.Group == GroupOptionalGeo:
			_, ok = optionalSetters[f.Name]
		case f.Kind == KindInt:
			_, ok = intSetters[f.Name]
		case f.Kind == KindReal:
			_, ok = realSetters[f.Name]
		default:
			_, ok = textSetters[f.Name]
		}
		assert.True(t, ok, "no setter for %s", f.Name)
	}
}
