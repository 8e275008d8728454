package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSanitizer(t *testing.T, withGeo bool) *Sanitizer {
	t.Helper()
	mapper, err := NewMapper(nil, nil)
	require.NoError(t, err)
	fm, err := mapper.Resolve(sourceHeader(withGeo))
	require.NoError(t, err)
	return NewSanitizer(fm, DecimalAuto)
}

func TestSanitizeValidRow(t *testing.T) {
	s := newTestSanitizer(t, true)

	rec, rej := s.Sanitize(2, rowFor(true, validCells()))
	require.Nil(t, rej)

	assert.Equal(t, "AAA", rec.AirlineCode)
	assert.Equal(t, 2025, rec.Year)
	assert.Equal(t, 1, rec.Month)
	assert.Equal(t, "BRASIL", rec.Destination.Country)
	assert.Equal(t, int64(110), rec.Passengers())
	assert.Equal(t, 1500.5, rec.PaidCargoKg)
	assert.Equal(t, 12.25, rec.MailKg)
	assert.Equal(t, 5.5, rec.FlightHours)
	require.NotNil(t, rec.Origin.State)
	assert.Equal(t, "SP", *rec.Origin.State)
}

func TestSanitizeRejections(t *testing.T) {
	tests := []struct {
		name     string
		override map[string]string
		columns  []string
	}{
		{name: "missing destination country", override: map[string]string{ColDestCountry: ""}, columns: []string{ColDestCountry}},
		{name: "whitespace only text", override: map[string]string{ColAirlineName: "   "}, columns: []string{ColAirlineName}},
		{name: "non numeric integer", override: map[string]string{ColTakeoffs: "x"}, columns: []string{ColTakeoffs}},
		{name: "fractional passengers", override: map[string]string{ColPaidPassengers: "10.5"}, columns: []string{ColPaidPassengers}},
		{name: "negative fuel", override: map[string]string{ColFuelLiters: "-10"}, columns: []string{ColFuelLiters}},
		{name: "month out of range", override: map[string]string{ColMonth: "13"}, columns: []string{ColMonth}},
		{name: "month zero", override: map[string]string{ColMonth: "0"}, columns: []string{ColMonth}},
		{name: "year zero", override: map[string]string{ColYear: "0"}, columns: []string{ColYear}},
		{name: "rpk above ask", override: map[string]string{ColASK: "100", ColRPK: "250"}, columns: []string{ColRPK}},
		{name: "rpk without ask", override: map[string]string{ColASK: "0"}, columns: []string{ColRPK}},
		{name: "passenger count overflow", override: map[string]string{ColPaidPassengers: "9223372036854775808"}, columns: []string{ColPaidPassengers}},
		{
			name:     "several bad columns",
			override: map[string]string{ColASK: "", ColRPK: "?"},
			columns:  []string{ColASK, ColRPK},
		},
	}

	s := newTestSanitizer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, rej := s.Sanitize(7, rowFor(true, with(tt.override)))
			require.NotNil(t, rej)
			assert.Equal(t, 7, rej.Line)
			assert.Equal(t, tt.columns, rej.Columns)
			assert.NotEmpty(t, rej.Reason)
		})
	}
}

func TestSanitizeShortRowIsRejected(t *testing.T) {
	s := newTestSanitizer(t, true)
	cells := rowFor(true, validCells())

	_, rej := s.Sanitize(3, cells[:10])
	require.NotNil(t, rej)
	assert.Contains(t, rej.Columns, ColBaggageKg)
}

func TestSanitizeOptionalGeo(t *testing.T) {
	t.Run("empty optional values become nil", func(t *testing.T) {
		s := newTestSanitizer(t, true)
		rec, rej := s.Sanitize(2, rowFor(true, with(map[string]string{ColOriginState: "", ColDestRegion: " "})))
		require.Nil(t, rej)
		assert.Nil(t, rec.Origin.State)
		assert.Nil(t, rec.Destination.Region)
		require.NotNil(t, rec.Destination.State)
	})

	t.Run("absent group", func(t *testing.T) {
		s := newTestSanitizer(t, false)
		rec, rej := s.Sanitize(2, rowFor(false, validCells()))
		require.Nil(t, rej)
		assert.Nil(t, rec.Origin.State)
		assert.Nil(t, rec.Origin.Region)
		assert.Nil(t, rec.Destination.State)
		assert.Nil(t, rec.Destination.Region)
	})
}
