package analytics

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightstats/internal/shared/testutil"
	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

func newTestEngine(t *testing.T, records []domain.FlightRecord) *Engine {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	db, err := storage.Open(context.Background(), storage.Options{Path: filepath.Join(t.TempDir(), "flights.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	if records != nil {
		_, err := storage.NewLoader(db, 2, logger).Replace(context.Background(), records)
		require.NoError(t, err)
	}
	return NewEngine(db.SQL(), logger, true)
}

func TestScalar(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())
	ctx := context.Background()

	tests := []struct {
		name    string
		measure Measure
		filter  domain.Filter
		want    float64
	}{
		{name: "total passengers", measure: MeasurePassengers, want: 185},
		{name: "paid passengers", measure: MeasurePaidPassengers, want: 170},
		{name: "company by name", measure: MeasurePassengers, filter: domain.Filter{Company: "company a"}, want: 165},
		{name: "company by code", measure: MeasurePassengers, filter: domain.Filter{Company: "bb"}, want: 20},
		{name: "occupancy for one company", measure: MeasureOccupancy, filter: domain.Filter{Company: "AAA"}, want: 50},
		{name: "fuel per km", measure: MeasureFuelPerKm, filter: domain.Filter{Company: "AAA"}, want: 4000.0 / 700},
		{name: "zero distance", measure: MeasureFuelPerKm, filter: domain.Filter{Company: "BBB"}, want: 0},
		{name: "zero fuel", measure: MeasurePassengersPerLiter, filter: domain.Filter{Company: "BBB"}, want: 0},
		{name: "passengers per liter", measure: MeasurePassengersPerLiter, want: 185.0 / 4000},
		{name: "fuel per flight hour", measure: MeasureFuelPerHour, want: 4000.0 / 19},
		{name: "flights", measure: MeasureFlights, want: 3},
		{name: "unaccented country", measure: MeasurePassengers,
			filter: domain.Filter{Country: "estados unidos", Side: domain.SideDestination}, want: 20},
		{name: "unaccented continent", measure: MeasurePassengers,
			filter: domain.Filter{Continent: "america do sul", Side: domain.SideDestination}, want: 165},
		{name: "either side", measure: MeasurePassengers, filter: domain.Filter{Airport: "sbgr"}, want: 185},
		{name: "month", measure: MeasurePassengers, filter: domain.Filter{Year: 2025, Month: 2}, want: 55},
		{name: "nature", measure: MeasurePassengers, filter: domain.Filter{Nature: "domestica"}, want: 165},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Scalar(ctx, tt.measure, tt.filter)
			require.NoError(t, err)
			assert.False(t, got.NoData, got.Reason)
			assert.Equal(t, domain.KPIKindScalar, got.Kind)
			assert.InDelta(t, tt.want, got.Value, 1e-9)
		})
	}
}

func TestScalarNoData(t *testing.T) {
	ctx := context.Background()

	t.Run("relation not loaded", func(t *testing.T) {
		e := newTestEngine(t, nil)
		got, err := e.Scalar(ctx, MeasurePassengers, domain.Filter{})
		require.NoError(t, err)
		assert.True(t, got.NoData)
		assert.Equal(t, ReasonNotLoaded, got.Reason)
	})

	t.Run("empty relation", func(t *testing.T) {
		e := newTestEngine(t, []domain.FlightRecord{})
		got, err := e.Scalar(ctx, MeasureOccupancy, domain.Filter{})
		require.NoError(t, err)
		assert.True(t, got.NoData)
		assert.Equal(t, ReasonNoRows, got.Reason)
	})

	t.Run("filter matches nothing", func(t *testing.T) {
		e := newTestEngine(t, testutil.ScenarioFlights())
		got, err := e.Scalar(ctx, MeasurePassengers, domain.Filter{Company: "ZZZ"})
		require.NoError(t, err)
		assert.True(t, got.NoData)
	})

	t.Run("exclude everything", func(t *testing.T) {
		e := newTestEngine(t, testutil.ScenarioFlights())
		got, err := e.Scalar(ctx, MeasurePassengers, domain.Filter{Exclude: true})
		require.NoError(t, err)
		assert.True(t, got.NoData)
	})
}

func TestScalarUnknownMeasure(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())
	_, err := e.Scalar(context.Background(), Measure("bogus"), domain.Filter{})
	assert.ErrorIs(t, err, ErrUnknownMeasure)
	assert.Contains(t, err.Error(), "occupancy_rate")
}

func TestMeasures(t *testing.T) {
	all := Measures()
	assert.Len(t, all, len(sumExpr)+len(ratios))
	assert.True(t, sort.SliceIsSorted(all, func(i, j int) bool { return all[i] < all[j] }))
	for _, m := range all {
		assert.True(t, m.Valid(), m)
	}
}

func TestFilterPartitionsRelation(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())
	ctx := context.Background()

	filters := []domain.Filter{
		{Company: "COMPANY A"},
		{Country: "ESTADOS UNIDOS"},
		{Continent: "AMÉRICA DO SUL", Side: domain.SideDestination},
		{Year: 2025, Month: 1},
	}
	for _, m := range []Measure{MeasurePassengers, MeasureFuel, MeasureASK, MeasureFlights} {
		total, err := e.Scalar(ctx, m, domain.Filter{})
		require.NoError(t, err)

		for _, f := range filters {
			in, err := e.Scalar(ctx, m, f)
			require.NoError(t, err)
			f.Exclude = true
			out, err := e.Scalar(ctx, m, f)
			require.NoError(t, err)

			assert.InDelta(t, total.Value, in.Value+out.Value, 1e-9, "%s %+v", m, f)
		}
	}
}

func TestOccupancyBounded(t *testing.T) {
	records := testutil.ScenarioFlights()
	records = append(records, testutil.Flight(func(r *domain.FlightRecord) {
		r.AirlineCode, r.AirlineName = "CCC", "COMPANY C"
		r.ASK, r.RPK = 0, 0
	}))
	e := newTestEngine(t, records)

	for _, company := range []string{"", "AAA", "BBB", "CCC"} {
		got, err := e.Scalar(context.Background(), MeasureOccupancy, domain.Filter{Company: company})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.Value, 0.0, company)
		assert.LessOrEqual(t, got.Value, 100.0, company)
	}

	overbooked := newTestEngine(t, []domain.FlightRecord{testutil.Flight(func(r *domain.FlightRecord) {
		r.ASK, r.RPK = 100, 250
	})})
	got, err := overbooked.Scalar(context.Background(), MeasureOccupancy, domain.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Value)
}

func TestTotals(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())

	got, err := e.Totals(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.False(t, got.NoData)

	values := map[string]float64{}
	for _, r := range got.Rows {
		values[r.Key] = r.Value
	}
	assert.Equal(t, 2.0, values["companies"])
	assert.Equal(t, 185.0, values[string(MeasurePassengers)])
	assert.Equal(t, 3.0, values[string(MeasureFlights)])
	assert.Equal(t, 9.0, values[string(MeasureTakeoffs)])
	assert.InDelta(t, 4000.0/3, values["mean_fuel"], 1e-9)
}
