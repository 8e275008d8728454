package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightstats/internal/shared/testutil"
	"flightstats/pkg/contracts/domain"
)

func TestDistinct(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())
	ctx := context.Background()

	tests := []struct {
		entity Entity
		filter domain.Filter
		want   float64
	}{
		{entity: EntityAirports, want: 3},
		{entity: EntityOriginAirports, want: 1},
		{entity: EntityDestinationAirports, want: 2},
		{entity: EntityCountries, want: 2},
		{entity: EntityContinents, want: 2},
		{entity: EntityCompanies, want: 2},
		{entity: EntityAirports, filter: domain.Filter{Company: "AAA"}, want: 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.entity), func(t *testing.T) {
			got, err := e.Distinct(ctx, tt.entity, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Value)
		})
	}

	_, err := e.Distinct(ctx, Entity("planets"), domain.Filter{})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestCountries(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())

	got, err := e.Countries(context.Background(), domain.Filter{})
	require.NoError(t, err)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, domain.KPIRow{Key: "BRASIL", Value: 3}, got.Rows[0])
	assert.Equal(t, domain.KPIRow{Key: "ESTADOS UNIDOS", Value: 1}, got.Rows[1])
}

func TestAirportsByCountry(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())

	got, err := e.AirportsByCountry(context.Background(), "brasil")
	require.NoError(t, err)
	assert.Equal(t, []string{"SBGR", "SBRJ"}, keys(got.Rows))
	assert.Equal(t, "GUARULHOS", got.Rows[0].Label)
	assert.Equal(t, 3.0, got.Rows[0].Value)

	got, err = e.AirportsByCountry(context.Background(), "ATLANTIS")
	require.NoError(t, err)
	assert.True(t, got.NoData)
}

func TestFlightsAt(t *testing.T) {
	e := newTestEngine(t, testutil.ScenarioFlights())
	ctx := context.Background()

	got, err := e.FlightsAt(ctx, "kmia", domain.Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BBB", got[0].AirlineCode)

	got, err = e.FlightsAt(ctx, "SBGR", domain.Filter{}, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = e.FlightsAt(ctx, "SBGR", domain.Filter{Company: "AAA", Exclude: true}, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "BBB", got[0].AirlineCode)
}

func TestFlightsAtWithoutRelation(t *testing.T) {
	e := newTestEngine(t, nil)
	got, err := e.FlightsAt(context.Background(), "SBGR", domain.Filter{}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
