package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightstats/pkg/contracts/domain"
)

func TestKPITable(t *testing.T) {
	t.Run("scalar", func(t *testing.T) {
		tbl := KPITable(domain.KPIResult{Name: "occupancy_rate", Kind: domain.KPIKindScalar, Value: 50, Unit: "%"})
		assert.Equal(t, []string{"kpi", "value", "unit"}, tbl.Headers)
		assert.Equal(t, [][]interface{}{{"occupancy_rate", float64(50), "%"}}, tbl.Rows)
	})

	t.Run("table with metrics", func(t *testing.T) {
		tbl := KPITable(domain.KPIResult{
			Name:    "passengers_by_company",
			Kind:    domain.KPIKindTable,
			Columns: []string{"value", "records"},
			Rows: []domain.KPIRow{
				{Key: "AAA", Label: "COMPANY A", Value: 165, Metrics: map[string]float64{"records": 2}},
				{Key: "BBB", Label: "COMPANY B", Value: 20, Metrics: map[string]float64{"records": 1}},
			},
		})
		assert.Equal(t, []string{"key", "label", "value", "records"}, tbl.Headers)
		require.Len(t, tbl.Rows, 2)
		assert.Equal(t, []interface{}{"AAA", "COMPANY A", float64(165), float64(2)}, tbl.Rows[0])
	})

	t.Run("series", func(t *testing.T) {
		tbl := KPITable(domain.KPIResult{
			Name:   "monthly_passengers",
			Kind:   domain.KPIKindSeries,
			Points: []domain.SeriesPoint{{Year: 2025, Month: 1, Value: 130}, {Year: 2025, Month: 2, Value: 55}},
		})
		assert.Equal(t, []string{"year", "month", "value"}, tbl.Headers)
		assert.Equal(t, []interface{}{int64(2025), int64(2), float64(55)}, tbl.Rows[1])
	})

	t.Run("no data", func(t *testing.T) {
		tbl := KPITable(domain.NoDataResult("totals", domain.KPIKindTable, "canonical relation not loaded"))
		assert.Equal(t, []string{"kpi", "no_data", "reason"}, tbl.Headers)
		assert.Equal(t, true, tbl.Rows[0][1])
	})
}
