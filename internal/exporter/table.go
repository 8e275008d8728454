package exporter

import (
	"flightstats/pkg/contracts/domain"
)

// Table is one exported sheet. Cells hold string, int64, float64 or bool so
// that the workbook keeps numbers numeric.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// KPITable lays out a KPI result. Scalars become a single row, tables one
// row per key with their extra metric columns, series one row per month.
func KPITable(r domain.KPIResult) Table {
	t := Table{Name: r.Name}
	if r.NoData {
		t.Headers = []string{"kpi", "no_data", "reason"}
		t.Rows = [][]interface{}{{r.Name, true, r.Reason}}
		return t
	}

	switch r.Kind {
	case domain.KPIKindScalar:
		t.Headers = []string{"kpi", "value", "unit"}
		t.Rows = [][]interface{}{{r.Name, r.Value, r.Unit}}
	case domain.KPIKindSeries:
		t.Headers = []string{"year", "month", "value"}
		for _, p := range r.Points {
			t.Rows = append(t.Rows, []interface{}{int64(p.Year), int64(p.Month), p.Value})
		}
	default:
		var extra []string
		for _, c := range r.Columns {
			if c != "value" {
				extra = append(extra, c)
			}
		}
		t.Headers = append([]string{"key", "label", "value"}, extra...)
		for _, row := range r.Rows {
			cells := []interface{}{row.Key, row.Label, row.Value}
			for _, c := range extra {
				cells = append(cells, row.Metrics[c])
			}
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}
