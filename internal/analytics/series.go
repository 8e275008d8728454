package analytics

import (
	"context"
	"fmt"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// Monthly returns the measure per (year, month) in chronological order.
// Months without rows are absent rather than zero-filled.
func (e *Engine) Monthly(ctx context.Context, m Measure, f domain.Filter) (domain.KPIResult, error) {
	if !m.Valid() {
		return domain.KPIResult{}, unknownMeasure(m)
	}
	name := "monthly_" + string(m)
	ok, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !ok {
		return domain.NoDataResult(name, domain.KPIKindSeries, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf("SELECT ano, mes, COUNT(*), %s FROM %s %s GROUP BY ano, mes ORDER BY ano, mes",
		sumList(m), storage.FlightsTable, p.where)
	rows, err := e.q.QueryContext(ctx, query, p.args...)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	defer rows.Close()

	result := domain.KPIResult{Name: name, Kind: domain.KPIKindSeries, Unit: m.Unit()}
	for rows.Next() {
		var pt domain.SeriesPoint
		var count int64
		sums := make([]float64, len(m.terms()))
		dest := []interface{}{&pt.Year, &pt.Month, &count}
		for i := range sums {
			dest = append(dest, &sums[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return domain.KPIResult{}, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		pt.Value = e.evaluate(ctx, m, AggSum, count, sums)
		result.Points = append(result.Points, pt)
	}
	if err := rows.Err(); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(result.Points) == 0 {
		return domain.NoDataResult(name, domain.KPIKindSeries, ReasonNoRows), nil
	}
	return result, nil
}
