package analytics

import (
	"context"
	"fmt"
	"sort"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// Default ranking sizes.
const (
	DefaultLimit          = 10
	DefaultDashboardLimit = 5
)

// BreakdownRequest groups the filtered relation by Dimension and ranks the
// groups by Measure.
type BreakdownRequest struct {
	Dimension Dimension
	Measure   Measure
	Agg       Aggregation
	Filter    domain.Filter
	Limit     int
	Order     Order
}

type group struct {
	key, label string
	count      int64
	sums       []float64
	value      float64
}

// Breakdown ranks groups of the relation. Groups whose key is NULL or empty
// are excluded. Ties keep first-appearance order. Ratio groups with a zero
// denominator are left out of the ranking, and an ascending ranking skips
// groups whose value is zero. Plain sums carry a share_pct metric against
// the filtered total.
func (e *Engine) Breakdown(ctx context.Context, req BreakdownRequest) (domain.KPIResult, error) {
	dim, ok := dimensions[req.Dimension]
	if !ok {
		return domain.KPIResult{}, fmt.Errorf("%w: %s", ErrUnknownDimension, req.Dimension)
	}
	if !req.Measure.Valid() {
		return domain.KPIResult{}, unknownMeasure(req.Measure)
	}
	if req.Agg == "" {
		req.Agg = AggSum
	}
	if req.Order == "" {
		req.Order = OrderDesc
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}

	name := fmt.Sprintf("%s_by_%s", req.Measure, req.Dimension)
	if req.Agg == AggMean && !req.Measure.IsRatio() {
		name = fmt.Sprintf("mean_%s_by_%s", req.Measure, req.Dimension)
	}

	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	label := dim.key
	if dim.label != "" {
		label = dim.label
	}
	p := buildPredicate(req.Filter).and(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", dim.key, dim.key))
	query := fmt.Sprintf("SELECT %s, MIN(%s), COUNT(*), %s FROM %s %s GROUP BY %s ORDER BY MIN(rowid)",
		dim.key, label, sumList(req.Measure), storage.FlightsTable, p.where, dim.key)

	rows, err := e.q.QueryContext(ctx, query, p.args...)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	defer rows.Close()

	nterms := len(req.Measure.terms())
	var groups []group
	var total float64
	for rows.Next() {
		g := group{sums: make([]float64, nterms)}
		dest := []interface{}{&g.key, &g.label, &g.count}
		for i := range g.sums {
			dest = append(dest, &g.sums[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return domain.KPIResult{}, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		total += g.sums[0]
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(groups) == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNoRows), nil
	}

	ranked := groups[:0]
	for _, g := range groups {
		if req.Measure.IsRatio() && g.sums[1] == 0 {
			continue
		}
		g.value = e.evaluate(ctx, req.Measure, req.Agg, g.count, g.sums)
		if req.Order == OrderAsc && g.value == 0 {
			continue
		}
		ranked = append(ranked, g)
	}
	if len(ranked) == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, "no group has a defined value"), nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if req.Order == OrderAsc {
			return ranked[i].value < ranked[j].value
		}
		return ranked[i].value > ranked[j].value
	})
	if len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}

	share := !req.Measure.IsRatio() && req.Agg == AggSum
	result := domain.KPIResult{
		Name: name,
		Kind: domain.KPIKindTable,
		Unit: req.Measure.Unit(),
		Rows: make([]domain.KPIRow, 0, len(ranked)),
	}
	if share {
		result.Columns = []string{"value", "records", "share_pct"}
	} else if req.Measure.IsRatio() {
		result.Columns = []string{"value", "records", "numerator", "denominator"}
	} else {
		result.Columns = []string{"value", "records"}
	}

	for _, g := range ranked {
		row := domain.KPIRow{
			Key:     g.key,
			Label:   g.label,
			Value:   g.value,
			Metrics: map[string]float64{"records": float64(g.count)},
		}
		switch {
		case share:
			row.Metrics["share_pct"] = Percent(g.value, total)
		case req.Measure.IsRatio():
			row.Metrics["numerator"] = g.sums[0]
			row.Metrics["denominator"] = g.sums[1]
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// CompanyRanking ranks airlines by a summed or ratio measure.
func (e *Engine) CompanyRanking(ctx context.Context, m Measure, f domain.Filter, limit int, order Order) (domain.KPIResult, error) {
	return e.Breakdown(ctx, BreakdownRequest{Dimension: DimCompany, Measure: m, Filter: f, Limit: limit, Order: order})
}

// RegionDemand ranks a geographic dimension by passengers carried.
func (e *Engine) RegionDemand(ctx context.Context, d Dimension, f domain.Filter, limit int) (domain.KPIResult, error) {
	return e.Breakdown(ctx, BreakdownRequest{Dimension: d, Measure: MeasurePassengers, Filter: f, Limit: limit})
}
