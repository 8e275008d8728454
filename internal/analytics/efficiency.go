package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// EfficiencyColumns are the metrics of every CompanyEfficiency row.
var EfficiencyColumns = []string{
	string(MeasureFuel), string(MeasurePassengers), string(MeasureDistance), string(MeasureTakeoffs),
	string(MeasureFuelPerKm), string(MeasurePassengersPerLiter), string(MeasureFuelPerTakeoff),
}

// efficiencySort maps the sortable measures to the denominator that must be
// non-zero for a company to be ranked.
var efficiencySort = map[Measure]string{
	MeasureFuel:               "",
	MeasurePassengers:         "",
	MeasureDistance:           "",
	MeasureTakeoffs:           "",
	MeasureFuelPerKm:          string(MeasureDistance),
	MeasurePassengersPerLiter: string(MeasureFuel),
	MeasureFuelPerTakeoff:     string(MeasureTakeoffs),
}

// DefaultEfficiencyOrder is the natural "best first" direction for a measure:
// less fuel per unit is better, more passengers per liter is better.
func DefaultEfficiencyOrder(m Measure) Order {
	switch m {
	case MeasureFuelPerKm, MeasureFuelPerTakeoff, MeasureFuel:
		return OrderAsc
	default:
		return OrderDesc
	}
}

// CompanyEfficiency builds the per-airline efficiency table ranked by sortBy.
// Companies whose sort ratio has a zero denominator are omitted, and so are
// zero values in an ascending ranking.
func (e *Engine) CompanyEfficiency(ctx context.Context, f domain.Filter, sortBy Measure, order Order, limit int) (domain.KPIResult, error) {
	if sortBy == "" {
		sortBy = MeasureFuelPerKm
	}
	den, ok := efficiencySort[sortBy]
	if !ok {
		return domain.KPIResult{}, fmt.Errorf("%w: %s is not an efficiency measure", ErrUnknownMeasure, sortBy)
	}
	if order == "" {
		order = DefaultEfficiencyOrder(sortBy)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	const name = "company_efficiency"
	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf(`SELECT empresa_sigla, MIN(empresa_nome),
		COALESCE(SUM(combustivel_litros), 0),
		COALESCE(SUM(passageiros_pagos + passageiros_gratis), 0),
		COALESCE(SUM(distancia_voada_km), 0),
		COALESCE(SUM(decolagens), 0)
		FROM %s %s GROUP BY empresa_sigla ORDER BY MIN(rowid)`, storage.FlightsTable, p.where)

	rows, err := e.q.QueryContext(ctx, query, p.args...)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	defer rows.Close()

	var table []domain.KPIRow
	seen := 0
	for rows.Next() {
		var code, label string
		var fuel, pax, dist, takeoffs float64
		if err := rows.Scan(&code, &label, &fuel, &pax, &dist, &takeoffs); err != nil {
			return domain.KPIResult{}, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		seen++
		metrics := map[string]float64{
			string(MeasureFuel):               fuel,
			string(MeasurePassengers):         pax,
			string(MeasureDistance):           dist,
			string(MeasureTakeoffs):           takeoffs,
			string(MeasureFuelPerKm):          e.ratio(ctx, string(MeasureFuelPerKm), fuel, dist, 1),
			string(MeasurePassengersPerLiter): e.ratio(ctx, string(MeasurePassengersPerLiter), pax, fuel, 1),
			string(MeasureFuelPerTakeoff):     e.ratio(ctx, string(MeasureFuelPerTakeoff), fuel, takeoffs, 1),
		}
		if den != "" && metrics[den] == 0 {
			continue
		}
		if order == OrderAsc && metrics[string(sortBy)] == 0 {
			continue
		}
		table = append(table, domain.KPIRow{Key: code, Label: label, Value: metrics[string(sortBy)], Metrics: metrics})
	}
	if err := rows.Err(); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if seen == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNoRows), nil
	}
	if len(table) == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, "no company has a defined "+string(sortBy)), nil
	}

	sort.SliceStable(table, func(i, j int) bool {
		if order == OrderAsc {
			return table[i].Value < table[j].Value
		}
		return table[i].Value > table[j].Value
	})
	if len(table) > limit {
		table = table[:limit]
	}
	return domain.KPIResult{
		Name:    name,
		Kind:    domain.KPIKindTable,
		Unit:    sortBy.Unit(),
		Columns: EfficiencyColumns,
		Rows:    table,
	}, nil
}

// ConsumptionStatsColumns are the metrics of every ConsumptionStats row.
var ConsumptionStatsColumns = []string{"months", "mean", "std", "min", "max", "zero_months", "valid_pct", "mean_nonzero"}

// ConsumptionStats summarizes each airline's monthly liters per kilometre.
// Months with no distance flown contribute a zero. The row value is the mean
// over all months; std is the sample standard deviation.
func (e *Engine) ConsumptionStats(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	const name = "company_consumption_stats"
	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf(`SELECT empresa_sigla, MIN(empresa_nome),
		COALESCE(SUM(combustivel_litros), 0), COALESCE(SUM(distancia_voada_km), 0)
		FROM %s %s GROUP BY empresa_sigla, ano, mes ORDER BY empresa_sigla, ano, mes`, storage.FlightsTable, p.where)

	rows, err := e.q.QueryContext(ctx, query, p.args...)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	defer rows.Close()

	var order []string
	labels := map[string]string{}
	monthly := map[string][]float64{}
	for rows.Next() {
		var code, label string
		var fuel, dist float64
		if err := rows.Scan(&code, &label, &fuel, &dist); err != nil {
			return domain.KPIResult{}, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		if _, ok := monthly[code]; !ok {
			order = append(order, code)
			labels[code] = label
		}
		monthly[code] = append(monthly[code], e.ratio(ctx, string(MeasureFuelPerKm), fuel, dist, 1))
	}
	if err := rows.Err(); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(order) == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNoRows), nil
	}

	result := domain.KPIResult{Name: name, Kind: domain.KPIKindTable, Unit: MeasureFuelPerKm.Unit(), Columns: ConsumptionStatsColumns}
	for _, code := range order {
		st := describe(monthly[code])
		result.Rows = append(result.Rows, domain.KPIRow{
			Key:     code,
			Label:   labels[code],
			Value:   st["mean"],
			Metrics: st,
		})
	}
	return result, nil
}

// describe returns the summary statistics of a non-empty sample.
func describe(xs []float64) map[string]float64 {
	n := float64(len(xs))
	var sum, sumNonZero float64
	var zeros int
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		sum += x
		if x == 0 {
			zeros++
		} else {
			sumNonZero += x
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	mean := sum / n

	var std float64
	if len(xs) > 1 {
		var ss float64
		for _, x := range xs {
			ss += (x - mean) * (x - mean)
		}
		std = math.Sqrt(ss / (n - 1))
	}

	nonZero := len(xs) - zeros
	return map[string]float64{
		"months":       n,
		"mean":         mean,
		"std":          std,
		"min":          lo,
		"max":          hi,
		"zero_months":  float64(zeros),
		"valid_pct":    Percent(float64(nonZero), n),
		"mean_nonzero": SafeRatio(sumNonZero, float64(nonZero)),
	}
}
