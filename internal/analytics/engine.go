package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// Reasons attached to NoData results.
const (
	ReasonNotLoaded = "canonical relation not loaded"
	ReasonNoRows    = "no rows match the filter"
)

var (
	ErrUnknownMeasure   = errors.New("unknown measure")
	ErrUnknownDimension = errors.New("unknown dimension")
	ErrUnknownEntity    = errors.New("unknown entity")
)

// Querier is the read side of *sql.DB.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Engine evaluates KPIs against the canonical relation. It holds no state of
// its own and is safe for concurrent use.
type Engine struct {
	q           Querier
	logger      *slog.Logger
	diagnostics bool
}

// NewEngine creates an engine. With diagnostics enabled every degenerate
// division is logged at DEBUG.
func NewEngine(q Querier, logger *slog.Logger, diagnostics bool) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{q: q, logger: logger.With(slog.String("component", "aggregation_engine")), diagnostics: diagnostics}
}

// loaded reports whether the relation exists.
func (e *Engine) loaded(ctx context.Context) (bool, error) {
	var n int
	err := e.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", storage.FlightsTable).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return n > 0, nil
}

// ratio applies SafeRatio and scale, logging degenerate inputs when asked to.
func (e *Engine) ratio(ctx context.Context, name string, num, den, scale float64) float64 {
	if e.diagnostics && degenerate(num, den) {
		e.logger.DebugContext(ctx, "degenerate ratio replaced by zero",
			slog.String("kpi", name),
			slog.Float64("numerator", num),
			slog.Float64("denominator", den))
	}
	return SafeRatio(num, den) * scale
}

// evaluate turns the sums produced for m.terms() into the measure's value.
func (e *Engine) evaluate(ctx context.Context, m Measure, agg Aggregation, count int64, sums []float64) float64 {
	if r, ok := ratios[m]; ok {
		v := e.ratio(ctx, string(m), sums[0], sums[1], r.scale)
		if r.ceiling > 0 && v > r.ceiling {
			v = r.ceiling
		}
		return v
	}
	if agg == AggMean {
		return SafeRatio(sums[0], float64(count))
	}
	return sums[0]
}

func sumList(m Measure) string {
	terms := m.terms()
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = "COALESCE(SUM(" + t + "), 0)"
	}
	return strings.Join(parts, ", ")
}

// Scalar computes one measure over the filtered relation.
func (e *Engine) Scalar(ctx context.Context, m Measure, f domain.Filter) (domain.KPIResult, error) {
	if !m.Valid() {
		return domain.KPIResult{}, unknownMeasure(m)
	}
	name := string(m)
	ok, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !ok {
		return domain.NoDataResult(name, domain.KPIKindScalar, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf("SELECT COUNT(*), %s FROM %s %s", sumList(m), storage.FlightsTable, p.where)

	sums := make([]float64, len(m.terms()))
	var count int64
	dest := []interface{}{&count}
	for i := range sums {
		dest = append(dest, &sums[i])
	}
	if err := e.q.QueryRowContext(ctx, query, p.args...).Scan(dest...); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	if count == 0 {
		return domain.NoDataResult(name, domain.KPIKindScalar, ReasonNoRows), nil
	}

	return domain.KPIResult{
		Name:  name,
		Kind:  domain.KPIKindScalar,
		Unit:  m.Unit(),
		Value: e.evaluate(ctx, m, AggSum, count, sums),
	}, nil
}

// Totals returns the headline traffic figures as a one-column table.
func (e *Engine) Totals(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	const name = "totals"
	ok, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !ok {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf(`SELECT COUNT(*), COUNT(DISTINCT empresa_sigla),
		COALESCE(SUM(passageiros_pagos + passageiros_gratis), 0),
		COALESCE(SUM(passageiros_pagos), 0),
		COALESCE(SUM(decolagens), 0),
		COALESCE(SUM(carga_paga_kg + carga_gratis_kg), 0),
		COALESCE(SUM(correio_kg), 0),
		COALESCE(SUM(combustivel_litros), 0),
		COALESCE(SUM(distancia_voada_km), 0)
		FROM %s %s`, storage.FlightsTable, p.where)

	var flights, companies int64
	var pax, paid, takeoffs, cargo, mail, fuel, dist float64
	err = e.q.QueryRowContext(ctx, query, p.args...).
		Scan(&flights, &companies, &pax, &paid, &takeoffs, &cargo, &mail, &fuel, &dist)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute totals: %w", err)
	}
	if flights == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNoRows), nil
	}

	row := func(m Measure, label string, v float64) domain.KPIRow {
		return domain.KPIRow{Key: string(m), Label: label, Value: v}
	}
	return domain.KPIResult{
		Name:    name,
		Kind:    domain.KPIKindTable,
		Columns: []string{"value"},
		Rows: []domain.KPIRow{
			{Key: "companies", Label: "Companies", Value: float64(companies)},
			row(MeasurePassengers, "Passengers", pax),
			row(MeasurePaidPassengers, "Paid passengers", paid),
			row(MeasureTakeoffs, "Takeoffs", takeoffs),
			row(MeasureFlights, "Flights", float64(flights)),
			row(MeasureCargo, "Cargo (kg)", cargo),
			row(MeasureMail, "Mail (kg)", mail),
			row(MeasureFuel, "Fuel (l)", fuel),
			row(MeasureDistance, "Distance (km)", dist),
			{Key: "mean_fuel", Label: "Mean fuel per record (l)", Value: SafeRatio(fuel, float64(flights))},
		},
	}, nil
}

// matching counts the rows selected by p.
func (e *Engine) matching(ctx context.Context, p predicate) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", storage.FlightsTable, p.where)
	if err := e.q.QueryRowContext(ctx, query, p.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}
