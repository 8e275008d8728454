package analytics

import (
	"context"
	"fmt"
	"strings"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// Distinct counts the distinct values of an entity over the filtered rows.
// Entities spanning both route ends are counted over the union of origin and
// destination, so an airport seen on both sides counts once.
func (e *Engine) Distinct(ctx context.Context, ent Entity, f domain.Filter) (domain.KPIResult, error) {
	cols, ok := entityColumns[ent]
	if !ok {
		return domain.KPIResult{}, fmt.Errorf("%w: %s", ErrUnknownEntity, ent)
	}
	name := "distinct_" + string(ent)
	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindScalar, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	n, err := e.matching(ctx, p)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if n == 0 {
		return domain.NoDataResult(name, domain.KPIKindScalar, ReasonNoRows), nil
	}

	arms := make([]string, len(cols))
	var args []interface{}
	for i, c := range cols {
		arms[i] = fmt.Sprintf("SELECT %s AS v FROM %s %s", c, storage.FlightsTable, p.where)
		args = append(args, p.args...)
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM (%s) WHERE v IS NOT NULL AND v <> ''", strings.Join(arms, " UNION "))

	var count int64
	if err := e.q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	return domain.KPIResult{Name: name, Kind: domain.KPIKindScalar, Unit: string(ent), Value: float64(count)}, nil
}

// Countries lists every country seen at either end of a route, alphabetically,
// with the number of records touching it.
func (e *Engine) Countries(ctx context.Context, f domain.Filter) (domain.KPIResult, error) {
	const name = "countries"
	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	p := buildPredicate(f)
	query := fmt.Sprintf(`SELECT v, COUNT(DISTINCT rid) FROM (
		SELECT rowid AS rid, origem_pais AS v FROM %[1]s %[2]s
		UNION ALL
		SELECT rowid AS rid, destino_pais AS v FROM %[1]s %[2]s
	) GROUP BY v ORDER BY v`, storage.FlightsTable, p.where)
	args := append(append([]interface{}{}, p.args...), p.args...)

	return e.directoryTable(ctx, name, "records", query, args, false)
}

// AirportsByCountry lists the airports located in country, whether they
// appear as origin or destination, ordered by code.
func (e *Engine) AirportsByCountry(ctx context.Context, country string) (domain.KPIResult, error) {
	name := "airports"
	loaded, err := e.loaded(ctx)
	if err != nil {
		return domain.KPIResult{}, err
	}
	if !loaded {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNotLoaded), nil
	}

	query := fmt.Sprintf(`SELECT code, MIN(nome), COUNT(DISTINCT rid) FROM (
		SELECT rowid AS rid, origem_sigla AS code, origem_nome AS nome, origem_pais AS pais FROM %[1]s
		UNION ALL
		SELECT rowid AS rid, destino_sigla AS code, destino_nome AS nome, destino_pais AS pais FROM %[1]s
	) WHERE %[2]s(pais) = ? GROUP BY code ORDER BY code`, storage.FlightsTable, storage.FoldFunction)

	return e.directoryTable(ctx, name, "records", query, []interface{}{storage.Fold(country)}, true)
}

func (e *Engine) directoryTable(ctx context.Context, name, unit, query string, args []interface{}, labelled bool) (domain.KPIResult, error) {
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to compute %s: %w", name, err)
	}
	defer rows.Close()

	result := domain.KPIResult{Name: name, Kind: domain.KPIKindTable, Unit: unit, Columns: []string{"records"}}
	for rows.Next() {
		var row domain.KPIRow
		var err error
		if labelled {
			err = rows.Scan(&row.Key, &row.Label, &row.Value)
		} else {
			err = rows.Scan(&row.Key, &row.Value)
		}
		if err != nil {
			return domain.KPIResult{}, fmt.Errorf("failed to scan %s: %w", name, err)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.KPIResult{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(result.Rows) == 0 {
		return domain.NoDataResult(name, domain.KPIKindTable, ReasonNoRows), nil
	}
	return result, nil
}

// FlightsAt returns the records departing from or arriving at an airport,
// in load order, capped at limit.
func (e *Engine) FlightsAt(ctx context.Context, code string, f domain.Filter, limit int) ([]domain.FlightRecord, error) {
	loaded, err := e.loaded(ctx)
	if err != nil || !loaded {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	c := storage.Fold(code)
	p := buildPredicate(f).and(
		fmt.Sprintf("(%[1]s(origem_sigla) = ? OR %[1]s(destino_sigla) = ?)", storage.FoldFunction), c, c)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY rowid LIMIT ?", storage.SelectList(), storage.FlightsTable, p.where)

	rows, err := e.q.QueryContext(ctx, query, append(p.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flights at %s: %w", code, err)
	}
	defer rows.Close()

	var out []domain.FlightRecord
	for rows.Next() {
		r, err := storage.ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flight: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
