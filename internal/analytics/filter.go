package analytics

import (
	"strings"

	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
)

// predicate is a WHERE clause (empty when unfiltered) and its arguments.
type predicate struct {
	where string
	args  []interface{}
}

// and appends an extra condition that is never negated by Exclude.
func (p predicate) and(cond string, args ...interface{}) predicate {
	out := predicate{args: append(append([]interface{}{}, p.args...), args...)}
	if p.where == "" {
		out.where = "WHERE " + cond
	} else {
		out.where = p.where + " AND " + cond
	}
	return out
}

func foldEq(col string) string {
	return storage.FoldFunction + "(" + col + ") = ?"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// sided builds a condition for a geographic field on the side f selects.
func sided(side domain.Side, origin, dest, value string) (string, []interface{}) {
	switch side {
	case domain.SideOrigin:
		return foldEq(origin), []interface{}{value}
	case domain.SideDestination:
		return foldEq(dest), []interface{}{value}
	default:
		return "(" + foldEq(origin) + " OR " + foldEq(dest) + ")", []interface{}{value, value}
	}
}

// buildPredicate turns f into SQL. Comparisons are accent and case
// insensitive through the fold function registered by the storage package.
// With Exclude set the conjunction is negated as a whole; an Exclude filter
// with no conditions selects nothing.
func buildPredicate(f domain.Filter) predicate {
	var conds []string
	var args []interface{}

	if c := storage.Fold(f.Company); c != "" {
		like := "%" + escapeLike(c) + "%"
		conds = append(conds, "("+storage.FoldFunction+"(empresa_sigla) LIKE ? ESCAPE '\\' OR "+
			storage.FoldFunction+"(empresa_nome) LIKE ? ESCAPE '\\')")
		args = append(args, like, like)
	}
	if c := storage.Fold(f.Country); c != "" {
		cond, a := sided(f.Side, "origem_pais", "destino_pais", c)
		conds, args = append(conds, cond), append(args, a...)
	}
	if c := storage.Fold(f.Continent); c != "" {
		cond, a := sided(f.Side, "origem_continente", "destino_continente", c)
		conds, args = append(conds, cond), append(args, a...)
	}
	if c := storage.Fold(f.Airport); c != "" {
		cond, a := sided(f.Side, "origem_sigla", "destino_sigla", c)
		conds, args = append(conds, cond), append(args, a...)
	}
	if c := storage.Fold(f.Nature); c != "" {
		conds, args = append(conds, foldEq("natureza")), append(args, c)
	}
	if f.Year != 0 {
		conds, args = append(conds, "ano = ?"), append(args, f.Year)
	}
	if f.Month != 0 {
		conds, args = append(conds, "mes = ?"), append(args, f.Month)
	}

	switch {
	case len(conds) == 0 && f.Exclude:
		return predicate{where: "WHERE 0"}
	case len(conds) == 0:
		return predicate{}
	case f.Exclude:
		return predicate{where: "WHERE NOT (" + strings.Join(conds, " AND ") + ")", args: args}
	default:
		return predicate{where: "WHERE " + strings.Join(conds, " AND "), args: args}
	}
}
