package http

import (
	"log/slog"
	"net/http"
	"strings"

	apierrors "flightstats/internal/errors"
	"flightstats/internal/middleware"
	"flightstats/pkg/contracts/domain"
)

var (
	sides  = []string{string(domain.SideEither), string(domain.SideOrigin), string(domain.SideDestination)}
	bools  = []string{"true", "false", "1", "0"}
	orders = []string{"asc", "desc"}
)

// paramParser reads filters and paging knobs from the query string. Every
// method writes the problem response itself and reports false on failure.
type paramParser struct {
	validator *middleware.QueryParamValidator
	maxLimit  int
}

func newParamParser(logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxLimit int) *paramParser {
	return &paramParser{
		validator: middleware.NewQueryParamValidator(logger, errorHandler),
		maxLimit:  maxLimit,
	}
}

// filter builds a domain.Filter from company, country, continent, airport,
// side, nature, year, month and exclude.
func (p *paramParser) filter(w http.ResponseWriter, r *http.Request) (domain.Filter, bool) {
	q := r.URL.Query()
	f := domain.Filter{
		Company:   strings.TrimSpace(q.Get("company")),
		Country:   strings.TrimSpace(q.Get("country")),
		Continent: strings.TrimSpace(q.Get("continent")),
		Airport:   strings.TrimSpace(q.Get("airport")),
		Nature:    strings.TrimSpace(q.Get("nature")),
	}

	side, ok := p.validator.ValidateEnum(w, r, "side", sides, "")
	if !ok {
		return f, false
	}
	f.Side = domain.Side(side)

	if f.Year, ok = p.validator.ValidateInt(w, r, "year", 1900, 2200, 0); !ok {
		return f, false
	}
	if f.Month, ok = p.validator.ValidateInt(w, r, "month", 1, 12, 0); !ok {
		return f, false
	}

	exclude, ok := p.validator.ValidateEnum(w, r, "exclude", bools, "false")
	if !ok {
		return f, false
	}
	f.Exclude = exclude == "true" || exclude == "1"
	return f, true
}

// limit returns 0 when absent so the façade applies its default.
func (p *paramParser) limit(w http.ResponseWriter, r *http.Request) (int, bool) {
	return p.validator.ValidateInt(w, r, "limit", 1, p.maxLimit, 0)
}

func (p *paramParser) order(w http.ResponseWriter, r *http.Request, def string) (string, bool) {
	return p.validator.ValidateEnum(w, r, "order", orders, def)
}
