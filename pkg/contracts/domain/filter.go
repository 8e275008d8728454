package domain

// Side selects which end of a route a geographic predicate applies to.
type Side string

const (
	SideEither      Side = "either"
	SideOrigin      Side = "origin"
	SideDestination Side = "destination"
)

// Filter restricts an aggregation to a subset of the canonical relation.
// Company is a case-insensitive substring matched against the airline code
// or name. Exclude negates the whole predicate so that a filter and its
// complement partition the relation.
type Filter struct {
	Company   string `json:"company,omitempty" validate:"omitempty,max=120"`
	Country   string `json:"country,omitempty" validate:"omitempty,max=120"`
	Continent string `json:"continent,omitempty" validate:"omitempty,max=120"`
	Airport   string `json:"airport,omitempty" validate:"omitempty,max=16"`
	Side      Side   `json:"side,omitempty" validate:"omitempty,oneof=either origin destination"`
	Nature    string `json:"nature,omitempty" validate:"omitempty,max=60"`
	Year      int    `json:"year,omitempty" validate:"omitempty,min=1900,max=2200"`
	Month     int    `json:"month,omitempty" validate:"omitempty,min=1,max=12"`
	Exclude   bool   `json:"exclude,omitempty"`
}

// IsZero reports whether the filter selects the whole relation.
func (f Filter) IsZero() bool {
	return f.Company == "" && f.Country == "" && f.Continent == "" &&
		f.Airport == "" && f.Nature == "" && f.Year == 0 && f.Month == 0
}
