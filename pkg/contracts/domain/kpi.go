package domain

// KPIKind tells consumers how to read a KPIResult.
type KPIKind string

const (
	KPIKindScalar KPIKind = "scalar"
	KPIKindTable  KPIKind = "table"
	KPIKindSeries KPIKind = "series"
)

// KPIResult is a named scalar, ordered table or monthly series computed from
// the canonical relation. NoData marks an empty or missing relation and is a
// normal result, not an error.
type KPIResult struct {
	Name    string        `json:"name"`
	Kind    KPIKind       `json:"kind"`
	Unit    string        `json:"unit,omitempty"`
	Value   float64       `json:"value"`
	Columns []string      `json:"columns,omitempty"`
	Rows    []KPIRow      `json:"rows,omitempty"`
	Points  []SeriesPoint `json:"points,omitempty"`
	NoData  bool          `json:"no_data"`
	Reason  string        `json:"reason,omitempty"`
}

// KPIRow is one line of a ranking or breakdown table. Metrics carries the
// extra columns named in KPIResult.Columns.
type KPIRow struct {
	Key     string             `json:"key"`
	Label   string             `json:"label,omitempty"`
	Value   float64            `json:"value"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// SeriesPoint is one month of a chronological series.
type SeriesPoint struct {
	Year  int     `json:"year"`
	Month int     `json:"month"`
	Value float64 `json:"value"`
}

// NoDataResult builds the explicit empty marker for a KPI.
func NoDataResult(name string, kind KPIKind, reason string) KPIResult {
	return KPIResult{Name: name, Kind: kind, NoData: true, Reason: reason}
}
