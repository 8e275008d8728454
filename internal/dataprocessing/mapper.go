package dataprocessing

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// SchemaMismatchError reports required canonical fields that have no source
// column. It aborts the whole batch.
type SchemaMismatchError struct {
	Version string
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema %s: missing required columns: %s", e.Version, strings.Join(e.Missing, ", "))
}

// FieldMap is the resolved header of one extract: canonical field to column index.
type FieldMap struct {
	Version         string
	Unmapped        []string
	MissingOptional []string
	index           map[string]int
}

// Index returns the source column of a canonical field.
func (m *FieldMap) Index(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

// Has reports whether the extract carries the canonical field.
func (m *FieldMap) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Mapper resolves extract headers against the canonical dictionary.
type Mapper struct {
	lookup map[string]string
	logger *slog.Logger
}

// NewMapper builds a mapper from CanonicalSchema plus extra aliases
// (source header to canonical name) supplied by configuration.
func NewMapper(extra map[string]string, logger *slog.Logger) (*Mapper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lookup := make(map[string]string, len(CanonicalSchema)*2)
	for _, f := range CanonicalSchema {
		lookup[NormalizeHeader(f.Name)] = f.Name
		lookup[NormalizeHeader(f.Header)] = f.Name
		for _, a := range f.Aliases {
			lookup[NormalizeHeader(a)] = f.Name
		}
	}
	for header, canonical := range extra {
		if _, ok := LookupField(canonical); !ok {
			return nil, fmt.Errorf("header alias %q points to unknown field %q", header, canonical)
		}
		lookup[NormalizeHeader(header)] = canonical
	}
	return &Mapper{lookup: lookup, logger: logger.With(slog.String("component", "schema_mapper"))}, nil
}

// Resolve maps a header row once for the whole batch. Unknown columns are
// reported as unmapped. A missing optional geographic column is tolerated;
// any missing required column yields a *SchemaMismatchError.
func (m *Mapper) Resolve(header []string) (*FieldMap, error) {
	fm := &FieldMap{Version: SchemaVersion, index: make(map[string]int, len(CanonicalSchema))}

	for i, h := range header {
		name, ok := m.lookup[NormalizeHeader(h)]
		if !ok {
			fm.Unmapped = append(fm.Unmapped, h)
			continue
		}
		if _, dup := fm.index[name]; dup {
			fm.Unmapped = append(fm.Unmapped, h)
			continue
		}
		fm.index[name] = i
	}

	var missing []string
	for _, f := range CanonicalSchema {
		if fm.Has(f.Name) {
			continue
		}
		if f.Group == GroupOptionalGeo {
			fm.MissingOptional = append(fm.MissingOptional, f.Name)
			continue
		}
		missing = append(missing, f.Name)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaMismatchError{Version: SchemaVersion, Missing: missing}
	}

	if len(fm.Unmapped) > 0 {
		m.logger.Warn("Dropping unmapped columns",
			slog.Any("columns", fm.Unmapped))
	}
	if n := len(fm.MissingOptional); n > 0 && n < optionalGeoCount() {
		m.logger.Warn("Optional geographic group is incomplete",
			slog.Any("missing", fm.MissingOptional))
	}

	return fm, nil
}

func optionalGeoCount() int {
	n := 0
	for _, f := range CanonicalSchema {
		if f.Group == GroupOptionalGeo {
			n++
		}
	}
	return n
}
