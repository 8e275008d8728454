package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"flightstats/pkg/contracts/domain"
)

// DefaultRejectionSample caps how many rejections a Report keeps in detail.
const DefaultRejectionSample = 200

// Report summarizes one pass over an extract. Retained + Dropped == Total.
type Report struct {
	SchemaVersion     string         `json:"schema_version"`
	Source            string         `json:"source"`
	Total             int            `json:"total"`
	Retained          int            `json:"retained"`
	Dropped           int            `json:"dropped"`
	Unmapped          []string       `json:"unmapped,omitempty"`
	MissingOptional   []string       `json:"missing_optional,omitempty"`
	DropsByColumn     map[string]int `json:"drops_by_column,omitempty"`
	Rejections        []RowRejection `json:"rejections,omitempty"`
	RejectionsTrimmed bool           `json:"rejections_trimmed,omitempty"`
	Duration          time.Duration  `json:"duration"`
}

// PipelineOptions configures the mapper and sanitizer stages.
type PipelineOptions struct {
	Decimal         DecimalPolicy
	HeaderAliases   map[string]string
	RejectionSample int
}

// Pipeline runs the mapping and sanitizing stages over a Source.
type Pipeline struct {
	mapper *Mapper
	opts   PipelineOptions
	logger *slog.Logger
}

// NewPipeline creates a pipeline with its own schema mapper.
func NewPipeline(opts PipelineOptions, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RejectionSample <= 0 {
		opts.RejectionSample = DefaultRejectionSample
	}
	mapper, err := NewMapper(opts.HeaderAliases, logger)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		mapper: mapper,
		opts:   opts,
		logger: logger.With(slog.String("component", "ingestion_pipeline")),
	}, nil
}

// Run resolves the header once, then sanitizes every row. A schema mismatch
// aborts before any row is read.
func (p *Pipeline) Run(ctx context.Context, name string, src Source) ([]domain.FlightRecord, *Report, error) {
	start := time.Now()
	report := &Report{
		SchemaVersion: SchemaVersion,
		Source:        name,
		DropsByColumn: make(map[string]int),
	}

	fields, err := p.mapper.Resolve(src.Header())
	if err != nil {
		return nil, report, err
	}
	report.Unmapped = fields.Unmapped
	report.MissingOptional = fields.MissingOptional

	sanitizer := NewSanitizer(fields, p.opts.Decimal)
	var records []domain.FlightRecord

	for {
		if report.Total%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}
		}

		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var malformed *MalformedRowError
			if !errors.As(err, &malformed) {
				return nil, report, fmt.Errorf("failed to read extract: %w", err)
			}
			report.Total++
			p.reject(report, RowRejection{Line: malformed.Line, Reason: malformed.Err.Error()})
			continue
		}

		report.Total++
		rec, rejection := sanitizer.Sanitize(row.Line, row.Cells)
		if rejection != nil {
			p.reject(report, *rejection)
			continue
		}
		records = append(records, rec)
		report.Retained++
	}

	report.Duration = time.Since(start)
	p.logger.InfoContext(ctx, "Extract sanitized",
		slog.String("source", name),
		slog.String("schema_version", report.SchemaVersion),
		slog.Int("total", report.Total),
		slog.Int("retained", report.Retained),
		slog.Int("dropped", report.Dropped),
		slog.Duration("duration", report.Duration))

	return records, report, nil
}

func (p *Pipeline) reject(report *Report, r RowRejection) {
	report.Dropped++
	for _, c := range r.Columns {
		report.DropsByColumn[c]++
	}
	if len(report.Rejections) < p.opts.RejectionSample {
		report.Rejections = append(report.Rejections, r)
	} else {
		report.RejectionsTrimmed = true
	}
	p.logger.Debug("Row rejected",
		slog.Int("line", r.Line),
		slog.Any("columns", r.Columns),
		slog.String("reason", r.Reason))
}
