package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"flightstats/internal/config"
	"flightstats/internal/dataprocessing"
	apierrors "flightstats/internal/errors"
	"flightstats/internal/files"
	"flightstats/internal/infrastructure"
	"flightstats/internal/storage"
	"flightstats/pkg/contracts/domain"
	"flightstats/pkg/contracts/events"
)

// WebSocketHub publishes events to connected clients.
type WebSocketHub interface {
	BroadcastWithTrace(messageType string, data interface{}, traceID string)
}

// Ingestion run statuses, also used as the metrics status attribute.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// IngestionOptions configures how extracts are read and loaded.
type IngestionOptions struct {
	DefaultSource string
	Reader        dataprocessing.ReaderOptions
	Pipeline      dataprocessing.PipelineOptions
	BatchSize     int
}

// NewIngestionOptions maps the ingestion section of cfg.
func NewIngestionOptions(cfg *config.Config) IngestionOptions {
	return IngestionOptions{
		DefaultSource: cfg.Ingestion.SourcePath,
		Reader: dataprocessing.ReaderOptions{
			Delimiter: cfg.Ingestion.Delimiter,
			Encoding:  cfg.Ingestion.Encoding,
			Sheet:     cfg.Ingestion.Sheet,
		},
		Pipeline: dataprocessing.PipelineOptions{
			Decimal:       dataprocessing.DecimalPolicy(cfg.Ingestion.Decimal),
			HeaderAliases: cfg.Ingestion.HeaderAliases,
		},
		BatchSize: cfg.Ingestion.BatchSize,
	}
}

// IngestionResult is the outcome of a successful run.
type IngestionResult struct {
	Snapshot domain.SnapshotInfo    `json:"snapshot"`
	Report   *dataprocessing.Report `json:"report"`
}

// IngestionStatus reports the visible snapshot and the last run.
type IngestionStatus struct {
	Running    bool                   `json:"running"`
	Snapshot   *domain.SnapshotInfo   `json:"snapshot,omitempty"`
	LastReport *dataprocessing.Report `json:"last_report,omitempty"`
	LastRunAt  string                 `json:"last_run_at,omitempty"`
	LastError  string                 `json:"last_error,omitempty"`
}

// IngestionService replaces the canonical relation from a raw extract. Only
// one run is in flight at a time; a failed run leaves the previous snapshot
// and its SnapshotInfo untouched.
type IngestionService struct {
	db       *storage.DB
	loader   *storage.Loader
	pipeline *dataprocessing.Pipeline
	opts     IngestionOptions
	hub      WebSocketHub
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	checksum func(context.Context) (string, error)

	running sync.Mutex

	mu         sync.RWMutex
	inFlight   bool
	snapshot   *domain.SnapshotInfo
	lastReport *dataprocessing.Report
	lastRunAt  time.Time
	lastError  string
}

// NewIngestionService wires the pipeline and loader. hub and metrics may be nil.
func NewIngestionService(db *storage.DB, opts IngestionOptions, hub WebSocketHub, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*IngestionService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pipeline, err := dataprocessing.NewPipeline(opts.Pipeline, logger)
	if err != nil {
		return nil, apierrors.NewConfigError("invalid ingestion pipeline configuration", err)
	}

	return &IngestionService{
		db:       db,
		loader:   storage.NewLoader(db, opts.BatchSize, logger),
		pipeline: pipeline,
		opts:     opts,
		hub:      hub,
		metrics:  metrics,
		logger:   infrastructure.WithComponent(logger, "ingestion_service"),
		checksum: db.Checksum,
	}, nil
}

// Ingest reads the extract at path, or the configured default source when
// path is empty, and atomically replaces the canonical relation.
func (s *IngestionService) Ingest(ctx context.Context, path string) (*IngestionResult, error) {
	if !s.running.TryLock() {
		return nil, apierrors.NewConflictError("an ingestion run is already in progress", ErrIngestionRunning)
	}
	defer s.running.Unlock()

	if path == "" {
		path = s.opts.DefaultSource
	}
	if path == "" {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "no extract path given", ErrNoSource)
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	runID := uuid.New().String()
	start := time.Now()
	logger := s.logger.With(slog.String("run_id", runID), slog.String("source", path))
	s.setInFlight(true)
	defer s.setInFlight(false)

	logger.InfoContext(ctx, "Ingestion started")
	s.publish(ctx, events.MessageTypeIngestionStarted, events.IngestionEvent{
		RunID:  runID,
		Source: filepath.Base(path),
		Status: StatusRunning,
	})

	result, report, loadDuration, err := s.ingest(ctx, runID, path)
	if err != nil {
		s.fail(ctx, logger, runID, path, report, start, err)
		return nil, err
	}

	s.mu.Lock()
	s.snapshot = &result.Snapshot
	s.lastReport = report
	s.lastRunAt = time.Now()
	s.lastError = ""
	s.mu.Unlock()

	infrastructure.RecordIngestionMetrics(ctx, s.metrics, StatusSuccess,
		int64(report.Total), int64(report.Dropped), loadDuration, time.Since(start))
	s.publish(ctx, events.MessageTypeSnapshotReplaced, result.Snapshot)

	logger.InfoContext(ctx, "Ingestion completed",
		slog.Int("total", report.Total),
		slog.Int("retained", report.Retained),
		slog.Int("dropped", report.Dropped),
		slog.String("checksum", result.Snapshot.Checksum),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// ingest runs one load. A directory path resolves to its newest extract.
func (s *IngestionService) ingest(ctx context.Context, runID, path string) (*IngestionResult, *dataprocessing.Report, time.Duration, error) {
	path, err := files.NewDiscovery("").ResolveExtract(path)
	if err != nil {
		return nil, nil, 0, apierrors.NewParsingError("failed to locate extract", err)
	}

	src, err := dataprocessing.OpenSource(path, s.opts.Reader)
	if err != nil {
		return nil, nil, 0, apierrors.NewParsingError("failed to open extract", err)
	}
	defer src.Close()

	records, report, err := s.pipeline.Run(ctx, filepath.Base(path), src)
	if err != nil {
		var mismatch *dataprocessing.SchemaMismatchError
		switch {
		case errors.As(err, &mismatch):
			return nil, report, 0, apierrors.NewSchemaError("extract header does not match the canonical schema", err).
				With("missing", mismatch.Missing)
		case ctx.Err() != nil:
			return nil, report, 0, ctx.Err()
		}
		return nil, report, 0, apierrors.NewParsingError("failed to read extract", err)
	}

	replaced, err := s.loader.Replace(ctx, records)
	if err != nil {
		if ctx.Err() != nil {
			return nil, report, 0, ctx.Err()
		}
		return nil, report, 0, apierrors.NewStorageError("failed to replace canonical relation", err)
	}

	// The relation is committed here; the snapshot is recorded either way.
	checksum, err := s.checksum(ctx)
	if err != nil {
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "Snapshot loaded without checksum",
			slog.String("run_id", runID))
		checksum = ""
	}

	return &IngestionResult{
		Snapshot: domain.SnapshotInfo{
			RunID:         runID,
			Source:        filepath.Base(path),
			SchemaVersion: report.SchemaVersion,
			TotalRows:     report.Total,
			RetainedRows:  report.Retained,
			DroppedRows:   report.Dropped,
			Checksum:      checksum,
			LoadedAt:      time.Now().UTC().Format(time.RFC3339),
		},
		Report: report,
	}, report, replaced.Duration, nil
}

func (s *IngestionService) fail(ctx context.Context, logger *slog.Logger, runID, path string, report *dataprocessing.Report, start time.Time, err error) {
	var read, dropped int64
	if report != nil {
		read, dropped = int64(report.Total), int64(report.Dropped)
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.lastError = err.Error()
	if report != nil {
		s.lastReport = report
	}
	s.mu.Unlock()

	infrastructure.RecordIngestionMetrics(ctx, s.metrics, StatusFailed, read, dropped, 0, time.Since(start))
	infrastructure.RecordError(ctx, err)
	s.publish(ctx, events.MessageTypeIngestionFailed, events.IngestionEvent{
		RunID:  runID,
		Source: filepath.Base(path),
		Status: StatusFailed,
		Error:  err.Error(),
	})

	infrastructure.WithError(logger, err).ErrorContext(ctx, "Ingestion failed, previous snapshot kept",
		slog.Duration("duration", time.Since(start)))
}

// Restore rebuilds the SnapshotInfo of a relation loaded by an earlier
// process. It is a no-op when nothing has been loaded.
func (s *IngestionService) Restore(ctx context.Context) error {
	checksum, err := s.db.Checksum(ctx)
	if errors.Is(err, storage.ErrNoRelation) {
		return nil
	}
	if err != nil {
		return apierrors.NewStorageError("failed to checksum canonical relation", err)
	}
	n, err := s.db.Count(ctx)
	if err != nil {
		return apierrors.NewStorageError("failed to count canonical relation", err)
	}

	s.mu.Lock()
	s.snapshot = &domain.SnapshotInfo{
		Source:        filepath.Base(s.db.Path()),
		SchemaVersion: dataprocessing.SchemaVersion,
		TotalRows:     int(n),
		RetainedRows:  int(n),
		Checksum:      checksum,
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Existing snapshot restored",
		slog.Int64("rows", n),
		slog.String("checksum", checksum))
	return nil
}

// Status reports the visible snapshot and the outcome of the last run.
func (s *IngestionService) Status() IngestionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := IngestionStatus{
		Running:    s.inFlight,
		LastReport: s.lastReport,
		LastError:  s.lastError,
	}
	if s.snapshot != nil {
		snap := *s.snapshot
		st.Snapshot = &snap
	}
	if !s.lastRunAt.IsZero() {
		st.LastRunAt = s.lastRunAt.UTC().Format(time.RFC3339)
	}
	return st
}

// Snapshot returns the visible snapshot, if any.
func (s *IngestionService) Snapshot() (domain.SnapshotInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return domain.SnapshotInfo{}, false
	}
	return *s.snapshot, true
}

func (s *IngestionService) setInFlight(v bool) {
	s.mu.Lock()
	s.inFlight = v
	s.mu.Unlock()
}

func (s *IngestionService) publish(ctx context.Context, t events.MessageType, data interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastWithTrace(string(t), data, infrastructure.GetTraceID(ctx))
}

// IsSchemaMismatch reports whether err aborted a run because the extract
// header did not resolve.
func IsSchemaMismatch(err error) bool {
	var mismatch *dataprocessing.SchemaMismatchError
	return errors.As(err, &mismatch)
}

// String formats a result for CLI output.
func (r *IngestionResult) String() string {
	return fmt.Sprintf("run %s: %d rows read, %d retained, %d dropped, checksum %s",
		r.Snapshot.RunID, r.Snapshot.TotalRows, r.Snapshot.RetainedRows, r.Snapshot.DroppedRows, r.Snapshot.Checksum)
}
