package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"flightstats/internal/dataprocessing"
	"flightstats/pkg/contracts"
)

// Pinger is the storage check used by readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports connected websocket clients.
type ClientCounter interface {
	ClientCount() int
}

// SnapshotSource exposes the visible snapshot.
type SnapshotSource interface {
	Status() IngestionStatus
}

// HealthService provides health check functionality
type HealthService struct {
	store     Pinger
	snapshots SnapshotSource
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. snapshots and hub may be nil.
func NewHealthService(store Pinger, snapshots SnapshotSource, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		snapshots: snapshots,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports ready when the store answers. A process that has
// not loaded any snapshot is still ready: KPI queries answer NoData.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["storage"] = hs.checkStorage(ctx)
	status.Services["snapshot"] = hs.checkSnapshot()
	if hs.hub != nil {
		status.Services["websocket"] = ServiceHealth{
			Status:  "ready",
			Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
			Uptime:  time.Since(hs.startTime).String(),
		}
	}

	if sh := status.Services["storage"].(ServiceHealth); sh.Status != "ready" {
		status.Status = "not_ready"
		hs.logger.WarnContext(ctx, "Readiness check failed", slog.String("reason", sh.Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version reports the build, the header dictionary version and uptime.
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":        info.Version,
		"api_version":    info.APIVersion,
		"schema_version": dataprocessing.SchemaVersion,
		"build_time":     info.BuildTime,
		"git_commit":     info.GitCommit,
		"go_version":     info.GoVersion,
		"os":             info.OS,
		"arch":           info.Architecture,
		"uptime":         time.Since(hs.startTime).Seconds(),
		"start_time":     hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkStorage(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "storage not initialized"}
	}
	if err := hs.store.Ping(ctx); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("storage error: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "storage is reachable"}
}

func (hs *HealthService) checkSnapshot() ServiceHealth {
	if hs.snapshots == nil {
		return ServiceHealth{Status: "ready", Message: "no ingestion service"}
	}
	st := hs.snapshots.Status()
	switch {
	case st.Running:
		return ServiceHealth{Status: "ready", Message: "ingestion in progress"}
	case st.Snapshot == nil:
		return ServiceHealth{Status: "ready", Message: "no snapshot loaded"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d rows from %s", st.Snapshot.RetainedRows, st.Snapshot.Source),
	}
}
