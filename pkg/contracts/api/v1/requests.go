// Package api contains the HTTP request and response contracts of the
// flightstats v1 API.
package api

import (
	"flightstats/pkg/contracts/domain"
)

// StatusSuccess is the status of every successful envelope.
const StatusSuccess = "success"

// IngestionRequest triggers a re-ingestion. An empty Path re-reads the
// configured extract.
type IngestionRequest struct {
	Path string `json:"path,omitempty" validate:"omitempty,extractpath"`
}

// IngestionStatusResponse reports the visible snapshot and the last run.
type IngestionStatusResponse struct {
	Running    bool                 `json:"running"`
	Snapshot   *domain.SnapshotInfo `json:"snapshot,omitempty"`
	LastReport interface{}          `json:"last_report,omitempty"`
	LastRunAt  string               `json:"last_run_at,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
}

// DataResponse is the envelope of every successful JSON response. Count is
// set for list payloads only.
type DataResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Count  *int        `json:"count,omitempty"`
}

// NewDataResponse wraps a single payload.
func NewDataResponse(data interface{}) DataResponse {
	return DataResponse{Status: StatusSuccess, Data: data}
}

// NewListResponse wraps a list payload of n items.
func NewListResponse(data interface{}, n int) DataResponse {
	return DataResponse{Status: StatusSuccess, Data: data, Count: &n}
}
