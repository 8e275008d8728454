// Package events contains the WebSocket event contracts published when the
// canonical relation changes.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeIngestionStarted MessageType = "ingestion:started"
	MessageTypeIngestionFailed  MessageType = "ingestion:failed"
	MessageTypeSnapshotReplaced MessageType = "snapshot:replaced"

	MessageTypeConnect MessageType = "connect"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// IngestionEvent is the payload of the ingestion:* messages.
type IngestionEvent struct {
	RunID    string `json:"run_id"`
	Source   string `json:"source"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	Total    int    `json:"total,omitempty"`
	Retained int    `json:"retained,omitempty"`
	Dropped  int    `json:"dropped,omitempty"`
}

// ConnectEvent greets a newly registered client.
type ConnectEvent struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}
