package websocket

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HubMetrics holds the hub instruments. A nil *HubMetrics records nothing.
type HubMetrics struct {
	connections metric.Int64UpDownCounter
	messages    metric.Int64Counter
	evicted     metric.Int64Counter
}

// NewHubMetrics registers the hub instruments on meter.
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	connections, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, err
	}

	messages, err := meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of WebSocket messages queued for clients"),
	)
	if err != nil {
		return nil, err
	}

	evicted, err := meter.Int64Counter(
		"websocket_clients_evicted_total",
		metric.WithDescription("Clients disconnected because their send buffer was full"),
	)
	if err != nil {
		return nil, err
	}

	return &HubMetrics{connections: connections, messages: messages, evicted: evicted}, nil
}

func (m *HubMetrics) connected(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, delta)
}

func (m *HubMetrics) sent(ctx context.Context, messageType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.messages.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", messageType)))
}

func (m *HubMetrics) evict(ctx context.Context) {
	if m == nil {
		return
	}
	m.evicted.Add(ctx, 1)
}
