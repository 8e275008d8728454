package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"flightstats/internal/infrastructure"
	"flightstats/pkg/contracts/events"
)

// broadcastBuffer bounds the queue between publishers and the hub loop.
const broadcastBuffer = 64

type outbound struct {
	messageType string
	payload     []byte
}

// Hub maintains the set of active clients and fans snapshot events out to
// them. The last snapshot:replaced message is replayed to every client that
// connects later.
type Hub struct {
	// Registered clients, owned by the Run loop
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	latest  []byte
	count   int
	running bool
	stopped bool

	logger  *slog.Logger
	metrics *HubMetrics

	quit chan struct{}
	done chan struct{}
}

// NewHub creates a new Hub instance. metrics may be nil.
func NewHub(logger *slog.Logger, metrics *HubMetrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs the hub loop in its own goroutine. It is a no-op when the hub
// is already running or has been stopped.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running || h.stopped {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.setCount(0)
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))

			ctx := client.context()
			h.metrics.connected(ctx, 1)
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.greet(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; !ok {
				continue
			}
			delete(h.clients, client)
			close(client.send)
			h.setCount(len(h.clients))

			ctx := client.context()
			h.metrics.connected(ctx, -1)
			h.logger.InfoContext(ctx, "Client unregistered",
				slog.Int("total_clients", len(h.clients)),
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)))

		case msg := <-h.broadcast:
			delivered := 0
			for client := range h.clients {
				select {
				case client.send <- msg.payload:
					delivered++
				default:
					delete(h.clients, client)
					close(client.send)
					h.metrics.connected(client.context(), -1)
					h.metrics.evict(client.context())
					h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}
			h.setCount(len(h.clients))
			h.metrics.sent(context.Background(), msg.messageType, delivered)

			h.logger.Debug("Broadcast delivered",
				slog.String("type", msg.messageType),
				slog.Int("clients", delivered),
				slog.Int("payload_size", len(msg.payload)))
		}
	}
}

// greet sends the connect message and the current snapshot to a new client.
func (h *Hub) greet(client *Client) {
	connect, err := encode(string(events.MessageTypeConnect), events.ConnectEvent{
		ClientID: client.id,
		Status:   "connected",
	}, client.traceID)
	if err == nil {
		h.offer(client, connect)
	}

	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	if latest != nil {
		h.offer(client, latest)
	}
}

func (h *Hub) offer(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Failed to greet client - buffer full",
			slog.String("client_id", client.id))
	}
}

// Broadcast queues an event for every connected client. It never blocks:
// when the queue is full the event is dropped and logged.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	h.BroadcastWithTrace(messageType, data, "")
}

// BroadcastWithTrace is Broadcast with the originating trace id attached.
func (h *Hub) BroadcastWithTrace(messageType string, data interface{}, traceID string) {
	payload, err := encode(messageType, data, traceID)
	if err != nil {
		h.logger.Error("Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", messageType))
		return
	}

	if messageType == string(events.MessageTypeSnapshotReplaced) {
		h.mu.Lock()
		h.latest = payload
		h.mu.Unlock()
	}

	select {
	case h.broadcast <- outbound{messageType: messageType, payload: payload}:
	case <-h.quit:
	default:
		h.logger.Warn("Broadcast queue full, dropping message",
			slog.String("message_type", messageType))
	}
}

func encode(messageType string, data interface{}, traceID string) ([]byte, error) {
	return json.Marshal(events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      events.MessageType(messageType),
			Timestamp: time.Now().UTC(),
			TraceID:   traceID,
		},
		Data: data,
	})
}

// Register adds a client to the hub. After Stop the client's connection is
// closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.conn.Close()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Stop ends the hub loop and closes every client's send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.stopped = true
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}
