package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"flightstats/internal/config"
	"flightstats/internal/infrastructure"
	"flightstats/internal/middleware"
	ws "flightstats/internal/websocket"
)

// WebSocketHandler upgrades connections and attaches them to the hub as
// snapshot event subscribers.
type WebSocketHandler struct {
	hub            *ws.Hub
	upgrader       websocket.Upgrader
	client         ws.ClientOptions
	allowedOrigins map[string]bool
	logger         *slog.Logger
}

// NewWebSocketHandler creates a websocket handler. Same-host origins are
// always accepted; other origins must be listed in allowedOrigins.
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub: hub,
		client: ws.ClientOptions{
			PongWait:   cfg.PongWait,
			PingPeriod: cfg.PingPeriod,
		},
		allowedOrigins: make(map[string]bool, len(allowedOrigins)),
		logger:         logger.With(slog.String("component", "websocket_handler")),
	}
	for _, o := range allowedOrigins {
		h.allowedOrigins[strings.TrimSuffix(o, "/")] = true
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.WarnContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if reqID == "" {
		reqID = infrastructure.GenerateTraceID()
	}
	ctx := infrastructure.WithTraceID(r.Context(), reqID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		return
	}

	opts := h.client
	opts.TraceID = reqID
	client := ws.NewClient(h.hub, ws.WrapConn(conn), opts, h.logger)
	client.Serve()

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if h.allowedOrigins[strings.TrimSuffix(origin, "/")] {
		return true
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin not allowed",
		slog.String("origin", origin))
	return false
}
