package config

import "time"

// Application constants
const (
	// Application Info
	AppName     = "Flight Stats"
	ServiceName = "flightstats"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultRequestTimeout   = 60 * time.Second
	DefaultIngestionTimeout = 10 * time.Minute
	WebSocketPingPeriod     = 30 * time.Second
	WebSocketPongWait       = 60 * time.Second

	// File Paths (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultLogsDir      = "logs"
	DefaultReportsDir   = "data/reports"
	DefaultDatabaseFile = "flights.db"

	// Extract defaults
	DefaultDelimiter = ";"
	DefaultEncoding  = "latin1"
	DefaultBatchSize = 5000

	// Query limits
	DefaultQueryLimit = 10
	MaxQueryLimit     = 500

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Endpoints
const (
	APIBasePath       = "/api/v1"
	HealthEndpoint    = "/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
