package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable, e.g. FLIGHTSTATS_SERVER_PORT.
const EnvPrefix = "FLIGHTSTATS"

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Paths         PathsConfig         `yaml:"paths" envconfig:"PATHS"`
	Ingestion     IngestionConfig     `yaml:"ingestion" envconfig:"INGESTION"`
	Storage       StorageConfig       `yaml:"storage" envconfig:"STORAGE"`
	Query         QueryConfig         `yaml:"query" envconfig:"QUERY"`
	WebSocket     WebSocketConfig     `yaml:"websocket" envconfig:"WEBSOCKET"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`

	// IngestionTimeout bounds a re-ingestion triggered over HTTP.
	IngestionTimeout time.Duration `yaml:"ingestion_timeout" envconfig:"INGESTION_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// PathsConfig contains file system paths configuration. Relative entries are
// resolved against BaseDir, which defaults to the executable directory.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
}

// IngestionConfig describes the raw extract and how to read it.
type IngestionConfig struct {
	SourcePath    string            `yaml:"source_path" envconfig:"SOURCE_PATH"`
	Delimiter     string            `yaml:"delimiter" envconfig:"DELIMITER"`
	Encoding      string            `yaml:"encoding" envconfig:"ENCODING"`
	Decimal       string            `yaml:"decimal" envconfig:"DECIMAL"`
	Sheet         string            `yaml:"sheet" envconfig:"SHEET"`
	BatchSize     int               `yaml:"batch_size" envconfig:"BATCH_SIZE"`
	LoadOnStart   bool              `yaml:"load_on_start" envconfig:"LOAD_ON_START"`
	HeaderAliases map[string]string `yaml:"header_aliases" envconfig:"HEADER_ALIASES"`
}

// StorageConfig contains the SQLite settings.
type StorageConfig struct {
	DatabasePath string        `yaml:"database_path" envconfig:"DATABASE_PATH"`
	BusyTimeout  time.Duration `yaml:"busy_timeout" envconfig:"BUSY_TIMEOUT"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
}

// QueryConfig bounds façade requests.
type QueryConfig struct {
	DefaultLimit int  `yaml:"default_limit" envconfig:"DEFAULT_LIMIT"`
	MaxLimit     int  `yaml:"max_limit" envconfig:"MAX_LIMIT"`
	Diagnostics  bool `yaml:"diagnostics" envconfig:"DIAGNOSTICS"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// ObservabilityConfig selects the OpenTelemetry exporters.
type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TracingEnabled bool   `yaml:"tracing_enabled" envconfig:"TRACING_ENABLED"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
}

// Load builds the configuration from defaults, the first config file found,
// and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file on cfg. Keys absent from the file keep
// their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths anchors relative directories and files at Paths.BaseDir.
func (c *Config) resolvePaths() error {
	if c.Paths.BaseDir == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return err
		}
		c.Paths.BaseDir = dir
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(c.Paths.BaseDir, p)
	}
	c.Paths.DataDir = abs(c.Paths.DataDir)
	c.Paths.LogsDir = abs(c.Paths.LogsDir)
	c.Paths.ReportsDir = abs(c.Paths.ReportsDir)
	c.Logging.FilePath = abs(c.Logging.FilePath)

	if c.Storage.DatabasePath != "" && !filepath.IsAbs(c.Storage.DatabasePath) {
		c.Storage.DatabasePath = filepath.Join(c.Paths.DataDir, c.Storage.DatabasePath)
	}
	c.Ingestion.SourcePath = abs(c.Ingestion.SourcePath)
	return nil
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	switch strings.ToLower(c.Ingestion.Encoding) {
	case "", "latin1", "iso-8859-1", "windows-1252", "cp1252", "utf-8", "utf8":
	default:
		return fmt.Errorf("unsupported ingestion encoding: %q", c.Ingestion.Encoding)
	}

	switch c.Ingestion.Decimal {
	case "", "auto", "comma", "dot":
	default:
		return fmt.Errorf("unsupported decimal policy: %q", c.Ingestion.Decimal)
	}

	if c.Ingestion.LoadOnStart && c.Ingestion.SourcePath == "" {
		return fmt.Errorf("load_on_start requires ingestion.source_path")
	}

	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage database path must be set")
	}

	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("invalid query limits: default %d, max %d", c.Query.DefaultLimit, c.Query.MaxLimit)
	}

	// Logs are always structured JSON
	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		c.Logging.Output = "both"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = filepath.Join(c.Paths.LogsDir, "app.log")
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
		"../../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultRequestTimeout,

			IngestionTimeout: DefaultIngestionTimeout,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     DefaultRateLimit,
				Burst:   DefaultBurstSize,
			},
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			Output: "both",
		},
		Paths: PathsConfig{
			DataDir:    DefaultDataDir,
			LogsDir:    DefaultLogsDir,
			ReportsDir: DefaultReportsDir,
		},
		Ingestion: IngestionConfig{
			Delimiter: DefaultDelimiter,
			Encoding:  DefaultEncoding,
			Decimal:   "auto",
			BatchSize: DefaultBatchSize,
		},
		Storage: StorageConfig{
			DatabasePath: DefaultDatabaseFile,
			BusyTimeout:  5 * time.Second,
			MaxOpenConns: 8,
		},
		Query: QueryConfig{
			DefaultLimit: DefaultQueryLimit,
			MaxLimit:     MaxQueryLimit,
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  WebSocketReadBufferSize,
			WriteBufferSize: WebSocketWriteBufferSize,
			PingPeriod:      WebSocketPingPeriod,
			PongWait:        WebSocketPongWait,
		},
		Observability: ObservabilityConfig{
			ServiceName:    ServiceName,
			MetricsEnabled: true,
		},
	}
}
