package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"flightstats/internal/analytics"
	"flightstats/internal/config"
	"flightstats/internal/dataprocessing"
	apierrors "flightstats/internal/errors"
	"flightstats/internal/exporter"
	"flightstats/internal/infrastructure"
	customMiddleware "flightstats/internal/middleware"
	"flightstats/internal/services"
	"flightstats/internal/storage"
	handlers "flightstats/internal/transport/http"
	ws "flightstats/internal/websocket"
	"flightstats/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Services      *ServiceContainer

	errorHandler *apierrors.ErrorHandler
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	DB        *storage.DB
	Ingestion *services.IngestionService
	Query     *services.QueryService
	Health    *services.HealthService
	Exporter  *exporter.Exporter
	WebSocket *ws.Hub
}

// NewApplication wires storage, services and the router from cfg. A nil cfg
// is loaded from the environment.
func NewApplication(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    environment(cfg),
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  cfg.Observability.MetricsEnabled,
		EnableTracing:  cfg.Observability.TracingEnabled,
		SampleRatio:    1.0,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(ctx); err != nil {
		otelProviders.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func environment(cfg *config.Config) string {
	if cfg.Logging.Development {
		return "development"
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "production"
}

// initializeServices opens storage and builds the services on top of it.
func (a *Application) initializeServices(ctx context.Context) error {
	hubMetrics, err := ws.NewHubMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, hubMetrics)

	db, err := storage.Open(ctx, storage.Options{
		Path:         a.Paths.DatabaseFile,
		BusyTimeout:  a.Config.Storage.BusyTimeout,
		MaxOpenConns: a.Config.Storage.MaxOpenConns,
	}, a.Logger)
	if err != nil {
		return err
	}

	ingestion, err := services.NewIngestionService(db, services.NewIngestionOptions(a.Config), hub, a.Metrics, a.Logger)
	if err != nil {
		db.Close()
		return err
	}

	engine := analytics.NewEngine(db.SQL(), a.Logger, a.Config.Query.Diagnostics)
	query := services.NewQueryService(engine, services.QueryOptions{
		DefaultLimit: a.Config.Query.DefaultLimit,
		MaxLimit:     a.Config.Query.MaxLimit,
	}, a.Metrics, a.Logger)

	a.Services = &ServiceContainer{
		DB:        db,
		Ingestion: ingestion,
		Query:     query,
		Health:    services.NewHealthService(db, ingestion, hub, a.Logger),
		Exporter:  exporter.New(query, db, exporter.NewCSVWriter(a.Paths, a.Logger), a.Logger).
			WithDecimal(dataprocessing.DecimalPolicy(a.Config.Ingestion.Decimal)),
		WebSocket: hub,
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that leaves the ResponseWriter alone runs before /ws.
	r.Use(customMiddleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)

	r.Handle(config.WebSocketEndpoint, handlers.NewWebSocketHandler(
		a.Services.WebSocket, a.Config.WebSocket, a.allowedOrigins(), a.Logger))

	r.Group(func(r chi.Router) {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)

		r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))
	})

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

			healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
			healthHandler.RegisterRoutes(r)

			kpiHandler := handlers.NewKPIHandler(a.Services.Query, a.Config.Query.MaxLimit, a.Logger, a.errorHandler)
			kpiHandler.RegisterRoutes(r)

			exportHandler := handlers.NewExportHandler(a.Services.Exporter, a.Logger, a.errorHandler)
			r.Mount("/export", exportHandler.Routes())
		})

		// Re-ingestion runs under its own timeout.
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.IngestionTimeout))
			r.Use(customMiddleware.AuditLog(a.Logger))

			ingestionHandler := handlers.NewIngestionHandler(a.Services.Ingestion, a.Logger, a.errorHandler)
			r.Mount("/ingestion", ingestionHandler.Routes())
		})
	})
}

func (a *Application) allowedOrigins() []string {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	return append(origins, a.Config.Security.AllowedOrigins...)
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"Content-Disposition",
		},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start restores the persisted snapshot, optionally re-ingests the configured
// extract, and starts serving. Server errors cancel ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("database", a.Paths.DatabaseFile))

	a.Services.WebSocket.Start()

	if err := a.Services.Ingestion.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	if a.Config.Ingestion.LoadOnStart {
		go a.loadOnStart(ctx)
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d%s", a.Config.Server.Port, config.APIBasePath)))
	return nil
}

// loadOnStart ingests the configured source. A failure keeps whatever
// snapshot Restore found.
func (a *Application) loadOnStart(ctx context.Context) {
	result, err := a.Services.Ingestion.Ingest(ctx, "")
	if err != nil {
		a.Logger.ErrorContext(ctx, "Ingestion on start failed",
			slog.String("source", a.Config.Ingestion.SourcePath),
			slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "Ingestion on start completed", slog.String("result", result.String()))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Services.WebSocket.Stop()

	if err := a.Services.DB.Close(); err != nil {
		a.Logger.ErrorContext(ctx, "Error closing database", slog.String("error", err.Error()))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck verifies the writable directories and the source.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"Data":    a.Paths.DataDir,
		"Reports": a.Paths.ReportsDir,
		"Logs":    a.Paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if a.Paths.SourceFile != "" {
		if err := a.Paths.ValidateSource(); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
