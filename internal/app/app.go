// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the connector host.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"llmconnector/config"
	"llmconnector/internal/core"
	"llmconnector/internal/logging"
	"llmconnector/internal/observability"
	"llmconnector/internal/operations"
	"llmconnector/internal/providers"
	"llmconnector/internal/providers/builtin"
	"llmconnector/internal/server"
)

// App represents the main application with all its dependencies.
type App struct {
	config     *config.Config
	connector  *core.Configuration
	factory    *providers.ProviderFactory
	logger     *slog.Logger
	operations *operations.Operations
	server     *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Options holds the inputs for creating an App.
type Options struct {
	// Config is the loaded application configuration.
	Config *config.Config

	// Factory overrides the adapter factory. Nil means the built-in OpenAI and
	// Anthropic adapters.
	Factory *providers.ProviderFactory

	// LogOutput overrides where logs are written. Nil means stderr.
	LogOutput io.Writer
}

// New creates a new App with all dependencies initialized. The logger it
// builds becomes the slog default.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("app config is required")
	}
	cfg := opts.Config

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: opts.LogOutput,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	slog.SetDefault(logger)

	connector, err := cfg.Connector()
	if err != nil {
		return nil, fmt.Errorf("invalid llm configuration: %w", err)
	}

	factory := opts.Factory
	if factory == nil {
		factory = builtin.NewFactory()
	}
	// Hooks must be set before adapters are created so they pick them up
	if cfg.Metrics.Enabled {
		factory.SetHooks(observability.NewPrometheusHooks(connector.EffectiveModel()))
	}

	app := &App{
		config:     cfg,
		connector:  connector,
		factory:    factory,
		logger:     logger,
		operations: operations.New(factory, logger),
	}

	app.server = server.New(app.operations, connector, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsEndpoint: cfg.Metrics.Endpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	app.logStartupInfo()
	return app, nil
}

// Operations returns the facade bound to the app's factory.
func (a *App) Operations() *operations.Operations {
	return a.operations
}

// Connector returns the configuration every operation runs against.
func (a *App) Connector() *core.Configuration {
	return a.connector
}

// Handler returns the HTTP handler of the host.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server, honoring ctx for its deadline,
// then releases idle vendor connections. It is idempotent; calls after the
// first are no-ops.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Info("shutting down application...")

	var err error
	if a.server != nil {
		if err = a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			err = fmt.Errorf("server shutdown: %w", err)
		}
	}
	if a.factory != nil {
		a.factory.CloseIdleConnections()
	}
	if err != nil {
		return err
	}

	slog.Info("application shutdown complete")
	return nil
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo() {
	cfg := a.config

	slog.Info("connector configured",
		"provider", a.connector.Provider.DisplayName(),
		"model", a.connector.EffectiveModel(),
		"base_url", a.connector.EffectiveBaseURL(),
		"timeout", a.connector.Timeout(),
	)
	slog.Info("provider adapters registered", "providers", a.factory.ListRegistered())
	if a.connector.StreamingEnabled {
		slog.Warn("streaming_enabled is set but streaming is not supported; requests are sent non-streaming")
	}

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: LLMCONNECTOR_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set LLMCONNECTOR_MASTER_KEY environment variable to secure this connector")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	if cfg.Metrics.Enabled {
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
}
