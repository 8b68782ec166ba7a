package server

import (
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmconnector/internal/core"
	"llmconnector/internal/operations"
)

// DefaultBodySizeLimit applies when Config.BodySizeLimit is empty.
const DefaultBodySizeLimit = "10M"

// Server wraps the Echo server
type Server struct {
	echo    *echo.Echo
	handler *Handler
}

// Config holds server configuration options
type Config struct {
	MasterKey       string // Optional: Master key for authentication
	MetricsEnabled  bool   // Whether to expose Prometheus metrics endpoint
	MetricsEndpoint string // HTTP path for metrics endpoint (default: /metrics)
	BodySizeLimit   string // Max request body size in echo syntax (default: 10M)
}

// New creates a new HTTP server that runs every operation against connector.
func New(ops *operations.Operations, connector *core.Configuration, cfg *Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	handler := NewHandler(ops, connector)

	// Build list of paths that skip authentication
	authSkipPaths := []string{"/health"}

	metricsPath := "/metrics"
	if cfg != nil && cfg.MetricsEnabled {
		if cfg.MetricsEndpoint != "" {
			// Normalize path to prevent traversal attacks
			metricsPath = path.Clean(cfg.MetricsEndpoint)
		}
		authSkipPaths = append(authSkipPaths, metricsPath)
	}

	// Global middleware stack (order matters)
	e.Use(RequestIDMiddleware())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			slog.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	bodySizeLimit := DefaultBodySizeLimit
	if cfg != nil && cfg.BodySizeLimit != "" {
		bodySizeLimit = cfg.BodySizeLimit
	}
	e.Use(middleware.BodyLimit(bodySizeLimit))

	// Authentication (skips public paths)
	if cfg != nil && cfg.MasterKey != "" {
		e.Use(AuthMiddleware(cfg.MasterKey, authSkipPaths))
	}

	// Public routes
	e.GET("/health", handler.Health)
	if cfg != nil && cfg.MetricsEnabled {
		e.GET(metricsPath, echo.WrapHandler(promhttp.Handler()))
	}

	// API routes
	v1 := e.Group("/v1")
	v1.POST("/prompt", handler.Prompt)
	v1.POST("/chat", handler.Chat)
	v1.POST("/chat/advanced", handler.AdvancedChat)
	v1.GET("/connection", handler.Connection)

	return &Server{
		echo:    e,
		handler: handler,
	}
}

// Start starts the HTTP server on the given address
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP implements the http.Handler interface, allowing Server to be used with httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
