package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"llmconnector/internal/core"
)

// AuthMiddleware creates an Echo middleware that validates the master key
// if it's configured. If masterKey is empty, no authentication is required.
// Requests to skipPaths are never authenticated.
func AuthMiddleware(masterKey string, skipPaths []string) echo.MiddlewareFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// If no master key is configured, allow all requests
			if masterKey == "" {
				return next(c)
			}
			if _, ok := skip[c.Request().URL.Path]; ok {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return authError(c, "missing authorization header")
			}

			const prefix = "Bearer "
			if !strings.HasPrefix(authHeader, prefix) {
				return authError(c, "invalid authorization header format, expected 'Bearer <token>'")
			}

			token := strings.TrimPrefix(authHeader, prefix)
			if subtle.ConstantTimeCompare([]byte(token), []byte(masterKey)) != 1 {
				return authError(c, "invalid master key")
			}

			return next(c)
		}
	}
}

func authError(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"error": map[string]interface{}{
			"type":    "authentication_error",
			"message": message,
		},
	})
}

// RequestIDMiddleware ensures every request carries an X-Request-ID. A
// client-supplied id is kept; otherwise a UUID is generated. The id is echoed
// on the response and stored in the request context for adapters to forward.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			requestID := req.Header.Get(core.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
				req.Header.Set(core.RequestIDHeader, requestID)
			}
			c.Response().Header().Set(core.RequestIDHeader, requestID)
			c.SetRequest(req.WithContext(core.WithRequestID(req.Context(), requestID)))
			return next(c)
		}
	}
}
