package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeProvider indicates the vendor answered with a non-2xx status
	ErrorTypeProvider ErrorType = "provider_error"
	// ErrorTypeTransport indicates a network or I/O failure talking to the vendor
	ErrorTypeTransport ErrorType = "transport_error"
	// ErrorTypeUnsupportedProvider indicates a provider with no adapter
	ErrorTypeUnsupportedProvider ErrorType = "unsupported_provider_error"
	// ErrorTypeParse indicates a vendor response that violates its own contract
	ErrorTypeParse ErrorType = "parse_error"
	// ErrorTypeInvalidRequest indicates the caller supplied unusable input
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
)

// StatusCodeUnknown is the status carried by errors that never got an HTTP response.
const StatusCodeUnknown = -1

// GatewayError is the single error type surfaced by adapters, the selector and the facade.
type GatewayError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	Provider   string    `json:"provider,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status a host should answer with for this error.
// Vendor client errors pass through; everything upstream-related is a 502.
func (e *GatewayError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeProvider:
		if e.StatusCode >= 400 && e.StatusCode < 500 {
			return e.StatusCode
		}
		return http.StatusBadGateway
	case ErrorTypeTransport, ErrorTypeParse:
		return http.StatusBadGateway
	case ErrorTypeUnsupportedProvider:
		return http.StatusNotImplemented
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *GatewayError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"type":    e.Type,
		"message": e.Message,
	}
	if e.Provider != "" {
		body["provider"] = e.Provider
	}
	if e.StatusCode != 0 {
		body["status_code"] = e.StatusCode
	}
	return map[string]interface{}{"error": body}
}

// NewProviderError creates an error for a non-2xx vendor response.
// The raw response body becomes part of the message.
func NewProviderError(provider string, statusCode int, body string) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeProvider,
		Message:    provider + " API error: " + body,
		StatusCode: statusCode,
		Provider:   provider,
	}
}

// NewTransportError creates an error for a failed round-trip.
func NewTransportError(provider string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeTransport,
		Message:    fmt.Sprintf("failed to communicate with %s API: %v", provider, err),
		StatusCode: StatusCodeUnknown,
		Provider:   provider,
		Err:        err,
	}
}

// NewParseError creates an error for a vendor response that could not be translated.
func NewParseError(provider string, message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeParse,
		Message:    message,
		StatusCode: StatusCodeUnknown,
		Provider:   provider,
		Err:        err,
	}
}

// NewUnsupportedProviderError creates the selector's permanent failure for a provider without an adapter.
func NewUnsupportedProviderError(provider ProviderType) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeUnsupportedProvider,
		Message:    provider.DisplayName() + " provider not yet implemented",
		StatusCode: StatusCodeUnknown,
		Provider:   provider.DisplayName(),
	}
}

// NewInvalidRequestError creates a new invalid request error
func NewInvalidRequestError(message string, err error) *GatewayError {
	return &GatewayError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// IsUnsupportedProvider reports whether err came from selecting a provider without an adapter.
func IsUnsupportedProvider(err error) bool {
	return isType(err, ErrorTypeUnsupportedProvider)
}

// IsTransportError reports whether err is a network or I/O failure.
func IsTransportError(err error) bool {
	return isType(err, ErrorTypeTransport)
}

func isType(err error, t ErrorType) bool {
	var gatewayErr *GatewayError
	return errors.As(err, &gatewayErr) && gatewayErr.Type == t
}
