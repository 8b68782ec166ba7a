// Package llmclient provides the HTTP round-trip shared by vendor adapters:
// JSON request marshaling, provider headers, status classification and
// response decoding. It performs exactly one attempt per call.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"llmconnector/internal/core"
)

// Config holds configuration for the LLM client
type Config struct {
	// ProviderName identifies the provider in errors, logs and hooks
	ProviderName string

	// BaseURL is the API base URL, without a trailing slash
	BaseURL string

	// Hooks observe every round-trip. Zero value disables them.
	Hooks Hooks
}

// HeaderSetter is a function that sets headers on an HTTP request
type HeaderSetter func(req *http.Request)

// Client is a base HTTP client for LLM providers
type Client struct {
	httpClient   *http.Client
	config       Config
	headerSetter HeaderSetter
}

// New creates a new LLM client. httpClient must be safe for concurrent use;
// the pooled clients from internal/httpclient are.
func New(httpClient *http.Client, config Config, headerSetter HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient:   httpClient,
		config:       config,
		headerSetter: headerSetter,
	}
}

// BaseURL returns the current base URL
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Request represents an HTTP request to be made
type Request struct {
	Method   string
	Endpoint string
	Body     interface{} // Will be JSON marshaled if not nil
	Headers  map[string]string
	// Model is reported to hooks; it does not affect the wire request
	Model string
}

// Response represents a successful HTTP response
type Response struct {
	StatusCode int
	Body       []byte
}

// Do executes a request and unmarshals a successful response into result.
// Unknown response fields are ignored.
func (c *Client) Do(ctx context.Context, req Request, result interface{}) error {
	resp, err := c.DoRaw(ctx, req)
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(resp.Body, result); err != nil {
			return core.NewParseError(c.config.ProviderName, "failed to unmarshal response: "+err.Error(), err)
		}
	}

	return nil
}

// DoRaw executes a request and returns the raw body of a 2xx response.
// Any other status yields a provider error carrying the raw body; a failed
// round-trip yields a transport error.
func (c *Client) DoRaw(ctx context.Context, req Request) (*Response, error) {
	httpReq, payload, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	info := RequestInfo{
		Provider: c.config.ProviderName,
		Model:    req.Model,
		Endpoint: req.Endpoint,
		Method:   req.Method,
	}
	ctx = c.config.Hooks.start(ctx, info)
	start := time.Now()

	slog.DebugContext(ctx, "provider request",
		"provider", c.config.ProviderName,
		"endpoint", req.Endpoint,
		"body", string(payload),
	)

	resp, err := c.doRequest(httpReq)
	statusCode := core.StatusCodeUnknown
	if resp != nil {
		statusCode = resp.StatusCode
	}
	if err == nil && (statusCode < 200 || statusCode >= 300) {
		err = core.NewProviderError(c.config.ProviderName, statusCode, string(resp.Body))
	}

	c.config.Hooks.end(ctx, ResponseInfo{
		RequestInfo: info,
		StatusCode:  statusCode,
		Duration:    time.Since(start),
		Error:       err,
	})

	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "provider response",
		"provider", c.config.ProviderName,
		"status", statusCode,
		"body", string(resp.Body),
	)
	return resp, nil
}

// doRequest executes a single HTTP request and reads the whole body.
func (c *Client) doRequest(httpReq *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, core.NewTransportError(c.config.ProviderName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewTransportError(c.config.ProviderName, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// buildRequest creates an HTTP request from a Request and returns the encoded body.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, []byte, error) {
	url := c.config.BaseURL + req.Endpoint

	var bodyBytes []byte
	var bodyReader io.Reader
	if req.Body != nil {
		var err error
		bodyBytes, err = json.Marshal(req.Body)
		if err != nil {
			return nil, nil, core.NewInvalidRequestError("failed to marshal request", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, bodyReader)
	if err != nil {
		return nil, nil, core.NewInvalidRequestError("failed to create request", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Apply provider-specific headers
	if c.headerSetter != nil {
		c.headerSetter(httpReq)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	return httpReq, bodyBytes, nil
}
