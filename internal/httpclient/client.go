// Package httpclient builds the pooled HTTP clients adapters talk to vendors with.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

// ClientConfig holds the transport tunables for a vendor client.
type ClientConfig struct {
	// Timeout bounds a whole round-trip. Zero means no limit.
	Timeout time.Duration

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	DialTimeout         time.Duration
	KeepAlive           time.Duration
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for vendor response headers.
	ResponseHeaderTimeout time.Duration
}

// getEnvDuration reads key as whole seconds or a Go duration ("90s", "2m").
// Unset or unparsable values yield def.
func getEnvDuration(key string, def time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return def
}

// DefaultConfig returns the vendor client settings for the given round-trip timeout.
// HTTP_RESPONSE_HEADER_TIMEOUT overrides the response header wait.
func DefaultConfig(timeout time.Duration) ClientConfig {
	return ClientConfig{
		Timeout:               timeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		DialTimeout:           30 * time.Second,
		KeepAlive:             30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: getEnvDuration("HTTP_RESPONSE_HEADER_TIMEOUT", 600*time.Second),
	}
}

// NewHTTPClient creates a client with its own connection pool.
func NewHTTPClient(config ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   config.DialTimeout,
		KeepAlive: config.KeepAlive,
	}
	return &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          config.MaxIdleConns,
			MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
			IdleConnTimeout:       config.IdleConnTimeout,
			TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
			ResponseHeaderTimeout: config.ResponseHeaderTimeout,
			ForceAttemptHTTP2:     true,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// Pool hands out one long-lived client per round-trip timeout, so adapters
// created per call still share keep-alive connections.
type Pool struct {
	mu      sync.Mutex
	clients map[time.Duration]*http.Client
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{clients: make(map[time.Duration]*http.Client)}
}

// Get returns the client for timeout, building it on first use.
func (p *Pool) Get(timeout time.Duration) *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[timeout]; ok {
		return client
	}
	client := NewHTTPClient(DefaultConfig(timeout))
	p.clients[timeout] = client
	return client
}

// CloseIdleConnections closes idle connections of every client in the pool.
func (p *Pool) CloseIdleConnections() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, client := range p.clients {
		client.CloseIdleConnections()
	}
}
