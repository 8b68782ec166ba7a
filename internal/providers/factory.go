// Package providers selects and constructs the vendor adapter for a configuration.
package providers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"llmconnector/internal/core"
	"llmconnector/internal/httpclient"
	"llmconnector/internal/llmclient"
)

// ProviderOptions carries the infrastructure an adapter is built with.
type ProviderOptions struct {
	// HTTPClient is shared by every request of the adapter.
	HTTPClient *http.Client
	Hooks      llmclient.Hooks
}

// Registration binds a provider type to its adapter constructor.
type Registration struct {
	Type core.ProviderType
	New  func(cfg *core.Configuration, opts ProviderOptions) core.ProviderClient
}

// ProviderFactory maps provider types to adapter constructors.
type ProviderFactory struct {
	mu         sync.RWMutex
	builders   map[core.ProviderType]Registration
	hooks      llmclient.Hooks
	httpClient *http.Client
	clients    *httpclient.Pool
}

// NewProviderFactory creates a factory with no registered adapters.
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{
		builders: make(map[core.ProviderType]Registration),
		clients:  httpclient.NewPool(),
	}
}

// Add registers an adapter. A later registration for the same type replaces the earlier one.
func (f *ProviderFactory) Add(reg Registration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[reg.Type] = reg
}

// SetHooks sets the observability hooks passed to every adapter created afterwards.
func (f *ProviderFactory) SetHooks(hooks llmclient.Hooks) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks = hooks
}

// SetHTTPClient overrides the HTTP client handed to adapters. Mostly useful in tests.
func (f *ProviderFactory) SetHTTPClient(client *http.Client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.httpClient = client
}

// Create returns the adapter for cfg.Provider. Providers without a
// registered adapter fail with an unsupported-provider error; nothing is
// sent over the network. Adapters created for the same timeout share one
// pooled HTTP client unless SetHTTPClient was called.
func (f *ProviderFactory) Create(cfg *core.Configuration) (core.ProviderClient, error) {
	if cfg == nil {
		return nil, core.NewInvalidRequestError("configuration is required", nil)
	}

	f.mu.RLock()
	reg, ok := f.builders[cfg.Provider]
	hooks := f.hooks
	httpClient := f.httpClient
	f.mu.RUnlock()

	if !ok {
		return nil, core.NewUnsupportedProviderError(cfg.Provider)
	}

	if httpClient == nil {
		httpClient = f.clients.Get(cfg.Timeout())
	}
	return reg.New(cfg, ProviderOptions{HTTPClient: httpClient, Hooks: hooks}), nil
}

// CloseIdleConnections releases idle keep-alive connections held by the
// factory's pooled clients.
func (f *ProviderFactory) CloseIdleConnections() {
	f.clients.CloseIdleConnections()
}

// ListRegistered returns the registered provider types, sorted.
func (f *ProviderFactory) ListRegistered() []core.ProviderType {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]core.ProviderType, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Probe settings shared by every adapter's TestConnection.
const (
	probeMessage   = "Hello"
	probeMaxTokens = 5
)

// ProbeRequest builds the minimal completion used to check connectivity.
func ProbeRequest(cfg *core.Configuration) *core.CompletionRequest {
	return core.NewRequestBuilder().
		Model(cfg.EffectiveModel()).
		AddUserMessage(probeMessage).
		MaxTokens(probeMaxTokens).
		Build()
}

// ProbeConnection sends ProbeRequest through client and reports whether any
// content came back. Failures are logged and reported as false.
func ProbeConnection(ctx context.Context, client core.ProviderClient) bool {
	cfg := client.Configuration()
	resp, err := client.Complete(ctx, ProbeRequest(cfg))
	if err != nil {
		slog.ErrorContext(ctx, "connection test failed",
			"provider", cfg.Provider.DisplayName(),
			"unreachable", core.IsTransportError(err),
			"error", err,
		)
		return false
	}
	_, ok := resp.Content()
	return ok
}
