// Package openai provides OpenAI API integration for the connector.
package openai

import (
	"context"
	"net/http"

	"llmconnector/internal/core"
	"llmconnector/internal/llmclient"
	"llmconnector/internal/providers"
)

// Registration provides factory registration for the OpenAI provider.
var Registration = providers.Registration{
	Type: core.ProviderOpenAI,
	New:  New,
}

// Provider implements the core.ProviderClient interface for OpenAI
type Provider struct {
	client *llmclient.Client
	cfg    *core.Configuration
}

// New creates a new OpenAI provider bound to cfg.
func New(cfg *core.Configuration, opts providers.ProviderOptions) core.ProviderClient {
	return newProvider(cfg, opts)
}

func newProvider(cfg *core.Configuration, opts providers.ProviderOptions) *Provider {
	p := &Provider{cfg: cfg}
	p.client = llmclient.New(opts.HTTPClient, llmclient.Config{
		ProviderName: cfg.Provider.DisplayName(),
		BaseURL:      cfg.EffectiveBaseURL(),
		Hooks:        opts.Hooks,
	}, p.setHeaders)
	return p
}

// Configuration returns the configuration the provider is bound to.
func (p *Provider) Configuration() *core.Configuration {
	return p.cfg
}

// setHeaders sets the required headers for OpenAI API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
}

// requestHeaders forwards the caller's request ID as X-Client-Request-Id.
// OpenAI rejects ids that are not ASCII or exceed 512 bytes with a 400, so
// those are dropped.
func requestHeaders(ctx context.Context) map[string]string {
	requestID := core.GetRequestID(ctx)
	if requestID == "" || !isValidClientRequestID(requestID) {
		return nil
	}
	return map[string]string{"X-Client-Request-Id": requestID}
}

// isValidClientRequestID checks if the request ID is valid for OpenAI's X-Client-Request-Id header.
// OpenAI requires: ASCII characters only, max 512 characters.
func isValidClientRequestID(id string) bool {
	if len(id) > 512 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] > 127 {
			return false
		}
	}
	return true
}

// withDefaults returns a copy of req with model, temperature and max_tokens
// filled from the configuration where the caller left them unset.
func (p *Provider) withDefaults(req *core.CompletionRequest) *core.CompletionRequest {
	out := req.Clone()
	if out.Model == "" {
		out.Model = p.cfg.EffectiveModel()
	}
	if out.Temperature == nil {
		temperature := p.cfg.Temperature
		out.Temperature = &temperature
	}
	if out.MaxTokens == nil && p.cfg.MaxTokens != nil {
		maxTokens := *p.cfg.MaxTokens
		out.MaxTokens = &maxTokens
	}
	return out
}

// Complete sends a chat completion request to OpenAI. The canonical request
// is already OpenAI-shaped, so it is sent as the wire body after defaults
// are applied.
func (p *Provider) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	body := p.withDefaults(req)

	var resp core.CompletionResponse
	err := p.client.Do(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/chat/completions",
		Body:     body,
		Headers:  requestHeaders(ctx),
		Model:    body.Model,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestConnection sends a minimal completion and reports whether content came back.
func (p *Provider) TestConnection(ctx context.Context) bool {
	return providers.ProbeConnection(ctx, p)
}
