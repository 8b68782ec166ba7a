// Package anthropic provides Anthropic API integration for the connector.
package anthropic

import (
	"context"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"llmconnector/internal/core"
	"llmconnector/internal/llmclient"
	"llmconnector/internal/providers"
)

// Registration provides factory registration for the Anthropic provider.
var Registration = providers.Registration{
	Type: core.ProviderAnthropic,
	New:  New,
}

const (
	anthropicAPIVersion = "2023-06-01"
	// defaultMaxTokens is sent when neither the request nor the configuration
	// sets max_tokens; the Messages API rejects requests without it.
	defaultMaxTokens = 1024
)

// Provider implements the core.ProviderClient interface for Anthropic
type Provider struct {
	client *llmclient.Client
	cfg    *core.Configuration
}

// New creates a new Anthropic provider bound to cfg.
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

// setHeaders sets the required headers for Anthropic API requests
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", p.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
}

// anthropicRequest represents the Anthropic API request format
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      *string            `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

// anthropicMessage represents a message in Anthropic format
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// convertToAnthropicRequest builds the wire body from req, falling back to
// the configuration for model, max_tokens and temperature. req is not modified.
func (p *Provider) convertToAnthropicRequest(req *core.CompletionRequest) *anthropicRequest {
	anthropicReq := &anthropicRequest{
		Model:       p.cfg.EffectiveModel(),
		MaxTokens:   defaultMaxTokens,
		Temperature: p.cfg.Temperature,
		Messages:    make([]anthropicMessage, 0, len(req.Messages)),
	}

	if req.Model != "" {
		anthropicReq.Model = req.Model
	}

	switch {
	case req.MaxTokens != nil:
		anthropicReq.MaxTokens = *req.MaxTokens
	case p.cfg.MaxTokens != nil:
		anthropicReq.MaxTokens = *p.cfg.MaxTokens
	}

	if req.Temperature != nil {
		anthropicReq.Temperature = *req.Temperature
	}

	// System messages move to the top-level field; the last one wins.
	for _, msg := range req.Messages {
		if msg.Role == core.RoleSystem {
			system := msg.Content
			anthropicReq.System = &system
			continue
		}
		anthropicReq.Messages = append(anthropicReq.Messages, anthropicMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return anthropicReq
}

// convertFromAnthropicResponse translates a Messages API reply. id, model and
// stop_reason are required; content and usage degrade to empty values.
func (p *Provider) convertFromAnthropicResponse(body []byte) (*core.CompletionResponse, error) {
	provider := p.cfg.Provider.DisplayName()
	if !gjson.ValidBytes(body) {
		return nil, core.NewParseError(provider, "failed to parse response: invalid JSON", nil)
	}

	fields := gjson.GetManyBytes(body, "id", "model", "stop_reason", "content.0.text", "usage")
	for i, name := range []string{"id", "model", "stop_reason"} {
		if !fields[i].Exists() {
			return nil, core.NewParseError(provider, "failed to parse response: missing field "+name, nil)
		}
	}

	resp := &core.CompletionResponse{
		ID:      fields[0].String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   fields[1].String(),
		Choices: []core.Choice{
			{
				Index:        0,
				Message:      core.AssistantMessage(fields[3].String()),
				FinishReason: fields[2].String(),
			},
		},
	}

	if usage := fields[4]; usage.Exists() {
		input := int(usage.Get("input_tokens").Int())
		output := int(usage.Get("output_tokens").Int())
		resp.Usage = &core.Usage{
			PromptTokens:     input,
			CompletionTokens: output,
			TotalTokens:      input + output,
		}
	}

	return resp, nil
}

// Complete sends a chat completion request to Anthropic
func (p *Provider) Complete(ctx context.Context, req *core.CompletionRequest) (*core.CompletionResponse, error) {
	anthropicReq := p.convertToAnthropicRequest(req)

	raw, err := p.client.DoRaw(ctx, llmclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/messages",
		Body:     anthropicReq,
		Model:    anthropicReq.Model,
	})
	if err != nil {
		return nil, err
	}

	return p.convertFromAnthropicResponse(raw.Body)
}

// TestConnection sends a minimal completion and reports whether content came back.
func (p *Provider) TestConnection(ctx context.Context) bool {
	return providers.ProbeConnection(ctx, p)
}
