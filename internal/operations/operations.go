// Package operations exposes the connector's user-facing calls: simple
// prompt, chat completion, advanced chat and connection test.
package operations

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"llmconnector/internal/core"
	"llmconnector/internal/providers"
)

// ChatParams are the inputs of ChatCompletion. Nil pointers leave the
// configuration defaults in effect.
type ChatParams struct {
	UserMessage  string
	SystemPrompt string
	// History entries need both "role" and "content" keys; others are skipped.
	History     []map[string]string
	Temperature *float64
	MaxTokens   *int
}

// AdvancedParams are the inputs of AdvancedChat.
type AdvancedParams struct {
	Messages         []map[string]string
	Model            string
	Temperature      *float64
	MaxTokens        *int
	TopP             *float64
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// Operations resolves an adapter per call and runs a single completion.
type Operations struct {
	factory *providers.ProviderFactory
	logger  *slog.Logger
}

// New creates the facade. A nil logger falls back to slog.Default().
func New(factory *providers.ProviderFactory, logger *slog.Logger) *Operations {
	if logger == nil {
		logger = slog.Default()
	}
	return &Operations{factory: factory, logger: logger}
}

// SimplePrompt sends prompt as the only user message and returns the reply text.
func (o *Operations) SimplePrompt(ctx context.Context, cfg *core.Configuration, prompt string) (string, error) {
	o.logger.InfoContext(ctx, "executing simple prompt", "provider", providerName(cfg))
	return o.ChatCompletion(ctx, cfg, ChatParams{UserMessage: prompt})
}

// ChatCompletion sends an optional system prompt, the history and the user
// message, in that order, and returns the reply text. The text is empty when
// the vendor returned no choices.
func (o *Operations) ChatCompletion(ctx context.Context, cfg *core.Configuration, params ChatParams) (string, error) {
	o.logger.InfoContext(ctx, "executing chat completion", "provider", providerName(cfg))

	client, err := o.factory.Create(cfg)
	if err != nil {
		return "", err
	}

	builder := core.NewRequestBuilder()
	if strings.TrimSpace(params.SystemPrompt) != "" {
		builder.AddSystemMessage(params.SystemPrompt)
	}
	addHistory(builder, params.History)
	builder.AddUserMessage(params.UserMessage)

	if params.Temperature != nil {
		builder.Temperature(*params.Temperature)
	}
	if params.MaxTokens != nil {
		builder.MaxTokens(*params.MaxTokens)
	}

	resp, err := client.Complete(ctx, builder.Build())
	if err != nil {
		return "", err
	}

	o.logger.InfoContext(ctx, "chat completion successful", "usage", resp.Usage.String())
	content, _ := resp.Content()
	return content, nil
}

// AdvancedChat sends the given conversation with every override applied and
// returns the full response.
func (o *Operations) AdvancedChat(ctx context.Context, cfg *core.Configuration, params AdvancedParams) (*core.CompletionResponse, error) {
	o.logger.InfoContext(ctx, "executing advanced chat", "provider", providerName(cfg))

	client, err := o.factory.Create(cfg)
	if err != nil {
		return nil, err
	}

	builder := core.NewRequestBuilder()
	addHistory(builder, params.Messages)

	if params.Model != "" {
		builder.Model(params.Model)
	}
	if params.Temperature != nil {
		builder.Temperature(*params.Temperature)
	}
	if params.MaxTokens != nil {
		builder.MaxTokens(*params.MaxTokens)
	}
	if params.TopP != nil {
		builder.TopP(*params.TopP)
	}
	if params.FrequencyPenalty != nil {
		builder.FrequencyPenalty(*params.FrequencyPenalty)
	}
	if params.PresencePenalty != nil {
		builder.PresencePenalty(*params.PresencePenalty)
	}

	resp, err := client.Complete(ctx, builder.Build())
	if err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "advanced chat successful", "usage", resp.Usage.String())
	return resp, nil
}

// TestConnection probes the configured provider and describes the outcome.
// Every failure, including an unsupported provider, becomes part of the
// returned status.
func (o *Operations) TestConnection(ctx context.Context, cfg *core.Configuration) string {
	o.logger.InfoContext(ctx, "testing connection", "provider", providerName(cfg))

	client, err := o.factory.Create(cfg)
	if err != nil {
		message := "Connection test failed: " + errorMessage(err)
		o.logger.ErrorContext(ctx, message, "error", err)
		return message
	}

	if client.TestConnection(ctx) {
		message := "Successfully connected to " + cfg.Provider.DisplayName()
		o.logger.InfoContext(ctx, message)
		return message
	}

	message := "Failed to connect to " + cfg.Provider.DisplayName()
	o.logger.ErrorContext(ctx, message)
	return message
}

func addHistory(builder *core.RequestBuilder, history []map[string]string) {
	for _, entry := range history {
		role, hasRole := entry["role"]
		content, hasContent := entry["content"]
		if !hasRole || !hasContent {
			continue
		}
		builder.AddMessage(role, content)
	}
}

func providerName(cfg *core.Configuration) string {
	if cfg == nil {
		return ""
	}
	return cfg.Provider.DisplayName()
}

// errorMessage prefers the gateway message over the decorated Error() form.
func errorMessage(err error) string {
	var gatewayErr *core.GatewayError
	if errors.As(err, &gatewayErr) {
		return gatewayErr.Message
	}
	return err.Error()
}
