// Package builtin wires the adapters shipped with the connector into a factory.
package builtin

import (
	"llmconnector/internal/providers"
	"llmconnector/internal/providers/anthropic"
	"llmconnector/internal/providers/openai"
)

// NewFactory returns a factory with every shipped adapter registered.
func NewFactory() *providers.ProviderFactory {
	factory := providers.NewProviderFactory()
	factory.Add(openai.Registration)
	factory.Add(anthropic.Registration)
	return factory
}
