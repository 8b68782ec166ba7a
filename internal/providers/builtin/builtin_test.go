package builtin

import (
	"testing"

	"llmconnector/internal/core"
	"llmconnector/internal/providers/anthropic"
	"llmconnector/internal/providers/openai"
)

func TestNewFactory_Selection(t *testing.T) {
	factory := NewFactory()

	tests := []struct {
		provider    core.ProviderType
		unsupported bool
		check       func(core.ProviderClient) bool
	}{
		{core.ProviderOpenAI, false, func(c core.ProviderClient) bool { _, ok := c.(*openai.Provider); return ok }},
		{core.ProviderAnthropic, false, func(c core.ProviderClient) bool { _, ok := c.(*anthropic.Provider); return ok }},
		{core.ProviderGoogle, true, nil},
		{core.ProviderAWSBedrock, true, nil},
		{core.ProviderAzureOpenAI, true, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.provider), func(t *testing.T) {
			client, err := factory.Create(core.NewConfiguration(tt.provider, "key"))
			if tt.unsupported {
				if !core.IsUnsupportedProvider(err) {
					t.Errorf("expected unsupported provider error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(client) {
				t.Errorf("unexpected adapter type %T", client)
			}
		})
	}
}
