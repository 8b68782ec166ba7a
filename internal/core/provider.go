package core

import (
	"fmt"
	"strings"
)

// ProviderType identifies an LLM vendor.
type ProviderType string

const (
	ProviderOpenAI      ProviderType = "openai"
	ProviderAnthropic   ProviderType = "anthropic"
	ProviderGoogle      ProviderType = "google"
	ProviderAWSBedrock  ProviderType = "aws_bedrock"
	ProviderAzureOpenAI ProviderType = "azure_openai"
)

type providerInfo struct {
	displayName    string
	defaultBaseURL string
	defaultModel   string
}

// providerCatalog holds the immutable per-vendor defaults.
// Azure OpenAI has no default base URL; deployments are tenant specific.
var providerCatalog = map[ProviderType]providerInfo{
	ProviderOpenAI:      {"OpenAI", "https://api.openai.com/v1", "gpt-4-turbo-preview"},
	ProviderAnthropic:   {"Anthropic", "https://api.anthropic.com/v1", "claude-3-5-sonnet-20241022"},
	ProviderGoogle:      {"Google", "https://generativelanguage.googleapis.com/v1", "gemini-pro"},
	ProviderAWSBedrock:  {"AWS Bedrock", "https://bedrock-runtime.us-east-1.amazonaws.com", "anthropic.claude-3-sonnet-20240229-v1:0"},
	ProviderAzureOpenAI: {"Azure OpenAI", "", "gpt-4"},
}

// ProviderTypes returns every known provider in declaration order.
func ProviderTypes() []ProviderType {
	return []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderGoogle, ProviderAWSBedrock, ProviderAzureOpenAI}
}

// Valid reports whether p is a known provider.
func (p ProviderType) Valid() bool {
	_, ok := providerCatalog[p]
	return ok
}

// DisplayName returns the human readable vendor name, or the raw value for unknown providers.
func (p ProviderType) DisplayName() string {
	if info, ok := providerCatalog[p]; ok {
		return info.displayName
	}
	return string(p)
}

func (p ProviderType) DefaultBaseURL() string {
	return providerCatalog[p].defaultBaseURL
}

func (p ProviderType) DefaultModel() string {
	return providerCatalog[p].defaultModel
}

func (p ProviderType) String() string {
	return string(p)
}

// ParseProviderType resolves a provider from its id ("aws_bedrock"), enum
// spelling ("AWS_BEDROCK") or display name ("AWS Bedrock"), ignoring case.
func ParseProviderType(s string) (ProviderType, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, p := range ProviderTypes() {
		if needle == string(p) || needle == strings.ToLower(p.DisplayName()) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// UnmarshalText lets ProviderType be decoded from config files and JSON.
func (p *ProviderType) UnmarshalText(text []byte) error {
	parsed, err := ParseProviderType(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
