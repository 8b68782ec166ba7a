package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTimeoutSeconds is the transport timeout applied when none is configured.
	DefaultTimeoutSeconds = 30
	// DefaultTemperature is the sampling temperature applied when none is configured.
	DefaultTemperature = 1.0
)

// Configuration is the per-connector setting bundle. It is created once,
// never modified afterwards, and shared read-only by every request.
type Configuration struct {
	Provider         ProviderType
	APIKey           string
	Model            string
	APIBaseURL       string
	TimeoutSeconds   int
	StreamingEnabled bool
	Temperature      float64
	MaxTokens        *int
}

// NewConfiguration returns a configuration with defaults for every optional field.
func NewConfiguration(provider ProviderType, apiKey string) *Configuration {
	return &Configuration{
		Provider:       provider,
		APIKey:         apiKey,
		TimeoutSeconds: DefaultTimeoutSeconds,
		Temperature:    DefaultTemperature,
	}
}

// EffectiveModel returns the configured model, or the provider default when unset.
func (c *Configuration) EffectiveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return c.Provider.DefaultModel()
}

// EffectiveBaseURL returns the configured base URL, or the provider default when unset.
func (c *Configuration) EffectiveBaseURL() string {
	base := c.APIBaseURL
	if base == "" {
		base = c.Provider.DefaultBaseURL()
	}
	return strings.TrimRight(base, "/")
}

// Timeout returns TimeoutSeconds as a duration. Zero disables the timeout.
func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks the fields the host must populate.
func (c *Configuration) Validate() error {
	var errs []error
	if !c.Provider.Valid() {
		errs = append(errs, fmt.Errorf("provider %q is not recognized", c.Provider))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("api_key must be provided"))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must be >= 0, got %d", c.TimeoutSeconds))
	}
	return errors.Join(errs...)
}

// String renders the configuration without the API key.
func (c *Configuration) String() string {
	maxTokens := "unset"
	if c.MaxTokens != nil {
		maxTokens = fmt.Sprint(*c.MaxTokens)
	}
	return fmt.Sprintf("Configuration{provider=%s, model=%s, base_url=%s, timeout=%ds, temperature=%g, max_tokens=%s}",
		c.Provider.DisplayName(), c.EffectiveModel(), c.EffectiveBaseURL(), c.TimeoutSeconds, c.Temperature, maxTokens)
}
