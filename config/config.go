// Package config loads connector and host settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"llmconnector/internal/core"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	// MasterKey enables bearer authentication on /v1 routes when non-empty.
	MasterKey string `yaml:"master_key"`
	// BodySizeLimit uses echo's size syntax, e.g. "10M".
	BodySizeLimit string `yaml:"body_size_limit"`
}

// LLMConfig holds the connector configuration for a single provider.
type LLMConfig struct {
	// Provider accepts any spelling core.ParseProviderType understands.
	Provider         core.ProviderType `yaml:"provider"`
	APIKey           string            `yaml:"api_key"`
	Model            string            `yaml:"model"`
	APIBaseURL       string            `yaml:"api_base_url"`
	TimeoutSeconds   int               `yaml:"timeout_seconds"`
	StreamingEnabled bool              `yaml:"streaming_enabled"`
	Temperature      *float64          `yaml:"temperature"`
	MaxTokens        *int              `yaml:"max_tokens"`
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfigPaths are tried in order when Load is called without a path.
var DefaultConfigPaths = []string{"config/config.yaml", "config.yaml"}

// Load reads configuration in order: defaults, YAML file, environment.
// A .env file in the working directory is loaded into the environment first
// and never overrides variables that are already set. An empty path looks
// for DefaultConfigPaths and tolerates their absence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()

	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          "8080",
			BodySizeLimit: "10M",
		},
		LLM: LLMConfig{
			Provider:       core.ProviderOpenAI,
			TimeoutSeconds: core.DefaultTimeoutSeconds,
		},
		Metrics: MetricsConfig{
			Endpoint: "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

func loadFile(cfg *Config, path string) error {
	candidates := DefaultConfigPaths
	required := path != ""
	if required {
		candidates = []string{path}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) && !required {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", candidate, err)
		}
		if err := decodeYAML(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", candidate, err)
		}
		return nil
	}
	return nil
}

// decodeYAML expands ${VAR} placeholders in every scalar before decoding.
func decodeYAML(data []byte, cfg *Config) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if root.Kind == 0 {
		return nil
	}
	expandNode(&root)
	return root.Decode(cfg)
}

func expandNode(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode {
		expanded := expandString(node.Value)
		if expanded != node.Value {
			node.Value = expanded
			// Let plain scalars re-resolve so "${N:-5}" can decode into an int.
			if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) == 0 {
				node.Tag = ""
			}
		}
		return
	}
	for _, child := range node.Content {
		expandNode(child)
	}
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default}. A placeholder whose
// variable is unset or empty and has no default is left as written.
func expandString(s string) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if parts[2] != "" {
			return parts[3]
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.LLM.APIKey, "LLM_API_KEY")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.APIBaseURL, "LLM_API_BASE_URL")
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.MasterKey, "LLMCONNECTOR_MASTER_KEY")
	setString(&cfg.Server.BodySizeLimit, "BODY_SIZE_LIMIT")
	setString(&cfg.Metrics.Endpoint, "METRICS_ENDPOINT")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	var errs []error
	if v, ok := lookup("LLM_PROVIDER"); ok {
		errs = append(errs, wrapEnv("LLM_PROVIDER", cfg.LLM.Provider.UnmarshalText([]byte(v))))
	}
	if v, ok := lookup("LLM_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("LLM_TIMEOUT_SECONDS", err))
		if err == nil {
			cfg.LLM.TimeoutSeconds = n
		}
	}
	if v, ok := lookup("LLM_STREAMING_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnv("LLM_STREAMING_ENABLED", err))
		if err == nil {
			cfg.LLM.StreamingEnabled = b
		}
	}
	if v, ok := lookup("LLM_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		errs = append(errs, wrapEnv("LLM_TEMPERATURE", err))
		if err == nil {
			cfg.LLM.Temperature = &f
		}
	}
	if v, ok := lookup("LLM_MAX_TOKENS"); ok {
		n, err := strconv.Atoi(v)
		errs = append(errs, wrapEnv("LLM_MAX_TOKENS", err))
		if err == nil {
			cfg.LLM.MaxTokens = &n
		}
	}
	if v, ok := lookup("METRICS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		errs = append(errs, wrapEnv("METRICS_ENABLED", err))
		if err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	return errors.Join(errs...)
}

func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func wrapEnv(key string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("invalid %s: %w", key, err)
}

func (c *Config) validate() error {
	var errs []error
	if _, err := core.ParseProviderType(string(c.LLM.Provider)); err != nil {
		errs = append(errs, fmt.Errorf("llm.provider: %w", err))
	}
	if c.LLM.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("llm.timeout_seconds must be >= 0, got %d", c.LLM.TimeoutSeconds))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("metrics.endpoint must start with '/', got %q", c.Metrics.Endpoint))
	}
	return errors.Join(errs...)
}

// Connector converts the llm section into a validated core.Configuration.
func (c *Config) Connector() (*core.Configuration, error) {
	provider, err := core.ParseProviderType(string(c.LLM.Provider))
	if err != nil {
		return nil, err
	}

	conn := core.NewConfiguration(provider, c.LLM.APIKey)
	conn.Model = c.LLM.Model
	conn.APIBaseURL = c.LLM.APIBaseURL
	conn.TimeoutSeconds = c.LLM.TimeoutSeconds
	conn.StreamingEnabled = c.LLM.StreamingEnabled
	if c.LLM.Temperature != nil {
		conn.Temperature = *c.LLM.Temperature
	}
	if c.LLM.MaxTokens != nil {
		maxTokens := *c.LLM.MaxTokens
		conn.MaxTokens = &maxTokens
	}

	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return conn, nil
}
