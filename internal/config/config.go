package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "UDAPLAY_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (UDAPLAY_*). Nested keys use a double
// underscore: UDAPLAY_AGENT__SUFFICIENCY_THRESHOLD -> agent.sufficiency_threshold.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]")
	}

	a := c.Agent
	if a.RetrievalLimit <= 0 {
		return fmt.Errorf("agent.retrieval_limit must be positive")
	}
	if a.WebMaxResults <= 0 {
		return fmt.Errorf("agent.web_max_results must be positive")
	}
	if a.SufficiencyThreshold < 0 || a.SufficiencyThreshold > 1 {
		return fmt.Errorf("agent.sufficiency_threshold must be within [0, 1]")
	}
	if a.DefaultConfidence < 0 || a.DefaultConfidence > 1 {
		return fmt.Errorf("agent.default_confidence must be within [0, 1]")
	}

	if c.WebSearch.Provider != "" && c.WebSearch.Provider != WebSearchTavily {
		return fmt.Errorf("invalid web_search.provider %q: must be tavily", c.WebSearch.Provider)
	}
	if c.LLM.RateLimitRPM < 0 {
		return fmt.Errorf("llm.rate_limit_rpm must be non-negative")
	}
	if c.LLM.RetryAttempts < 0 {
		return fmt.Errorf("llm.retry_attempts must be non-negative")
	}
	for _, u := range c.Webhooks.URLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("invalid webhook url %q: must be http or https", u)
		}
	}
	return nil
}

// StatePath returns the state machine persistence file.
func (c *Config) StatePath() string { return filepath.Join(c.DataDir, "state.json") }

// MemoryPath returns the memory store persistence file.
func (c *Config) MemoryPath() string { return filepath.Join(c.DataDir, "memory.json") }

// HistoryPath returns the SQLite query history database.
func (c *Config) HistoryPath() string { return filepath.Join(c.DataDir, "history.db") }

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// WebSearchKeyEnvVar is the environment variable holding the Tavily key.
const WebSearchKeyEnvVar = "TAVILY_API_KEY"
