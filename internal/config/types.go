package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// WebSearchProvider identifies a web search backend.
type WebSearchProvider string

const (
	WebSearchTavily WebSearchProvider = "tavily"
)

// Config is the top-level udaplay configuration, corresponding to .udaplay.yml.
type Config struct {
	Provider          ProviderType    `yaml:"provider" koanf:"provider"`
	Model             string          `yaml:"model" koanf:"model"`
	Temperature       float64         `yaml:"temperature" koanf:"temperature"`
	EmbeddingProvider ProviderType    `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string          `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string          `yaml:"data_dir" koanf:"data_dir"`
	Collection        string          `yaml:"collection" koanf:"collection"`
	GamesDir          string          `yaml:"games_dir" koanf:"games_dir"`
	Agent             AgentConfig     `yaml:"agent" koanf:"agent"`
	WebSearch         WebSearchConfig `yaml:"web_search" koanf:"web_search"`
	LLM               LLMConfig       `yaml:"llm" koanf:"llm"`
	Server            ServerConfig    `yaml:"server" koanf:"server"`
	Logging           LoggingConfig   `yaml:"logging" koanf:"logging"`
	Webhooks          WebhookConfig   `yaml:"webhooks" koanf:"webhooks"`
	Heuristics        Heuristics      `yaml:"heuristics" koanf:"heuristics"`
}

// AgentConfig controls the query pipeline.
type AgentConfig struct {
	RetrievalLimit int `yaml:"retrieval_limit" koanf:"retrieval_limit"`
	WebMaxResults  int `yaml:"web_max_results" koanf:"web_max_results"`
	// SufficiencyThreshold is the evaluation confidence below which the
	// agent falls back to web search.
	SufficiencyThreshold float64 `yaml:"sufficiency_threshold" koanf:"sufficiency_threshold"`
	// DefaultConfidence is used when the synthesized answer carries no
	// "confidence: <float>" marker.
	DefaultConfidence float64 `yaml:"default_confidence" koanf:"default_confidence"`
	UserID            string  `yaml:"user_id" koanf:"user_id"`
}

// WebSearchConfig holds web fallback settings.
type WebSearchConfig struct {
	Provider      WebSearchProvider `yaml:"provider" koanf:"provider"`
	Depth         string            `yaml:"depth" koanf:"depth"`
	Timeout       time.Duration     `yaml:"timeout" koanf:"timeout"`
	SiteAllowlist []string          `yaml:"site_allowlist" koanf:"site_allowlist"`
}

// LLMConfig holds optional decorators applied around the LLM provider.
type LLMConfig struct {
	RateLimitRPM  int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	RetryAttempts int           `yaml:"retry_attempts" koanf:"retry_attempts"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" koanf:"retry_backoff"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// WebhookConfig lists subscribers notified after every answered query.
type WebhookConfig struct {
	URLs    []string      `yaml:"urls" koanf:"urls"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// Heuristics holds the ad hoc scoring weights used by the recommendation
// and trend features. They are business rules, not contracts.
type Heuristics struct {
	// CurrentYear anchors recency checks. Zero means the wall-clock year.
	CurrentYear        int      `yaml:"current_year" koanf:"current_year"`
	RecentSince        int      `yaml:"recent_since" koanf:"recent_since"`
	RecentBoost        float64  `yaml:"recent_boost" koanf:"recent_boost"`
	PlatformBoost      float64  `yaml:"platform_boost" koanf:"platform_boost"`
	GenreBoost         float64  `yaml:"genre_boost" koanf:"genre_boost"`
	PopularPlatforms   []string `yaml:"popular_platforms" koanf:"popular_platforms"`
	PopularGenres      []string `yaml:"popular_genres" koanf:"popular_genres"`
	CollaborativeBase  float64  `yaml:"collaborative_base" koanf:"collaborative_base"`
	HybridOverlapBoost float64  `yaml:"hybrid_overlap_boost" koanf:"hybrid_overlap_boost"`
}

// Year returns the configured current year, falling back to now.
func (h Heuristics) Year() int {
	if h.CurrentYear > 0 {
		return h.CurrentYear
	}
	return time.Now().Year()
}
