package config

import "time"

// DefaultSiteAllowlist lists the high-trust game information sites the web
// fallback prefers.
var DefaultSiteAllowlist = []string{
	"ign.com",
	"gamespot.com",
	"metacritic.com",
	"wikipedia.org",
}

// defaultEmbeddingModels maps each provider to its default embedding model.
var defaultEmbeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		Temperature:       0.3,
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           "./chromadb",
		Collection:        "udaplay_games",
		GamesDir:          "./starter/games",
		Agent: AgentConfig{
			RetrievalLimit:       5,
			WebMaxResults:        3,
			SufficiencyThreshold: 0.7,
			DefaultConfidence:    0.8,
			UserID:               "default",
		},
		WebSearch: WebSearchConfig{
			Provider:      WebSearchTavily,
			Depth:         "advanced",
			Timeout:       15 * time.Second,
			SiteAllowlist: DefaultSiteAllowlist,
		},
		LLM: LLMConfig{
			RateLimitRPM:  0,
			RetryAttempts: 0,
			RetryBackoff:  500 * time.Millisecond,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Webhooks: WebhookConfig{
			Timeout: 10 * time.Second,
		},
		Heuristics: Heuristics{
			RecentSince:        2020,
			RecentBoost:        0.1,
			PlatformBoost:      0.05,
			GenreBoost:         0.05,
			PopularPlatforms:   []string{"PlayStation", "Nintendo", "Xbox", "PC"},
			PopularGenres:      []string{"Action", "RPG", "Adventure", "Racing"},
			CollaborativeBase:  0.6,
			HybridOverlapBoost: 1.2,
		},
	}
}

// DefaultEmbeddingModel returns the embedding model used when none is configured.
func DefaultEmbeddingModel(provider ProviderType) string {
	if m, ok := defaultEmbeddingModels[provider]; ok {
		return m
	}
	return defaultEmbeddingModels[ProviderOpenAI]
}
