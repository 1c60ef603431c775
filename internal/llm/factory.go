package llm

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "openai", "ollama".
func NewProvider(providerType string, model string) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, model), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// Decorate wraps p with a rate limiter when rpm > 0 and with retries when
// attempts > 0. Retries sit outside the limiter so every attempt is paced.
func Decorate(p Provider, rpm, attempts int, backoff time.Duration, logger *zap.Logger) Provider {
	if rpm > 0 {
		p = NewRateLimitedProvider(p, rpm)
	}
	if attempts > 0 {
		p = NewRetryingProvider(p, attempts, backoff, logger)
	}
	return p
}
