package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/agent"
	"github.com/ziadkadry99/udaplay/internal/config"
	"github.com/ziadkadry99/udaplay/internal/db"
	"github.com/ziadkadry99/udaplay/internal/embeddings"
	"github.com/ziadkadry99/udaplay/internal/evaluation"
	"github.com/ziadkadry99/udaplay/internal/history"
	"github.com/ziadkadry99/udaplay/internal/insights"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/llm"
	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/memory"
	"github.com/ziadkadry99/udaplay/internal/notifications"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
	"github.com/ziadkadry99/udaplay/internal/sentiment"
	"github.com/ziadkadry99/udaplay/internal/statemachine"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
	"github.com/ziadkadry99/udaplay/internal/websearch"
)

// tavilyKeyEnvVar holds the web search API key. Without it the agent
// answers from local knowledge only.
const tavilyKeyEnvVar = "TAVILY_API_KEY"

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `udaplay init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(level, cfg.Logging.Format)
}

// openKnowledge opens the persistent vector store under the data directory
// and wraps it in a knowledge base.
func openKnowledge(cfg *config.Config, logger *zap.Logger) (*knowledge.Base, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModel(provider)
	}
	embedder, err := embeddings.New(string(provider), model)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := vectordb.NewPersistentChromemStore(filepath.Join(cfg.DataDir, "vectors"), embedder, cfg.Collection, logger)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	return knowledge.New(store, cfg.DataDir, knowledge.WithLogger(logger)), nil
}

// runtime is every long-lived component a command needs.
type runtime struct {
	cfg       *config.Config
	logger    *zap.Logger
	base      *knowledge.Base
	retriever *retrieval.Gateway
	history   *history.Store
	agent     *agent.Agent
	db        *db.DB
}

// Close releases the history database and flushes the logger.
func (r *runtime) Close() error {
	var errs []error
	if r.db != nil {
		errs = append(errs, r.db.Close())
	}
	_ = r.logger.Sync()
	return errors.Join(errs...)
}

// buildRuntime wires the agent and its gateways from cfg.
func buildRuntime(cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	base, err := openKnowledge(cfg, logger)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	provider = llm.Decorate(provider, cfg.LLM.RateLimitRPM, cfg.LLM.RetryAttempts, cfg.LLM.RetryBackoff, logger)

	var searcher websearch.Searcher
	if key := os.Getenv(tavilyKeyEnvVar); key != "" {
		tavily, err := websearch.NewTavily(key, websearch.WithTimeout(cfg.WebSearch.Timeout))
		if err != nil {
			return nil, fmt.Errorf("creating web search client: %w", err)
		}
		searcher = tavily
	} else {
		logger.Warn("web search disabled", zap.String("missing", tavilyKeyEnvVar))
	}
	web := websearch.New(searcher,
		websearch.WithLogger(logger),
		websearch.WithSites(cfg.WebSearch.SiteAllowlist),
		websearch.WithDepth(cfg.WebSearch.Depth),
	)

	database, err := db.Open(cfg.HistoryPath())
	if err != nil {
		return nil, err
	}
	hist := history.NewStore(database)

	machine := statemachine.New(statemachine.WithLogger(logger))
	machine.Bind(cfg.StatePath())

	retriever := retrieval.New(base, logger)
	deps := agent.Deps{
		Retriever:   retriever,
		Evaluator:   evaluation.New(evaluation.NewJudge(provider, cfg.Model), logger),
		WebSearch:   web,
		Synthesizer: agent.NewSynthesizer(provider, cfg.Model, cfg.Temperature),
		Memory:      memory.Open(cfg.MemoryPath(), memory.WithLogger(logger)),
		Documents:   base,
		History:     hist,
		Machine:     machine,
		Insights:    insights.New(base, cfg.Heuristics, insights.WithLogger(logger)),
		Sentiment:   sentiment.New(sentiment.NewGenerator(provider, cfg.Model), logger),
	}
	if len(cfg.Webhooks.URLs) > 0 {
		deps.Notifier = notifications.NewDispatcher(cfg.Webhooks.URLs,
			notifications.WithLogger(logger),
			notifications.WithTimeout(cfg.Webhooks.Timeout))
	}
	a := agent.New(cfg.Agent, deps, agent.WithLogger(logger))

	return &runtime{
		cfg:       cfg,
		logger:    logger,
		base:      base,
		retriever: retriever,
		history:   hist,
		agent:     a,
		db:        database,
	}, nil
}

// setup loads config, builds the logger and wires the runtime.
func setup() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return buildRuntime(cfg, logger)
}
