// Package agent implements the UdaPlay query pipeline: local retrieval,
// evaluation, optional web fallback, answer synthesis and learning.
package agent

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/config"
	"github.com/ziadkadry99/udaplay/internal/evaluation"
	"github.com/ziadkadry99/udaplay/internal/history"
	"github.com/ziadkadry99/udaplay/internal/insights"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/llm"
	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/memory"
	"github.com/ziadkadry99/udaplay/internal/output"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
	"github.com/ziadkadry99/udaplay/internal/sentiment"
	"github.com/ziadkadry99/udaplay/internal/statemachine"
	"github.com/ziadkadry99/udaplay/internal/websearch"
)

// Search methods reported on a Response.
const (
	MethodVectorDB  = "vector_db"
	MethodWebSearch = "web_search"
	MethodCombined  = "combined"
	MethodError     = "error"
)

// Retriever searches the local knowledge base.
type Retriever interface {
	Search(ctx context.Context, query string, limit int) retrieval.Result
}

// Evaluator judges retrieval results.
type Evaluator interface {
	Evaluate(ctx context.Context, question string, res retrieval.Result) evaluation.Report
}

// WebSearcher is the web fallback.
type WebSearcher interface {
	Search(ctx context.Context, question string, maxResults int) websearch.ResultSet
}

// DocumentStore persists web documents found while answering.
type DocumentStore interface {
	AddDocument(ctx context.Context, doc knowledge.WebDocument) (bool, error)
}

// Recorder logs answered queries.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (string, error)
}

// Notifier delivers answer events to external subscribers.
type Notifier interface {
	Dispatch(ctx context.Context, event output.Webhook) error
}

// Deps are the collaborators of an Agent. Retriever, Evaluator, WebSearch,
// Synthesizer and Memory are required; the rest may be nil.
type Deps struct {
	Retriever   Retriever
	Evaluator   Evaluator
	WebSearch   WebSearcher
	Synthesizer llm.Generator
	Memory      *memory.Store

	Documents DocumentStore
	History   Recorder
	Machine   *statemachine.Machine
	Insights  *insights.Engine
	Sentiment *sentiment.Analyzer
	Output    *output.Formatter
	Notifier  Notifier
}

// Response is the answer to one question.
type Response struct {
	Answer       string    `json:"answer"`
	Confidence   float64   `json:"confidence"`
	Sources      []string  `json:"sources"`
	SearchMethod string    `json:"search_method"`
	Timestamp    time.Time `json:"timestamp"`
	// HistoryID is the query history id, when history is enabled.
	HistoryID string        `json:"history_id,omitempty"`
	Duration  time.Duration `json:"-"`
}

// Turn is one exchange of the in-process conversation transcript.
type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	Timestamp time.Time `json:"timestamp"`
}

// Agent answers game questions. ProcessQuery calls are serialized.
type Agent struct {
	cfg    config.AgentConfig
	deps   Deps
	logger *zap.Logger
	now    func() time.Time

	mu         sync.Mutex
	transcript []Turn
}

// Option configures an Agent.
type Option func(*Agent)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// New creates an Agent. A non-positive RetrievalLimit or WebMaxResults and
// an empty UserID take their default values. SufficiencyThreshold and
// DefaultConfidence are used as given, so zero is a valid setting.
func New(cfg config.AgentConfig, deps Deps, opts ...Option) *Agent {
	def := config.DefaultConfig().Agent
	if cfg.RetrievalLimit <= 0 {
		cfg.RetrievalLimit = def.RetrievalLimit
	}
	if cfg.WebMaxResults <= 0 {
		cfg.WebMaxResults = def.WebMaxResults
	}
	if cfg.UserID == "" {
		cfg.UserID = memory.DefaultUserID
	}

	a := &Agent{cfg: cfg, deps: deps, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	a.logger = logging.OrNop(a.logger)
	if a.deps.Machine == nil {
		a.deps.Machine = statemachine.New(statemachine.WithLogger(a.logger))
	}
	if a.deps.Output == nil {
		a.deps.Output = output.New(output.WithClock(a.now))
	}
	return a
}

// NewSynthesizer returns the generator used for final answers.
func NewSynthesizer(p llm.Provider, model string, temperature float64) llm.Generator {
	return &llm.ProviderGenerator{Provider: p, Model: model, Temperature: temperature}
}

// Machine exposes the agent's state machine.
func (a *Agent) Machine() *statemachine.Machine { return a.deps.Machine }

// ConversationHistory returns a copy of the transcript.
func (a *Agent) ConversationHistory() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Turn(nil), a.transcript...)
}

// ClearConversation empties the transcript.
func (a *Agent) ClearConversation() {
	a.mu.Lock()
	a.transcript = nil
	a.mu.Unlock()
}

// QueryOption configures a single ProcessQuery call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	userID string
}

// WithUserID attributes the query to userID for learning and history.
func WithUserID(id string) QueryOption {
	return func(o *queryOptions) {
		if id != "" {
			o.userID = id
		}
	}
}
