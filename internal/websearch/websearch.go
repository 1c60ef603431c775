// Package websearch is the web fallback used when local knowledge is not
// enough to answer a question.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/logging"
)

// Method tags web search results.
const Method = "web_search"

// ErrDisabled is reported when the gateway has no backend.
var ErrDisabled = errors.New("web search is not configured")

var gameTerms = []string{"game", "video game", "gaming", "gamer", "console", "platform"}

// Result is one normalized web result.
type Result struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Content        string  `json:"content"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ResultSet is the envelope returned by Search. On failure Results is
// empty and Err is set.
type ResultSet struct {
	Question      string   `json:"question"`
	EnhancedQuery string   `json:"enhanced_query"`
	Results       []Result `json:"results"`
	Answer        string   `json:"answer"`
	TotalResults  int      `json:"total_results"`
	Method        string   `json:"search_method"`
	Err           error    `json:"-"`
}

// Gateway enriches questions with game context and queries a Searcher.
type Gateway struct {
	searcher Searcher
	sites    []string
	depth    string
	logger   *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logging.OrNop(l) }
}

// WithSites sets the preferred site allowlist.
func WithSites(sites []string) Option {
	return func(g *Gateway) { g.sites = sites }
}

// WithDepth sets the backend search depth.
func WithDepth(depth string) Option {
	return func(g *Gateway) { g.depth = depth }
}

// New creates a Gateway. A nil searcher yields a gateway whose searches
// always degrade with ErrDisabled.
func New(searcher Searcher, opts ...Option) *Gateway {
	g := &Gateway{
		searcher: searcher,
		depth:    "advanced",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Search looks up question on the web. Failures are reported through
// ResultSet.Err, never returned.
func (g *Gateway) Search(ctx context.Context, question string, maxResults int) ResultSet {
	if maxResults <= 0 {
		maxResults = 5
	}
	set := ResultSet{
		Question:      question,
		EnhancedQuery: EnhanceQuery(question, g.sites),
		Method:        Method,
	}

	if g.searcher == nil {
		set.Err = ErrDisabled
		g.logger.Warn("skipping web search", zap.Error(set.Err))
		return set
	}

	resp, err := g.searcher.Search(ctx, Request{
		Query:         set.EnhancedQuery,
		MaxResults:    maxResults,
		Depth:         g.depth,
		IncludeAnswer: true,
	})
	if err != nil {
		set.Err = fmt.Errorf("performing web search: %w", err)
		g.logger.Error("error performing web search", zap.String("question", question), zap.Error(err))
		return set
	}

	for _, h := range resp.Results {
		set.Results = append(set.Results, Result{
			Title:          h.Title,
			URL:            h.URL,
			Content:        h.Content,
			RelevanceScore: max(0, min(1, h.Score)),
		})
	}
	set.Answer = resp.Answer
	set.TotalResults = len(set.Results)
	g.logger.Debug("web search complete", zap.String("query", set.EnhancedQuery), zap.Int("results", set.TotalResults))
	return set
}

// EnhanceQuery appends " video game" when question has no game-related
// term, then restricts the search to sites.
func EnhanceQuery(question string, sites []string) string {
	q := question
	lower := strings.ToLower(question)
	hasTerm := false
	for _, term := range gameTerms {
		if strings.Contains(lower, term) {
			hasTerm = true
			break
		}
	}
	if !hasTerm {
		q += " video game"
	}
	if len(sites) > 0 {
		parts := make([]string, len(sites))
		for i, s := range sites {
			parts[i] = "site:" + s
		}
		q += " " + strings.Join(parts, " OR ")
	}
	return q
}
