// Package insights derives recommendations, trend reports and trending
// lists from the game catalog using configurable heuristics.
package insights

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/config"
	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/logging"
)

// Catalog is the view of the knowledge base the engine reads.
type Catalog interface {
	SearchGames(ctx context.Context, query string, limit int) ([]knowledge.Hit, error)
	Games(ctx context.Context) ([]game.Record, error)
}

// Engine computes insights over a Catalog.
type Engine struct {
	catalog Catalog
	h       config.Heuristics
	now     func() time.Time
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

// WithClock overrides the time source used for report dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine.
func New(catalog Catalog, h config.Heuristics, opts ...Option) *Engine {
	e := &Engine{
		catalog: catalog,
		h:       h,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) popularPlatform(platform string) bool {
	p := strings.ToLower(platform)
	for _, candidate := range e.h.PopularPlatforms {
		if strings.Contains(p, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}

func (e *Engine) popularGenre(genre string) bool {
	return containsFold(e.h.PopularGenres, genre)
}

func containsFold(list []string, v string) bool {
	return slices.ContainsFunc(list, func(s string) bool { return strings.EqualFold(s, v) })
}

func clamp(v float64) float64 {
	return max(0, min(1, v))
}
