// Package retrieval answers questions from the local knowledge base.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/logging"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
)

const (
	// Method tags every retrieval result.
	Method = "vector_db"

	// NoMatchesMessage accompanies an empty result.
	NoMatchesMessage = "No games found matching the query"

	DefaultLimit = 5
	MaxLimit     = 10
)

// Searcher is the part of the knowledge base used for retrieval.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]knowledge.Hit, error)
}

// Entry is one retrieved document. Game is set for curated game records;
// Title, URL and Content for web documents learned from earlier searches.
type Entry struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Game       game.Record `json:"game"`
	Title      string      `json:"title,omitempty"`
	URL        string      `json:"url,omitempty"`
	Content    string      `json:"content,omitempty"`
	Similarity float64     `json:"similarity_score"`
}

// IsGame reports whether the entry is a curated game record.
func (e Entry) IsGame() bool {
	return e.Kind == string(vectordb.KindGame)
}

// Render formats the entry for an LLM prompt, indenting detail lines by
// indent.
func (e Entry) Render(indent string) string {
	if e.IsGame() {
		g := e.Game
		return fmt.Sprintf("%s (%s, %d)\n%sGenre: %s, Publisher: %s\n%sDescription: %s",
			g.Name, g.Platform, g.YearOfRelease, indent, g.Genre, g.Publisher, indent, g.Description)
	}
	return fmt.Sprintf("%s\n%sURL: %s\n%sContent: %s", e.Title, indent, e.URL, indent, e.Content)
}

// Result is the envelope returned by Search. Err is set when the backend
// failed; the envelope is then empty.
type Result struct {
	Query        string  `json:"query"`
	Entries      []Entry `json:"games"`
	TotalResults int     `json:"total_results"`
	Confidence   float64 `json:"confidence_score"`
	Method       string  `json:"search_method"`
	Message      string  `json:"message,omitempty"`
	Err          error   `json:"-"`
}

// Empty reports whether nothing was retrieved.
func (r Result) Empty() bool { return len(r.Entries) == 0 }

// Degraded reports whether the backend failed.
func (r Result) Degraded() bool { return r.Err != nil }

// Gateway performs semantic search over the knowledge base.
type Gateway struct {
	searcher Searcher
	logger   *zap.Logger
}

// New creates a Gateway.
func New(searcher Searcher, logger *zap.Logger) *Gateway {
	return &Gateway{searcher: searcher, logger: logging.OrNop(logger)}
}

// Search returns up to limit entries most similar to query. The confidence
// is the mean similarity, clamped to [0, 1]. Backend failures are reported
// through Result.Err, never returned.
func (g *Gateway) Search(ctx context.Context, query string, limit int) Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	res := Result{Query: query, Method: Method}

	hits, err := g.searcher.Search(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		g.logger.Error("error searching games", zap.String("query", query), zap.Error(err))
		res.Err = fmt.Errorf("searching games: %w", err)
		res.Message = res.Err.Error()
		return res
	}
	if len(hits) == 0 {
		g.logger.Debug("no search results returned from vector store", zap.String("query", query))
		res.Message = NoMatchesMessage
		return res
	}

	var total float64
	for _, h := range hits {
		res.Entries = append(res.Entries, Entry{
			ID:         h.ID,
			Kind:       string(h.Kind),
			Game:       h.Record,
			Title:      h.Title,
			URL:        h.URL,
			Content:    h.Content,
			Similarity: h.Similarity,
		})
		total += h.Similarity
	}
	res.TotalResults = len(res.Entries)
	res.Confidence = Clamp(total / float64(len(hits)))
	return res
}

// Clamp bounds v to [0, 1].
func Clamp(v float64) float64 {
	return max(0, min(1, v))
}
