package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ziadkadry99/udaplay/internal/game"
)

// RecommendationType selects the recommendation algorithm.
type RecommendationType string

const (
	ContentBased  RecommendationType = "content_based"
	Collaborative RecommendationType = "collaborative"
	Hybrid        RecommendationType = "hybrid"
	SimilarGames  RecommendationType = "similar_games"
)

// RecommendationTypes lists the supported algorithms.
var RecommendationTypes = []RecommendationType{ContentBased, Collaborative, Hybrid, SimilarGames}

var algorithmDescriptions = map[RecommendationType]string{
	ContentBased:  "Recommends games based on similarity to your preferences and game characteristics",
	Collaborative: "Recommends games popular among users with similar tastes",
	Hybrid:        "Combines content-based and collaborative filtering for better recommendations",
	SimilarGames:  "Finds games similar to a specific game you like",
}

var preferenceGenres = []string{"Action", "RPG", "Adventure", "Racing", "Sports", "Fighting", "Puzzle", "Strategy"}

const (
	collaborativeGenreBoost    = 0.2
	collaborativePlatformBoost = 0.1
)

// Recommendation is one suggested game.
type Recommendation struct {
	Game       game.Record        `json:"game"`
	Score      float64            `json:"recommendation_score"`
	Similarity float64            `json:"similarity_score"`
	Reason     string             `json:"reason"`
	Type       RecommendationType `json:"recommendation_type"`
}

// Recommendations is the result of Recommend.
type Recommendations struct {
	Recommendations      []Recommendation   `json:"recommendations"`
	Type                 RecommendationType `json:"recommendation_type"`
	UserPreferences      string             `json:"user_preferences"`
	Total                int                `json:"total_recommendations"`
	AlgorithmDescription string             `json:"algorithm_description"`
	Error                string             `json:"error,omitempty"`
}

// ParseRecommendationType maps s to a known type, defaulting to
// ContentBased.
func ParseRecommendationType(s string) RecommendationType {
	t := RecommendationType(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := algorithmDescriptions[t]; ok {
		return t
	}
	return ContentBased
}

// Recommend returns up to limit games for preferences. For SimilarGames,
// preferences names the game to match.
func (e *Engine) Recommend(ctx context.Context, preferences string, typ RecommendationType, limit int) (Recommendations, error) {
	if limit <= 0 {
		limit = 5
	}
	typ = ParseRecommendationType(string(typ))

	var (
		recs []Recommendation
		err  error
	)
	switch typ {
	case Collaborative:
		recs, err = e.collaborative(ctx, preferences, limit)
	case Hybrid:
		recs, err = e.hybrid(ctx, preferences, limit)
	case SimilarGames:
		recs, err = e.similar(ctx, preferences, limit)
	default:
		recs, err = e.contentBased(ctx, preferences, limit)
	}
	if err != nil {
		return Recommendations{}, fmt.Errorf("%s recommendations: %w", typ, err)
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	return Recommendations{
		Recommendations:      recs,
		Type:                 typ,
		UserPreferences:      preferences,
		Total:                len(recs),
		AlgorithmDescription: algorithmDescriptions[typ],
	}, nil
}

func (e *Engine) contentBased(ctx context.Context, preferences string, limit int) ([]Recommendation, error) {
	hits, err := e.catalog.SearchGames(ctx, preferences, limit*2)
	if err != nil {
		return nil, err
	}
	recs := make([]Recommendation, 0, len(hits))
	for _, h := range hits {
		recs = append(recs, Recommendation{
			Game:       h.Record,
			Score:      e.contentScore(h.Record, h.Similarity),
			Similarity: h.Similarity,
			Reason:     "Matches your preferences: " + truncate(preferences, 50),
			Type:       ContentBased,
		})
	}
	return top(recs, limit), nil
}

func (e *Engine) collaborative(ctx context.Context, preferences string, limit int) ([]Recommendation, error) {
	var recs []Recommendation
	for _, genre := range genreKeywords(preferences) {
		hits, err := e.catalog.SearchGames(ctx, "popular "+genre+" games", 3)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			recs = append(recs, Recommendation{
				Game:       h.Record,
				Score:      e.collaborativeScore(h.Record),
				Similarity: h.Similarity,
				Reason:     "Popular among users who like " + genre + " games",
				Type:       Collaborative,
			})
		}
	}
	return top(bestByName(recs), limit), nil
}

func (e *Engine) hybrid(ctx context.Context, preferences string, limit int) ([]Recommendation, error) {
	half := (limit + 1) / 2
	content, err := e.contentBased(ctx, preferences, half)
	if err != nil {
		return nil, err
	}
	collab, err := e.collaborative(ctx, preferences, half)
	if err != nil {
		return nil, err
	}

	var (
		order []string
		byKey = make(map[string]*Recommendation)
	)
	for _, r := range append(content, collab...) {
		k := strings.ToLower(r.Game.Name)
		if existing, ok := byKey[k]; ok {
			existing.Score = clamp(existing.Score * e.h.HybridOverlapBoost)
			existing.Reason += " (found by multiple methods)"
			continue
		}
		r.Type = Hybrid
		byKey[k] = &r
		order = append(order, k)
	}
	recs := make([]Recommendation, 0, len(order))
	for _, k := range order {
		recs = append(recs, *byKey[k])
	}
	return top(recs, limit), nil
}

func (e *Engine) similar(ctx context.Context, name string, limit int) ([]Recommendation, error) {
	hits, err := e.catalog.SearchGames(ctx, name, 1)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	target := hits[0].Record

	queries := []struct{ query, aspect string }{
		{target.Genre + " games", "genre"},
		{"games on " + target.Platform, "platform"},
		{"games by " + target.Publisher, "publisher"},
	}
	var recs []Recommendation
	for _, q := range queries {
		hits, err := e.catalog.SearchGames(ctx, q.query, 3)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if strings.EqualFold(h.Record.Name, target.Name) {
				continue
			}
			recs = append(recs, Recommendation{
				Game:       h.Record,
				Score:      similarity(target, h.Record),
				Similarity: h.Similarity,
				Reason:     fmt.Sprintf("Similar to %s (same %s)", target.Name, q.aspect),
				Type:       SimilarGames,
			})
		}
	}
	return top(bestByName(recs), limit), nil
}

func (e *Engine) contentScore(g game.Record, sim float64) float64 {
	score := sim
	if g.YearOfRelease >= e.h.Year()-2 {
		score += e.h.RecentBoost
	}
	if e.popularPlatform(g.Platform) {
		score += e.h.PlatformBoost
	}
	if e.popularGenre(g.Genre) {
		score += e.h.GenreBoost
	}
	return min(1, score)
}

func (e *Engine) collaborativeScore(g game.Record) float64 {
	score := e.h.CollaborativeBase
	if containsFold([]string{"Action", "RPG", "Adventure"}, g.Genre) {
		score += collaborativeGenreBoost
	}
	p := strings.ToLower(g.Platform)
	if strings.Contains(p, "playstation") || strings.Contains(p, "nintendo") {
		score += collaborativePlatformBoost
	}
	return min(1, score)
}

func similarity(target, candidate game.Record) float64 {
	var score float64
	if strings.EqualFold(target.Genre, candidate.Genre) {
		score += 0.4
	}
	if strings.EqualFold(target.Platform, candidate.Platform) {
		score += 0.3
	}
	if strings.EqualFold(target.Publisher, candidate.Publisher) {
		score += 0.2
	}
	if target.YearOfRelease > 0 && candidate.YearOfRelease > 0 {
		diff := target.YearOfRelease - candidate.YearOfRelease
		if diff >= -2 && diff <= 2 {
			score += 0.1
		}
	}
	return min(1, score)
}

// genreKeywords returns the known genres mentioned in preferences, or
// Action and Adventure when none are.
func genreKeywords(preferences string) []string {
	lower := strings.ToLower(preferences)
	var found []string
	for _, g := range preferenceGenres {
		if strings.Contains(lower, strings.ToLower(g)) {
			found = append(found, g)
		}
	}
	if len(found) == 0 {
		return []string{"Action", "Adventure"}
	}
	return found
}

// bestByName keeps the highest scoring recommendation per game name,
// preserving first-seen order.
func bestByName(recs []Recommendation) []Recommendation {
	index := make(map[string]int)
	var out []Recommendation
	for _, r := range recs {
		k := strings.ToLower(r.Game.Name)
		if i, ok := index[k]; ok {
			if r.Score > out[i].Score {
				out[i] = r
			}
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func top(recs []Recommendation, limit int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
