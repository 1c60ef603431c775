package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/udaplay/internal/game"
)

// Criteria selects how trending games are detected.
type Criteria string

const (
	RecentHighRated Criteria = "recent_high_rated"
	PopularGenres   Criteria = "popular_genres"
	AllTimeClassics Criteria = "all_time_classics"
	Mixed           Criteria = "mixed"
)

// CriteriaList lists the supported criteria.
var CriteriaList = []Criteria{RecentHighRated, PopularGenres, AllTimeClassics, Mixed}

var criteriaDescriptions = map[Criteria]string{
	RecentHighRated: "Games released in the last 2 years with high potential",
	PopularGenres:   "Games from currently popular genres (Action, RPG, Adventure, etc.)",
	AllTimeClassics: "Timeless classic games from major franchises",
	Mixed:           "Combination of recent releases, popular genres, and classics",
}

var (
	trendingGenres    = []string{"Action", "RPG", "Adventure", "Racing", "Sports", "Fighting"}
	classicFranchises = []string{
		"Super Mario", "Zelda", "Pokémon", "Final Fantasy", "Street Fighter",
		"Mortal Kombat", "Sonic", "Donkey Kong", "Metroid", "Castlevania",
	}
)

// TrendingGame is one detected game.
type TrendingGame struct {
	Game   game.Record `json:"game"`
	Score  float64     `json:"trending_score"`
	Reason string      `json:"reason"`
}

// TrendingReport is the result of DetectTrending.
type TrendingReport struct {
	Games        []TrendingGame `json:"trending_games"`
	Criteria     Criteria       `json:"criteria_used"`
	Total        int            `json:"total_found"`
	AnalysisDate time.Time      `json:"analysis_date"`
	Description  string         `json:"description"`
	Error        string         `json:"error,omitempty"`
}

// ParseCriteria maps s to known criteria, defaulting to Mixed.
func ParseCriteria(s string) Criteria {
	c := Criteria(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := criteriaDescriptions[c]; ok {
		return c
	}
	return Mixed
}

// DetectTrending returns up to limit games matching criteria.
func (e *Engine) DetectTrending(ctx context.Context, criteria Criteria, limit int) (TrendingReport, error) {
	if limit <= 0 {
		limit = 10
	}
	criteria = ParseCriteria(string(criteria))

	var (
		games []TrendingGame
		err   error
	)
	switch criteria {
	case RecentHighRated:
		games, err = e.recentGames(ctx, limit)
	case PopularGenres:
		games, err = e.genreGames(ctx, limit)
	case AllTimeClassics:
		games, err = e.classicGames(ctx, limit)
	default:
		games, err = e.mixedGames(ctx, limit)
	}
	if err != nil {
		return TrendingReport{}, fmt.Errorf("%s trending games: %w", criteria, err)
	}
	if games == nil {
		games = []TrendingGame{}
	}
	return TrendingReport{
		Games:        games,
		Criteria:     criteria,
		Total:        len(games),
		AnalysisDate: e.now(),
		Description:  criteriaDescriptions[criteria],
	}, nil
}

func (e *Engine) recentGames(ctx context.Context, limit int) ([]TrendingGame, error) {
	all, err := e.catalog.Games(ctx)
	if err != nil {
		return nil, err
	}
	since := e.h.Year() - 1
	var out []TrendingGame
	for _, g := range all {
		if g.YearOfRelease < since {
			continue
		}
		out = append(out, TrendingGame{
			Game:   g,
			Score:  e.trendingScore(g, RecentHighRated),
			Reason: fmt.Sprintf("Recent release (%d)", g.YearOfRelease),
		})
	}
	return rankTrending(out, limit), nil
}

func (e *Engine) genreGames(ctx context.Context, limit int) ([]TrendingGame, error) {
	var out []TrendingGame
	for _, genre := range trendingGenres {
		hits, err := e.catalog.SearchGames(ctx, genre+" games", 3)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			out = append(out, TrendingGame{
				Game:   h.Record,
				Score:  e.trendingScore(h.Record, PopularGenres),
				Reason: fmt.Sprintf("Popular genre (%s)", h.Record.Genre),
			})
		}
	}
	return rankTrending(out, limit), nil
}

func (e *Engine) classicGames(ctx context.Context, limit int) ([]TrendingGame, error) {
	var out []TrendingGame
	for _, franchise := range classicFranchises {
		hits, err := e.catalog.SearchGames(ctx, franchise, 2)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			// Semantic neighbours of a franchise name are not necessarily part of it.
			if !strings.Contains(strings.ToLower(h.Record.Name), strings.ToLower(franchise)) {
				continue
			}
			out = append(out, TrendingGame{
				Game:   h.Record,
				Score:  e.trendingScore(h.Record, AllTimeClassics),
				Reason: fmt.Sprintf("Classic franchise (%s)", franchise),
			})
		}
	}
	return rankTrending(out, limit), nil
}

func (e *Engine) mixedGames(ctx context.Context, limit int) ([]TrendingGame, error) {
	third := max(1, limit/3)
	var out []TrendingGame
	for _, source := range []func(context.Context, int) ([]TrendingGame, error){e.recentGames, e.genreGames, e.classicGames} {
		games, err := source(ctx, third)
		if err != nil {
			return nil, err
		}
		out = append(out, games...)
	}
	return rankTrending(out, limit), nil
}

func (e *Engine) trendingScore(g game.Record, criteria Criteria) float64 {
	score := 0.5
	switch criteria {
	case RecentHighRated:
		if g.YearOfRelease >= e.h.Year()-1 {
			score += 0.3
		}
	case PopularGenres:
		if e.popularGenre(g.Genre) {
			score += 0.2
		}
	case AllTimeClassics:
		score += 0.4
	}
	if e.popularPlatform(g.Platform) {
		score += 0.1
	}
	return min(1, score)
}

// rankTrending drops repeated games, keeping the best score, and returns
// the top limit by score.
func rankTrending(games []TrendingGame, limit int) []TrendingGame {
	index := make(map[string]int)
	var out []TrendingGame
	for _, g := range games {
		k := g.Game.Key()
		if i, ok := index[k]; ok {
			if g.Score > out[i].Score {
				out[i] = g
			}
			continue
		}
		index[k] = len(out)
		out = append(out, g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
