package insights

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/udaplay/internal/game"
)

// AnalysisType selects a trend report.
type AnalysisType string

const (
	Comprehensive   AnalysisType = "comprehensive"
	GenreTrends     AnalysisType = "genre_trends"
	PlatformTrends  AnalysisType = "platform_trends"
	PublisherTrends AnalysisType = "publisher_trends"
	ReleasePatterns AnalysisType = "release_patterns"
)

// AnalysisTypes lists the supported reports.
var AnalysisTypes = []AnalysisType{Comprehensive, GenreTrends, PlatformTrends, PublisherTrends, ReleasePatterns}

// TimePeriod restricts the games considered by a trend report.
type TimePeriod string

const (
	AllTime TimePeriod = "all_time"
	Recent  TimePeriod = "recent"
	Decade  TimePeriod = "decade"
	Year    TimePeriod = "year"
)

// TimePeriods lists the supported periods.
var TimePeriods = []TimePeriod{AllTime, Recent, Decade, Year}

// CategoryStat describes one genre, platform or publisher.
type CategoryStat struct {
	Name        string  `json:"name"`
	TotalGames  int     `json:"total_games"`
	RecentGames int     `json:"recent_games"`
	Share       float64 `json:"share"`
	// Direction is growing, stable or declining (genres only).
	Direction string `json:"trend_direction,omitempty"`
	// Activity is high, medium or low (platforms and publishers).
	Activity string `json:"activity_level,omitempty"`
}

// GenreReport summarizes genre popularity.
type GenreReport struct {
	Distribution []CategoryStat `json:"genre_distribution"`
	Top          []string       `json:"top_genres"`
	Trending     []string       `json:"trending_genres"`
	Declining    []string       `json:"declining_genres"`
}

// PlatformReport summarizes platform market share.
type PlatformReport struct {
	Distribution []CategoryStat `json:"platform_distribution"`
	Leaders      []string       `json:"market_leaders"`
	Emerging     []string       `json:"emerging_platforms"`
	Total        int            `json:"total_platforms"`
}

// PublisherReport summarizes publisher output.
type PublisherReport struct {
	Distribution []CategoryStat `json:"publisher_distribution"`
	Top          []string       `json:"top_publishers"`
	MostActive   []string       `json:"most_active_publishers"`
	Total        int            `json:"total_publishers"`
}

// ReleaseReport summarizes release years.
type ReleaseReport struct {
	Yearly    map[int]int `json:"yearly_releases"`
	PeakYears []int       `json:"peak_release_years"`
	Analyzed  int         `json:"total_games_analyzed"`
	Trend     string      `json:"release_trend"`
}

// MarketInsights are qualitative observations about the catalog.
type MarketInsights struct {
	Insights    []string `json:"insights"`
	Predictions []string `json:"predictions"`
	HealthScore float64  `json:"market_health_score"`
}

// TrendReport is the result of AnalyzeTrends. Only the sections relevant
// to AnalysisType are set.
type TrendReport struct {
	AnalysisType AnalysisType     `json:"analysis_type"`
	TimePeriod   TimePeriod       `json:"time_period"`
	AnalysisDate time.Time        `json:"analysis_date"`
	DataPoints   int              `json:"data_points"`
	Genres       *GenreReport     `json:"genre_trends,omitempty"`
	Platforms    *PlatformReport  `json:"platform_trends,omitempty"`
	Publishers   *PublisherReport `json:"publisher_trends,omitempty"`
	Releases     *ReleaseReport   `json:"release_patterns,omitempty"`
	Market       *MarketInsights  `json:"market_insights,omitempty"`
	KeyFindings  []string         `json:"key_findings,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// ParseAnalysisType maps s to a known type, defaulting to Comprehensive.
func ParseAnalysisType(s string) AnalysisType {
	t := AnalysisType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AnalysisTypes {
		if t == known {
			return t
		}
	}
	return Comprehensive
}

// ParseTimePeriod maps s to a known period, defaulting to AllTime.
func ParseTimePeriod(s string) TimePeriod {
	p := TimePeriod(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range TimePeriods {
		if p == known {
			return p
		}
	}
	return AllTime
}

// AnalyzeTrends builds a trend report over the games released in period.
func (e *Engine) AnalyzeTrends(ctx context.Context, typ AnalysisType, period TimePeriod) (TrendReport, error) {
	typ = ParseAnalysisType(string(typ))
	period = ParseTimePeriod(string(period))

	all, err := e.catalog.Games(ctx)
	if err != nil {
		return TrendReport{}, fmt.Errorf("listing games: %w", err)
	}
	games := e.gamesForPeriod(all, period)

	report := TrendReport{
		AnalysisType: typ,
		TimePeriod:   period,
		AnalysisDate: e.now(),
		DataPoints:   len(games),
	}
	switch typ {
	case GenreTrends:
		report.Genres = e.genreReport(games)
	case PlatformTrends:
		report.Platforms = e.platformReport(games)
	case PublisherTrends:
		report.Publishers = e.publisherReport(games)
	case ReleasePatterns:
		report.Releases = e.releaseReport(games)
	default:
		report.Genres = e.genreReport(games)
		report.Platforms = e.platformReport(games)
		report.Publishers = e.publisherReport(games)
		report.Releases = e.releaseReport(games)
		report.Market = e.marketInsights(games)
		report.KeyFindings = e.keyFindings(games)
	}
	return report, nil
}

func (e *Engine) gamesForPeriod(games []game.Record, period TimePeriod) []game.Record {
	year := e.h.Year()
	var since, until int
	switch period {
	case Recent:
		since = year - 2
	case Decade:
		since = year - 10
	case Year:
		since, until = year, year
	default:
		return games
	}
	var out []game.Record
	for _, g := range games {
		if g.YearOfRelease >= since && (until == 0 || g.YearOfRelease <= until) {
			out = append(out, g)
		}
	}
	return out
}

func (e *Engine) isRecent(g game.Record) bool {
	return g.YearOfRelease >= e.h.RecentSince
}

// categorize groups games by key and ranks the groups by size, then name.
func (e *Engine) categorize(games []game.Record, key func(game.Record) string) []CategoryStat {
	index := make(map[string]int)
	var stats []CategoryStat
	for _, g := range games {
		name := key(g)
		if strings.TrimSpace(name) == "" {
			name = "Unknown"
		}
		i, ok := index[name]
		if !ok {
			i = len(stats)
			index[name] = i
			stats = append(stats, CategoryStat{Name: name})
		}
		stats[i].TotalGames++
		if e.isRecent(g) {
			stats[i].RecentGames++
		}
	}
	for i := range stats {
		stats[i].Share = float64(stats[i].TotalGames) / float64(len(games))
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalGames != stats[j].TotalGames {
			return stats[i].TotalGames > stats[j].TotalGames
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

func (e *Engine) genreReport(games []game.Record) *GenreReport {
	stats := e.categorize(games, func(g game.Record) string { return g.Genre })
	r := &GenreReport{Distribution: stats, Top: names(stats, 5), Trending: []string{}, Declining: []string{}}
	for i := range stats {
		s := &stats[i]
		total := float64(s.TotalGames)
		switch recent := float64(s.RecentGames); {
		case recent > total*0.3:
			s.Direction = "growing"
			r.Trending = append(r.Trending, s.Name)
		case recent < total*0.1:
			s.Direction = "declining"
			r.Declining = append(r.Declining, s.Name)
		default:
			s.Direction = "stable"
		}
	}
	return r
}

func (e *Engine) platformReport(games []game.Record) *PlatformReport {
	stats := e.categorize(games, func(g game.Record) string { return g.Platform })
	r := &PlatformReport{Distribution: stats, Leaders: names(stats, 3), Emerging: []string{}, Total: len(stats)}
	for i := range stats {
		s := &stats[i]
		s.Activity = activity(s.RecentGames, 2)
		if s.Activity == "high" && float64(s.RecentGames) > float64(s.TotalGames)*0.5 {
			r.Emerging = append(r.Emerging, s.Name)
		}
	}
	return r
}

func (e *Engine) publisherReport(games []game.Record) *PublisherReport {
	stats := e.categorize(games, func(g game.Record) string { return g.Publisher })
	r := &PublisherReport{Distribution: stats, Top: names(stats, 5), MostActive: []string{}, Total: len(stats)}
	for i := range stats {
		s := &stats[i]
		s.Activity = activity(s.RecentGames, 1)
		if s.Activity == "high" {
			r.MostActive = append(r.MostActive, s.Name)
		}
	}
	return r
}

func (e *Engine) releaseReport(games []game.Record) *ReleaseReport {
	r := &ReleaseReport{Yearly: make(map[int]int), PeakYears: []int{}, Analyzed: len(games), Trend: "stable"}
	for _, g := range games {
		if g.YearOfRelease > 0 {
			r.Yearly[g.YearOfRelease]++
		}
	}
	years := make([]int, 0, len(r.Yearly))
	for y := range r.Yearly {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool {
		if r.Yearly[years[i]] != r.Yearly[years[j]] {
			return r.Yearly[years[i]] > r.Yearly[years[j]]
		}
		return years[i] > years[j]
	})
	if len(years) > 3 {
		years = years[:3]
	}
	r.PeakYears = years
	if len(years) > 0 && years[0] >= e.h.RecentSince {
		r.Trend = "increasing"
	}
	return r
}

func (e *Engine) marketInsights(games []game.Record) *MarketInsights {
	m := &MarketInsights{Insights: []string{}, Predictions: []string{}}
	if len(games) == 0 {
		return m
	}
	genres := make(map[string]bool)
	platforms := make(map[string]bool)
	recent := 0
	for _, g := range games {
		genres[g.Genre] = true
		platforms[g.Platform] = true
		if e.isRecent(g) {
			recent++
		}
	}
	if len(genres) > 5 {
		m.Insights = append(m.Insights, "High genre diversity indicates a healthy, varied gaming market")
	}
	if len(platforms) > 3 {
		m.Insights = append(m.Insights, "Multi-platform presence suggests strong market competition")
	}
	if float64(recent) > float64(len(games))*0.3 {
		m.Predictions = append(m.Predictions, "Gaming industry shows strong growth momentum")
	}
	m.HealthScore = clamp(float64(len(genres))/10 + float64(len(platforms))/5)
	return m
}

func (e *Engine) keyFindings(games []game.Record) []string {
	if len(games) == 0 {
		return []string{"No games data available for analysis"}
	}
	genres := e.categorize(games, func(g game.Record) string { return g.Genre })
	platforms := e.categorize(games, func(g game.Record) string { return g.Platform })
	findings := []string{
		fmt.Sprintf("Most popular genre: %s (%d games)", genres[0].Name, genres[0].TotalGames),
		fmt.Sprintf("Most active platform: %s (%d games)", platforms[0].Name, platforms[0].TotalGames),
	}
	recent := 0
	for _, g := range games {
		if e.isRecent(g) {
			recent++
		}
	}
	if recent > 0 {
		findings = append(findings, fmt.Sprintf("Recent activity: %d games released since %d", recent, e.h.RecentSince))
	}
	return findings
}

func activity(recent, highAbove int) string {
	switch {
	case recent > highAbove:
		return "high"
	case recent > 0:
		return "medium"
	default:
		return "low"
	}
}

func names(stats []CategoryStat, n int) []string {
	out := []string{}
	for i := 0; i < len(stats) && i < n; i++ {
		out = append(out, stats[i].Name)
	}
	return out
}
