// Package history keeps a durable log of answered questions in SQLite.
package history

import "time"

// WebResult is a web page that contributed to an answer.
type WebResult struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Entry is a single answered query.
type Entry struct {
	ID                   string      `json:"id"`
	Timestamp            time.Time   `json:"timestamp"`
	UserID               string      `json:"user_id"`
	Question             string      `json:"question"`
	Answer               string      `json:"answer"`
	Confidence           float64     `json:"confidence"`
	SearchMethod         string      `json:"search_method"`
	Sources              []string    `json:"sources"`
	LocalResults         int         `json:"local_results"`
	EvaluationUseful     bool        `json:"evaluation_useful"`
	EvaluationConfidence float64     `json:"evaluation_confidence"`
	DurationMS           int64       `json:"duration_ms"`
	WebResults           []WebResult `json:"web_results,omitempty"`
}

// Summary aggregates the log.
type Summary struct {
	Total          int            `json:"total_queries"`
	ByMethod       map[string]int `json:"by_search_method"`
	MeanConfidence float64        `json:"mean_confidence"`
}
