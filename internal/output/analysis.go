package output

import (
	"strings"
	"time"
)

// Summary returns a short form of answer: the whole text when it is at most
// 100 bytes, otherwise its first sentence.
func Summary(answer string) string {
	if len(answer) <= 100 {
		return answer
	}
	first, _, found := strings.Cut(answer, ". ")
	if !found {
		return strings.TrimSuffix(first, ".") + "."
	}
	return first + "."
}

// KeyPoints returns up to three leading sentences longer than ten bytes.
func KeyPoints(answer string) []string {
	sentences := strings.Split(answer, ". ")
	points := []string{}
	for _, s := range sentences[:min(3, len(sentences))] {
		if s = strings.TrimSpace(s); len(s) > 10 {
			points = append(points, s)
		}
	}
	return points
}

var topicTerms = []struct{ term, topic string }{
	{"game", "Game Information"},
	{"platform", "Platform Details"},
	{"genre", "Genre Analysis"},
	{"publisher", "Publisher Information"},
	{"release", "Release Information"},
}

// RelatedTopics suggests follow-up topics mentioned in answer.
func RelatedTopics(answer string) []string {
	lower := strings.ToLower(answer)
	topics := []string{}
	for _, t := range topicTerms {
		if strings.Contains(lower, t.term) {
			topics = append(topics, t.topic)
		}
	}
	return topics
}

func ConfidenceLevel(c float64) string {
	switch {
	case c >= 0.8:
		return "high"
	case c >= 0.6:
		return "medium"
	case c >= 0.4:
		return "low"
	default:
		return "very_low"
	}
}

func SourceReliability(sources []string) string {
	if len(sources) == 0 {
		return "no_sources"
	}
	for _, s := range sources {
		if s == "vector_db" || s == "web_search" {
			return "reliable"
		}
	}
	return "unknown"
}

func Completeness(answer string) string {
	switch n := len(answer); {
	case n > 200:
		return "complete"
	case n > 100:
		return "partial"
	default:
		return "brief"
	}
}

// Query types reported by ClassifyQuery.
const (
	QueryReleaseInfo    = "release_info"
	QueryFactual        = "factual_query"
	QueryRecommendation = "recommendation"
	QueryComparison     = "comparison"
	QueryGeneral        = "general_query"
)

var queryClasses = []struct {
	kind  string
	words []string
}{
	{QueryReleaseInfo, []string{"when", "date", "year", "released"}},
	{QueryFactual, []string{"what", "which", "how"}},
	{QueryRecommendation, []string{"recommend", "suggest", "best"}},
	{QueryComparison, []string{"compare", "difference", "vs"}},
}

// ClassifyQuery assigns query to the first matching class by substring.
func ClassifyQuery(query string) string {
	lower := strings.ToLower(query)
	for _, c := range queryClasses {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.kind
			}
		}
	}
	return QueryGeneral
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true, "in": true,
	"on": true, "at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
}

// Keywords returns up to ten lowercase query words longer than two bytes
// that are not stop words.
func Keywords(query string) []string {
	keywords := []string{}
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if stopWords[w] || len(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

// Quality grades an answer on length, confidence, sources and success.
func Quality(a Answer) string {
	score := 0
	if len(a.Answer) > 50 {
		score++
	}
	if a.Confidence > 0.7 {
		score++
	}
	if len(a.Sources) > 0 {
		score++
	}
	if a.SearchMethod != "error" {
		score++
	}
	switch {
	case score >= 3:
		return "high"
	case score >= 2:
		return "medium"
	default:
		return "low"
	}
}

type QueryAnalysis struct {
	OriginalQuery string   `json:"original_query"`
	QueryLength   int      `json:"query_length"`
	QueryType     string   `json:"query_type"`
	Keywords      []string `json:"keywords"`
}

type ResponseAnalysis struct {
	AnswerLength    int     `json:"answer_length"`
	ConfidenceScore float64 `json:"confidence_score"`
	SourcesCount    int     `json:"sources_count"`
	SearchMethod    string  `json:"search_method"`
	ResponseQuality string  `json:"response_quality"`
}

type PerformanceMetrics struct {
	ProcessingTimeMS int64 `json:"processing_time_ms"`
	APICallsMade     int   `json:"api_calls_made"`
}

// Analytics is a tracking record for one answered query.
type Analytics struct {
	SessionID          string             `json:"session_id"`
	UserID             string             `json:"user_id"`
	Timestamp          time.Time          `json:"timestamp"`
	QueryAnalysis      QueryAnalysis      `json:"query_analysis"`
	ResponseAnalysis   ResponseAnalysis   `json:"response_analysis"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// Analytics builds the tracking record for a. An empty userID is reported
// as "anonymous".
func (f *Formatter) Analytics(a Answer, userID string) Analytics {
	if userID == "" {
		userID = "anonymous"
	}
	now := f.now()
	return Analytics{
		SessionID: "session_" + now.Format("20060102_150405"),
		UserID:    userID,
		Timestamp: now,
		QueryAnalysis: QueryAnalysis{
			OriginalQuery: a.Question,
			QueryLength:   len(a.Question),
			QueryType:     ClassifyQuery(a.Question),
			Keywords:      Keywords(a.Question),
		},
		ResponseAnalysis: ResponseAnalysis{
			AnswerLength:    len(a.Answer),
			ConfidenceScore: a.Confidence,
			SourcesCount:    len(a.Sources),
			SearchMethod:    a.SearchMethod,
			ResponseQuality: Quality(a),
		},
		PerformanceMetrics: PerformanceMetrics{
			ProcessingTimeMS: a.Duration.Milliseconds(),
			APICallsMade:     len(a.Sources),
		},
	}
}
