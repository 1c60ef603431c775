// Package output turns agent answers into machine-readable documents:
// schema-shaped responses, API envelopes, webhook payloads, analytics
// records and HTML.
package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Format selects which fields a structured response carries.
type Format string

const (
	Standard Format = "standard"
	Detailed Format = "detailed"
	Minimal  Format = "minimal"
	API      Format = "api"
)

const (
	Version      = "1.0"
	AgentVersion = "1.0.0"
	ModelVersion = "udaplay-v1.0"
)

// ParseFormat maps a name to a Format. Unknown names are Standard.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Detailed, Minimal, API:
		return f
	default:
		return Standard
	}
}

// Answer is the subset of an agent response the formatter consumes.
type Answer struct {
	Question     string
	Answer       string
	Confidence   float64
	Sources      []string
	SearchMethod string
	Duration     time.Duration
}

// Formatter builds documents from answers.
type Formatter struct {
	now func() time.Time
	md  goldmark.Markdown
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithClock overrides the time source used for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) { f.now = now }
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		now: time.Now,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Body holds the schema-selected fields of a structured response. Fields a
// format does not include are omitted.
type Body struct {
	Answer        string   `json:"answer"`
	Confidence    float64  `json:"confidence"`
	Sources       []string `json:"sources,omitempty"`
	SearchMethod  string   `json:"search_method,omitempty"`
	Summary       string   `json:"summary,omitempty"`
	KeyPoints     []string `json:"key_points,omitempty"`
	RelatedTopics []string `json:"related_topics,omitempty"`
}

type ProcessingInfo struct {
	ConfidenceLevel      string `json:"confidence_level"`
	SourceReliability    string `json:"source_reliability"`
	ResponseCompleteness string `json:"response_completeness"`
}

type TechnicalDetails struct {
	SearchMethod string `json:"search_method"`
	SourcesUsed  int    `json:"sources_used"`
	AnswerLength int    `json:"answer_length"`
}

type Metadata struct {
	GeneratedAt      time.Time        `json:"generated_at"`
	AgentVersion     string           `json:"agent_version"`
	ResponseID       string           `json:"response_id"`
	ProcessingInfo   ProcessingInfo   `json:"processing_info"`
	TechnicalDetails TechnicalDetails `json:"technical_details"`
}

// Structured is a formatted response with optional metadata.
type Structured struct {
	Response  Body      `json:"response"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	Format    Format    `json:"format"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Structure shapes a according to format.
func (f *Formatter) Structure(a Answer, format Format, withMetadata bool) Structured {
	now := f.now()
	body := Body{Answer: a.Answer, Confidence: a.Confidence}
	if format != Minimal {
		body.Sources = nonNil(a.Sources)
		body.SearchMethod = a.SearchMethod
		body.Summary = Summary(a.Answer)
	}
	if format == Detailed || format == API {
		body.KeyPoints = KeyPoints(a.Answer)
	}
	if format == Detailed {
		body.RelatedTopics = RelatedTopics(a.Answer)
	}

	s := Structured{Response: body, Format: format, Timestamp: now, Version: Version}
	if withMetadata {
		s.Metadata = &Metadata{
			GeneratedAt:  now,
			AgentVersion: AgentVersion,
			ResponseID:   "resp_" + now.Format("20060102_150405"),
			ProcessingInfo: ProcessingInfo{
				ConfidenceLevel:      ConfidenceLevel(a.Confidence),
				SourceReliability:    SourceReliability(a.Sources),
				ResponseCompleteness: Completeness(a.Answer),
			},
			TechnicalDetails: TechnicalDetails{
				SearchMethod: a.SearchMethod,
				SourcesUsed:  len(a.Sources),
				AnswerLength: len(a.Answer),
			},
		}
	}
	return s
}

type APIData struct {
	Answer       string   `json:"answer"`
	Confidence   float64  `json:"confidence"`
	Sources      []string `json:"sources"`
	SearchMethod string   `json:"search_method"`
}

type APIMeta struct {
	Timestamp      time.Time `json:"timestamp"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	ModelVersion   string    `json:"model_version"`
}

// APIResponse is the envelope returned by the HTTP API.
type APIResponse struct {
	Success bool     `json:"success"`
	Data    *APIData `json:"data"`
	Error   string   `json:"error,omitempty"`
	Meta    APIMeta  `json:"meta"`
}

// APIResponse wraps a in the API envelope. Answers produced by a failed
// pipeline are reported as unsuccessful.
func (f *Formatter) APIResponse(a Answer) APIResponse {
	return APIResponse{
		Success: a.SearchMethod != "error",
		Data:    apiData(a),
		Meta: APIMeta{
			Timestamp:      f.now(),
			ResponseTimeMS: a.Duration.Milliseconds(),
			ModelVersion:   ModelVersion,
		},
	}
}

// APIError builds an unsuccessful envelope with no data.
func (f *Formatter) APIError(err error) APIResponse {
	return APIResponse{Error: err.Error(), Meta: APIMeta{Timestamp: f.now(), ModelVersion: ModelVersion}}
}

func apiData(a Answer) *APIData {
	return &APIData{
		Answer:       a.Answer,
		Confidence:   a.Confidence,
		Sources:      nonNil(a.Sources),
		SearchMethod: a.SearchMethod,
	}
}

// Webhook event types.
const (
	EventGameQuery      = "game_query"
	EventRecommendation = "recommendation"
	EventTrendAnalysis  = "trend_analysis"
)

type WebhookContext struct {
	AgentVersion       string `json:"agent_version"`
	ProcessingTime     string `json:"processing_time"`
	DataPointsAnalyzed int    `json:"data_points_analyzed"`
}

type WebhookBody struct {
	QueryResult *APIData       `json:"query_result"`
	Context     WebhookContext `json:"context"`
}

// Webhook is an event payload for external integrations.
type Webhook struct {
	EventType string      `json:"event_type"`
	EventID   string      `json:"event_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   WebhookBody `json:"payload"`
}

// Webhook builds an event of eventType (EventGameQuery when empty) for a.
func (f *Formatter) Webhook(a Answer, eventType string) Webhook {
	if eventType == "" {
		eventType = EventGameQuery
	}
	now := f.now()
	return Webhook{
		EventType: eventType,
		EventID:   "udaplay_" + now.Format("20060102_150405"),
		Timestamp: now,
		Payload: WebhookBody{
			QueryResult: apiData(a),
			Context: WebhookContext{
				AgentVersion:       AgentVersion,
				ProcessingTime:     fmt.Sprintf("%dms", a.Duration.Milliseconds()),
				DataPointsAnalyzed: len(a.Sources),
			},
		},
	}
}

// HTML renders the markdown answer text as an HTML fragment.
func (f *Formatter) HTML(a Answer) (string, error) {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(a.Answer), &buf); err != nil {
		return "", fmt.Errorf("converting answer: %w", err)
	}
	return buf.String(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
