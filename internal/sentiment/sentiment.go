// Package sentiment classifies the sentiment of game reviews and feedback
// with an LLM.
package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/llm"
	"github.com/ziadkadry99/udaplay/internal/logging"
)

// Label is an overall sentiment.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
	Mixed    Label = "mixed"
	Unknown  Label = "unknown"
)

// ErrEmptyText is returned when there is nothing to analyze.
var ErrEmptyText = errors.New("text to analyze is empty")

// Analysis is the result of Analyze.
type Analysis struct {
	Sentiment       Label    `json:"sentiment"`
	Confidence      float64  `json:"confidence"`
	PositiveAspects []string `json:"positive_aspects"`
	NegativeAspects []string `json:"negative_aspects"`
	SuggestedRating float64  `json:"suggested_rating"`
	GameTitle       string   `json:"game_title,omitempty"`
	// RawAnalysis holds the model output when it was not valid JSON.
	RawAnalysis string `json:"raw_analysis,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Analyzer runs sentiment analysis through a Generator.
type Analyzer struct {
	gen    llm.Generator
	logger *zap.Logger
}

// New creates an Analyzer.
func New(gen llm.Generator, logger *zap.Logger) *Analyzer {
	return &Analyzer{gen: gen, logger: logging.OrNop(logger)}
}

// NewGenerator returns the generator settings used for analysis.
func NewGenerator(p llm.Provider, model string) llm.Generator {
	return &llm.ProviderGenerator{Provider: p, Model: model, Temperature: 0.3}
}

// Analyze classifies text, optionally in the context of gameTitle. Output
// that is not valid JSON yields a neutral analysis carrying the raw text.
func (a *Analyzer) Analyze(ctx context.Context, text, gameTitle string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrEmptyText
	}

	out, err := a.gen.Generate(ctx, systemPrompt, buildPrompt(text, gameTitle))
	if err != nil {
		a.logger.Error("error in sentiment analysis", zap.Error(err))
		return Analysis{}, fmt.Errorf("sentiment analysis: %w", err)
	}

	var parsed struct {
		Sentiment       string          `json:"sentiment"`
		Confidence      float64         `json:"confidence"`
		PositiveAspects []string        `json:"positive_aspects"`
		NegativeAspects []string        `json:"negative_aspects"`
		SuggestedRating json.RawMessage `json:"suggested_rating"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(out)), &parsed); err != nil {
		a.logger.Debug("sentiment output was not JSON", zap.Error(err))
		return Analysis{
			Sentiment:       Neutral,
			Confidence:      0.5,
			PositiveAspects: []string{},
			NegativeAspects: []string{},
			SuggestedRating: 5,
			GameTitle:       gameTitle,
			RawAnalysis:     out,
		}, nil
	}

	return Analysis{
		Sentiment:       normalizeLabel(parsed.Sentiment),
		Confidence:      max(0, min(1, parsed.Confidence)),
		PositiveAspects: nonNil(parsed.PositiveAspects),
		NegativeAspects: nonNil(parsed.NegativeAspects),
		SuggestedRating: parseRating(parsed.SuggestedRating),
		GameTitle:       gameTitle,
	}, nil
}

func normalizeLabel(s string) Label {
	switch l := Label(strings.ToLower(strings.TrimSpace(s))); l {
	case Positive, Negative, Neutral, Mixed:
		return l
	default:
		return Unknown
	}
}

// parseRating accepts a number or a numeric string and bounds it to 1-10.
// Anything else is rated 5.
func parseRating(raw json.RawMessage) float64 {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 5
		}
		s, _, _ = strings.Cut(strings.TrimSpace(s), "/")
		if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
			return 5
		}
	}
	return max(1, min(10, v))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const systemPrompt = "You are an expert at analyzing game review sentiment. Be objective and thorough."

func buildPrompt(text, gameTitle string) string {
	var forGame string
	if gameTitle != "" {
		forGame = " for " + gameTitle
	}
	return fmt.Sprintf(`Analyze the sentiment of this game review%s:

Text: %q

Provide:
1. Overall sentiment (positive, negative, neutral, mixed)
2. Confidence score (0.0 to 1.0)
3. Key positive aspects mentioned
4. Key negative aspects mentioned
5. Overall rating suggestion (1-10 scale)

Format as JSON with keys: sentiment, confidence, positive_aspects, negative_aspects, suggested_rating`, forGame, text)
}
