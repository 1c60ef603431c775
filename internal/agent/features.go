package agent

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ziadkadry99/udaplay/internal/insights"
	"github.com/ziadkadry99/udaplay/internal/memory"
	"github.com/ziadkadry99/udaplay/internal/output"
	"github.com/ziadkadry99/udaplay/internal/sentiment"
)

// Version is the agent version reported by Info.
const Version = "2.0.0"

// ErrUnavailable is reported by features whose dependency is not configured.
var ErrUnavailable = errors.New("feature is not configured")

// Info describes the agent.
type Info struct {
	Name                 string   `json:"name"`
	Version              string   `json:"version"`
	Description          string   `json:"description"`
	State                string   `json:"state"`
	SufficiencyThreshold float64  `json:"sufficiency_threshold"`
	Capabilities         []string `json:"capabilities"`
	Tools                []string `json:"tools"`
	AdvancedFeatures     []string `json:"advanced_features"`
}

// Info returns the agent's capability and tool manifest.
func (a *Agent) Info() Info {
	return Info{
		Name:                 "UdaPlay",
		Version:              Version,
		Description:          "Advanced AI Research Agent for video game industry questions",
		State:                string(a.deps.Machine.State()),
		SufficiencyThreshold: a.cfg.SufficiencyThreshold,
		Capabilities: []string{
			"Local game database search",
			"Web search for additional information",
			"Structured response generation",
			"Conversation state management",
			"Personalized recommendations",
			"Trend analysis",
			"Sentiment analysis",
			"Advanced memory and learning",
			"Multi-format output generation",
		},
		Tools: []string{
			"retrieve_game",
			"evaluate_retrieval",
			"game_web_search",
			"analyze_sentiment",
			"detect_trending_games",
			"get_game_recommendations",
			"analyze_gaming_trends",
			"learn_from_interaction",
			"generate_structured_output",
		},
		AdvancedFeatures: []string{
			"Persistent learning from interactions",
			"User preference profiling",
			"Trend analysis and predictions",
			"Multi-format output (JSON, API, Webhook, HTML)",
			"Query history log",
			"Memory-based recommendations",
		},
	}
}

// MemoryStats reports long-term memory counts.
func (a *Agent) MemoryStats() memory.Stats { return a.deps.Memory.Stats() }

// LearnedFacts returns facts learned from web searches, filtered by topic
// when it is non-empty.
func (a *Agent) LearnedFacts(topic string) []memory.Fact { return a.deps.Memory.LearnedFacts(topic) }

// PersonalizedRecommendations derives suggestions from userID's history.
func (a *Agent) PersonalizedRecommendations(userID string) memory.Recommendations {
	return a.deps.Memory.PersonalizedRecommendations(userID)
}

// ConversationContext returns the most recent shared context items for
// userID.
func (a *Agent) ConversationContext(userID string, limit int) []memory.ContextItem {
	return a.deps.Memory.ConversationContext(userID, limit)
}

// Recommend suggests games. Failures are reported in the Error field.
func (a *Agent) Recommend(ctx context.Context, preferences, typ string, limit int) insights.Recommendations {
	t := insights.ParseRecommendationType(typ)
	res, err := insightsCall(a, func(e *insights.Engine) (insights.Recommendations, error) {
		return e.Recommend(ctx, preferences, t, limit)
	})
	if err != nil {
		a.logger.Error("error generating recommendations", zap.Error(err))
		return insights.Recommendations{
			Recommendations: []insights.Recommendation{},
			Type:            t,
			UserPreferences: preferences,
			Error:           err.Error(),
		}
	}
	return res
}

// AnalyzeTrends reports catalog trends. Failures are reported in the
// Error field.
func (a *Agent) AnalyzeTrends(ctx context.Context, typ, period string) insights.TrendReport {
	t, p := insights.ParseAnalysisType(typ), insights.ParseTimePeriod(period)
	res, err := insightsCall(a, func(e *insights.Engine) (insights.TrendReport, error) {
		return e.AnalyzeTrends(ctx, t, p)
	})
	if err != nil {
		a.logger.Error("error analyzing trends", zap.Error(err))
		return insights.TrendReport{AnalysisType: t, TimePeriod: p, AnalysisDate: a.now(), Error: err.Error()}
	}
	return res
}

// DetectTrending finds trending games. Failures are reported in the Error
// field.
func (a *Agent) DetectTrending(ctx context.Context, criteria string, limit int) insights.TrendingReport {
	c := insights.ParseCriteria(criteria)
	res, err := insightsCall(a, func(e *insights.Engine) (insights.TrendingReport, error) {
		return e.DetectTrending(ctx, c, limit)
	})
	if err != nil {
		a.logger.Error("error detecting trending games", zap.Error(err))
		return insights.TrendingReport{Games: []insights.TrendingGame{}, Criteria: c, AnalysisDate: a.now(), Error: err.Error()}
	}
	return res
}

// insightsCall runs fn against the insights engine, turning a missing
// engine or a panic into an error.
func insightsCall[T any](a *Agent, fn func(*insights.Engine) (T, error)) (res T, err error) {
	if a.deps.Insights == nil {
		return res, ErrUnavailable
	}
	defer recoverInto(&err)
	return fn(a.deps.Insights)
}

// AnalyzeSentiment classifies review text. Failures are reported in the
// Error field.
func (a *Agent) AnalyzeSentiment(ctx context.Context, text, gameTitle string) (res sentiment.Analysis) {
	var err error
	defer func() {
		if err != nil {
			a.logger.Error("error in sentiment analysis", zap.Error(err))
			res = sentiment.Analysis{
				Sentiment:       sentiment.Unknown,
				PositiveAspects: []string{},
				NegativeAspects: []string{},
				GameTitle:       gameTitle,
				Error:           err.Error(),
			}
		}
	}()
	defer recoverInto(&err)

	if a.deps.Sentiment == nil {
		err = ErrUnavailable
		return res
	}
	res, err = a.deps.Sentiment.Analyze(ctx, text, gameTitle)
	return res
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = errors.New("internal error: " + panicText(r))
	}
}

func panicText(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "unexpected panic"
	}
}

// Formatter returns the structured output formatter.
func (a *Agent) Formatter() *output.Formatter { return a.deps.Output }

// StructuredResponse renders resp in format with metadata.
func (a *Agent) StructuredResponse(question string, resp Response, format string) output.Structured {
	return a.deps.Output.Structure(resp.OutputAnswer(question), output.ParseFormat(format), true)
}

// OutputAnswer converts r for the output formatter.
func (r Response) OutputAnswer(question string) output.Answer {
	return output.Answer{
		Question:     question,
		Answer:       r.Answer,
		Confidence:   r.Confidence,
		Sources:      r.Sources,
		SearchMethod: r.SearchMethod,
		Duration:     r.Duration,
	}
}
