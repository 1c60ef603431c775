package output

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestFormatter() *Formatter {
	return New(WithClock(func() time.Time { return fixedNow }))
}

const longAnswer = "Pokémon Gold and Silver were released in 1999 for the Game Boy Color. " +
	"They introduced a day and night cycle and two new regions to explore. " +
	"The games were published by Nintendo and sold over 23 million copies worldwide."

func sampleAnswer() Answer {
	return Answer{
		Question:     "When were Pokémon Gold and Silver released?",
		Answer:       longAnswer,
		Confidence:   0.85,
		Sources:      []string{"vector_db", "web_search"},
		SearchMethod: "combined",
		Duration:     1500 * time.Millisecond,
	}
}

func TestStructureFormats(t *testing.T) {
	f := newTestFormatter()
	a := sampleAnswer()

	minimal := f.Structure(a, Minimal, false)
	assert.Nil(t, minimal.Metadata)
	assert.Empty(t, minimal.Response.Sources)
	assert.Empty(t, minimal.Response.Summary)

	std := f.Structure(a, Standard, true)
	assert.Equal(t, "Pokémon Gold and Silver were released in 1999 for the Game Boy Color.", std.Response.Summary)
	assert.Empty(t, std.Response.KeyPoints)
	require.NotNil(t, std.Metadata)
	assert.Equal(t, "resp_20240309_140507", std.Metadata.ResponseID)
	assert.Equal(t, "high", std.Metadata.ProcessingInfo.ConfidenceLevel)
	assert.Equal(t, "reliable", std.Metadata.ProcessingInfo.SourceReliability)
	assert.Equal(t, "complete", std.Metadata.ProcessingInfo.ResponseCompleteness)
	assert.Equal(t, 2, std.Metadata.TechnicalDetails.SourcesUsed)

	api := f.Structure(a, API, false)
	assert.Len(t, api.Response.KeyPoints, 3)
	assert.Empty(t, api.Response.RelatedTopics)

	detailed := f.Structure(a, Detailed, false)
	assert.Equal(t, []string{"Game Information", "Release Information"}, detailed.Response.RelatedTopics)
	assert.Equal(t, Detailed, detailed.Format)
	assert.Equal(t, Version, detailed.Version)
}

func TestStructureJSONOmitsUnselectedFields(t *testing.T) {
	data, err := json.Marshal(newTestFormatter().Structure(sampleAnswer(), Minimal, false))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	resp := doc["response"].(map[string]any)
	assert.Len(t, resp, 2)
	assert.NotContains(t, doc, "metadata")
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, Detailed, ParseFormat(" Detailed "))
	assert.Equal(t, API, ParseFormat("api"))
	assert.Equal(t, Standard, ParseFormat("yaml"))
	assert.Equal(t, Standard, ParseFormat(""))
}

func TestAPIResponse(t *testing.T) {
	f := newTestFormatter()

	ok := f.APIResponse(sampleAnswer())
	assert.True(t, ok.Success)
	assert.Equal(t, int64(1500), ok.Meta.ResponseTimeMS)
	assert.Equal(t, ModelVersion, ok.Meta.ModelVersion)

	failed := f.APIResponse(Answer{Answer: "I encountered an error", SearchMethod: "error"})
	assert.False(t, failed.Success)
	assert.Equal(t, []string{}, failed.Data.Sources)

	e := f.APIError(errors.New("bad request"))
	assert.False(t, e.Success)
	assert.Nil(t, e.Data)
	assert.Equal(t, "bad request", e.Error)
}

func TestWebhook(t *testing.T) {
	w := newTestFormatter().Webhook(sampleAnswer(), "")
	assert.Equal(t, EventGameQuery, w.EventType)
	assert.Equal(t, "udaplay_20240309_140507", w.EventID)
	assert.Equal(t, "1500ms", w.Payload.Context.ProcessingTime)
	assert.Equal(t, 2, w.Payload.Context.DataPointsAnalyzed)

	assert.Equal(t, EventTrendAnalysis, newTestFormatter().Webhook(sampleAnswer(), EventTrendAnalysis).EventType)
}

func TestAnalytics(t *testing.T) {
	a := newTestFormatter().Analytics(sampleAnswer(), "")
	assert.Equal(t, "anonymous", a.UserID)
	assert.Equal(t, QueryReleaseInfo, a.QueryAnalysis.QueryType)
	assert.Equal(t, []string{"when", "were", "pokémon", "gold", "silver", "released?"}, a.QueryAnalysis.Keywords)
	assert.Equal(t, "high", a.ResponseAnalysis.ResponseQuality)
	assert.Equal(t, "session_20240309_140507", a.SessionID)
}

func TestHTML(t *testing.T) {
	out, err := newTestFormatter().HTML(Answer{Answer: "**Halo** was released on:\n\n- Xbox\n- PC"})
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Halo</strong>")
	assert.Contains(t, out, "<li>Xbox</li>")
}

func TestHeuristics(t *testing.T) {
	assert.Equal(t, "short answer", Summary("short answer"))
	assert.Equal(t, QueryFactual, ClassifyQuery("Which studio made Halo?"))
	assert.Equal(t, QueryRecommendation, ClassifyQuery("Suggest a racing game"))
	assert.Equal(t, QueryComparison, ClassifyQuery("Halo vs Destiny"))
	assert.Equal(t, QueryGeneral, ClassifyQuery("Tell me about Zelda"))

	assert.Equal(t, "very_low", ConfidenceLevel(0.1))
	assert.Equal(t, "low", ConfidenceLevel(0.4))
	assert.Equal(t, "medium", ConfidenceLevel(0.6))
	assert.Equal(t, "no_sources", SourceReliability(nil))
	assert.Equal(t, "unknown", SourceReliability([]string{"cache"}))
	assert.Equal(t, "brief", Completeness("ok"))
	assert.Equal(t, "low", Quality(Answer{SearchMethod: "error"}))
	assert.Equal(t, "medium", Quality(Answer{Sources: []string{"vector_db"}}))

	assert.Len(t, Keywords("one two three four five six seven eight nine ten eleven twelve"), 10)
}
