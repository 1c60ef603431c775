package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/llm"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
)

type fakeJudge struct {
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeJudge) Generate(_ context.Context, _, user string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, user)
	return f.reply, f.err
}

func oneGame() retrieval.Result {
	return retrieval.Result{
		Query: "q",
		Entries: []retrieval.Entry{{
			Kind: "game",
			Game: game.Record{Name: "Pokémon Gold", Platform: "Game Boy Color", Genre: "RPG",
				Publisher: "Nintendo", Description: "Johto adventure.", YearOfRelease: 1999},
			Similarity: 0.8,
		}},
	}
}

func TestEvaluateEmptyRetrievalSkipsJudge(t *testing.T) {
	judge := &fakeJudge{}
	r := New(judge, nil).Evaluate(context.Background(), "anything", retrieval.Result{})

	assert.False(t, r.Useful)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, SearchWeb, r.Recommendation)
	assert.Equal(t, NoEntriesDescription, r.Description)
	assert.Zero(t, judge.calls)
}

func TestEvaluateParsesVerdict(t *testing.T) {
	judge := &fakeJudge{reply: `{"useful": true, "description": "covers it", "confidence": 0.92, "recommendation": "proceed_with_answer"}`}
	r := New(judge, nil).Evaluate(context.Background(), "When was Pokémon Gold released?", oneGame())

	require.NoError(t, r.Err)
	assert.True(t, r.Useful)
	assert.InDelta(t, 0.92, r.Confidence, 1e-9)
	assert.Equal(t, ProceedWithAnswer, r.Recommendation)
	assert.Equal(t, StatusOK, r.Status)
	assert.False(t, r.NeedsWebSearch(0.7))

	require.Len(t, judge.prompts, 1)
	assert.Contains(t, judge.prompts[0], "User Question: When was Pokémon Gold released?")
	assert.Contains(t, judge.prompts[0], "1. Pokémon Gold (Game Boy Color, 1999)")
}

func TestEvaluateClampsAndNormalizes(t *testing.T) {
	judge := &fakeJudge{reply: "```json\n{\"useful\": false, \"confidence\": 3, \"recommendation\": \"maybe\"}\n```"}
	r := New(judge, nil).Evaluate(context.Background(), "q", oneGame())

	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
	assert.Equal(t, SearchWeb, r.Recommendation)
	assert.True(t, r.NeedsWebSearch(0.7))
}

func TestEvaluateJudgeFailureDegrades(t *testing.T) {
	judge := &fakeJudge{err: errors.New("rate limited")}
	r := New(judge, nil).Evaluate(context.Background(), "q", oneGame())

	assert.False(t, r.Useful)
	assert.Zero(t, r.Confidence)
	assert.Equal(t, SearchWeb, r.Recommendation)
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "Error during evaluation: rate limited", r.Description)
	assert.Error(t, r.Err)
}

func TestEvaluateMalformedVerdictDegrades(t *testing.T) {
	r := New(&fakeJudge{reply: "not json"}, nil).Evaluate(context.Background(), "q", oneGame())
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Contains(t, r.Description, "Error during evaluation:")
	assert.Equal(t, SearchWeb, r.Recommendation)
}

func TestNeedsWebSearch(t *testing.T) {
	assert.True(t, Report{Useful: false, Confidence: 0.95}.NeedsWebSearch(0.7))
	assert.True(t, Report{Useful: true, Confidence: 0.69}.NeedsWebSearch(0.7))
	assert.False(t, Report{Useful: true, Confidence: 0.7}.NeedsWebSearch(0.7))
}

func TestNewJudgeSettings(t *testing.T) {
	g, ok := NewJudge(nil, "gpt-4o-mini").(*llm.ProviderGenerator)
	require.True(t, ok)
	assert.True(t, g.JSONMode)
	assert.InDelta(t, JudgeTemperature, g.Temperature, 1e-9)
	assert.Equal(t, "gpt-4o-mini", g.Model)
}
