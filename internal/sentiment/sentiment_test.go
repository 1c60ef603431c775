package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, _, user string) (string, error) {
	f.prompt = user
	return f.reply, f.err
}

func TestAnalyzeParsesJSON(t *testing.T) {
	gen := &fakeGenerator{reply: `{"sentiment":"Positive","confidence":0.93,"positive_aspects":["combat","world"],"negative_aspects":["performance"],"suggested_rating":9}`}
	a, err := New(gen, nil).Analyze(context.Background(), "Amazing open world, some frame drops.", "Elden Ring")
	require.NoError(t, err)

	assert.Equal(t, Positive, a.Sentiment)
	assert.InDelta(t, 0.93, a.Confidence, 1e-9)
	assert.Equal(t, []string{"combat", "world"}, a.PositiveAspects)
	assert.InDelta(t, 9.0, a.SuggestedRating, 1e-9)
	assert.Equal(t, "Elden Ring", a.GameTitle)
	assert.Contains(t, gen.prompt, "game review for Elden Ring")
}

func TestAnalyzeFallsBackOnProse(t *testing.T) {
	gen := &fakeGenerator{reply: "The reviewer seems happy overall."}
	a, err := New(gen, nil).Analyze(context.Background(), "Loved it", "")
	require.NoError(t, err)

	assert.Equal(t, Neutral, a.Sentiment)
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
	assert.InDelta(t, 5.0, a.SuggestedRating, 1e-9)
	assert.Equal(t, "The reviewer seems happy overall.", a.RawAnalysis)
	assert.Empty(t, a.PositiveAspects)
	assert.NotContains(t, gen.prompt, " for ")
}

func TestAnalyzeNormalizes(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n{\"sentiment\":\"ecstatic\",\"confidence\":4,\"suggested_rating\":\"8/10\"}\n```"}
	a, err := New(gen, nil).Analyze(context.Background(), "wow", "")
	require.NoError(t, err)

	assert.Equal(t, Unknown, a.Sentiment)
	assert.InDelta(t, 1.0, a.Confidence, 1e-9)
	assert.InDelta(t, 8.0, a.SuggestedRating, 1e-9)
	assert.NotNil(t, a.NegativeAspects)
}

func TestAnalyzeErrors(t *testing.T) {
	_, err := New(&fakeGenerator{}, nil).Analyze(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = New(&fakeGenerator{err: errors.New("timeout")}, nil).Analyze(context.Background(), "text", "")
	assert.ErrorContains(t, err, "timeout")
}

func TestParseRating(t *testing.T) {
	tests := map[string]float64{
		`7`:      7,
		`"6.5"`:  6.5,
		`"9/10"`: 9,
		`42`:     10,
		`0`:      1,
		`"high"`: 5,
		`null`:   1,
	}
	for raw, want := range tests {
		assert.InDelta(t, want, parseRating(json.RawMessage(raw)), 1e-9, raw)
	}
	assert.InDelta(t, 5.0, parseRating(nil), 1e-9)
}
