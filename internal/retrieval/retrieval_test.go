package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/udaplay/internal/embeddings"
	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
)

type fakeSearcher struct {
	hits      []knowledge.Hit
	err       error
	lastLimit int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int) ([]knowledge.Hit, error) {
	f.lastLimit = limit
	return f.hits, f.err
}

func TestSearchAveragesSimilarity(t *testing.T) {
	s := &fakeSearcher{hits: []knowledge.Hit{
		{ID: "a", Kind: vectordb.KindGame, Record: game.Record{Name: "A"}, Similarity: 0.9},
		{ID: "b", Kind: vectordb.KindGame, Record: game.Record{Name: "B"}, Similarity: 0.5},
	}}
	res := New(s, nil).Search(context.Background(), "q", 5)

	require.NoError(t, res.Err)
	assert.Len(t, res.Entries, 2)
	assert.Equal(t, 2, res.TotalResults)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
	assert.Equal(t, Method, res.Method)
	assert.Equal(t, "A", res.Entries[0].Game.Name)
}

func TestSearchClampsConfidence(t *testing.T) {
	s := &fakeSearcher{hits: []knowledge.Hit{{Kind: vectordb.KindGame, Similarity: 1.4}}}
	assert.InDelta(t, 1.0, New(s, nil).Search(context.Background(), "q", 1).Confidence, 1e-9)

	s = &fakeSearcher{hits: []knowledge.Hit{{Kind: vectordb.KindGame, Similarity: -0.3}}}
	assert.InDelta(t, 0.0, New(s, nil).Search(context.Background(), "q", 1).Confidence, 1e-9)
}

func TestSearchEmpty(t *testing.T) {
	res := New(&fakeSearcher{}, nil).Search(context.Background(), "nothing", 5)
	assert.True(t, res.Empty())
	assert.False(t, res.Degraded())
	assert.Zero(t, res.Confidence)
	assert.Equal(t, NoMatchesMessage, res.Message)
}

func TestSearchBackendFailureDegrades(t *testing.T) {
	res := New(&fakeSearcher{err: errors.New("index offline")}, nil).Search(context.Background(), "q", 5)
	require.Error(t, res.Err)
	assert.True(t, res.Degraded())
	assert.True(t, res.Empty())
	assert.Zero(t, res.Confidence)
	assert.Contains(t, res.Message, "index offline")
}

func TestSearchLimitBounds(t *testing.T) {
	s := &fakeSearcher{}
	g := New(s, nil)
	g.Search(context.Background(), "q", 0)
	assert.Equal(t, DefaultLimit, s.lastLimit)
	g.Search(context.Background(), "q", 50)
	assert.Equal(t, MaxLimit, s.lastLimit)
}

func TestEntryRender(t *testing.T) {
	e := Entry{Kind: "game", Game: game.Record{
		Name: "Gran Turismo", Platform: "PlayStation", Genre: "Racing",
		Publisher: "Sony", Description: "Realistic racing.", YearOfRelease: 1997,
	}}
	assert.Equal(t, "Gran Turismo (PlayStation, 1997)\n  Genre: Racing, Publisher: Sony\n  Description: Realistic racing.", e.Render("  "))

	web := Entry{Kind: "web", Title: "GT review", URL: "https://ign.com/gt", Content: "Great."}
	assert.Equal(t, "GT review\n  URL: https://ign.com/gt\n  Content: Great.", web.Render("  "))
}

func TestSearchAgainstKnowledgeBase(t *testing.T) {
	ctx := context.Background()
	store, err := vectordb.NewChromemStore(embeddings.NewHashEmbedder(128), "", nil)
	require.NoError(t, err)
	base := knowledge.New(store, t.TempDir())
	_, err = base.AddGame(ctx, game.Record{
		Name: "Mock Game", Platform: "MockPlatform", Genre: "Adventure",
		Publisher: "MockPub", Description: "A mock adventure.", YearOfRelease: 2000,
	}, "mock")
	require.NoError(t, err)

	res := New(base, nil).Search(ctx, "When was Mock Game released?", 5)
	require.NoError(t, res.Err)
	require.Len(t, res.Entries, 1)
	assert.True(t, res.Entries[0].IsGame())
	assert.Equal(t, "Mock Game", res.Entries[0].Game.Name)
	assert.GreaterOrEqual(t, res.Confidence, 0.0)
	assert.LessOrEqual(t, res.Confidence, 1.0)
}
