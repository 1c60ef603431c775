package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/udaplay/internal/agent"
	"github.com/ziadkadry99/udaplay/internal/config"
	"github.com/ziadkadry99/udaplay/internal/evaluation"
	"github.com/ziadkadry99/udaplay/internal/game"
	"github.com/ziadkadry99/udaplay/internal/insights"
	"github.com/ziadkadry99/udaplay/internal/knowledge"
	"github.com/ziadkadry99/udaplay/internal/memory"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
	"github.com/ziadkadry99/udaplay/internal/sentiment"
	"github.com/ziadkadry99/udaplay/internal/vectordb"
	"github.com/ziadkadry99/udaplay/internal/websearch"
)

var zelda = game.Record{
	Name: "The Legend of Zelda: Breath of the Wild", Platform: "Nintendo Switch", Genre: "Action-Adventure",
	Publisher: "Nintendo", Description: "An open world adventure.", YearOfRelease: 2017,
}

type mockRetriever struct {
	entries []retrieval.Entry
	err     error
}

func (m *mockRetriever) Search(_ context.Context, query string, limit int) retrieval.Result {
	if m.err != nil {
		return retrieval.Result{Query: query, Err: m.err, Message: "Error searching games"}
	}
	entries := m.entries[:min(limit, len(m.entries))]
	return retrieval.Result{Query: query, Entries: entries, TotalResults: len(entries), Confidence: 0.9, Method: retrieval.Method}
}

type mockEvaluator struct{}

func (mockEvaluator) Evaluate(context.Context, string, retrieval.Result) evaluation.Report {
	return evaluation.Report{Useful: true, Confidence: 0.95}
}

type mockWeb struct{}

func (mockWeb) Search(context.Context, string, int) websearch.ResultSet {
	return websearch.ResultSet{Results: []websearch.Result{}}
}

type mockGenerator struct {
	reply string
	err   error
}

func (m mockGenerator) Generate(context.Context, string, string) (string, error) {
	return m.reply, m.err
}

type mockCatalog struct{}

func (mockCatalog) SearchGames(context.Context, string, int) ([]knowledge.Hit, error) {
	return []knowledge.Hit{{ID: "zelda", Kind: vectordb.KindGame, Record: zelda, Similarity: 0.8}}, nil
}

func (mockCatalog) Games(context.Context) ([]game.Record, error) {
	return []game.Record{zelda}, nil
}

func newTestServer(t *testing.T, gen mockGenerator) *Server {
	t.Helper()
	retriever := &mockRetriever{entries: []retrieval.Entry{
		{ID: "zelda", Kind: string(vectordb.KindGame), Game: zelda, Similarity: 0.9},
	}}
	h := config.DefaultConfig().Heuristics
	h.CurrentYear = 2024
	a := agent.New(config.DefaultConfig().Agent, agent.Deps{
		Retriever:   retriever,
		Evaluator:   mockEvaluator{},
		WebSearch:   mockWeb{},
		Synthesizer: gen,
		Memory:      memory.Open(filepath.Join(t.TempDir(), "memory.json")),
		Insights:    insights.New(mockCatalog{}, h),
		Sentiment:   sentiment.New(mockGenerator{reply: `{"sentiment":"positive","confidence":0.9,"positive_aspects":["exploration"],"negative_aspects":[],"suggested_rating":9}`}, nil),
	})
	return NewServer(a, retriever)
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{askTool, "ask_udaplay"},
		{retrieveGameTool, "retrieve_game"},
		{recommendationsTool, "get_game_recommendations"},
		{trendsTool, "analyze_gaming_trends"},
		{trendingTool, "detect_trending_games"},
		{sentimentTool, "analyze_sentiment"},
		{learnedFactsTool, "get_learned_facts"},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t, mockGenerator{reply: "ok"})
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.agent == nil || srv.retriever == nil {
		t.Fatal("dependencies not set")
	}
}

func TestHandleAsk(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, mockGenerator{reply: "Breath of the Wild launched in 2017. Confidence: 0.9"})

	t.Run("plain text", func(t *testing.T) {
		result, err := srv.handleAsk(ctx, call(map[string]any{"question": "When did Breath of the Wild launch?"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Confidence: 0.90 | Method: vector_db | Sources: vector_db") {
			t.Errorf("missing footer in %q", text)
		}
	})

	t.Run("structured", func(t *testing.T) {
		result, err := srv.handleAsk(ctx, call(map[string]any{"question": "When did Breath of the Wild launch?", "format": "minimal"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(resultText(t, result)), &doc); err != nil {
			t.Fatalf("expected JSON: %v", err)
		}
		if doc["format"] != "minimal" {
			t.Errorf("format = %v", doc["format"])
		}
	})

	t.Run("missing question", func(t *testing.T) {
		result, err := srv.handleAsk(ctx, call(map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing question")
		}
	})

	t.Run("pipeline failure", func(t *testing.T) {
		failing := newTestServer(t, mockGenerator{err: errors.New("model overloaded")})
		result, err := failing.handleAsk(ctx, call(map[string]any{"question": "anything"}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError || !strings.Contains(resultText(t, result), "model overloaded") {
			t.Errorf("expected tool error, got %+v", result)
		}
	})
}

func TestHandleRetrieveGame(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, mockGenerator{})

	result, err := srv.handleRetrieveGame(ctx, call(map[string]any{"query": "zelda", "limit": float64(3)}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "The Legend of Zelda: Breath of the Wild (Nintendo Switch, 2017)") {
		t.Errorf("unexpected text %q", text)
	}

	srv.retriever = &mockRetriever{}
	result, _ = srv.handleRetrieveGame(ctx, call(map[string]any{"query": "nothing"}))
	if result.IsError || !strings.Contains(resultText(t, result), "No games found") {
		t.Errorf("expected empty message, got %q", resultText(t, result))
	}

	srv.retriever = &mockRetriever{err: errors.New("store closed")}
	result, _ = srv.handleRetrieveGame(ctx, call(map[string]any{"query": "zelda"}))
	if !result.IsError {
		t.Error("expected error for degraded search")
	}

	result, _ = srv.handleRetrieveGame(ctx, call(map[string]any{}))
	if !result.IsError {
		t.Error("expected error for missing query")
	}
}

func TestHandleInsightTools(t *testing.T) {
	ctx := context.Background()
	srv := newTestServer(t, mockGenerator{})

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"recommendations", srv.handleRecommendations, map[string]any{"preferences": "open world adventure", "type": "hybrid"}, `"recommendation_type": "hybrid"`},
		{"trends", srv.handleTrends, map[string]any{"analysis_type": "platform_trends"}, `"Nintendo Switch"`},
		{"trending", srv.handleTrending, map[string]any{"criteria": "popular_genres", "limit": float64(3)}, `"criteria_used": "popular_genres"`},
		{"sentiment", srv.handleSentiment, map[string]any{"text": "Endless exploration, loved it", "game_title": "Zelda"}, `"sentiment": "positive"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(ctx, call(tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.IsError {
				t.Fatalf("unexpected tool error: %v", result.Content)
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("expected %s in %s", tt.want, text)
			}
		})
	}

	for name, handler := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"recommendations": srv.handleRecommendations,
		"sentiment":       srv.handleSentiment,
	} {
		result, _ := handler(ctx, call(map[string]any{}))
		if !result.IsError {
			t.Errorf("%s: expected error for missing argument", name)
		}
	}
}

func TestHandleLearnedFacts(t *testing.T) {
	srv := newTestServer(t, mockGenerator{})
	result, err := srv.handleLearnedFacts(context.Background(), call(map[string]any{"topic": "zelda"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resultText(t, result); got != "No facts learned yet." {
		t.Errorf("unexpected text %q", got)
	}
}
