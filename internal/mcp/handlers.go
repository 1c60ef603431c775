package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/udaplay/internal/agent"
	"github.com/ziadkadry99/udaplay/internal/retrieval"
)

func (s *Server) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil || strings.TrimSpace(question) == "" {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	resp := s.agent.ProcessQuery(ctx, question, agent.WithUserID(request.GetString("user_id", "")))
	if resp.SearchMethod == agent.MethodError {
		return mcp.NewToolResultError(resp.Answer), nil
	}

	if format := request.GetString("format", ""); format != "" {
		return jsonResult(s.agent.StructuredResponse(question, resp, format))
	}

	var sb strings.Builder
	sb.WriteString(resp.Answer)
	fmt.Fprintf(&sb, "\n\n---\nConfidence: %.2f | Method: %s", resp.Confidence, resp.SearchMethod)
	if len(resp.Sources) > 0 {
		fmt.Fprintf(&sb, " | Sources: %s", strings.Join(resp.Sources, ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleRetrieveGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", retrieval.DefaultLimit)
	if limit <= 0 {
		limit = retrieval.DefaultLimit
	}

	res := s.retriever.Search(ctx, query, min(limit, retrieval.MaxLimit))
	if res.Degraded() {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", res.Err)), nil
	}
	if res.Empty() {
		return mcp.NewToolResultText("No games found. The database may not be loaded yet. Run `udaplay ingest` to load it."), nil
	}
	return mcp.NewToolResultText(formatEntries(res)), nil
}

func (s *Server) handleRecommendations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefs, err := request.RequireString("preferences")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: preferences"), nil
	}
	res := s.agent.Recommend(ctx, prefs, request.GetString("type", ""), request.GetInt("limit", 5))
	if res.Error != "" {
		return mcp.NewToolResultError("recommendations failed: " + res.Error), nil
	}
	return jsonResult(res)
}

func (s *Server) handleTrends(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.agent.AnalyzeTrends(ctx, request.GetString("analysis_type", ""), request.GetString("time_period", ""))
	if res.Error != "" {
		return mcp.NewToolResultError("trend analysis failed: " + res.Error), nil
	}
	return jsonResult(res)
}

func (s *Server) handleTrending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.agent.DetectTrending(ctx, request.GetString("criteria", ""), request.GetInt("limit", 10))
	if res.Error != "" {
		return mcp.NewToolResultError("trending detection failed: " + res.Error), nil
	}
	return jsonResult(res)
}

func (s *Server) handleSentiment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}
	res := s.agent.AnalyzeSentiment(ctx, text, request.GetString("game_title", ""))
	if res.Error != "" {
		return mcp.NewToolResultError("sentiment analysis failed: " + res.Error), nil
	}
	return jsonResult(res)
}

func (s *Server) handleLearnedFacts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	facts := s.agent.LearnedFacts(request.GetString("topic", ""))
	if len(facts) == 0 {
		return mcp.NewToolResultText("No facts learned yet."), nil
	}
	return jsonResult(facts)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// formatEntries renders retrieval results for AI agent consumption.
func formatEntries(res retrieval.Result) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s), confidence %.2f:\n", len(res.Entries), res.Confidence)
	for i, e := range res.Entries {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		sb.WriteString(e.Render(""))
		fmt.Fprintf(&sb, "\nSimilarity: %.1f%%\n", e.Similarity*100)
	}
	return sb.String()
}
