package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/udaplay/internal/insights"
)

var askTool = mcp.NewTool("ask_udaplay",
	mcp.WithDescription("Answer a question about video games using the local game database, falling back to web search when local knowledge is insufficient. Returns the answer with its confidence and sources."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("Natural language question about games"),
	),
	mcp.WithString("user_id",
		mcp.Description("User to attribute the question to for personalization"),
	),
	mcp.WithString("format",
		mcp.Description("Return a structured JSON response in this format instead of plain text"),
		mcp.Enum("standard", "detailed", "minimal", "api"),
	),
)

var retrieveGameTool = mcp.NewTool("retrieve_game",
	mcp.WithDescription("Search the local game database semantically. Returns matching games with platform, year, genre, publisher and description."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 5, max 10)"),
	),
)

var recommendationsTool = mcp.NewTool("get_game_recommendations",
	mcp.WithDescription("Recommend games from the local database. For similar_games, preferences names the game to match."),
	mcp.WithString("preferences",
		mcp.Required(),
		mcp.Description("Free-text preferences, e.g. \"open world RPGs on PlayStation\""),
	),
	mcp.WithString("type",
		mcp.Description("Recommendation algorithm (default content_based)"),
		mcp.Enum(enum(insights.RecommendationTypes)...),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of recommendations (default 5)"),
	),
)

var trendsTool = mcp.NewTool("analyze_gaming_trends",
	mcp.WithDescription("Analyze genre, platform, publisher and release trends across the game database."),
	mcp.WithString("analysis_type",
		mcp.Description("Report to produce (default comprehensive)"),
		mcp.Enum(enum(insights.AnalysisTypes)...),
	),
	mcp.WithString("time_period",
		mcp.Description("Games to consider (default all_time)"),
		mcp.Enum(enum(insights.TimePeriods)...),
	),
)

var trendingTool = mcp.NewTool("detect_trending_games",
	mcp.WithDescription("Identify trending games: recent releases, popular genres or all-time classics."),
	mcp.WithString("criteria",
		mcp.Description("Detection criteria (default mixed)"),
		mcp.Enum(enum(insights.CriteriaList)...),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of games (default 10)"),
	),
)

var sentimentTool = mcp.NewTool("analyze_sentiment",
	mcp.WithDescription("Analyze the sentiment of a game review or player feedback."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Review or feedback text"),
	),
	mcp.WithString("game_title",
		mcp.Description("Game the text is about"),
	),
)

var learnedFactsTool = mcp.NewTool("get_learned_facts",
	mcp.WithDescription("List facts the agent has learned from past web searches, most relevant first."),
	mcp.WithString("topic",
		mcp.Description("Only return facts mentioning this topic"),
	),
)

func enum[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
