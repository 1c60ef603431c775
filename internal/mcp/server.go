// Package mcp exposes the agent as Model Context Protocol tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/udaplay/internal/agent"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the agent's tools.
type Server struct {
	agent     *agent.Agent
	retriever agent.Retriever
	mcp       *server.MCPServer
}

// NewServer creates an MCP server. retriever backs the retrieve_game tool
// and is normally the same gateway the agent uses.
func NewServer(a *agent.Agent, retriever agent.Retriever) *Server {
	s := &Server{agent: a, retriever: retriever}

	s.mcp = server.NewMCPServer(
		"udaplay",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcp.AddTool(askTool, s.handleAsk)
	s.mcp.AddTool(retrieveGameTool, s.handleRetrieveGame)
	s.mcp.AddTool(recommendationsTool, s.handleRecommendations)
	s.mcp.AddTool(trendsTool, s.handleTrends)
	s.mcp.AddTool(trendingTool, s.handleTrending)
	s.mcp.AddTool(sentimentTool, s.handleSentiment)
	s.mcp.AddTool(learnedFactsTool, s.handleLearnedFacts)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
