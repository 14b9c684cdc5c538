package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/avoronov/kbase/internal/answer"
	"github.com/avoronov/kbase/internal/feedback"
	"github.com/avoronov/kbase/internal/retrieval"
	"github.com/avoronov/kbase/internal/storage"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Store     storage.VectorStore
	Assembler *retrieval.Assembler
	Generator *answer.Generator
	Feedback  *feedback.Store
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "kbase-assistant",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask_kb",
		Description: "Ask a question about the knowledge base. Returns a structured answer with cited sources and reasoning, plus a feedback id for rate_answer.",
	}, makeAskHandler(cfg.Generator, cfg.Feedback))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rate_answer",
		Description: "Rate a previously returned answer as helpful or not, by its feedback id.",
	}, makeRateHandler(cfg.Feedback))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_kb",
		Description: "Retrieve knowledge-base passages relevant to a query, deduplicated by section and widened to neighboring sections.",
	}, makeSearchHandler(cfg.Assembler))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_index_status",
		Description: "Get the current size and health of the knowledge-base index.",
	}, makeStatusHandler(cfg.Store))

	return &Server{server: server}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
