package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/codesift/codesift/internal/search"
)

const (
	// ServerName is the MCP server name
	ServerName = "codesift"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with the search engine.
type Server struct {
	mcp    *server.MCPServer
	engine *search.Engine
	logger *zap.Logger
}

// NewServer creates a new MCP server instance around an engine.
func NewServer(engine *search.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		engine: engine,
		logger: logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown. Logging
// must go to stderr; stdout carries the protocol.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(extractCodeTool(), s.handleExtractCode)
}
