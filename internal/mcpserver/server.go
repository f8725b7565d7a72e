// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the instruction catalog to AI coding tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/catalog"
	"github.com/starford/ansuz/internal/instructionservice"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *instructionservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *instructionservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_instructions",
		mcp.WithDescription("Search instruction documents by free text, tags, and category. "+
			"Returns lightweight matches; use read_instruction for the full Markdown."),
		mcp.WithString("query", mcp.Description("Free-text search over category, subcategories, and content")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags that must all be present")),
		mcp.WithString("category", mcp.Description("Restrict to one category")),
	), s.searchInstructions)

	s.mcp.AddTool(mcp.NewTool("read_instruction",
		mcp.WithDescription("Read the full Markdown content of one instruction document. "+
			"Reading counts as a use and increments the document's usage statistics."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Record filename (e.g. go-style.md)")),
	), s.readInstruction)

	s.mcp.AddTool(mcp.NewTool("list_instructions",
		mcp.WithDescription("List instruction documents, optionally restricted to one category."),
		mcp.WithString("category", mcp.Description("Optional category (empty for all)")),
	), s.listInstructions)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with its record count, most popular first."),
	), s.listTags)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchInstructions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := catalog.FilterState{
		Query:            req.GetString("query", ""),
		SelectedCategory: req.GetString("category", ""),
	}
	if raw := req.GetString("tags", ""); raw != "" {
		state = mergeTags(state, raw)
	}

	page, err := s.svc.List(ctx, state, 50, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page.Items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readInstruction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.Get(ctx, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", filename)), nil
	}
	// A read through MCP is a use, same as opening the detail view.
	if _, err := s.svc.Select(ctx, filename); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(detail.Content), nil
}

func (s *Server) listInstructions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := catalog.FilterState{SelectedCategory: req.GetString("category", "")}
	page, err := s.svc.List(ctx, state, 200, 1)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(page.Items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Tags(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// mergeTags parses a comma-separated tag list into the filter state using
// the same codec the HTTP API uses.
func mergeTags(state catalog.FilterState, raw string) catalog.FilterState {
	parsed := catalog.ParseValues(map[string][]string{"tags": {raw}})
	state.SelectedTags = parsed.SelectedTags
	return state
}
