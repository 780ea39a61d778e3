// Package mcpserver exposes the compendium index to MCP clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tennisfel/compendium/internal/apperr"
	"github.com/tennisfel/compendium/internal/index"
)

const layoutURI = "tennisfel://module-layout"

// Server bundles the MCP tool handlers with their dependencies.
type Server struct {
	repo      *index.Repo
	outputDir string
	logger    *slog.Logger
}

// NewServer creates the MCP server facade over an open index.
func NewServer(repo *index.Repo, outputDir string, logger *slog.Logger) *Server {
	return &Server{repo: repo, outputDir: outputDir, logger: logger}
}

// ServeStdio runs the MCP protocol on stdin and stdout until the client
// disconnects.
func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.mcpServer(version))
}

func (s *Server) mcpServer(version string) *server.MCPServer {
	srv := server.NewMCPServer("tennisfel-compendium", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	srv.AddTool(mcp.NewTool("search_compendium",
		mcp.WithDescription("Full-text search over compendium entry names, tags and page text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms.")),
		mcp.WithNumber("limit", mcp.Description("Maximum results, default 20.")),
	), s.handleSearch)

	srv.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read one compendium entry by its document id, including its plain-text body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("16 character document id.")),
	), s.handleReadEntry)

	srv.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List compendium entries, optionally filtered by document type or pack."),
		mcp.WithString("type", mcp.Description("Filter by document type: JournalEntry or Scene.")),
		mcp.WithString("pack", mcp.Description("Filter by pack name: journals or scenes.")),
		mcp.WithNumber("limit", mcp.Description("Page size, default 100.")),
		mcp.WithNumber("offset", mcp.Description("Paging offset.")),
	), s.handleListEntries)

	srv.AddTool(mcp.NewTool("get_manifest",
		mcp.WithDescription("Return the module.json manifest of the last conversion."),
	), s.handleGetManifest)

	srv.AddResource(mcp.NewResource(layoutURI, "Module layout",
		mcp.WithResourceDescription("Structure of the generated Foundry module."),
		mcp.WithMIMEType("text/markdown"),
	), s.handleLayoutResource)

	return srv
}

func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)

	results, err := s.repo.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("mcp search", slog.String("error", err.Error()))
		return mcp.NewToolResultError("search failed"), nil
	}
	return jsonResult(map[string]any{"results": results})
}

func (s *Server) handleReadEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entry, err := s.repo.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no entry with id %q", id)), nil
	}
	if err != nil {
		s.logger.Error("mcp read entry", slog.String("error", err.Error()))
		return mcp.NewToolResultError("read failed"), nil
	}
	return jsonResult(entry)
}

func (s *Server) handleListEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.repo.List(ctx, index.ListQuery{
		Type:   req.GetString("type", ""),
		Pack:   req.GetString("pack", ""),
		Limit:  req.GetInt("limit", 100),
		Offset: req.GetInt("offset", 0),
	})
	if err != nil {
		s.logger.Error("mcp list entries", slog.String("error", err.Error()))
		return mcp.NewToolResultError("list failed"), nil
	}
	return jsonResult(map[string]any{"entries": entries})
}

func (s *Server) handleGetManifest(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := os.ReadFile(filepath.Join(s.outputDir, "module.json"))
	if err != nil {
		return mcp.NewToolResultError("no manifest found, run convert first"), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleLayoutResource(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     layoutDoc,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encoding failed"), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
