// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Mimir tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mimir/internal/syncer"
)

// Server wraps the MCP server with Mimir tools.
type Server struct {
	mcp *server.MCPServer
	svc *syncer.Service
}

// New creates a new MCP server with all Mimir tools registered.
func New(svc *syncer.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Mimir",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("parse_document",
		mcp.WithDescription("Parse a Markdown document and return its extracted flashcards "+
			"without contacting the remote store. Use this to check what a document would sync."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. flashcards/biology.md)")),
	), s.parseDocument)

	s.mcp.AddTool(mcp.NewTool("preview_sync",
		mcp.WithDescription("Dry-run a synchronization: parse the selected documents and "+
			"report per-deck card counts. Nothing is written anywhere."),
		mcp.WithString("document", mcp.Description("Optional single document path (empty for the whole flashcards folder)")),
	), s.previewSync)

	s.mcp.AddTool(mcp.NewTool("apply_sync",
		mcp.WithDescription("Synchronize extracted flashcards to the remote store and write "+
			"note ids back into document metadata. Documents MUST follow the flashcard "+
			"format; read it first via the get_flashcard_contract tool or the "+
			"mimir://flashcard-format resource."),
		mcp.WithString("document", mcp.Description("Optional single document path (empty for the whole flashcards folder)")),
	), s.applySync)

	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List indexed flashcards with optional deck, tag, or file filters."),
		mcp.WithString("deck", mcp.Description("Filter by resolved deck name")),
		mcp.WithString("tag", mcp.Description("Filter by tag")),
		mcp.WithString("file", mcp.Description("Filter by source document path")),
		mcp.WithString("limit", mcp.Description("Max results (default 100)")),
	), s.listCards)

	s.mcp.AddTool(mcp.NewTool("search_cards",
		mcp.WithDescription("Full-text search through flashcard fronts, backs, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchCards)

	s.mcp.AddTool(mcp.NewTool("get_flashcard_contract",
		mcp.WithDescription("Returns the canonical Mimir flashcard authoring format. "+
			"Call this before writing flashcard documents to ensure correct structure."),
	), s.getFlashcardContract)

	s.mcp.AddTool(mcp.NewTool("health_check",
		mcp.WithDescription("Report reachability of the remote flashcard store, the vault, and the card index."),
	), s.healthCheck)

	// Resource: flashcard format contract.
	s.mcp.AddResource(
		mcp.NewResource("mimir://flashcard-format", "Flashcard Format Contract",
			mcp.WithResourceDescription("Canonical Markdown flashcard format that sync-eligible documents must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFlashcardFormatResource,
	)

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

func (s *Server) parseDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.ParseDocument(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse %s: %v", path, err)), nil
	}
	out, _ := json.MarshalIndent(res.Cards, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) previewSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := ""
	if d, err := req.RequireString("document"); err == nil {
		document = d
	}
	preview, err := s.svc.PreviewSync(ctx, document)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(preview, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) applySync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	document := ""
	if d, err := req.RequireString("document"); err == nil {
		document = d
	}
	res, err := s.svc.ApplySync(ctx, document)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck, _ := req.RequireString("deck")
	tag, _ := req.RequireString("tag")
	file, _ := req.RequireString("file")
	limit := 0
	if l, err := req.RequireString("limit"); err == nil {
		limit, _ = strconv.Atoi(l)
	}

	cards, total, err := s.svc.ListCards(limit, 0, deck, tag, file)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"cards": cards, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.SearchCards(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no cards found"), nil
	}
	var lines []string
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("%s  %s:%d  [%s]  %s", r.ID, r.File, r.Line, r.Deck, r.Snippet))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getFlashcardContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FlashcardFormatContract), nil
}

func (s *Server) healthCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Health(ctx), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readFlashcardFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "mimir://flashcard-format",
			MIMEType: "text/markdown",
			Text:     FlashcardFormatContract,
		},
	}, nil
}
