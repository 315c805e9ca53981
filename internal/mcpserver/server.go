// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Lumina tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/lumina/internal/apperr"
	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/noteservice"
)

const noteFormatURI = "lumina://note-format"

// Server wraps the MCP server with Lumina tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// noteSummary is the listing shape returned by search and list tools.
type noteSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Tags        []string  `json:"tags"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsPinned    bool      `json:"is_pinned,omitempty"`
	IsEncrypted bool      `json:"is_encrypted,omitempty"`
}

// New creates a new MCP server with all Lumina tools registered.
func New(svc *noteservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Lumina",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note titles and unencrypted content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, most recently updated first."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		mcp.WithNumber("offset", mcp.Description("Number of notes to skip")),
		mcp.WithString("tag", mcp.Description("Only notes carrying this tag (id or name)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full Markdown content of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("password", mcp.Description("Password, required for encrypted notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Content MUST follow the note format contract "+
			"(Markdown body, [[Title]] wiki-links). Read it first via the get_note_contract "+
			"tool or the "+noteFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Markdown body")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag names")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("daily_note",
		mcp.WithDescription("Get or create the daily note for a date."),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD (default today)")),
	), s.dailyNote)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("List the links touching a note, in both directions."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List all tags with their usage counts."),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the note graph as nodes and edges."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of nodes")),
	), s.getGraph)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the Lumina note format contract. "+
			"Call this before creating notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format Contract",
			mcp.WithResourceDescription("How note titles, content, tags and links are written."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrDecryption):
		return mcp.NewToolResultError("wrong or missing password")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func summaries(ctx context.Context, svc *noteservice.Service, notes []models.Note) []noteSummary {
	names := tagNames(ctx, svc)
	out := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		tags := make([]string, 0, len(n.Tags))
		for _, id := range n.Tags {
			if name, ok := names[id]; ok {
				tags = append(tags, name)
			}
		}
		out = append(out, noteSummary{
			ID:          n.ID,
			Title:       n.Title,
			Tags:        tags,
			UpdatedAt:   n.UpdatedAt,
			IsPinned:    n.IsPinned,
			IsEncrypted: n.IsEncrypted,
		})
	}
	return out
}

func tagNames(ctx context.Context, svc *noteservice.Service) map[string]string {
	tags, err := svc.ListTags(ctx)
	if err != nil {
		return nil
	}
	names := make(map[string]string, len(tags))
	for _, t := range tags {
		names[t.ID] = t.Name
	}
	return names
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summaries(ctx, s.svc, results))
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		notes []models.Note
		err   error
	)
	if tag := req.GetString("tag", ""); tag != "" {
		notes, err = s.svc.NotesByTag(ctx, tag)
	} else {
		notes, err = s.svc.ListNotes(ctx, req.GetInt("limit", 100), req.GetInt("offset", 0))
	}
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(summaries(ctx, s.svc, notes))
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if n.IsEncrypted {
		if n, err = s.svc.OpenNote(ctx, id, req.GetString("password", "")); err != nil {
			return toolError(err), nil
		}
	}
	return mcp.NewToolResultText(fmt.Sprintf("# %s\n\n%s", n.Title, n.Content)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := noteservice.NoteInput{
		Title:   title,
		Content: req.GetString("content", ""),
		Tags:    splitTags(req.GetString("tags", "")),
	}
	n, err := s.svc.CreateNote(ctx, in, "")
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("created: " + n.ID), nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) dailyNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		n   *models.Note
		err error
	)
	if date := req.GetString("date", ""); date != "" {
		n, err = s.svc.GetOrCreateDailyNote(ctx, date)
	} else {
		n, err = s.svc.Today(ctx)
	}
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(n)
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.GetNote(ctx, id); err != nil {
		return toolError(err), nil
	}
	links, err := s.svc.LinksForNote(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no links found"), nil
	}
	return jsonResult(links)
}

func (s *Server) listTags(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.ListTags(ctx)
	if err != nil {
		return toolError(err), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags"), nil
	}
	return jsonResult(tags)
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g, err := s.svc.Graph(ctx, req.GetInt("limit", 0))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(g)
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
