// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes smartnotes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/smartnotes/internal/delta"
	"github.com/starford/smartnotes/internal/models"
	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/wikilink"
)

const maxResults = 20

// Server wraps the MCP server with smartnotes tools.
type Server struct {
	mcp      *server.MCPServer
	store    *notes.Store
	resolver *wikilink.Resolver
}

// New creates a new MCP server with all tools registered.
func New(store *notes.Store, resolver *wikilink.Resolver) *Server {
	if resolver == nil {
		resolver = wikilink.NewResolver(0, 0)
	}
	s := &Server{store: store, resolver: resolver}

	s.mcp = server.NewMCPServer(
		"Smart Notes",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by title, tags and body text. Best matches first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note: title, tags, folder and plain-text body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Link to other notes with [[Title]]; see the "+
			LinkFormatURI+" resource."),
		mcp.WithString("title", mcp.Description("Note title (defaults to Untitled)")),
		mcp.WithString("body", mcp.Description("Plain-text body")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("folder", mcp.Description("Folder name; created when missing")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, most recently updated first."),
		mcp.WithString("folder", mcp.Description("Folder name, \"inbox\", or empty for all")),
		mcp.WithBoolean("starred", mcp.Description("Only starred notes")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List folders with the number of notes in each."),
	), s.listFolders)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("toggle_star",
		mcp.WithDescription("Star or unstar a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleStar)

	s.mcp.AddTool(mcp.NewTool("suggest_links",
		mcp.WithDescription("Suggest link targets for text typed after [[, as the editor would."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text before the cursor, e.g. \"see [[Proj\"")),
		mcp.WithString("id", mcp.Description("Id of the note being edited, excluded from results")),
	), s.suggestLinks)

	s.mcp.AddResource(
		mcp.NewResource(LinkFormatURI, "Link Format",
			mcp.WithResourceDescription("How notes are stored and linked with [[Title]]."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readLinkFormatResource,
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

type noteSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Folder  string   `json:"folder,omitempty"`
	Starred bool     `json:"starred,omitempty"`
}

func (s *Server) summaries(ctx context.Context, list []models.Note) []noteSummary {
	names := s.folderNames(ctx)
	out := make([]noteSummary, 0, len(list))
	for _, n := range list {
		out = append(out, noteSummary{
			ID:      n.ID,
			Title:   n.Title,
			Tags:    n.Tags,
			Folder:  names[n.FolderID],
			Starred: n.Starred,
		})
	}
	return out
}

func (s *Server) folderNames(ctx context.Context) map[string]string {
	names := make(map[string]string)
	for _, f := range s.store.ListFolders(ctx) {
		names[f.ID] = f.Name
	}
	return names
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.store.Search(ctx, query)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return jsonResult(s.summaries(ctx, results))
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.GetNote(ctx, id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(struct {
		noteSummary
		Body  string   `json:"body"`
		Links []string `json:"links"`
	}{
		noteSummary: s.summaries(ctx, []models.Note{n})[0],
		Body:        n.PlainText,
		Links:       n.Document.Links(),
	})
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := notes.NoteInput{Title: req.GetString("title", "")}

	if body := req.GetString("body", ""); body != "" {
		doc := delta.FromText(body)
		in.Document = &doc
	}
	for _, tag := range strings.Split(req.GetString("tags", ""), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			in.Tags = append(in.Tags, tag)
		}
	}
	if folder := strings.TrimSpace(req.GetString("folder", "")); folder != "" {
		f, err := s.store.UpsertFolder(ctx, folder)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in.FolderID = f.ID
	}

	n, err := s.store.CreateNote(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%s)", n.ID, n.Title)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := notes.Filter{StarredOnly: req.GetBool("starred", false)}
	switch folder := strings.TrimSpace(req.GetString("folder", "")); {
	case folder == "":
	case strings.EqualFold(folder, notes.InboxFolder):
		filter.Folder = notes.InboxFolder
	default:
		found := false
		for _, f := range s.store.ListFolders(ctx) {
			if f.Name == folder {
				filter.Folder, found = f.ID, true
				break
			}
		}
		if !found {
			return mcp.NewToolResultError(fmt.Sprintf("folder not found: %s", folder)), nil
		}
	}

	list := filter.Apply(s.store.ListNotes(ctx))
	notes.SortByUpdated(list)
	return jsonResult(s.summaries(ctx, list))
}

func (s *Server) listFolders(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx := s.store.Snapshot(ctx)
	counts := make(map[string]int)
	for _, n := range idx.Notes {
		counts[n.FolderID]++
	}
	type folderCount struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Notes int    `json:"notes"`
	}
	out := make([]folderCount, 0, len(idx.Folders))
	for _, f := range idx.Folders {
		out = append(out, folderCount{ID: f.ID, Name: f.Name, Notes: counts[f.ID]})
	}
	return jsonResult(out)
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, ok := s.store.GetNote(ctx, id); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	bl := s.store.Backlinks(ctx, id)
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return jsonResult(s.summaries(ctx, bl))
}

func (s *Server) toggleStar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok, err := s.store.ToggleStar(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	n, _ := s.store.GetNote(ctx, id)
	state := "unstarred"
	if n.Starred {
		state = "starred"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", state, id)), nil
}

func (s *Server) suggestLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	buf := delta.NewBuffer(delta.FromText(text))
	buf.SetSelection(buf.Length())
	sug := s.resolver.Suggest(buf, s.store.ListNotes(ctx), req.GetString("id", ""))
	if !sug.Open {
		return mcp.NewToolResultText("no [[ before the cursor"), nil
	}
	return jsonResult(sug.Items)
}

func (s *Server) readLinkFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      LinkFormatURI,
			MIMEType: "text/markdown",
			Text:     LinkFormatContract,
		},
	}, nil
}
