package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/smartnotes/internal/notes"
	"github.com/starford/smartnotes/internal/testutil"
)

func testServer(t *testing.T) (*Server, *notes.Store) {
	t.Helper()
	store := testutil.TestStore(t, nil)
	return New(store, nil), store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so call the handlers.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"search_notes":  srv.searchNotes,
		"read_note":     srv.readNote,
		"create_note":   srv.createNote,
		"list_notes":    srv.listNotes,
		"list_folders":  srv.listFolders,
		"get_backlinks": srv.getBacklinks,
		"toggle_star":   srv.toggleStar,
		"suggest_links": srv.suggestLinks,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeResult[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(resultText(r)), &v); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	return v
}

func TestCreateAndReadNote(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":  "Test",
		"body":   "Hello [[Other]]",
		"tags":   "a, b,,",
		"folder": "Work",
	})
	if r.IsError || !strings.HasPrefix(resultText(r), "created: ") {
		t.Fatalf("create result = %q", resultText(r))
	}

	list := store.ListNotes(context.Background())
	if len(list) != 1 {
		t.Fatalf("notes = %d", len(list))
	}
	r = callTool(t, srv, "read_note", map[string]interface{}{"id": list[0].ID})
	got := decodeResult[struct {
		Title  string   `json:"title"`
		Tags   []string `json:"tags"`
		Folder string   `json:"folder"`
		Body   string   `json:"body"`
	}](t, r)
	if got.Title != "Test" || got.Body != "Hello [[Other]]" || got.Folder != "Work" {
		t.Errorf("read = %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "a" || got.Tags[1] != "b" {
		t.Errorf("tags = %v", got.Tags)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
	r = callTool(t, srv, "read_note", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing argument")
	}
}

func TestListNotesAndFolders(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "a", "folder": "Work"})
	callTool(t, srv, "create_note", map[string]interface{}{"title": "b"})

	all := decodeResult[[]noteSummary](t, callTool(t, srv, "list_notes", map[string]interface{}{}))
	if len(all) != 2 || all[0].Title != "b" {
		t.Errorf("list = %+v", all)
	}
	work := decodeResult[[]noteSummary](t, callTool(t, srv, "list_notes", map[string]interface{}{"folder": "Work"}))
	if len(work) != 1 || work[0].Title != "a" {
		t.Errorf("work = %+v", work)
	}
	inbox := decodeResult[[]noteSummary](t, callTool(t, srv, "list_notes", map[string]interface{}{"folder": "inbox"}))
	if len(inbox) != 1 || inbox[0].Title != "b" {
		t.Errorf("inbox = %+v", inbox)
	}
	if r := callTool(t, srv, "list_notes", map[string]interface{}{"folder": "Nope"}); !r.IsError {
		t.Error("expected error for unknown folder")
	}

	folders := decodeResult[[]struct {
		Name  string `json:"name"`
		Notes int    `json:"notes"`
	}](t, callTool(t, srv, "list_folders", map[string]interface{}{}))
	if len(folders) != 1 || folders[0].Name != "Work" || folders[0].Notes != 1 {
		t.Errorf("folders = %+v", folders)
	}
}

func TestSearchAndStar(t *testing.T) {
	srv, store := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Project plan"})
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Groceries"})

	hits := decodeResult[[]noteSummary](t, callTool(t, srv, "search_notes", map[string]interface{}{"query": "proj"}))
	if len(hits) != 1 || hits[0].Title != "Project plan" {
		t.Fatalf("hits = %+v", hits)
	}

	r := callTool(t, srv, "toggle_star", map[string]interface{}{"id": hits[0].ID})
	if resultText(r) != "starred: "+hits[0].ID {
		t.Errorf("toggle = %q", resultText(r))
	}
	if n, _ := store.GetNote(context.Background(), hits[0].ID); !n.Starred {
		t.Error("note not starred")
	}
	starred := decodeResult[[]noteSummary](t, callTool(t, srv, "list_notes", map[string]interface{}{"starred": true}))
	if len(starred) != 1 {
		t.Errorf("starred = %+v", starred)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv, store := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "b"})
	callTool(t, srv, "create_note", map[string]interface{}{"title": "a", "body": "links to [[b]]"})

	var bID string
	for _, n := range store.ListNotes(context.Background()) {
		if n.Title == "b" {
			bID = n.ID
		}
	}
	bl := decodeResult[[]noteSummary](t, callTool(t, srv, "get_backlinks", map[string]interface{}{"id": bID}))
	if len(bl) != 1 || bl[0].Title != "a" {
		t.Errorf("backlinks = %+v", bl)
	}
}

func TestSuggestLinks(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Alpha"})
	callTool(t, srv, "create_note", map[string]interface{}{"title": "Beta"})

	items := decodeResult[[]struct {
		Title string `json:"title"`
	}](t, callTool(t, srv, "suggest_links", map[string]interface{}{"text": "see [[al"}))
	if len(items) != 1 || items[0].Title != "Alpha" {
		t.Errorf("items = %+v", items)
	}

	r := callTool(t, srv, "suggest_links", map[string]interface{}{"text": "no trigger"})
	if r.IsError || resultText(r) != "no [[ before the cursor" {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestLinkFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readLinkFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != LinkFormatURI || !strings.Contains(tc.Text, "/note/<id>") {
		t.Errorf("resource = %+v", contents)
	}
}
