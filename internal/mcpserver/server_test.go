package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/atlas-kb/atlas/internal/entity"
	"github.com/atlas-kb/atlas/internal/index"
	"github.com/atlas-kb/atlas/internal/noteservice"
	"github.com/atlas-kb/atlas/internal/storage"
	"github.com/atlas-kb/atlas/internal/summary"
	"github.com/atlas-kb/atlas/internal/viewservice"
	"github.com/atlas-kb/atlas/internal/viewstore"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}

	db, err := index.Open(tempFile(t, "atlas-mcp-test-*.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	vs, err := viewstore.Open(tempFile(t, "atlas-mcp-views-*.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { vs.Close() })

	notes := noteservice.NewService(store, db)
	src := entity.New(store, db, summary.New(vaultDir), 5, 50)
	views := viewservice.New(src, vs, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	return New(notes, views)
}

func tempFile(t *testing.T, pattern string) string {
	t.Helper()
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "list_tags":
		result, err = srv.listTags(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_canvas_view":
		result, err = srv.getCanvasView(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

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

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	if text := resultText(r); text != "created: test.md" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "go.md",
		"content": "# Go\ngophers everywhere",
	})

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "gophers"})
	if text := resultText(r); !strings.Contains(text, "go.md") {
		t.Errorf("search result = %q", text)
	}
}

func TestListTags(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "a.md",
		"content": "hello #inbox",
	})

	r := callTool(t, srv, "list_tags", nil)
	if text := resultText(r); !strings.Contains(text, "inbox (1)") {
		t.Errorf("tags result = %q", text)
	}
}

func TestGetBacklinks(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "target.md",
		"content": "# Target",
	})
	callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "source.md",
		"content": "links to [[target.md]]",
	})

	r := callTool(t, srv, "get_backlinks", map[string]interface{}{"path": "target.md"})
	if text := resultText(r); !strings.Contains(text, "source.md") {
		t.Errorf("backlinks result = %q", text)
	}
}

func TestGetCanvasView(t *testing.T) {
	srv := testServer(t)

	callTool(t, srv, "create_note", map[string]interface{}{
		"path":    "projects/plan.md",
		"content": "# Plan",
	})

	r := callTool(t, srv, "get_canvas_view", map[string]interface{}{"selector": "folder:projects"})
	text := resultText(r)
	if !strings.Contains(text, "projects/plan.md") {
		t.Errorf("canvas view missing note node: %q", text)
	}
	if !strings.Contains(text, `"kind": "folder"`) {
		t.Errorf("canvas view missing selector: %q", text)
	}
}

func TestGetCanvasViewBadSelector(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "get_canvas_view", map[string]interface{}{"selector": "nope"})
	if !r.IsError {
		t.Error("expected error result for malformed selector")
	}
}

func TestReadMissingNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "missing.md"})
	if !r.IsError {
		t.Error("expected error result")
	}
}
