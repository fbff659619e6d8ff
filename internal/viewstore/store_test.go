package viewstore

import (
	"os"
	"testing"

	"github.com/atlas-kb/atlas/internal/canvas"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	f, err := os.CreateTemp("", "atlas-views-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadAbsentReturnsNil(t *testing.T) {
	s := testStore(t)
	doc, err := s.Load(canvas.FolderSelector("nowhere"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc != nil {
		t.Errorf("doc = %+v, want nil", doc)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := testStore(t)
	sel := canvas.FolderSelector("projects")
	doc := &canvas.ViewDocument{
		Version:  canvas.DocumentVersion,
		ID:       "doc-1",
		Selector: sel,
		Nodes: []canvas.Node{
			{ID: "plan.md", Type: canvas.NodeNote, Position: canvas.Position{X: 10, Y: 20}, Data: canvas.NoteData{Title: "Plan"}},
			{ID: "t1", Type: canvas.NodeText, Position: canvas.Position{X: 5, Y: 5}, Data: canvas.TextData{Text: "todo"}},
		},
		Edges: []canvas.Edge{{ID: "e1", Source: "plan.md", Target: "t1"}},
	}

	if err := s.Save(sel, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if doc.Updated.IsZero() {
		t.Error("Save must stamp Updated")
	}
	if doc.Title != "projects" {
		t.Errorf("Save must default title from selector, got %q", doc.Title)
	}

	got, err := s.Load(sel)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil after save")
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("round trip lost content: %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
	note := got.Node("plan.md")
	if note == nil || note.Data.(canvas.NoteData).Title != "Plan" {
		t.Errorf("note node = %+v", note)
	}
	if got.Node("t1").Data.(canvas.TextData).Text != "todo" {
		t.Error("text node data lost in round trip")
	}
}

func TestSaveReplacesWholeDocument(t *testing.T) {
	s := testStore(t)
	sel := canvas.CanvasSelector("board")

	first := &canvas.ViewDocument{Version: canvas.DocumentVersion, ID: "d", Selector: sel,
		Nodes: []canvas.Node{{ID: "t1", Type: canvas.NodeText, Data: canvas.TextData{Text: "a"}}}}
	if err := s.Save(sel, first); err != nil {
		t.Fatal(err)
	}

	second := &canvas.ViewDocument{Version: canvas.DocumentVersion, ID: "d", Selector: sel,
		Nodes: []canvas.Node{{ID: "t2", Type: canvas.NodeText, Data: canvas.TextData{Text: "b"}}}}
	if err := s.Save(sel, second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(sel)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Nodes) != 1 || got.Nodes[0].ID != "t2" {
		t.Errorf("save must replace, not merge: %+v", got.Nodes)
	}
}

func TestDocumentsAreKeyedBySelector(t *testing.T) {
	s := testStore(t)
	a := canvas.FolderSelector("a")
	b := canvas.TagSelector("a")

	_ = s.Save(a, &canvas.ViewDocument{Version: canvas.DocumentVersion, Selector: a})
	_ = s.Save(b, &canvas.ViewDocument{Version: canvas.DocumentVersion, Selector: b})

	keys, err := s.Keys()
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 distinct", keys)
	}
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	sel := canvas.CanvasSelector("gone")
	_ = s.Save(sel, &canvas.ViewDocument{Version: canvas.DocumentVersion, Selector: sel})

	if err := s.Delete(sel); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	doc, err := s.Load(sel)
	if err != nil || doc != nil {
		t.Errorf("Load after delete = %+v, %v", doc, err)
	}
	if err := s.Delete(sel); err != nil {
		t.Errorf("deleting absent document must not error: %v", err)
	}
}
