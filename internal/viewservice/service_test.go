package viewservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/atlas-kb/atlas/internal/apperr"
	"github.com/atlas-kb/atlas/internal/canvas"
	"github.com/atlas-kb/atlas/internal/testutil"
)

// fakeSource lets tests control resolution: fixed entities, injected errors,
// and an optional gate that holds Resolve open mid-build.
type fakeSource struct {
	mu       sync.Mutex
	entities []canvas.Entity
	err      error
	gate     chan struct{}
}

func (f *fakeSource) set(entities []canvas.Entity, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entities = entities
	f.err = err
}

func (f *fakeSource) Resolve(_ context.Context, _ canvas.Selector) ([]canvas.Entity, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entities, f.err
}

func testService(t *testing.T, src EntitySource) *Service {
	t.Helper()
	store := testutil.NewViewStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(src, store, logger, nil)
}

func noteEntities(paths ...string) []canvas.Entity {
	out := make([]canvas.Entity, 0, len(paths))
	for _, p := range paths {
		out = append(out, canvas.Entity{
			ID:   canvas.NoteID(p),
			Kind: canvas.NodeNote,
			Data: canvas.NoteData{Title: p},
		})
	}
	return out
}

func TestBuildViewPersistsFirstBuild(t *testing.T) {
	src := &fakeSource{entities: noteEntities("a.md", "b.md")}
	svc := testService(t, src)
	sel := canvas.FolderSelector("notes")

	doc, err := svc.BuildView(context.Background(), sel)
	if err != nil {
		t.Fatalf("BuildView: %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(doc.Nodes))
	}

	persisted, err := svc.store.Load(sel)
	if err != nil || persisted == nil {
		t.Fatalf("Load after build: doc=%v err=%v", persisted, err)
	}
	if len(persisted.Nodes) != 2 {
		t.Errorf("persisted nodes = %d, want 2", len(persisted.Nodes))
	}
}

func TestBuildViewNotifiesOnlyWhenChanged(t *testing.T) {
	src := &fakeSource{entities: noteEntities("a.md")}
	store := testutil.NewViewStore(t)
	var notified int
	svc := New(src, store, slog.New(slog.NewTextHandler(io.Discard, nil)), func(string) { notified++ })
	sel := canvas.TagSelector("inbox")

	for i := 0; i < 3; i++ {
		if _, err := svc.BuildView(context.Background(), sel); err != nil {
			t.Fatalf("BuildView #%d: %v", i, err)
		}
	}
	if notified != 1 {
		t.Errorf("notify calls = %d, want 1 (unchanged rebuilds must not write)", notified)
	}
}

func TestBuildViewResolveFailureKeepsLastGood(t *testing.T) {
	src := &fakeSource{entities: noteEntities("a.md")}
	svc := testService(t, src)
	sel := canvas.SearchSelector("query")

	if _, err := svc.BuildView(context.Background(), sel); err != nil {
		t.Fatalf("first build: %v", err)
	}

	src.set(nil, errors.New("index offline"))
	doc, err := svc.BuildView(context.Background(), sel)
	if err == nil {
		t.Fatal("expected resolve error")
	}
	if doc == nil || len(doc.Nodes) != 1 {
		t.Fatalf("failed resolve must return the last good document, got %+v", doc)
	}
}

func TestBuildViewSupersededByUserEdit(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{entities: noteEntities("a.md"), gate: gate}
	svc := testService(t, src)
	sel := canvas.FolderSelector("notes")

	type result struct {
		doc *canvas.ViewDocument
		err error
	}
	done := make(chan result, 1)
	go func() {
		doc, err := svc.BuildView(context.Background(), sel)
		done <- result{doc, err}
	}()

	// User edit lands while the build is stuck resolving.
	edited := &canvas.ViewDocument{
		Title: "Notes",
		Nodes: []canvas.Node{{
			ID:       "user-1",
			Type:     canvas.NodeText,
			Position: canvas.Position{X: 5, Y: 5},
			Data:     canvas.TextData{Text: "keep me"},
		}},
	}
	if err := svc.SaveDocument(context.Background(), sel, edited); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	close(gate)

	res := <-done
	if !errors.Is(res.err, apperr.ErrStaleBuild) {
		t.Fatalf("err = %v, want ErrStaleBuild", res.err)
	}
	if res.doc == nil || res.doc.Node("user-1") == nil {
		t.Errorf("stale build must return the user-edited document, got %+v", res.doc)
	}

	persisted, err := svc.store.Load(sel)
	if err != nil || persisted == nil {
		t.Fatalf("Load: doc=%v err=%v", persisted, err)
	}
	if persisted.Node("user-1") == nil || len(persisted.Nodes) != 1 {
		t.Errorf("stale build leaked into the store: %+v", persisted.Nodes)
	}
}

func TestSaveDocumentAssignsMissingIDs(t *testing.T) {
	svc := testService(t, &fakeSource{})
	sel := canvas.CanvasSelector("board")

	doc := &canvas.ViewDocument{
		Nodes: []canvas.Node{{Type: canvas.NodeText, Data: canvas.TextData{Text: "hi"}}},
	}
	if err := svc.SaveDocument(context.Background(), sel, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}
	if doc.ID == "" || doc.Nodes[0].ID == "" {
		t.Errorf("missing IDs must be assigned: doc=%q node=%q", doc.ID, doc.Nodes[0].ID)
	}
	if doc.Version != canvas.DocumentVersion {
		t.Errorf("version = %d, want %d", doc.Version, canvas.DocumentVersion)
	}
}

func TestSaveDocumentRejectsDerivedNodesOnCanvas(t *testing.T) {
	svc := testService(t, &fakeSource{})
	doc := &canvas.ViewDocument{
		Nodes: []canvas.Node{{ID: "n1", Type: canvas.NodeNote, Data: canvas.NoteData{Title: "x"}}},
	}
	if err := svc.SaveDocument(context.Background(), canvas.CanvasSelector("board"), doc); err == nil {
		t.Error("expected rejection of derived node on a free-form canvas")
	}
}

func TestSaveDocumentRejectsUnknownNodeType(t *testing.T) {
	svc := testService(t, &fakeSource{})
	doc := &canvas.ViewDocument{
		Nodes: []canvas.Node{{ID: "n1", Type: canvas.NodeKind("widget")}},
	}
	if err := svc.SaveDocument(context.Background(), canvas.CanvasSelector("board"), doc); err == nil {
		t.Error("expected rejection of unknown node type")
	}
}

func TestDeleteView(t *testing.T) {
	src := &fakeSource{entities: noteEntities("a.md")}
	svc := testService(t, src)
	sel := canvas.FolderSelector("notes")

	if _, err := svc.BuildView(context.Background(), sel); err != nil {
		t.Fatalf("BuildView: %v", err)
	}
	if err := svc.DeleteView(context.Background(), sel); err != nil {
		t.Fatalf("DeleteView: %v", err)
	}
	doc, err := svc.store.Load(sel)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc != nil {
		t.Error("document still present after delete")
	}
}

func TestListViews(t *testing.T) {
	src := &fakeSource{entities: noteEntities("a.md")}
	svc := testService(t, src)

	if _, err := svc.BuildView(context.Background(), canvas.FolderSelector("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.BuildView(context.Background(), canvas.TagSelector("y")); err != nil {
		t.Fatal(err)
	}
	keys, err := svc.ListViews(context.Background())
	if err != nil {
		t.Fatalf("ListViews: %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("keys = %v, want 2 entries", keys)
	}
}
