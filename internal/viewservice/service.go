// Package viewservice orchestrates canvas view builds: it loads the
// persisted document, resolves the desired entities, runs the sync engine,
// and conditionally persists the result. It owns the per-selector sequence
// tokens that keep slow rebuilds from clobbering newer state.
package viewservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/atlas-kb/atlas/internal/apperr"
	"github.com/atlas-kb/atlas/internal/canvas"
	"github.com/atlas-kb/atlas/internal/viewstore"
)

// EntitySource yields the entities a selector should currently show.
// entity.Source is the production implementation.
type EntitySource interface {
	Resolve(ctx context.Context, sel canvas.Selector) ([]canvas.Entity, error)
}

// Notify is called after a successful document write with the selector key.
// The SSE broker hooks in here so open clients can refetch.
type Notify func(selectorKey string)

// Service builds and saves canvas view documents.
type Service struct {
	source EntitySource
	store  *viewstore.Store
	logger *slog.Logger
	notify Notify

	mu  sync.Mutex
	seq map[string]uint64
}

// New creates a Service. notify may be nil.
func New(source EntitySource, store *viewstore.Store, logger *slog.Logger, notify Notify) *Service {
	return &Service{
		source: source,
		store:  store,
		logger: logger,
		notify: notify,
		seq:    make(map[string]uint64),
	}
}

// nextSeq issues a new sequence token for the selector. Every build captures
// one at start; only the holder of the latest token may commit.
func (s *Service) nextSeq(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[key]++
	return s.seq[key]
}

// bumpSeq invalidates all in-flight builds for the selector without issuing
// a token to anyone. Used by the direct user-edit write path.
func (s *Service) bumpSeq(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq[key]++
}

func (s *Service) isLatest(key string, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq[key] == token
}

// BuildView produces the current merged document for the selector.
//
// Failure semantics: when entity resolution fails, the last good document is
// returned alongside the error — a transient fetch failure must never turn
// into a destructive rebuild with an empty entity list. When the build is
// superseded mid-flight (rapid navigation, or a concurrent user edit), its
// result is discarded and the latest persisted document is returned with
// apperr.ErrStaleBuild.
func (s *Service) BuildView(ctx context.Context, sel canvas.Selector) (*canvas.ViewDocument, error) {
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	key := sel.Key()
	token := s.nextSeq(key)

	loaded, err := s.store.Load(sel)
	if err != nil {
		return nil, fmt.Errorf("viewservice: load %s: %w", key, err)
	}

	entities, err := s.source.Resolve(ctx, sel)
	if err != nil {
		return loaded, fmt.Errorf("viewservice: resolve %s: %w", key, err)
	}

	res := canvas.Build(sel, entities, loaded)

	if !s.isLatest(key, token) {
		s.logger.Debug("view build superseded", slog.String("selector", key))
		if cur, loadErr := s.store.Load(sel); loadErr == nil && cur != nil {
			return cur, apperr.ErrStaleBuild
		}
		return res.Document, apperr.ErrStaleBuild
	}

	if res.Changed {
		if saveErr := s.store.Save(sel, res.Document); saveErr != nil {
			// The merged document stays the session's source of truth;
			// only durability is lost until a later save succeeds.
			s.logger.Warn("view save failed",
				slog.String("selector", key),
				slog.String("error", saveErr.Error()))
			return res.Document, nil
		}
		s.logger.Debug("view saved", slog.String("selector", key),
			slog.Int("nodes", len(res.Document.Nodes)))
		if s.notify != nil {
			s.notify(key)
		}
	}
	return res.Document, nil
}

// SaveDocument is the direct write path for user edits (node moves, added
// annotations, deletions). It bypasses re-derivation entirely and
// invalidates any rebuild already in flight for the selector, so a build
// that started before the edit can never clobber it.
func (s *Service) SaveDocument(_ context.Context, sel canvas.Selector, doc *canvas.ViewDocument) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	if err := validateDocument(sel, doc); err != nil {
		return err
	}
	key := sel.Key()
	s.bumpSeq(key)

	doc.Selector = sel
	if doc.Version == 0 {
		doc.Version = canvas.DocumentVersion
	}
	if doc.ID == "" {
		doc.ID = canvas.NewUserNodeID()
	}
	for i := range doc.Nodes {
		if doc.Nodes[i].ID == "" {
			doc.Nodes[i].ID = canvas.NewUserNodeID()
		}
	}

	if err := s.store.Save(sel, doc); err != nil {
		return fmt.Errorf("viewservice: save %s: %w", key, err)
	}
	if s.notify != nil {
		s.notify(key)
	}
	return nil
}

// DeleteView removes the persisted document for a selector.
func (s *Service) DeleteView(_ context.Context, sel canvas.Selector) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	s.bumpSeq(sel.Key())
	return s.store.Delete(sel)
}

// ListViews returns the selector keys of every persisted document.
func (s *Service) ListViews(_ context.Context) ([]string, error) {
	return s.store.Keys()
}

func validateDocument(sel canvas.Selector, doc *canvas.ViewDocument) error {
	if doc == nil {
		return fmt.Errorf("viewservice: nil document")
	}
	for _, n := range doc.Nodes {
		if !n.Type.Valid() {
			return fmt.Errorf("viewservice: node %q has unknown type %q", n.ID, n.Type)
		}
		if sel.Kind == canvas.SelectorCanvas && n.Type.Derived() {
			return fmt.Errorf("viewservice: derived node %q not allowed on a canvas view", n.ID)
		}
	}
	return nil
}
