// Package entity resolves a selector into the set of entities the canvas
// should currently show: vault children for folder views, index hits for
// search and tag views. It owns stable-ID computation for derived nodes.
package entity

import (
	"context"
	"fmt"

	"github.com/atlas-kb/atlas/internal/canvas"
	"github.com/atlas-kb/atlas/internal/index"
	"github.com/atlas-kb/atlas/internal/parser"
	"github.com/atlas-kb/atlas/internal/storage"
	"github.com/atlas-kb/atlas/internal/summary"
)

const excerptLen = 240

// Source resolves selectors against the vault and the note index.
type Source struct {
	store        storage.Provider
	db           *index.DB
	agg          *summary.Aggregator
	previewLimit int
	searchLimit  int
}

// New creates a Source. previewLimit bounds the recent-markdown list on
// folder nodes; searchLimit bounds search selector result sets.
func New(store storage.Provider, db *index.DB, agg *summary.Aggregator, previewLimit, searchLimit int) *Source {
	return &Source{
		store:        store,
		db:           db,
		agg:          agg,
		previewLimit: previewLimit,
		searchLimit:  searchLimit,
	}
}

// Resolve returns the desired entities for the selector. A resolve error
// means the caller must keep its last good document; it never means "the
// view is now empty".
func (s *Source) Resolve(ctx context.Context, sel canvas.Selector) ([]canvas.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch sel.Kind {
	case canvas.SelectorFolder:
		return s.resolveFolder(sel.Dir)
	case canvas.SelectorSearch:
		return s.resolveSearch(sel.Query)
	case canvas.SelectorTag:
		return s.resolveTag(sel.Tag)
	case canvas.SelectorCanvas:
		// Free-form canvases carry no derived entities.
		return nil, nil
	}
	return nil, fmt.Errorf("entity: unknown selector kind %q", sel.Kind)
}

// resolveFolder maps the immediate children of dir: one folder entity per
// subdirectory (with recursive summary data), one note entity per markdown
// file, one file entity per other file. Files inside subfolders are reachable
// only through the subfolder's own view — a deliberate one-level rule.
func (s *Source) resolveFolder(dir string) ([]canvas.Entity, error) {
	children, err := s.store.ListChildren(dir)
	if err != nil {
		return nil, fmt.Errorf("entity: list %q: %w", dir, err)
	}
	sums, err := s.agg.Summarize(dir, s.previewLimit)
	if err != nil {
		return nil, fmt.Errorf("entity: summarize %q: %w", dir, err)
	}
	byPath := make(map[string]summary.DirectorySummary, len(sums))
	for _, sum := range sums {
		byPath[sum.DirPath] = sum
	}

	var out []canvas.Entity
	for _, c := range children {
		switch {
		case c.IsDir:
			out = append(out, folderEntity(c.Path, byPath[c.Path]))
		case c.Markdown():
			out = append(out, s.noteEntity(c.Path, c.Name))
		default:
			out = append(out, canvas.Entity{
				ID:   canvas.NoteID(c.Path),
				Kind: canvas.NodeFile,
				Data: canvas.FileData{Title: c.Name},
			})
		}
	}
	return out, nil
}

func folderEntity(path string, sum summary.DirectorySummary) canvas.Entity {
	recent := make([]canvas.RecentNote, len(sum.Recent))
	for i, r := range sum.Recent {
		recent[i] = canvas.RecentNote{Path: r.Path, Name: r.Name, MTime: r.MTime}
	}
	return canvas.Entity{
		ID:   canvas.FolderID(path),
		Kind: canvas.NodeFolder,
		Data: canvas.FolderData{
			Path:          path,
			TotalFiles:    sum.TotalFiles,
			TotalMarkdown: sum.TotalMarkdown,
			Recent:        recent,
			Truncated:     sum.Truncated,
		},
	}
}

// noteEntity reads and parses the note to compute display data. A note that
// fails to read still appears on the canvas under its file name.
func (s *Source) noteEntity(path, name string) canvas.Entity {
	data := canvas.NoteData{Title: name}
	if raw, err := s.store.Read(path); err == nil {
		if res, perr := parser.Parse(raw); perr == nil {
			if res.Title != "" {
				data.Title = res.Title
			}
			data.Excerpt = parser.Excerpt(res.Body, excerptLen)
		}
	}
	return canvas.Entity{ID: canvas.NoteID(path), Kind: canvas.NodeNote, Data: data}
}

// resolveSearch maps ranked index hits to note entities. The entity ID is
// the note's own stable ID, so the same note diffs correctly against itself
// across rebuilds of the same query.
func (s *Source) resolveSearch(query string) ([]canvas.Entity, error) {
	hits, err := s.db.Search(query, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("entity: search %q: %w", query, err)
	}
	return hitEntities(hits), nil
}

func (s *Source) resolveTag(tag string) ([]canvas.Entity, error) {
	hits, err := s.db.NotesByTag(tag)
	if err != nil {
		return nil, fmt.Errorf("entity: tag %q: %w", tag, err)
	}
	return hitEntities(hits), nil
}

func hitEntities(hits []index.SearchResult) []canvas.Entity {
	out := make([]canvas.Entity, 0, len(hits))
	for _, h := range hits {
		title := h.Title
		if title == "" {
			title = h.Path
		}
		out = append(out, canvas.Entity{
			ID:   canvas.NoteID(h.Path),
			Kind: canvas.NodeNote,
			Data: canvas.NoteData{Title: title, Excerpt: parser.Excerpt(h.Snippet, excerptLen)},
		})
	}
	return out
}
