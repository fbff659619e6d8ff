// Package summary computes recursive directory statistics for folder nodes
// on the canvas: file counts and a bounded most-recently-modified preview,
// gathered in a single capped walk per subfolder.
package summary

import (
	"container/heap"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxPreview caps the recency preview length regardless of what the
	// caller requests.
	MaxPreview = 20

	// scanCap aborts the walk of a single subfolder after this many files.
	// Guards against symlink cycles and pathological trees without a timeout.
	scanCap = 100_000
)

// RecentNote is one entry in a folder's recency preview.
type RecentNote struct {
	Path  string    `json:"path"` // vault-relative
	Name  string    `json:"name"`
	MTime time.Time `json:"mtime"`
}

// DirectorySummary describes one immediate subfolder of a scanned directory.
// It is recomputed on demand and never persisted.
type DirectorySummary struct {
	DirPath       string       `json:"dirPath"` // vault-relative
	TotalFiles    int          `json:"totalFiles"`
	TotalMarkdown int          `json:"totalMarkdown"`
	Recent        []RecentNote `json:"recent"` // sorted descending by mtime
	Truncated     bool         `json:"truncated"`
}

// Aggregator performs summary scans rooted at a vault directory.
// It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	root string
	cap  int
}

// New creates an Aggregator over the given vault root.
func New(root string) *Aggregator {
	return &Aggregator{root: root, cap: scanCap}
}

// Summarize returns one DirectorySummary per immediate subfolder of dir
// (vault-relative, "" for the root). Hidden entries are skipped with the
// same dot-prefix rule used by the rest of the vault surface.
func (a *Aggregator) Summarize(dir string, previewLimit int) ([]DirectorySummary, error) {
	if previewLimit < 0 {
		previewLimit = 0
	}
	if previewLimit > MaxPreview {
		previewLimit = MaxPreview
	}

	base := filepath.Join(a.root, filepath.FromSlash(dir))
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("summary: read dir %s: %w", dir, err)
	}

	var out []DirectorySummary
	for _, e := range entries {
		if !e.IsDir() || hidden(e.Name()) {
			continue
		}
		rel := filepath.ToSlash(filepath.Join(dir, e.Name()))
		s, err := a.scanSubtree(rel, previewLimit)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// scanSubtree walks one subfolder depth-first, counting files and keeping a
// size-bounded min-heap of markdown files by modification time.
func (a *Aggregator) scanSubtree(rel string, previewLimit int) (DirectorySummary, error) {
	s := DirectorySummary{DirPath: rel, Recent: []RecentNote{}}
	h := &recentHeap{}

	start := filepath.Join(a.root, filepath.FromSlash(rel))
	err := filepath.WalkDir(start, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable entries degrade the counts, not the whole scan.
			return nil
		}
		if hidden(d.Name()) && p != start {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		if s.TotalFiles >= a.cap {
			s.Truncated = true
			return fs.SkipAll
		}
		s.TotalFiles++

		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		s.TotalMarkdown++

		if previewLimit == 0 {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		fileRel, relErr := filepath.Rel(a.root, p)
		if relErr != nil {
			return nil
		}
		h.offer(RecentNote{
			Path: filepath.ToSlash(fileRel),
			Name: d.Name(),
			// UTC keeps the value stable across a JSON round-trip, which
			// serializes in UTC. Stored documents must compare equal to a
			// fresh scan of an unchanged tree.
			MTime: info.ModTime().UTC(),
		}, previewLimit)
		return nil
	})
	if err != nil {
		return DirectorySummary{}, fmt.Errorf("summary: scan %s: %w", rel, err)
	}

	s.Recent = h.drain()
	return s, nil
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// recentHeap is a min-heap on MTime, so the oldest retained entry sits at
// the root and is the one evicted when a newer file arrives at capacity.
type recentHeap []RecentNote

func (h recentHeap) Len() int           { return len(h) }
func (h recentHeap) Less(i, j int) bool { return h[i].MTime.Before(h[j].MTime) }
func (h recentHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *recentHeap) Push(x any)        { *h = append(*h, x.(RecentNote)) }
func (h *recentHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// offer inserts the note, evicting the oldest entry when over capacity.
func (h *recentHeap) offer(n RecentNote, capacity int) {
	if h.Len() < capacity {
		heap.Push(h, n)
		return
	}
	if (*h)[0].MTime.Before(n.MTime) {
		(*h)[0] = n
		heap.Fix(h, 0)
	}
}

// drain empties the heap into a slice sorted descending by mtime.
func (h *recentHeap) drain() []RecentNote {
	out := make([]RecentNote, h.Len())
	// Pop yields oldest first; fill back to front for newest-first order.
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(RecentNote)
	}
	return out
}
