// Package canvas defines the spatial view model — selectors, the node/edge
// document, and the synchronization engine that reconciles a persisted
// layout against current vault state.
package canvas

import (
	"fmt"
	"path"
	"strings"
)

// SelectorKind discriminates what a view shows.
type SelectorKind string

// Selector kinds.
const (
	SelectorFolder SelectorKind = "folder"
	SelectorSearch SelectorKind = "search"
	SelectorTag    SelectorKind = "tag"
	SelectorCanvas SelectorKind = "canvas"
)

// Selector identifies a view and is the persistence key for its document:
// one ViewDocument exists per distinct selector value.
type Selector struct {
	Kind  SelectorKind `json:"kind"`
	Dir   string       `json:"dir,omitempty"`   // folder: vault-relative directory ("" = root)
	Query string       `json:"query,omitempty"` // search
	Tag   string       `json:"tag,omitempty"`   // tag
	ID    string       `json:"id,omitempty"`    // canvas
}

// FolderSelector returns a selector for a vault directory.
func FolderSelector(dir string) Selector { return Selector{Kind: SelectorFolder, Dir: dir} }

// SearchSelector returns a selector for a search query.
func SearchSelector(query string) Selector { return Selector{Kind: SelectorSearch, Query: query} }

// TagSelector returns a selector for a tag.
func TagSelector(tag string) Selector { return Selector{Kind: SelectorTag, Tag: tag} }

// CanvasSelector returns a selector for a free-form canvas.
func CanvasSelector(id string) Selector { return Selector{Kind: SelectorCanvas, ID: id} }

// Key returns the canonical string form used as the store key,
// e.g. "folder:projects/work" or "search:meeting notes".
func (s Selector) Key() string {
	return string(s.Kind) + ":" + s.value()
}

func (s Selector) value() string {
	switch s.Kind {
	case SelectorFolder:
		return s.Dir
	case SelectorSearch:
		return s.Query
	case SelectorTag:
		return s.Tag
	case SelectorCanvas:
		return s.ID
	}
	return ""
}

// DefaultTitle derives a human-readable document title from the selector.
func (s Selector) DefaultTitle() string {
	switch s.Kind {
	case SelectorFolder:
		if s.Dir == "" {
			return "Vault"
		}
		return path.Base(s.Dir)
	case SelectorSearch:
		return "Search: " + s.Query
	case SelectorTag:
		return "#" + s.Tag
	case SelectorCanvas:
		return "Canvas"
	}
	return ""
}

// Validate reports whether the selector is well formed.
func (s Selector) Validate() error {
	switch s.Kind {
	case SelectorFolder:
		return nil // empty Dir means vault root
	case SelectorSearch:
		if s.Query == "" {
			return fmt.Errorf("canvas: search selector requires a query")
		}
	case SelectorTag:
		if s.Tag == "" {
			return fmt.Errorf("canvas: tag selector requires a tag")
		}
	case SelectorCanvas:
		if s.ID == "" {
			return fmt.Errorf("canvas: canvas selector requires an id")
		}
	default:
		return fmt.Errorf("canvas: unknown selector kind %q", s.Kind)
	}
	return nil
}

// ParseKey parses the canonical "kind:value" form produced by Key.
// The value is taken verbatim after the first colon, so folder paths
// containing slashes round-trip unchanged.
func ParseKey(key string) (Selector, error) {
	kind, value, ok := strings.Cut(key, ":")
	if !ok {
		return Selector{}, fmt.Errorf("canvas: malformed selector key %q", key)
	}
	var sel Selector
	switch SelectorKind(kind) {
	case SelectorFolder:
		sel = FolderSelector(value)
	case SelectorSearch:
		sel = SearchSelector(value)
	case SelectorTag:
		sel = TagSelector(value)
	case SelectorCanvas:
		sel = CanvasSelector(value)
	default:
		return Selector{}, fmt.Errorf("canvas: unknown selector kind %q", kind)
	}
	if err := sel.Validate(); err != nil {
		return Selector{}, err
	}
	return sel, nil
}
