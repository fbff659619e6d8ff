// Package models defines the domain types shared across Atlas packages.
package models

import (
	"strings"
	"time"
)

// Note represents a parsed Markdown file in the vault.
type Note struct {
	Path        string         `json:"path"`
	Content     []byte         `json:"-"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Title       string         `json:"title,omitempty"`
	Links       []string       `json:"links,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Checksum    string         `json:"checksum"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChildEntry is one immediate child of a vault directory, as surfaced to the
// canvas entity source.
type ChildEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"` // vault-relative
	IsDir   bool      `json:"is_dir"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Markdown reports whether the entry is a markdown file.
func (c ChildEntry) Markdown() bool {
	return !c.IsDir && strings.HasSuffix(c.Name, ".md")
}

// Link represents a directed wikilink between two notes.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"` // "inline" or "frontmatter"
}
