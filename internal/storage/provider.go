// Package storage defines the vault file-system abstraction.
package storage

import "github.com/atlas-kb/atlas/internal/models"

// Provider is the interface for vault file operations. Paths are always
// vault-relative with forward slashes; hidden (dot-prefixed) entries are
// invisible through every listing method.
type Provider interface {
	// List returns metadata for every .md file under dir (recursively).
	List(dir string) ([]models.NoteMetadata, error)
	// ListChildren returns the immediate children of dir: subdirectories
	// first, then files, each group sorted by name.
	ListChildren(dir string) ([]models.ChildEntry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}
