// Package testutil provides shared test helpers for setting up vaults and
// databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/atlas-kb/atlas/internal/index"
	"github.com/atlas-kb/atlas/internal/storage"
	"github.com/atlas-kb/atlas/internal/viewstore"
)

// Vault is a temporary on-disk vault with its storage provider.
type Vault struct {
	Root  string
	Store storage.Provider
}

// NewVault creates a temporary vault directory that is cleaned up with the test.
func NewVault(t *testing.T) *Vault {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return &Vault{Root: root, Store: store}
}

// WriteNote writes a markdown file into the vault.
func (v *Vault) WriteNote(t *testing.T, rel, content string) {
	t.Helper()
	v.WriteFile(t, rel, []byte(content))
}

// WriteFile writes an arbitrary file into the vault.
func (v *Vault) WriteFile(t *testing.T, rel string, content []byte) {
	t.Helper()
	abs := filepath.Join(v.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

// NewDB creates a temporary SQLite note index that is cleaned up with the test.
func NewDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(tempFile(t, "atlas-test-*.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewViewStore creates a temporary view document store.
func NewViewStore(t *testing.T) *viewstore.Store {
	t.Helper()
	s, err := viewstore.Open(tempFile(t, "atlas-views-*.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
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
