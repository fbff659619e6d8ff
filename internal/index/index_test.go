package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "atlas-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes`).Scan(&count); err != nil {
		t.Fatalf("notes table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndChecksums(t *testing.T) {
	db := testDB(t)
	row := NoteRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "test"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertNote(row, "This is a hello world note.", []string{"other.md"}); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if checksums["hello.md"] != "abc123" {
		t.Errorf("checksum = %q, want %q", checksums["hello.md"], "abc123")
	}
}

func TestNotesByTag(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Title: "A", Checksum: "1", Tags: []string{"inbox", "work"}, UpdatedAt: time.Now()}, "body a", nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Title: "B", Checksum: "2", Tags: []string{"inbox"}, UpdatedAt: time.Now()}, "body b", nil)
	_ = db.UpsertNote(NoteRow{Path: "c.md", Title: "C", Checksum: "3", Tags: []string{"personal"}, UpdatedAt: time.Now()}, "body c", nil)

	hits, err := db.NotesByTag("inbox")
	if err != nil {
		t.Fatalf("NotesByTag: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(hits))
	}
	for _, h := range hits {
		if h.Path == "c.md" {
			t.Error("personal note matched inbox tag")
		}
	}
}

func TestNotesByTagNoSubstringMatch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{"work-log"}, UpdatedAt: time.Now()}, "", nil)

	hits, err := db.NotesByTag("work")
	if err != nil {
		t.Fatalf("NotesByTag: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("tag %q must not match %q", "work", "work-log")
	}
}

func TestAllTags(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{"x", "y"}, UpdatedAt: time.Now()}, "", nil)
	_ = db.UpsertNote(NoteRow{Path: "b.md", Checksum: "2", Tags: []string{"x"}, UpdatedAt: time.Now()}, "", nil)

	tags, err := db.AllTags()
	if err != nil {
		t.Fatalf("AllTags: %v", err)
	}
	if tags["x"] != 2 || tags["y"] != 1 {
		t.Errorf("tags = %v", tags)
	}
}

func TestListNotesPagination(t *testing.T) {
	db := testDB(t)
	base := time.Now().Add(-time.Hour)
	for i, p := range []string{"1.md", "2.md", "3.md"} {
		_ = db.UpsertNote(NoteRow{Path: p, Checksum: p, Tags: []string{}, UpdatedAt: base.Add(time.Duration(i) * time.Minute)}, "", nil)
	}

	rows, total, err := db.ListNotes(2, 0, "")
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if total != 3 || len(rows) != 2 {
		t.Fatalf("total=%d rows=%d, want 3/2", total, len(rows))
	}
	if rows[0].Path != "3.md" {
		t.Errorf("newest first: got %q", rows[0].Path)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})
	_ = db.UpsertNote(NoteRow{Path: "c.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestDeleteNote(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"target.md"})

	if err := db.DeleteNote("del.md"); err != nil {
		t.Fatalf("DeleteNote: %v", err)
	}
	checksums, _ := db.AllChecksums()
	if _, ok := checksums["del.md"]; ok {
		t.Error("note still present after delete")
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Error("links not cleaned up after delete")
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{Path: "go.md", Title: "Go Notes", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "gophers are friendly", nil)
	_ = db.UpsertNote(NoteRow{Path: "rust.md", Title: "Rust Notes", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "crabs are fast", nil)

	hits, err := db.Search("gophers", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Path != "go.md" {
		t.Errorf("hits = %+v", hits)
	}
}
