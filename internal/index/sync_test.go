package index

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

func testVault(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSync_IndexesAndRemovesStale(t *testing.T) {
	dir, store := testVault(t)
	db := testDB(t)
	p := parser.New(parser.Config{DeckPrefix: "Mimir"})

	_ = store.Write("flashcards/a.md", []byte("Q1\n\n---\n\nA1\n"))
	_ = store.Write("flashcards/b.md", []byte("Q2\n\n---\n\nA2\n"))

	if err := Sync(db, store, p, "flashcards", discardLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	n, _ := db.CountCards()
	if n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}

	// Removing a document on disk drops it from the index.
	if err := os.Remove(filepath.Join(dir, "flashcards", "b.md")); err != nil {
		t.Fatal(err)
	}
	if err := Sync(db, store, p, "flashcards", discardLogger()); err != nil {
		t.Fatalf("second Sync: %v", err)
	}
	n, _ = db.CountCards()
	if n != 1 {
		t.Errorf("count after removal = %d, want 1", n)
	}
}

func TestSync_SkipsUnchangedDocuments(t *testing.T) {
	_, store := testVault(t)
	db := testDB(t)
	p := parser.New(parser.Config{DeckPrefix: "Mimir"})

	_ = store.Write("flashcards/a.md", []byte("Q1\n\n---\n\nA1\n"))
	if err := Sync(db, store, p, "flashcards", discardLogger()); err != nil {
		t.Fatal(err)
	}
	before, _ := db.AllChecksums()

	// Unchanged content keeps the same checksum; a rewrite changes it.
	if err := Sync(db, store, p, "flashcards", discardLogger()); err != nil {
		t.Fatal(err)
	}
	after, _ := db.AllChecksums()
	if before["flashcards/a.md"] != after["flashcards/a.md"] {
		t.Error("checksum changed without content change")
	}

	_ = store.Write("flashcards/a.md", []byte("Q1 edited\n\n---\n\nA1\n"))
	if err := Sync(db, store, p, "flashcards", discardLogger()); err != nil {
		t.Fatal(err)
	}
	changed, _ := db.AllChecksums()
	if changed["flashcards/a.md"] == after["flashcards/a.md"] {
		t.Error("checksum should change after an edit")
	}
}
