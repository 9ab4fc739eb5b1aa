package storage

import (
	"errors"
	"testing"

	"github.com/starford/mimir/internal/apperr"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("Question\n\n---\n\nAnswer\n")
	if err := s.Write("deck.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("deck.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("flashcards/bio/cells.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("flashcards/bio/cells.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("flashcards/a.md", []byte("a"))
	_ = s.Write("flashcards/sub/b.md", []byte("b"))
	_ = s.Write("flashcards/skip.txt", []byte("nope"))
	_ = s.Write("outside.md", []byte("out"))

	docs, err := s.List("flashcards")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("len = %d, want 2", len(docs))
	}
	for _, d := range docs {
		if d.Checksum == "" {
			t.Errorf("missing checksum for %s", d.Path)
		}
	}
}

func TestPathEscapeRejected(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"../evil.md", "a/../../evil.md", "/etc/passwd"} {
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrPathEscape) {
			t.Errorf("Read(%q) err = %v, want ErrPathEscape", p, err)
		}
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrPathEscape) {
			t.Errorf("Write(%q) err = %v, want ErrPathEscape", p, err)
		}
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempVault(t)
	if _, err := s.Read("missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
