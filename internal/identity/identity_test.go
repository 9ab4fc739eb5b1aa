package identity

import "testing"

func TestCardID_Deterministic(t *testing.T) {
	a := CardID("What is ATP?", "Adenosine triphosphate", "flashcards/bio.md")
	b := CardID("What is ATP?", "Adenosine triphosphate", "flashcards/bio.md")
	if a != b {
		t.Errorf("identities differ: %q vs %q", a, b)
	}
	if len(a) != IDLength {
		t.Errorf("len = %d, want %d", len(a), IDLength)
	}
}

func TestCardID_WhitespaceInvariant(t *testing.T) {
	base := CardID("What is ATP?", "Adenosine triphosphate", "flashcards/bio.md")

	cases := map[string][3]string{
		"trailing spaces": {"What is ATP?  ", "Adenosine triphosphate ", "flashcards/bio.md"},
		"crlf endings":    {"What is ATP?", "Adenosine\r\ntriphosphate", "flashcards/bio.md"},
		"tab runs":        {"What \t is ATP?", "Adenosine triphosphate", "flashcards/bio.md"},
		"blank line runs": {"What is ATP?", "Adenosine\n\n\n\ntriphosphate", "flashcards/bio.md"},
		"path casing":     {"What is ATP?", "Adenosine triphosphate", "Flashcards/Bio.md"},
		"path slashes":    {"What is ATP?", "Adenosine triphosphate", "flashcards\\bio.md"},
	}
	// crlf and blank-line cases need a matching multi-line baseline.
	multiBase := CardID("What is ATP?", "Adenosine\ntriphosphate", "flashcards/bio.md")

	for name, c := range cases {
		got := CardID(c[0], c[1], c[2])
		want := base
		if name == "crlf endings" {
			want = multiBase
		}
		if name == "blank line runs" {
			want = CardID("What is ATP?", "Adenosine\n\ntriphosphate", "flashcards/bio.md")
		}
		if got != want {
			t.Errorf("%s: identity changed under whitespace-only perturbation", name)
		}
	}
}

func TestCardID_ContentSensitive(t *testing.T) {
	base := CardID("front", "back", "a/b.md")
	if CardID("front!", "back", "a/b.md") == base {
		t.Error("front change should change identity")
	}
	if CardID("front", "back!", "a/b.md") == base {
		t.Error("back change should change identity")
	}
	if CardID("front", "back", "a/c.md") == base {
		t.Error("path change should change identity")
	}
}

func TestContentHash_FullDigest(t *testing.T) {
	a := ContentHash([]byte("---\ntags: x\n---\nbody\n"))
	if len(a) != 64 {
		t.Errorf("len = %d, want 64 hex chars", len(a))
	}
	if a != ContentHash([]byte("---\ntags: x\n---\nbody\n")) {
		t.Error("digest not deterministic")
	}
	// Metadata-only edits must change the digest; no normalisation applies.
	if a == ContentHash([]byte("---\ntags: y\n---\nbody\n")) {
		t.Error("metadata edit did not change digest")
	}
}

func TestNormalizeText(t *testing.T) {
	got := NormalizeText("  Hello \t world \r\n\r\n\r\nbye  ")
	want := "Hello world\n\nbye"
	if got != want {
		t.Errorf("NormalizeText = %q, want %q", got, want)
	}
}
