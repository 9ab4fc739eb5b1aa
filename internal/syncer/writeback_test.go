package syncer

import (
	"strings"
	"testing"
	"time"

	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/testutil"
)

func TestRecordSync_MergesAndPreservesBody(t *testing.T) {
	_, store := testutil.TestVault(t)
	body := "Question\n\n---\n\nAnswer\n"
	doc := "---\nsubject: BIOL\nanki_ids:\n  oldcard000000001: 111\n---\n" + body
	if err := store.Write("bio.md", []byte(doc)); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	err := RecordSync(store, "bio.md", map[string]int64{"newcard000000002": 222}, now)
	if err != nil {
		t.Fatalf("RecordSync: %v", err)
	}

	data, err := store.Read("bio.md")
	if err != nil {
		t.Fatal(err)
	}
	raw, gotBody, _ := parser.SplitMetadata(data)
	if gotBody != body {
		t.Errorf("body changed: %q", gotBody)
	}
	if raw["subject"] != "BIOL" {
		t.Errorf("unrelated field lost: %v", raw["subject"])
	}

	ids, ok := raw["anki_ids"].(map[string]any)
	if !ok {
		t.Fatalf("anki_ids = %T", raw["anki_ids"])
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v, want old entry preserved and new merged", ids)
	}
	if raw["anki_card_count"] != 2 {
		t.Errorf("card count = %v, want 2", raw["anki_card_count"])
	}
	if s, _ := raw["anki_synced"].(string); !strings.HasPrefix(s, "2026-08-24T12:00:00") {
		t.Errorf("synced = %v", raw["anki_synced"])
	}
}

func TestRecordSync_OverwritesSameKey(t *testing.T) {
	_, store := testutil.TestVault(t)
	doc := "---\nanki_ids:\n  cardx00000000001: 111\n---\nbody\n"
	_ = store.Write("f.md", []byte(doc))

	if err := RecordSync(store, "f.md", map[string]int64{"cardx00000000001": 999}, time.Now()); err != nil {
		t.Fatalf("RecordSync: %v", err)
	}

	data, _ := store.Read("f.md")
	raw, _, _ := parser.SplitMetadata(data)
	ids := raw["anki_ids"].(map[string]any)
	if n, _ := ids["cardx00000000001"].(int); n != 999 {
		t.Errorf("id = %v, want 999", ids["cardx00000000001"])
	}
}

func TestRecordSync_CreatesBlockWhenAbsent(t *testing.T) {
	_, store := testutil.TestVault(t)
	body := "Question\n\n---\n\nAnswer\n"
	_ = store.Write("f.md", []byte(body))

	if err := RecordSync(store, "f.md", map[string]int64{"cardy00000000001": 5}, time.Now()); err != nil {
		t.Fatalf("RecordSync: %v", err)
	}

	data, _ := store.Read("f.md")
	raw, gotBody, offset := parser.SplitMetadata(data)
	if raw == nil || offset == 0 {
		t.Fatal("metadata block not created")
	}
	if gotBody != body {
		t.Errorf("body changed: %q", gotBody)
	}
}
