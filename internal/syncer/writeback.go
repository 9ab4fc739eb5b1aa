package syncer

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

// RecordSync persists a sync outcome into a document's metadata block:
// the new identity→note-id entries are merged into the existing mapping
// (same-key entries overwritten, unrelated entries preserved), a fresh
// timestamp is stamped, and the card count is set to the merged mapping's
// size. The document body is rewritten byte-identical.
//
// Stale entries whose cards no longer exist are deliberately kept; this
// engine never garbage-collects the mapping.
func RecordSync(store storage.Provider, path string, noteIDs map[string]int64, now time.Time) error {
	data, err := store.Read(path)
	if err != nil {
		return fmt.Errorf("syncer: writeback read %s: %w", path, err)
	}

	raw, body, _ := parser.SplitMetadata(data)
	if raw == nil {
		raw = map[string]any{}
	}

	merged := map[string]any{}
	if existing, ok := raw["anki_ids"].(map[string]any); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for id, noteID := range noteIDs {
		merged[id] = noteID
	}

	raw["anki_ids"] = merged
	raw["anki_synced"] = now.UTC().Format(time.RFC3339)
	raw["anki_card_count"] = len(merged)

	block, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("syncer: writeback marshal %s: %w", path, err)
	}

	out := append([]byte("---\n"), block...)
	out = append(out, []byte("---\n")...)
	out = append(out, []byte(body)...)

	if err := store.Write(path, out); err != nil {
		return fmt.Errorf("syncer: writeback write %s: %w", path, err)
	}
	return nil
}
