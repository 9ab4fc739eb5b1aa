package parser

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/mimir/internal/models"
)

const metaDelim = "---"

// SplitMetadata separates the YAML metadata block (between leading ---
// delimiters) from the document body. It returns the raw metadata map, the
// body exactly as it appears in the source, and the number of lines the
// block occupies (including both delimiter lines).
//
// A missing or malformed block degrades to (nil, whole document, 0); it
// never aborts the parse.
func SplitMetadata(data []byte) (map[string]any, string, int) {
	text := string(data)
	lines := strings.Split(text, "\n")

	s := 0
	for s < len(lines) && isBlank(lines[s]) {
		s++
	}
	if s >= len(lines) || strings.TrimSpace(lines[s]) != metaDelim {
		return nil, text, 0
	}

	e := -1
	for i := s + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == metaDelim {
			e = i
			break
		}
	}
	if e < 0 {
		// No closing delimiter: treat everything as body.
		return nil, text, 0
	}

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(strings.Join(lines[s+1:e], "\n")), &raw); err != nil {
		return nil, text, 0
	}

	// Joining the remaining split lines reconstructs the body bytes
	// exactly, which the write-back recorder relies on.
	return raw, strings.Join(lines[e+1:], "\n"), e + 1
}

// MetaFromMap extracts the typed metadata fields from the raw block.
func MetaFromMap(raw map[string]any) models.DocMeta {
	var meta models.DocMeta
	if raw == nil {
		return meta
	}

	meta.Deck = stringField(raw, "deck")
	meta.Scope = stringField(raw, "scope")
	meta.Subject = stringField(raw, "subject")
	meta.Tags = tagField(raw["tags"])
	meta.NoteIDs = noteIDField(raw["anki_ids"])
	if n, ok := intValue(raw["anki_card_count"]); ok {
		meta.CardCount = int(n)
	}

	if s := stringField(raw, "anki_synced"); s != "" {
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			meta.SyncedAt = ts
		}
	}
	return meta
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// tagField accepts either an explicit YAML list or a single string split on
// commas and whitespace.
func tagField(v any) []string {
	switch val := v.(type) {
	case string:
		fields := strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		var out []string
		for _, f := range fields {
			if f = strings.TrimSpace(f); f != "" {
				out = append(out, f)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	return nil
}

func noteIDField(v any) map[string]int64 {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]int64, len(m))
	for k, raw := range m {
		if id, ok := intValue(raw); ok {
			out[k] = id
		}
	}
	return out
}

// intValue converts the numeric types yaml.v3 may produce.
func intValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
