// Package models defines the domain types for Mimir.
package models

import "time"

// Card is one question/answer unit extracted from a vault document.
// Front and Back hold the rendered HTML; FrontRaw and BackRaw keep the
// markdown exactly as extracted, which is what the identity hash covers.
type Card struct {
	ID       string   `json:"id"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
	FrontRaw string   `json:"-"`
	BackRaw  string   `json:"-"`
	Deck     string   `json:"deck"`
	Tags     []string `json:"tags"`
	File     string   `json:"file"`
	Line     int      `json:"line"`
	NoteID   int64    `json:"note_id,omitempty"`
}

// DocMeta is the parsed metadata block of a vault document.
type DocMeta struct {
	Deck      string           `json:"deck,omitempty"`
	Scope     string           `json:"scope,omitempty"`
	Subject   string           `json:"subject,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	NoteIDs   map[string]int64 `json:"anki_ids,omitempty"`
	SyncedAt  time.Time        `json:"anki_synced,omitempty"`
	CardCount int              `json:"anki_card_count,omitempty"`
}

// DocInfo is a lightweight representation returned by list operations.
type DocInfo struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
