// Package anki talks to an AnkiConnect endpoint.
//
// AnkiConnect exposes a single HTTP endpoint speaking a JSON envelope:
// requests are {action, version, params} and responses {result, error}.
// Protocol version 6 is assumed throughout.
package anki

import "context"

// IdentityTagPrefix marks the queryable identity tag carried on every note
// this engine creates. The tag survives in-Anki edits and is the sole
// anchor for recognising the same logical card across runs.
const IdentityTagPrefix = "mimir-id-"

// IdentityTag returns the note tag for a card identity.
func IdentityTag(cardID string) string {
	return IdentityTagPrefix + cardID
}

// Connector is the interface for remote flashcard-store operations.
// Consumers should depend on this interface rather than the concrete
// *Client so tests can substitute a fake.
type Connector interface {
	// Ping verifies the endpoint is reachable and returns its protocol version.
	Ping(ctx context.Context) (int, error)
	// EnsureDeck creates the deck if it does not exist (idempotent).
	EnsureDeck(ctx context.Context, name string) error
	// EnsureModel creates the note model if absent, otherwise refreshes
	// its styling in place (idempotent either way).
	EnsureModel(ctx context.Context) error
	// FindFirstByTag returns the first note carrying the given tag.
	FindFirstByTag(ctx context.Context, tag string) (int64, bool, error)
	// AddNote creates a note and returns its id.
	AddNote(ctx context.Context, deck, front, back string, tags []string) (int64, error)
	// UpdateNoteFields rewrites the rendered fields of an existing note.
	UpdateNoteFields(ctx context.Context, noteID int64, front, back string) error
	// NoteTags returns the tags currently on a note.
	NoteTags(ctx context.Context, noteID int64) ([]string, error)
	// AddTags adds tags to a note.
	AddTags(ctx context.Context, noteID int64, tags []string) error
	// RemoveTags removes tags from a note.
	RemoveTags(ctx context.Context, noteID int64, tags []string) error
}
