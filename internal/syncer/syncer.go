// Package syncer reconciles extracted cards against the remote flashcard
// store and records the outcome back into the source documents.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/mimir/internal/anki"
	"github.com/starford/mimir/internal/models"
)

// CardError records one isolated per-card failure.
type CardError struct {
	CardID  string `json:"card_id"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Result is the outcome of one reconciliation run.
type Result struct {
	Created   int                 `json:"created"`
	Updated   int                 `json:"updated"`
	Unchanged int                 `json:"unchanged"`
	Errors    []CardError         `json:"errors"`
	NoteIDs   map[string]int64    `json:"note_ids"`
	Files     map[string][]string `json:"files"`
	ElapsedMs int64               `json:"elapsed_ms"`
}

// Sync pushes cards to the remote store, strictly one at a time in input
// order. Connectivity and model/deck preparation failures abort the run
// before any card is touched; per-card failures are recorded and skipped.
//
// Cards are reconciled serially on purpose: the store offers no
// transactional isolation, so two concurrent find-or-create passes over the
// same identity tag could race into duplicates.
func Sync(ctx context.Context, cards []models.Card, conn anki.Connector, logger *slog.Logger) (*Result, error) {
	start := time.Now()

	if _, err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("syncer: ping: %w", err)
	}
	if err := conn.EnsureModel(ctx); err != nil {
		return nil, fmt.Errorf("syncer: ensure model: %w", err)
	}

	for _, deck := range distinctDecks(cards) {
		if err := conn.EnsureDeck(ctx, deck); err != nil {
			return nil, fmt.Errorf("syncer: ensure deck %s: %w", deck, err)
		}
	}

	res := &Result{
		Errors:  []CardError{},
		NoteIDs: make(map[string]int64, len(cards)),
		Files:   make(map[string][]string),
	}

	for _, card := range cards {
		noteID, err := syncCard(ctx, card, conn, res)
		if err != nil {
			logger.Warn("sync: card failed",
				slog.String("card", card.ID),
				slog.String("file", card.File),
				slog.String("error", err.Error()))
			res.Errors = append(res.Errors, CardError{
				CardID:  card.ID,
				File:    card.File,
				Line:    card.Line,
				Message: err.Error(),
			})
			continue
		}
		res.NoteIDs[card.ID] = noteID
		res.Files[card.File] = append(res.Files[card.File], card.ID)
	}

	res.ElapsedMs = time.Since(start).Milliseconds()
	logger.Info("sync: finished",
		slog.Int("created", res.Created),
		slog.Int("updated", res.Updated),
		slog.Int("unchanged", res.Unchanged),
		slog.Int("errors", len(res.Errors)),
		slog.Int64("elapsed_ms", res.ElapsedMs))
	return res, nil
}

// syncCard classifies and pushes a single card, returning its note id.
func syncCard(ctx context.Context, card models.Card, conn anki.Connector, res *Result) (int64, error) {
	tag := anki.IdentityTag(card.ID)

	noteID, found, err := conn.FindFirstByTag(ctx, tag)
	if err != nil {
		return 0, err
	}

	if !found {
		tags := append(append([]string{}, card.Tags...), tag)
		id, err := conn.AddNote(ctx, card.Deck, card.Front, card.Back, tags)
		if err != nil {
			return 0, err
		}
		res.Created++
		return id, nil
	}

	// Identity is a function of raw content, so a found identity whose
	// note id already matches the document's sync record means nothing
	// changed since the last run.
	if card.NoteID != 0 && card.NoteID == noteID {
		res.Unchanged++
		return noteID, nil
	}

	if err := conn.UpdateNoteFields(ctx, noteID, card.Front, card.Back); err != nil {
		return 0, err
	}
	if err := reconcileTags(ctx, conn, noteID, card.Tags, tag); err != nil {
		return 0, err
	}
	res.Updated++
	return noteID, nil
}

// reconcileTags diffs the note's label set against the card's: labels no
// longer present are removed, new ones added. Identity tags are never
// removed.
func reconcileTags(ctx context.Context, conn anki.Connector, noteID int64, want []string, identityTag string) error {
	current, err := conn.NoteTags(ctx, noteID)
	if err != nil {
		return err
	}

	desired := make(map[string]struct{}, len(want)+1)
	for _, t := range want {
		desired[t] = struct{}{}
	}
	desired[identityTag] = struct{}{}

	var remove []string
	have := make(map[string]struct{}, len(current))
	for _, t := range current {
		have[t] = struct{}{}
		if _, ok := desired[t]; !ok && !strings.HasPrefix(t, anki.IdentityTagPrefix) {
			remove = append(remove, t)
		}
	}
	var add []string
	for t := range desired {
		if _, ok := have[t]; !ok {
			add = append(add, t)
		}
	}

	if err := conn.RemoveTags(ctx, noteID, remove); err != nil {
		return err
	}
	return conn.AddTags(ctx, noteID, add)
}

func distinctDecks(cards []models.Card) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cards {
		if _, ok := seen[c.Deck]; ok {
			continue
		}
		seen[c.Deck] = struct{}{}
		out = append(out, c.Deck)
	}
	return out
}
