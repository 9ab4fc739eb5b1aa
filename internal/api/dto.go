package api

import (
	"github.com/starford/mimir/internal/index"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/syncer"
)

// SyncRequest selects what to synchronize. An empty document means the
// whole flashcards folder.
type SyncRequest struct {
	Document string `json:"document" example:"flashcards/biology.md"`
}

// CardListResponse wraps paginated card listings.
type CardListResponse struct {
	Cards []models.Card `json:"cards" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps full-text search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// DocumentResponse is the parse outcome of a single document.
type DocumentResponse struct {
	Path  string         `json:"path" example:"flashcards/biology.md" validate:"required"`
	Deck  string         `json:"deck,omitempty" example:"Mimir::Biology"`
	Cards []models.Card  `json:"cards" validate:"required"`
	Meta  models.DocMeta `json:"meta"`
}

// SyncPreview is aliased from the domain layer.
type SyncPreview = syncer.Preview

// SyncResult is aliased from the domain layer.
type SyncResult = syncer.Result

// HealthReport is aliased from the domain layer.
type HealthReport = syncer.HealthReport
