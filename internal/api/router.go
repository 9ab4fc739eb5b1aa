package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/starford/mimir/internal/syncer"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *syncer.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Indexed cards.
	r.Get("/cards", h.ListCards)
	r.Get("/cards/search", h.SearchCards)

	// Document parsing.
	r.Get("/documents/*", h.GetDocument)

	// Synchronization.
	r.Post("/sync/preview", h.PreviewSync)
	r.Post("/sync", h.ApplySync)

	// Engine health (remote store, vault, index).
	r.Get("/health", h.Health)

	return r
}
