package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/syncer"
)

// Handler holds API route handlers.
type Handler struct {
	svc *syncer.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *syncer.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the document path from the URL (everything after /api/documents/).
// Supports encoded slashes from OpenAPI clients (e.g. flashcards%2Fbio.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListCards handles GET /api/cards.
//
//	@Summary		List indexed flashcards with optional pagination and filtering
//	@Tags			cards
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			deck	query		string	false	"Filter by resolved deck name"
//	@Param			tag		query		string	false	"Filter by tag"
//	@Param			file	query		string	false	"Filter by source document path"
//	@Success		200		{object}	CardListResponse
//	@Security		BearerAuth
//	@Router			/cards [get]
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	cards, total, err := h.svc.ListCards(limit, offset, q.Get("deck"), q.Get("tag"), q.Get("file"))
	if err != nil {
		slog.Error("list cards failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cards": cards,
		"total": total,
	})
}

// SearchCards handles GET /api/cards/search.
//
//	@Summary		Full-text search across card fronts, backs, and tags
//	@Tags			cards
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errorResponse
//	@Security		BearerAuth
//	@Router			/cards/search [get]
func (h *Handler) SearchCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.SearchCards(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}

// GetDocument handles GET /api/documents/*.
//
//	@Summary		Parse a single document and return its extracted cards
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DocumentResponse
//	@Failure		404		{object}	errorResponse
//	@Security		BearerAuth
//	@Router			/documents/{path} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	path := docPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	res, err := h.svc.ParseDocument(r.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrPathEscape):
			writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
		default:
			slog.Error("parse document failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}

	resp := DocumentResponse{
		Path:  path,
		Cards: res.Cards,
		Meta:  res.Meta,
	}
	if len(res.Cards) > 0 {
		resp.Deck = res.Cards[0].Deck
	}
	writeJSON(w, http.StatusOK, resp)
}

// PreviewSync handles POST /api/sync/preview.
//
//	@Summary		Dry-run a sync: parse and count cards without touching the remote store
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncRequest	false	"Sync scope"
//	@Success		200		{object}	SyncPreview
//	@Security		BearerAuth
//	@Router			/sync/preview [post]
func (h *Handler) PreviewSync(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSyncRequest(w, r)
	if !ok {
		return
	}
	preview, err := h.svc.PreviewSync(r.Context(), req.Document)
	if err != nil {
		h.writeSyncError(w, req.Document, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ApplySync handles POST /api/sync.
//
//	@Summary		Synchronize extracted cards to the remote flashcard store
//	@Tags			sync
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SyncRequest	false	"Sync scope"
//	@Success		200		{object}	SyncResult
//	@Failure		422		{object}	errorResponse
//	@Failure		502		{object}	errorResponse
//	@Security		BearerAuth
//	@Router			/sync [post]
func (h *Handler) ApplySync(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSyncRequest(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ApplySync(r.Context(), req.Document)
	if err != nil {
		h.writeSyncError(w, req.Document, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Health handles GET /api/health.
//
//	@Summary		Report remote store, vault, and index health
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	HealthReport
//	@Security		BearerAuth
//	@Router			/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Health(r.Context()))
}

// decodeSyncRequest reads an optional JSON body. An empty body selects
// the whole flashcards folder.
func decodeSyncRequest(w http.ResponseWriter, r *http.Request) (SyncRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	return req, true
}

func (h *Handler) writeSyncError(w http.ResponseWriter, document string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrPathEscape):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	case errors.Is(err, apperr.ErrTooManyCards):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnreachable):
		writeJSON(w, http.StatusBadGateway, errorBody("remote store unreachable"))
	default:
		slog.Error("sync failed", slog.String("document", document), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
