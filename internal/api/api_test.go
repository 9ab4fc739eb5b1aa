package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/mimir/internal/anki"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
	"github.com/starford/mimir/internal/syncer"
	"github.com/starford/mimir/internal/testutil"
)

// stubConnector is an in-memory Connector for transport-level tests.
type stubConnector struct {
	notes  map[int64][]string // note id -> tags
	nextID int64
}

func newStubConnector() *stubConnector {
	return &stubConnector{notes: map[int64][]string{}, nextID: 1}
}

func (s *stubConnector) Ping(context.Context) (int, error)        { return 6, nil }
func (s *stubConnector) EnsureDeck(context.Context, string) error { return nil }
func (s *stubConnector) EnsureModel(context.Context) error        { return nil }

func (s *stubConnector) FindFirstByTag(_ context.Context, tag string) (int64, bool, error) {
	for id, tags := range s.notes {
		for _, t := range tags {
			if t == tag {
				return id, true, nil
			}
		}
	}
	return 0, false, nil
}

func (s *stubConnector) AddNote(_ context.Context, _, _, _ string, tags []string) (int64, error) {
	s.nextID++
	s.notes[s.nextID] = append([]string{}, tags...)
	return s.nextID, nil
}

func (s *stubConnector) UpdateNoteFields(context.Context, int64, string, string) error { return nil }

func (s *stubConnector) NoteTags(_ context.Context, id int64) ([]string, error) {
	tags, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("note %d not found", id)
	}
	return append([]string{}, tags...), nil
}

func (s *stubConnector) AddTags(_ context.Context, id int64, tags []string) error {
	s.notes[id] = append(s.notes[id], tags...)
	return nil
}

func (s *stubConnector) RemoveTags(context.Context, int64, []string) error { return nil }

var _ anki.Connector = (*stubConnector)(nil)

// testEnv sets up a temp vault, SQLite index, service, and router.
// authEnabled=false means disabled mode; authEnabled=true with non-empty token means token mode.
func testEnv(t *testing.T, authToken string) (storage.Provider, http.Handler) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)

	svc := syncer.NewService(syncer.Options{
		Store:     store,
		Parser:    parser.New(parser.Config{DeckPrefix: "Mimir", VaultName: "Mimir"}),
		Connector: newStubConnector(),
		Index:     db,
		Folder:    "flashcards",
		MaxCards:  100,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	router := NewRouter(svc, authToken != "", authToken)
	return store, router
}

const sampleDoc = "---\nsubject: BIOL\ntags: cells\n---\nQuestion\n\n---\n\nAnswer\n"

func TestGetDocument(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("flashcards/bio.md", []byte(sampleDoc))

	req := httptest.NewRequest(http.MethodGet, "/documents/flashcards/bio.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp DocumentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Path != "flashcards/bio.md" {
		t.Errorf("path = %q", resp.Path)
	}
	if len(resp.Cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(resp.Cards))
	}
	if resp.Deck != "Mimir::Biology" {
		t.Errorf("deck = %q, want Mimir::Biology", resp.Deck)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/flashcards/missing.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetDocument_PathEscape(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/documents/..%2Foutside.md", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPreviewSync(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("flashcards/bio.md", []byte(sampleDoc))

	req := httptest.NewRequest(http.MethodPost, "/sync/preview", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var preview SyncPreview
	_ = json.Unmarshal(w.Body.Bytes(), &preview)
	if preview.Total != 1 || preview.Decks["Mimir::Biology"] != 1 {
		t.Errorf("preview = %+v", preview)
	}
}

func TestApplySyncAndListCards(t *testing.T) {
	store, router := testEnv(t, "")
	_ = store.Write("flashcards/bio.md", []byte(sampleDoc))

	body, _ := json.Marshal(SyncRequest{Document: "flashcards/bio.md"})
	req := httptest.NewRequest(http.MethodPost, "/sync", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}

	var res SyncResult
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if res.Created != 1 {
		t.Errorf("created = %d, want 1", res.Created)
	}

	// The synced card lands in the index and is listable.
	req = httptest.NewRequest(http.MethodGet, "/cards?deck=Mimir%3A%3ABiology", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list CardListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || len(list.Cards) != 1 {
		t.Fatalf("list = %+v", list)
	}
	if list.Cards[0].NoteID == 0 {
		t.Error("listed card should carry its note id")
	}
}

func TestSearchCards_RequiresQuery(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cards/search", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var h HealthReport
	_ = json.Unmarshal(w.Body.Bytes(), &h)
	if !h.StoreReachable {
		t.Error("store should be reachable through the stub")
	}
}

func TestAuthDisabledAllowsAll(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with auth disabled", w.Code)
	}
}

func TestAuthTokenEnforced(t *testing.T) {
	_, router := testEnv(t, "secret")

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/cards", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	// Wrong token.
	req = httptest.NewRequest(http.MethodGet, "/cards", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", w.Code)
	}

	// Correct token.
	req = httptest.NewRequest(http.MethodGet, "/cards", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("correct token status = %d, want 200", w.Code)
	}
}
