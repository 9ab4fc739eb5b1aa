package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
	"github.com/starford/mimir/internal/testutil"
)

func testService(t *testing.T, conn *fakeConnector) (*Service, storage.Provider) {
	t.Helper()
	_, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	svc := NewService(Options{
		Store:     store,
		Parser:    parser.New(parser.Config{DeckPrefix: "Rina", VaultName: "Rina"}),
		Connector: conn,
		Index:     db,
		Folder:    "flashcards",
		MaxCards:  100,
		Logger:    testLogger(),
	})
	return svc, store
}

const bioDoc = "---\nsubject: BIOL\ntags: cells\n---\nQuestion\n\n---\n\nAnswer\n"

func TestPreviewSync_NoMutation(t *testing.T) {
	conn := newFakeConnector()
	svc, store := testService(t, conn)
	_ = store.Write("flashcards/bio.md", []byte(bioDoc))

	p, err := svc.PreviewSync(context.Background(), "")
	if err != nil {
		t.Fatalf("PreviewSync: %v", err)
	}
	if p.Total != 1 || p.Decks["Rina::Biology"] != 1 {
		t.Errorf("preview = %+v", p)
	}
	if len(conn.notes) != 0 {
		t.Error("preview must not mutate the remote store")
	}
}

func TestApplySync_EndToEnd(t *testing.T) {
	conn := newFakeConnector()
	svc, store := testService(t, conn)
	_ = store.Write("flashcards/bio.md", []byte(bioDoc))

	res, err := svc.ApplySync(context.Background(), "")
	if err != nil {
		t.Fatalf("ApplySync: %v", err)
	}
	if res.Created != 1 || len(res.Errors) != 0 {
		t.Fatalf("result = %+v", res)
	}

	// Write-back recorded the note id.
	data, _ := store.Read("flashcards/bio.md")
	raw, _, _ := parser.SplitMetadata(data)
	if _, ok := raw["anki_ids"].(map[string]any); !ok {
		t.Fatal("anki_ids not written back")
	}

	// Second run converges: nothing created, nothing duplicated.
	res2, err := svc.ApplySync(context.Background(), "")
	if err != nil {
		t.Fatalf("second ApplySync: %v", err)
	}
	if res2.Created != 0 || res2.Unchanged != 1 {
		t.Errorf("second run = %d created / %d unchanged, want 0/1", res2.Created, res2.Unchanged)
	}
	if len(conn.notes) != 1 {
		t.Errorf("remote notes = %d, want 1", len(conn.notes))
	}

	// Index reflects the synced card.
	cards, total, err := svc.ListCards(10, 0, "", "", "")
	if err != nil || total != 1 {
		t.Fatalf("ListCards: %v total=%d", err, total)
	}
	if cards[0].NoteID == 0 {
		t.Error("indexed card should carry its note id after sync")
	}
}

func TestApplySync_BatchLimit(t *testing.T) {
	conn := newFakeConnector()
	svc, store := testService(t, conn)
	svc.maxCards = 1
	_ = store.Write("flashcards/a.md", []byte("Q1\n\n---\n\nA1\n"))
	_ = store.Write("flashcards/b.md", []byte("Q2\n\n---\n\nA2\n"))

	_, err := svc.ApplySync(context.Background(), "")
	if !errors.Is(err, apperr.ErrTooManyCards) {
		t.Errorf("err = %v, want ErrTooManyCards", err)
	}
	if len(conn.notes) != 0 {
		t.Error("limit check must run before any mutation")
	}
}

func TestApplySync_SingleDocumentSelector(t *testing.T) {
	conn := newFakeConnector()
	svc, store := testService(t, conn)
	_ = store.Write("flashcards/a.md", []byte("Q1\n\n---\n\nA1\n"))
	_ = store.Write("flashcards/b.md", []byte("Q2\n\n---\n\nA2\n"))

	res, err := svc.ApplySync(context.Background(), "flashcards/a.md")
	if err != nil {
		t.Fatalf("ApplySync: %v", err)
	}
	if res.Created != 1 {
		t.Errorf("created = %d, want 1", res.Created)
	}
}

func TestParseDocument_PathEscapeRejected(t *testing.T) {
	svc, _ := testService(t, newFakeConnector())
	_, err := svc.ParseDocument(context.Background(), "../outside.md")
	if !errors.Is(err, apperr.ErrPathEscape) {
		t.Errorf("err = %v, want ErrPathEscape", err)
	}
}

func TestHealth(t *testing.T) {
	conn := newFakeConnector()
	svc, store := testService(t, conn)
	_ = store.Write("flashcards/a.md", []byte("Q\n\n---\n\nA\n"))

	h := svc.Health(context.Background())
	if !h.StoreReachable || !h.DocumentsAccessible {
		t.Errorf("health = %+v", h)
	}
	if h.DocumentCount != 1 {
		t.Errorf("documents = %d, want 1", h.DocumentCount)
	}
	if len(h.Issues) != 0 {
		t.Errorf("issues = %v", h.Issues)
	}
}

func TestHealth_StoreDown(t *testing.T) {
	conn := newFakeConnector()
	conn.pingErr = errors.New("refused")
	svc, _ := testService(t, conn)

	h := svc.Health(context.Background())
	if h.StoreReachable {
		t.Error("store should be unreachable")
	}
	if len(h.Issues) == 0 {
		t.Error("expected an issue entry")
	}
}
