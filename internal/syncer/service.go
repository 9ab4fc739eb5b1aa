package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/mimir/internal/anki"
	"github.com/starford/mimir/internal/apperr"
	"github.com/starford/mimir/internal/identity"
	"github.com/starford/mimir/internal/index"
	"github.com/starford/mimir/internal/models"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

// Options wires a Service.
type Options struct {
	Store     storage.Provider
	Parser    *parser.Parser
	Connector anki.Connector
	Index     index.CardIndex
	// Folder restricts document discovery to a vault subfolder ("" = all).
	Folder string
	// MaxCards is an upper-bound sanity check on the extracted card count
	// per run; 0 disables the check.
	MaxCards int
	Logger   *slog.Logger
}

// Service coordinates parsing, reconciliation, write-back, and the local
// card index. It is the single entry point behind both transports.
type Service struct {
	store    storage.Provider
	parser   *parser.Parser
	conn     anki.Connector
	db       index.CardIndex
	folder   string
	maxCards int
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    opts.Store,
		parser:   opts.Parser,
		conn:     opts.Connector,
		db:       opts.Index,
		folder:   opts.Folder,
		maxCards: opts.MaxCards,
		logger:   logger,
	}
}

// FileError records a per-document failure that did not abort the batch.
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// Preview is the outcome of a dry parse-and-count run; nothing is mutated.
type Preview struct {
	Decks  map[string]int `json:"decks"`
	Cards  []models.Card  `json:"cards"`
	Errors []FileError    `json:"errors"`
	Total  int            `json:"total"`
}

// HealthReport describes the engine's view of its collaborators.
type HealthReport struct {
	StoreReachable      bool     `json:"store_reachable"`
	StoreVersion        int      `json:"store_version,omitempty"`
	DocumentsAccessible bool     `json:"documents_accessible"`
	DocumentCount       int      `json:"document_count"`
	CardCount           int      `json:"card_count"`
	Issues              []string `json:"issues"`
}

// ParseDocument extracts the cards of a single document.
func (s *Service) ParseDocument(_ context.Context, path string) (*parser.Result, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return nil, err
	}
	return s.parser.Parse(path, data), nil
}

// PreviewSync parses the selected documents and reports per-deck counts
// without touching the remote store. selector may name a single document;
// empty means the whole flashcards folder.
func (s *Service) PreviewSync(ctx context.Context, selector string) (*Preview, error) {
	cards, fileErrs, err := s.collectCards(ctx, selector)
	if err != nil {
		return nil, err
	}
	p := &Preview{
		Decks:  make(map[string]int),
		Cards:  cards,
		Errors: fileErrs,
		Total:  len(cards),
	}
	for _, c := range cards {
		p.Decks[c.Deck]++
	}
	return p, nil
}

// ApplySync runs the full reconciliation: parse, push, write back, and
// refresh the local index. Connectivity failures abort before any
// mutation; per-document and per-card failures are isolated into the
// result's error list.
func (s *Service) ApplySync(ctx context.Context, selector string) (*Result, error) {
	cards, fileErrs, err := s.collectCards(ctx, selector)
	if err != nil {
		return nil, err
	}
	if s.maxCards > 0 && len(cards) > s.maxCards {
		return nil, fmt.Errorf("syncer: %d cards extracted: %w", len(cards), apperr.ErrTooManyCards)
	}

	res, err := Sync(ctx, cards, s.conn, s.logger)
	if err != nil {
		return nil, err
	}
	for _, fe := range fileErrs {
		res.Errors = append(res.Errors, CardError{File: fe.File, Message: fe.Message})
	}

	now := time.Now()
	for file, ids := range res.Files {
		fileIDs := make(map[string]int64, len(ids))
		for _, id := range ids {
			fileIDs[id] = res.NoteIDs[id]
		}
		if err := RecordSync(s.store, file, fileIDs, now); err != nil {
			s.logger.Warn("sync: writeback failed", slog.String("file", file), slog.String("error", err.Error()))
			res.Errors = append(res.Errors, CardError{File: file, Message: err.Error()})
			continue
		}
		s.reindex(file)
	}
	return res, nil
}

// ListCards returns indexed cards with optional deck/tag/file filters.
func (s *Service) ListCards(limit, offset int, deck, tag, file string) ([]models.Card, int, error) {
	rows, total, err := s.db.ListCards(limit, offset, deck, tag, file)
	if err != nil {
		return nil, 0, err
	}
	cards := make([]models.Card, len(rows))
	for i, r := range rows {
		cards[i] = r.Card()
	}
	return cards, total, nil
}

// SearchCards delegates full-text search to the index.
func (s *Service) SearchCards(query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Health reports reachability of the remote store and the vault, plus the
// indexed card count. Failures become issues, never errors.
func (s *Service) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{Issues: []string{}}

	if v, err := s.conn.Ping(ctx); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("remote store: %v", err))
	} else {
		report.StoreReachable = true
		report.StoreVersion = v
	}

	if docs, err := s.store.List(s.folder); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("vault: %v", err))
	} else {
		report.DocumentsAccessible = true
		report.DocumentCount = len(docs)
	}

	if n, err := s.db.CountCards(); err != nil {
		report.Issues = append(report.Issues, fmt.Sprintf("index: %v", err))
	} else {
		report.CardCount = n
	}

	return report
}

// collectCards parses the selected documents. Unreadable documents are
// reported per file and excluded; only discovery itself is fatal.
func (s *Service) collectCards(_ context.Context, selector string) ([]models.Card, []FileError, error) {
	fileErrs := []FileError{}

	if selector != "" {
		data, err := s.store.Read(selector)
		if err != nil {
			return nil, nil, err
		}
		return s.parser.Parse(selector, data).Cards, fileErrs, nil
	}

	docs, err := s.store.List(s.folder)
	if err != nil {
		return nil, nil, err
	}

	var cards []models.Card
	for _, d := range docs {
		data, err := s.store.Read(d.Path)
		if err != nil {
			fileErrs = append(fileErrs, FileError{File: d.Path, Message: err.Error()})
			continue
		}
		cards = append(cards, s.parser.Parse(d.Path, data).Cards...)
	}
	return cards, fileErrs, nil
}

// reindex refreshes one document's cards in the local index after a
// write-back rewrote its metadata block.
func (s *Service) reindex(file string) {
	data, err := s.store.Read(file)
	if err != nil {
		s.logger.Warn("sync: reindex read failed", slog.String("file", file), slog.String("error", err.Error()))
		return
	}
	res := s.parser.Parse(file, data)
	rows := make([]index.CardRow, 0, len(res.Cards))
	for _, c := range res.Cards {
		rows = append(rows, index.RowFromCard(c))
	}
	if err := s.db.ReplaceFileCards(file, identity.ContentHash(data), rows); err != nil {
		s.logger.Warn("sync: reindex failed", slog.String("file", file), slog.String("error", err.Error()))
	}
}
