package index

import (
	"log/slog"

	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
)

// Sync walks the flashcards folder and brings the card index up to date:
//   - new/changed documents are re-parsed and their cards replaced
//   - documents removed from disk are deleted from the index
//
// This is a local bookkeeping pass only; it never talks to the remote store.
func Sync(db *DB, store storage.Provider, p *parser.Parser, folder string, logger *slog.Logger) error {
	docs, err := store.List(folder)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		disk[d.Path] = struct{}{}

		if checksums[d.Path] == d.Checksum {
			continue
		}

		data, err := store.Read(d.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", d.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexDocument(db, p, d.Path, d.Checksum, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", d.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", d.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexDocument parses data and replaces the document's cards in the index.
func indexDocument(db *DB, p *parser.Parser, path, checksum string, data []byte) error {
	res := p.Parse(path, data)
	rows := make([]CardRow, 0, len(res.Cards))
	for _, c := range res.Cards {
		rows = append(rows, RowFromCard(c))
	}
	return db.ReplaceFileCards(path, checksum, rows)
}
