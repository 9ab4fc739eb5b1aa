//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses a LIKE fallback on the cards table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _, _, _, _ string, _ []string) error {
	// Raw card text is already stored in the cards table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, deck, file, line, substr(front_raw, 1, 200)
		FROM cards
		WHERE front_raw LIKE ? OR back_raw LIKE ? OR tags LIKE ?
		ORDER BY file, line
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.ID, &r.Deck, &r.File, &r.Line, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
