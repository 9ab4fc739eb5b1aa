//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS cards_fts USING fts5(
			id UNINDEXED,
			deck,
			front,
			back,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id, deck, front, back string, tags []string) error {
	_, _ = tx.Exec(`DELETE FROM cards_fts WHERE id = ?`, id)
	_, err := tx.Exec(`INSERT INTO cards_fts (id, deck, front, back, tags) VALUES (?, ?, ?, ?, ?)`,
		id, deck, front, back, strings.Join(tags, " "))
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id string) {
	_, _ = tx.Exec(`DELETE FROM cards_fts WHERE id = ?`, id)
}

// Search performs an FTS5 full-text search over card content.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.id,
		       f.deck,
		       c.file,
		       c.line,
		       snippet(cards_fts, 2, '<b>', '</b>', '...', 64)
		FROM cards_fts f
		JOIN cards c ON c.id = f.id
		WHERE cards_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
