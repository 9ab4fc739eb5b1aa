package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/mimir/internal/models"
)

// CardRow represents a row in the cards table.
type CardRow struct {
	ID        string
	Deck      string
	Front     string
	Back      string
	FrontRaw  string
	BackRaw   string
	Tags      []string
	File      string
	Line      int
	NoteID    int64
	UpdatedAt time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Deck    string
	File    string
	Line    int
	Snippet string
}

// RowFromCard converts a parsed card into its index representation.
func RowFromCard(c models.Card) CardRow {
	return CardRow{
		ID:       c.ID,
		Deck:     c.Deck,
		Front:    c.Front,
		Back:     c.Back,
		FrontRaw: c.FrontRaw,
		BackRaw:  c.BackRaw,
		Tags:     c.Tags,
		File:     c.File,
		Line:     c.Line,
		NoteID:   c.NoteID,
	}
}

// Card converts a row back into the domain type.
func (r CardRow) Card() models.Card {
	return models.Card{
		ID:       r.ID,
		Front:    r.Front,
		Back:     r.Back,
		FrontRaw: r.FrontRaw,
		BackRaw:  r.BackRaw,
		Deck:     r.Deck,
		Tags:     r.Tags,
		File:     r.File,
		Line:     r.Line,
		NoteID:   r.NoteID,
	}
}

// ReplaceFileCards replaces every indexed card of one document within a
// transaction and records the document checksum.
func (db *DB) ReplaceFileCards(path, checksum string, rows []CardRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	old, err := fileCardIDs(tx, path)
	if err != nil {
		return err
	}
	for _, id := range old {
		ftsDelete(tx, id)
	}
	if _, err := tx.Exec(`DELETE FROM cards WHERE file = ?`, path); err != nil {
		return fmt.Errorf("index: clear file cards: %w", err)
	}

	now := time.Now()
	for _, r := range rows {
		tagsJSON, _ := json.Marshal(r.Tags)
		_, err := tx.Exec(`
			INSERT INTO cards (id, deck, front, back, front_raw, back_raw, tags, file, line, note_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				deck       = excluded.deck,
				front      = excluded.front,
				back       = excluded.back,
				front_raw  = excluded.front_raw,
				back_raw   = excluded.back_raw,
				tags       = excluded.tags,
				file       = excluded.file,
				line       = excluded.line,
				note_id    = excluded.note_id,
				updated_at = excluded.updated_at
		`, r.ID, r.Deck, r.Front, r.Back, r.FrontRaw, r.BackRaw, string(tagsJSON), r.File, r.Line, r.NoteID, now)
		if err != nil {
			return fmt.Errorf("index: upsert card: %w", err)
		}
		if err := ftsUpsert(tx, r.ID, r.Deck, r.FrontRaw, r.BackRaw, r.Tags); err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO documents (path, checksum, card_count, indexed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			card_count = excluded.card_count,
			indexed_at = excluded.indexed_at
	`, path, checksum, len(rows), now)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}

	return tx.Commit()
}

// DeleteFile removes a document and all its cards from the index.
func (db *DB) DeleteFile(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	old, err := fileCardIDs(tx, path)
	if err != nil {
		return err
	}
	for _, id := range old {
		ftsDelete(tx, id)
	}
	_, _ = tx.Exec(`DELETE FROM cards WHERE file = ?`, path)
	_, _ = tx.Exec(`DELETE FROM documents WHERE path = ?`, path)

	return tx.Commit()
}

// ListCards returns cards filtered by deck, tag, and file, ordered by file
// then line so document order is preserved.
func (db *DB) ListCards(limit, offset int, deck, tag, file string) ([]CardRow, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	where := `WHERE 1=1`
	var args []any
	if deck != "" {
		where += ` AND deck = ?`
		args = append(args, deck)
	}
	if tag != "" {
		// Tags are stored as a JSON array of strings.
		where += ` AND tags LIKE ?`
		args = append(args, `%"`+tag+`"%`)
	}
	if file != "" {
		where += ` AND file = ?`
		args = append(args, file)
	}

	var total int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count cards: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT id, deck, front, back, front_raw, back_raw, tags, file, line, note_id, updated_at
		FROM cards `+where+`
		ORDER BY file, line
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list cards: %w", err)
	}
	defer rows.Close()

	var out []CardRow
	for rows.Next() {
		r, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// CountCards returns the total number of indexed cards.
func (db *DB) CountCards() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

// AllChecksums returns the stored checksum for every indexed document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(rs rowScanner) (CardRow, error) {
	var r CardRow
	var tagsJSON string
	if err := rs.Scan(&r.ID, &r.Deck, &r.Front, &r.Back, &r.FrontRaw, &r.BackRaw,
		&tagsJSON, &r.File, &r.Line, &r.NoteID, &r.UpdatedAt); err != nil {
		return r, fmt.Errorf("index: scan card: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
		r.Tags = nil
	}
	return r, nil
}

func fileCardIDs(tx querier, path string) ([]string, error) {
	rows, err := tx.Query(`SELECT id FROM cards WHERE file = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("index: file cards: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}
