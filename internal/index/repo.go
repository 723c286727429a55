package index

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID         string
	NotebookID string
	Title      string
	Checksum   string
	Tags       []string
	UpdatedAt  time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	NoteID     string `json:"noteId"`
	NotebookID string `json:"notebookId"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// IndexNote upserts n as belonging to notebookID.
func (db *DB) IndexNote(n models.Note, notebookID string) error {
	return db.UpsertNote(NoteRow{
		ID:         n.ID,
		NotebookID: notebookID,
		Title:      n.Title,
		Checksum:   checksum.Note(n),
		Tags:       n.Tags,
		UpdatedAt:  n.UpdatedAt,
	}, n.Content)
}

// UpsertNote inserts or replaces a note row and its FTS entry within a transaction.
func (db *DB) UpsertNote(n NoteRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, _ := json.Marshal(tags)

	_, err = tx.Exec(`
		INSERT INTO notes (id, notebook_id, title, checksum, tags, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			notebook_id = excluded.notebook_id,
			title       = excluded.title,
			checksum    = excluded.checksum,
			tags        = excluded.tags,
			body        = excluded.body,
			updated_at  = excluded.updated_at
	`, n.ID, n.NotebookID, n.Title, n.Checksum, string(tagsJSON), body, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert note: %w", err)
	}

	if err := ftsUpsert(tx, n.ID, n.Title, body, tags); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteNote removes a note and its FTS entry.
func (db *DB) DeleteNote(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete note: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a note, or empty string if not found.
func (db *DB) GetChecksum(id string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM notes WHERE id = ?`, id).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// AllChecksums returns the checksum of every indexed note keyed by id.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT id, checksum FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, cs string
		if err := rows.Scan(&id, &cs); err != nil {
			return nil, err
		}
		out[id] = cs
	}
	return out, rows.Err()
}

// NotebookOf returns the notebook id a note was indexed under.
func (db *DB) NotebookOf(id string) (string, error) {
	var nb string
	err := db.conn.QueryRow(`SELECT notebook_id FROM notes WHERE id = ?`, id).Scan(&nb)
	if err != nil {
		return "", fmt.Errorf("index: notebook of %s: %w", id, err)
	}
	return nb, nil
}
