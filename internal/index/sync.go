package index

import (
	"log/slog"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

// Sync brings the index up to date with the in-memory collections:
//   - new/changed notes are upserted
//   - notes no longer present are deleted
func Sync(db *DB, notes []models.Note, notebooks []models.Notebook, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	owner := make(map[string]string)
	for _, nb := range notebooks {
		for _, id := range nb.Notes {
			owner[id] = nb.ID
		}
	}

	live := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		live[n.ID] = struct{}{}
		if checksums[n.ID] == checksum.Note(n) {
			continue
		}
		if err := db.IndexNote(n, owner[n.ID]); err != nil {
			logger.Warn("sync: index failed", slog.String("note_id", n.ID), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("note_id", n.ID))
		}
	}

	for id := range checksums {
		if _, ok := live[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("note_id", id), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: removed stale", slog.String("note_id", id))
		}
	}

	return nil
}

// Reconcile runs Sync with the default logger.
func (db *DB) Reconcile(notes []models.Note, notebooks []models.Notebook) error {
	return Sync(db, notes, notebooks, slog.Default())
}
