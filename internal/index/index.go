package index

import "github.com/starford/folio/internal/models"

// NoteIndex is the surface the workspace store writes through.
type NoteIndex interface {
	IndexNote(n models.Note, notebookID string) error
	DeleteNote(id string) error
	Search(query string, limit int) ([]SearchResult, error)
	Reconcile(notes []models.Note, notebooks []models.Notebook) error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)
