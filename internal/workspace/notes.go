package workspace

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

// CreateNote adds a note to the notebook and makes it active. An empty
// title becomes models.DefaultNoteTitle. An unknown notebook is
// apperr.ErrNotFound and nothing is created.
func (s *Store) CreateNote(notebookID, title, content string) (models.Note, error) {
	var out models.Note
	err := s.mutate("create_note", func(t *txn) error {
		n, err := s.createNoteLocked(t, notebookID, title, content, "")
		out = n
		return err
	})
	return out, err
}

func (s *Store) createNoteLocked(t *txn, notebookID, title, content, sourceDocumentID string) (models.Note, error) {
	i := s.notebookIndex(notebookID)
	if i < 0 {
		return models.Note{}, fmt.Errorf("notebook %s: %w", notebookID, apperr.ErrNotFound)
	}
	if title == "" {
		title = models.DefaultNoteTitle
	}
	now := s.now()
	n := models.Note{
		ID:               s.newID(),
		Title:            title,
		Content:          content,
		CreatedAt:        now,
		UpdatedAt:        now,
		Tags:             []string{},
		SourceDocumentID: sourceDocumentID,
	}
	s.notes = append(s.notes, n)

	nb := &s.notebooks[i]
	nb.Notes = append(nb.Notes, n.ID)
	nb.UpdatedAt = s.stamp(nb.UpdatedAt)

	s.activeNoteID = n.ID
	s.indexNote(n, nb.ID)

	t.notes = true
	t.notebooks = true
	t.emit(NoteCreated, n.ID)
	t.emit(NotebookUpdated, nb.ID)
	t.emit(ActiveChanged, n.ID)
	return n.Clone(), nil
}

// UpdateNote replaces the editable fields of the note with n.ID and stamps
// a fresh, strictly later UpdatedAt. CreatedAt is preserved.
func (s *Store) UpdateNote(n models.Note) (models.Note, error) {
	return s.UpdateNoteIfMatch(n, "")
}

// UpdateNoteIfMatch is UpdateNote guarded by optimistic concurrency: when
// expected is non-empty it must equal checksum.Note of the stored note,
// otherwise apperr.ErrConflict is returned.
func (s *Store) UpdateNoteIfMatch(n models.Note, expected string) (models.Note, error) {
	var out models.Note
	err := s.mutate("update_note", func(t *txn) error {
		i := s.noteIndex(n.ID)
		if i < 0 {
			return fmt.Errorf("note %s: %w", n.ID, apperr.ErrNotFound)
		}
		cur := &s.notes[i]
		if expected != "" && expected != checksum.Note(*cur) {
			return fmt.Errorf("note %s: %w", n.ID, apperr.ErrConflict)
		}
		cur.Title = n.Title
		cur.Content = n.Content
		cur.Tags = append([]string{}, n.Tags...)
		cur.SourceDocumentID = n.SourceDocumentID
		cur.UpdatedAt = s.stamp(cur.UpdatedAt)

		s.indexNote(*cur, s.owner(cur.ID))
		t.notes = true
		t.emit(NoteUpdated, cur.ID)
		out = cur.Clone()
		return nil
	})
	return out, err
}

// DeleteNote removes the note and drops it from every notebook that lists
// it. The active note pointer is cleared if it pointed at the note.
func (s *Store) DeleteNote(id string) error {
	return s.mutate("delete_note", func(t *txn) error {
		i := s.noteIndex(id)
		if i < 0 {
			return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
		}
		s.notes = append(s.notes[:i:i], s.notes[i+1:]...)

		for j := range s.notebooks {
			nb := &s.notebooks[j]
			if !nb.Contains(id) {
				continue
			}
			kept := make([]string, 0, len(nb.Notes))
			for _, nid := range nb.Notes {
				if nid != id {
					kept = append(kept, nid)
				}
			}
			nb.Notes = kept
			nb.UpdatedAt = s.stamp(nb.UpdatedAt)
			t.notebooks = true
			t.emit(NotebookUpdated, nb.ID)
		}

		if s.activeNoteID == id {
			s.activeNoteID = ""
			t.emit(ActiveChanged, "")
		}
		s.unindexNote(id)
		t.notes = true
		t.emit(NoteDeleted, id)
		return nil
	})
}

// Notes returns a copy of every note in creation order.
func (s *Store) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Note, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Clone()
	}
	return out
}

// Note returns the note with id.
func (s *Store) Note(id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.noteIndex(id)
	if i < 0 {
		return models.Note{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	return s.notes[i].Clone(), nil
}

// NotebookOf returns the id of the notebook listing the note.
func (s *Store) NotebookOf(noteID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.owner(noteID)
	return id, id != ""
}
