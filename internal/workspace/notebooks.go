package workspace

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// CreateNotebook appends an empty notebook and makes it active.
// Titles need not be unique.
func (s *Store) CreateNotebook(title string) models.Notebook {
	var out models.Notebook
	_ = s.mutate("create_notebook", func(t *txn) error {
		now := s.now()
		nb := models.Notebook{
			ID:        s.newID(),
			Title:     title,
			Notes:     []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.notebooks = append(s.notebooks, nb)
		s.activeNotebookID = nb.ID
		t.notebooks = true
		t.emit(NotebookCreated, nb.ID)
		t.emit(ActiveChanged, nb.ID)
		out = nb.Clone()
		return nil
	})
	return out
}

// UpdateNotebook renames the notebook with nb.ID. The membership list is
// owned by the store; the caller's copy of it is ignored.
func (s *Store) UpdateNotebook(nb models.Notebook) (models.Notebook, error) {
	var out models.Notebook
	err := s.mutate("update_notebook", func(t *txn) error {
		i := s.notebookIndex(nb.ID)
		if i < 0 {
			return fmt.Errorf("notebook %s: %w", nb.ID, apperr.ErrNotFound)
		}
		cur := &s.notebooks[i]
		cur.Title = nb.Title
		cur.UpdatedAt = s.stamp(cur.UpdatedAt)
		t.notebooks = true
		t.emit(NotebookUpdated, cur.ID)
		out = cur.Clone()
		return nil
	})
	return out, err
}

// DeleteNotebook removes the notebook and every note it lists. Active
// pointers to the notebook or any of those notes are cleared.
func (s *Store) DeleteNotebook(id string) error {
	return s.mutate("delete_notebook", func(t *txn) error {
		i := s.notebookIndex(id)
		if i < 0 {
			return fmt.Errorf("notebook %s: %w", id, apperr.ErrNotFound)
		}
		doomed := s.notebooks[i]

		kept := make([]models.Note, 0, len(s.notes))
		for _, n := range s.notes {
			if doomed.Contains(n.ID) {
				s.unindexNote(n.ID)
				t.emit(NoteDeleted, n.ID)
				if s.activeNoteID == n.ID {
					s.activeNoteID = ""
					t.emit(ActiveChanged, "")
				}
				continue
			}
			kept = append(kept, n)
		}
		s.notes = kept
		s.notebooks = append(s.notebooks[:i:i], s.notebooks[i+1:]...)

		if s.activeNotebookID == id {
			s.activeNotebookID = ""
			t.emit(ActiveChanged, "")
		}
		t.notes = true
		t.notebooks = true
		t.emit(NotebookDeleted, id)
		return nil
	})
}

// Notebooks returns a copy of every notebook in creation order.
func (s *Store) Notebooks() []models.Notebook {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notebook, len(s.notebooks))
	for i, nb := range s.notebooks {
		out[i] = nb.Clone()
	}
	return out
}

// Notebook returns the notebook with id.
func (s *Store) Notebook(id string) (models.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.notebookIndex(id)
	if i < 0 {
		return models.Notebook{}, fmt.Errorf("notebook %s: %w", id, apperr.ErrNotFound)
	}
	return s.notebooks[i].Clone(), nil
}

// NotesIn returns the notes of a notebook in membership order.
func (s *Store) NotesIn(notebookID string) ([]models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.notebookIndex(notebookID)
	if i < 0 {
		return nil, fmt.Errorf("notebook %s: %w", notebookID, apperr.ErrNotFound)
	}
	out := make([]models.Note, 0, len(s.notebooks[i].Notes))
	for _, id := range s.notebooks[i].Notes {
		if j := s.noteIndex(id); j >= 0 {
			out = append(out, s.notes[j].Clone())
		}
	}
	return out, nil
}
