package workspace

import (
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// SetActiveNote points the active note at id; an empty id clears it.
func (s *Store) SetActiveNote(id string) error {
	return s.mutate("set_active_note", func(t *txn) error {
		if id != "" && s.noteIndex(id) < 0 {
			return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
		}
		s.activeNoteID = id
		t.emit(ActiveChanged, id)
		return nil
	})
}

// SetActiveNotebook points the active notebook at id; an empty id clears it.
func (s *Store) SetActiveNotebook(id string) error {
	return s.mutate("set_active_notebook", func(t *txn) error {
		if id != "" && s.notebookIndex(id) < 0 {
			return fmt.Errorf("notebook %s: %w", id, apperr.ErrNotFound)
		}
		s.activeNotebookID = id
		t.emit(ActiveChanged, id)
		return nil
	})
}

// ActiveNote returns the current contents of the active note.
func (s *Store) ActiveNote() (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.noteIndex(s.activeNoteID); s.activeNoteID != "" && i >= 0 {
		return s.notes[i].Clone(), true
	}
	return models.Note{}, false
}

// ActiveNotebook returns the current contents of the active notebook.
func (s *Store) ActiveNotebook() (models.Notebook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.notebookIndex(s.activeNotebookID); s.activeNotebookID != "" && i >= 0 {
		return s.notebooks[i].Clone(), true
	}
	return models.Notebook{}, false
}
