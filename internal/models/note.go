// Package models defines the domain types for Folio.
package models

import "time"

// DefaultNoteTitle is used when a note is created without a title.
const DefaultNoteTitle = "Untitled Note"

// Note is a titled, tagged, freeform text entry owned by one notebook.
type Note struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Tags             []string  `json:"tags"`
	SourceDocumentID string    `json:"sourceDocumentId,omitempty"`
}

// Clone returns a copy that shares no mutable state with n.
func (n Note) Clone() Note {
	out := n
	out.Tags = append(make([]string, 0, len(n.Tags)), n.Tags...)
	return out
}

// Notebook is a named container holding an ordered list of note IDs.
type Notebook struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     []string  `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with nb.
func (nb Notebook) Clone() Notebook {
	out := nb
	out.Notes = append(make([]string, 0, len(nb.Notes)), nb.Notes...)
	return out
}

// Contains reports whether noteID is in the membership list.
func (nb Notebook) Contains(noteID string) bool {
	for _, id := range nb.Notes {
		if id == noteID {
			return true
		}
	}
	return false
}
