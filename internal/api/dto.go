package api

import (
	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/models"
)

// TitleRequest is the body for creating or renaming a notebook.
type TitleRequest struct {
	Title string `json:"title" example:"Work"`
}

// CreateNoteRequest is the body for creating a note in a notebook.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Draft"`
	Content string `json:"content" example:"Hello"`
}

// UpdateNoteRequest carries the fields to change; nil fields are kept.
type UpdateNoteRequest struct {
	Title   *string  `json:"title,omitempty"`
	Content *string  `json:"content,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// NoteFromDocumentRequest names the notebook receiving the new note.
type NoteFromDocumentRequest struct {
	NotebookID string `json:"notebook_id" validate:"required"`
}

// ActiveRequest selects a note or notebook; an empty id clears it.
type ActiveRequest struct {
	ID string `json:"id"`
}

// ChatRequest is one prompt to the assistant.
type ChatRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	DocumentID string `json:"documentId,omitempty"`
}

// NoteResponse is a note with its checksum, usable as If-Match.
type NoteResponse struct {
	models.Note
	Checksum   string `json:"checksum"`
	NotebookID string `json:"notebookId,omitempty"`
}

func noteResponse(n models.Note, notebookID string) NoteResponse {
	return NoteResponse{Note: n, Checksum: checksum.Note(n), NotebookID: notebookID}
}

// ActiveResponse reports the current selection.
type ActiveResponse struct {
	Note     *models.Note     `json:"note"`
	Notebook *models.Notebook `json:"notebook"`
}

// DocumentFailure is returned when text extraction fails; the document is
// kept in the error state.
type DocumentFailure struct {
	Error    string          `json:"error"`
	Document models.Document `json:"document"`
}
