package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/workspace"
)

// multipartOverhead is allowed on top of the file size limit for the form
// envelope.
const multipartOverhead = 1 << 20

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Documents())
}

// GetDocument handles GET /api/documents/{id}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Document(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UploadDocument handles POST /api/documents (multipart/form-data, field
// "file"). It answers once extraction has finished: 201 with the completed
// document, or 502 with the document left in the error state.
//
//	@Summary	Upload a PDF or PowerPoint document
//	@Tags		documents
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Document"
//	@Success	201		{object}	models.Document
//	@Failure	413		{object}	errResponse
//	@Failure	415		{object}	errResponse
//	@Failure	502		{object}	DocumentFailure
//	@Router		/documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.policy.MaxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(h.policy.MaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if err := h.policy.Check(name, header.Size); err != nil {
		writeError(w, "upload document", err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	// Extraction outlives a client that hangs up; the outcome is recorded
	// on the document either way.
	ctx := context.WithoutCancel(r.Context())
	doc, err := h.store.UploadDocument(ctx, workspace.Upload{Name: name, Data: data})
	if err != nil {
		slog.Warn("document processing failed", slog.String("document_id", doc.ID), slog.String("error", err.Error()))
		writeJSON(w, statusFor(err), DocumentFailure{Error: doc.Error, Document: doc})
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// CreateNoteFromDocument handles POST /api/documents/{id}/notes.
func (h *Handler) CreateNoteFromDocument(w http.ResponseWriter, r *http.Request) {
	var req NoteFromDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := requireID(req.NotebookID, "notebook_id"); err != nil {
		writeError(w, "create note from document", err)
		return
	}
	n, err := h.store.CreateNoteFromDocument(chi.URLParam(r, "id"), req.NotebookID)
	if err != nil {
		writeError(w, "create note from document", err)
		return
	}
	writeNote(w, http.StatusCreated, n, req.NotebookID)
}

