package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/upload"
	"github.com/starford/folio/internal/workspace"
)

// Handler holds API route handlers.
type Handler struct {
	store  *workspace.Store
	chat   *chat.Service
	policy upload.Policy
}

// ListNotebooks handles GET /api/notebooks.
//
//	@Summary	List notebooks in creation order
//	@Tags		notebooks
//	@Produce	json
//	@Success	200	{array}	models.Notebook
//	@Router		/notebooks [get]
func (h *Handler) ListNotebooks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Notebooks())
}

// CreateNotebook handles POST /api/notebooks.
//
//	@Summary	Create a notebook and make it active
//	@Tags		notebooks
//	@Accept		json
//	@Produce	json
//	@Param		body	body		TitleRequest	true	"Notebook"
//	@Success	201		{object}	models.Notebook
//	@Failure	400		{object}	errResponse
//	@Router		/notebooks [post]
func (h *Handler) CreateNotebook(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	writeJSON(w, http.StatusCreated, h.store.CreateNotebook(title))
}

// UpdateNotebook handles PUT /api/notebooks/{id}.
//
//	@Summary	Rename a notebook
//	@Tags		notebooks
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"Notebook ID"
//	@Param		body	body		TitleRequest	true	"New title"
//	@Success	200		{object}	models.Notebook
//	@Failure	404		{object}	errResponse
//	@Router		/notebooks/{id} [put]
func (h *Handler) UpdateNotebook(w http.ResponseWriter, r *http.Request) {
	var req TitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	nb, err := h.store.UpdateNotebook(models.Notebook{ID: chi.URLParam(r, "id"), Title: title})
	if err != nil {
		writeError(w, "update notebook", err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// DeleteNotebook handles DELETE /api/notebooks/{id}. Its notes go with it.
//
//	@Summary	Delete a notebook and its notes
//	@Tags		notebooks
//	@Param		id	path	string	true	"Notebook ID"
//	@Success	204	"Notebook deleted"
//	@Failure	404	{object}	errResponse
//	@Router		/notebooks/{id} [delete]
func (h *Handler) DeleteNotebook(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNotebook(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete notebook", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListNotebookNotes handles GET /api/notebooks/{id}/notes.
func (h *Handler) ListNotebookNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes, err := h.store.NotesIn(id)
	if err != nil {
		writeError(w, "list notebook notes", err)
		return
	}
	out := make([]NoteResponse, len(notes))
	for i, n := range notes {
		out[i] = noteResponse(n, id)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateNote handles POST /api/notebooks/{id}/notes.
//
//	@Summary	Create a note in a notebook and make it active
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Notebook ID"
//	@Param		body	body		CreateNoteRequest	true	"Note"
//	@Success	201		{object}	NoteResponse
//	@Failure	404		{object}	errResponse
//	@Router		/notebooks/{id}/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	n, err := h.store.CreateNote(id, req.Title, req.Content)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeNote(w, http.StatusCreated, n, id)
}

// ImportNote handles POST /api/notebooks/{id}/import with a Markdown body.
func (h *Handler) ImportNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	doc := markdown.Parse(data)

	id := chi.URLParam(r, "id")
	n, err := h.store.CreateNote(id, doc.Title, doc.Content)
	if err != nil {
		writeError(w, "import note", err)
		return
	}
	if len(doc.Tags) > 0 || doc.SourceDocumentID != "" {
		n.Tags = doc.Tags
		n.SourceDocumentID = doc.SourceDocumentID
		if n, err = h.store.UpdateNote(n); err != nil {
			writeError(w, "import note", err)
			return
		}
	}
	writeNote(w, http.StatusCreated, n, id)
}

// ListNotes handles GET /api/notes.
func (h *Handler) ListNotes(w http.ResponseWriter, _ *http.Request) {
	notes := h.store.Notes()
	out := make([]NoteResponse, len(notes))
	for i, n := range notes {
		nb, _ := h.store.NotebookOf(n.ID)
		out[i] = noteResponse(n, nb)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary	Get a note
//	@Tags		notes
//	@Produce	json
//	@Param		id	path		string	true	"Note ID"
//	@Success	200	{object}	NoteResponse
//	@Failure	404	{object}	errResponse
//	@Router		/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Note(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	nb, _ := h.store.NotebookOf(n.ID)
	writeNote(w, http.StatusOK, n, nb)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary	Update a note with optimistic concurrency
//	@Tags		notes
//	@Accept		json
//	@Produce	json
//	@Param		id			path		string				true	"Note ID"
//	@Param		If-Match	header		string				false	"Checksum from a previous read"
//	@Param		body		body		UpdateNoteRequest	true	"Fields to change"
//	@Success	200			{object}	NoteResponse
//	@Failure	404			{object}	errResponse
//	@Failure	412			{object}	errResponse
//	@Router		/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.store.Note(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if req.Tags != nil {
		n.Tags = req.Tags
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	n, err = h.store.UpdateNoteIfMatch(n, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	nb, _ := h.store.NotebookOf(n.ID)
	writeNote(w, http.StatusOK, n, nb)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNote(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportNote handles GET /api/notes/{id}/export as a Markdown download.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Note(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "export note", err)
		return
	}
	data, err := markdown.Render(n)
	if err != nil {
		writeError(w, "export note", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": n.Title + ".md"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeNote(w http.ResponseWriter, status int, n models.Note, notebookID string) {
	resp := noteResponse(n, notebookID)
	w.Header().Set("ETag", strconv.Quote(resp.Checksum))
	writeJSON(w, status, resp)
}

// GetActive handles GET /api/active.
func (h *Handler) GetActive(w http.ResponseWriter, _ *http.Request) {
	var resp ActiveResponse
	if n, ok := h.store.ActiveNote(); ok {
		resp.Note = &n
	}
	if nb, ok := h.store.ActiveNotebook(); ok {
		resp.Notebook = &nb
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetActiveNote handles PUT /api/active/note.
func (h *Handler) SetActiveNote(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.store.SetActiveNote)
}

// SetActiveNotebook handles PUT /api/active/notebook.
func (h *Handler) SetActiveNotebook(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.store.SetActiveNotebook)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, set func(id string) error) {
	var req ActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := set(req.ID); err != nil {
		writeError(w, "set active", err)
		return
	}
	h.GetActive(w, r)
}

// ChatHistory handles GET /api/chat.
func (h *Handler) ChatHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.chat.History())
}

// Ask handles POST /api/chat and returns the assistant's reply.
//
//	@Summary	Ask the assistant
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		body	body		ChatRequest	true	"Prompt"
//	@Success	200		{object}	models.ChatMessage
//	@Failure	400		{object}	errResponse
//	@Router		/chat [post]
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reply, err := h.chat.Ask(r.Context(), req.Prompt, req.DocumentID)
	if err != nil {
		writeError(w, "chat", err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// ClearChat handles DELETE /api/chat.
func (h *Handler) ClearChat(w http.ResponseWriter, _ *http.Request) {
	h.chat.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary	Search notebooks, documents and notes
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max note results"
//	@Success	200		{object}	workspace.SearchResults
//	@Failure	400		{object}	errResponse
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, http.StatusOK, h.store.Search(q, limit))
}

// requireID rejects empty ids before they reach the store.
func requireID(id, what string) error {
	if id == "" {
		return fmt.Errorf("%s is required: %w", what, apperr.ErrValidation)
	}
	return nil
}
