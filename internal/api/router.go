package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/upload"
	"github.com/starford/folio/internal/workspace"
)

// Deps are the services behind the API.
type Deps struct {
	Store  *workspace.Store
	Chat   *chat.Service
	Policy upload.Policy
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := &Handler{store: d.Store, chat: d.Chat, policy: d.Policy}

	r := chi.NewRouter()

	r.Route("/notebooks", func(r chi.Router) {
		r.Get("/", h.ListNotebooks)
		r.Post("/", h.CreateNotebook)
		r.Put("/{id}", h.UpdateNotebook)
		r.Delete("/{id}", h.DeleteNotebook)
		r.Get("/{id}/notes", h.ListNotebookNotes)
		r.Post("/{id}/notes", h.CreateNote)
		r.Post("/{id}/import", h.ImportNote)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", h.ListNotes)
		r.Get("/{id}", h.GetNote)
		r.Put("/{id}", h.UpdateNote)
		r.Delete("/{id}", h.DeleteNote)
		r.Get("/{id}/export", h.ExportNote)
	})

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", h.ListDocuments)
		r.Post("/", h.UploadDocument)
		r.Get("/{id}", h.GetDocument)
		r.Post("/{id}/notes", h.CreateNoteFromDocument)
	})

	r.Get("/active", h.GetActive)
	r.Put("/active/note", h.SetActiveNote)
	r.Put("/active/notebook", h.SetActiveNotebook)

	r.Get("/chat", h.ChatHistory)
	r.Post("/chat", h.Ask)
	r.Delete("/chat", h.ClearChat)

	r.Get("/search", h.Search)

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
