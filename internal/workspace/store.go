// Package workspace is the in-memory source of truth for notebooks, notes
// and documents, mirrored to persistent storage after every mutation.
//
// Every operation runs as one atomic transition under the store lock, so a
// notebook's membership list and the note collection never disagree. The
// only blocking step, text extraction, runs outside the lock.
package workspace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/ingest"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/persist"
)

// DefaultNotebookTitle names the notebook created for an empty workspace.
const DefaultNotebookTitle = "My First Notebook"

// Change kinds reported to the Notifier.
const (
	NotebookCreated   = "notebook.created"
	NotebookUpdated   = "notebook.updated"
	NotebookDeleted   = "notebook.deleted"
	NoteCreated       = "note.created"
	NoteUpdated       = "note.updated"
	NoteDeleted       = "note.deleted"
	DocumentCreated   = "document.created"
	DocumentUpdated   = "document.updated"
	ActiveChanged     = "active.changed"
	WorkspaceReloaded = "workspace.reloaded"
)

// Notifier receives a notification after each committed change.
type Notifier interface {
	Changed(kind, id string)
}

// Store owns the workspace state.
type Store struct {
	persist   *persist.Adapter
	extractor ingest.Extractor
	index     index.NoteIndex
	notifier  Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu               sync.Mutex
	notes            []models.Note
	notebooks        []models.Notebook
	documents        []models.Document
	activeNoteID     string
	activeNotebookID string
}

// Option configures a Store.
type Option func(*Store)

// WithIndex mirrors note changes into a search index.
func WithIndex(idx index.NoteIndex) Option {
	return func(s *Store) { s.index = idx }
}

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the random UUID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// Open loads every collection through adapter and returns the store.
// A workspace without notebooks gets DefaultNotebookTitle, made active.
func Open(adapter *persist.Adapter, extractor ingest.Extractor, opts ...Option) *Store {
	s := &Store{
		persist:   adapter,
		extractor: extractor,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.notes = adapter.LoadNotes()
	s.notebooks = adapter.LoadNotebooks()
	s.documents = adapter.LoadDocuments()

	// Documents interrupted mid-extraction by a restart can never finish.
	var interrupted bool
	for i := range s.documents {
		if !s.documents[i].ProcessingStatus.Terminal() {
			s.documents[i].ProcessingStatus = models.StatusError
			s.documents[i].Error = "processing interrupted"
			interrupted = true
		}
	}
	if interrupted {
		s.save(&txn{documents: true})
	}

	if s.index != nil {
		if err := s.index.Reconcile(s.notes, s.notebooks); err != nil {
			s.logger.Warn("workspace: index reconcile failed", slog.String("error", err.Error()))
		}
	}

	if len(s.notebooks) == 0 {
		s.CreateNotebook(DefaultNotebookTitle)
	}

	s.logger.Info("workspace: loaded",
		slog.Int("notes", len(s.notes)),
		slog.Int("notebooks", len(s.notebooks)),
		slog.Int("documents", len(s.documents)))
	return s
}

type change struct {
	kind string
	id   string
}

// txn records what a transition touched.
type txn struct {
	notes, notebooks, documents bool
	changes                     []change
}

func (t *txn) emit(kind, id string) {
	t.changes = append(t.changes, change{kind: kind, id: id})
}

// mutate runs fn under the lock; on success the touched collections are
// persisted before the lock is released and notifications are sent after.
func (s *Store) mutate(op string, fn func(t *txn) error) error {
	t := &txn{}
	s.mu.Lock()
	err := fn(t)
	if err == nil {
		s.save(t)
		s.metrics.Mutation(op)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if s.notifier != nil {
		for _, c := range t.changes {
			s.notifier.Changed(c.kind, c.id)
		}
	}
	return nil
}

// save writes the collections t touched. Failures are logged; the
// in-memory state stays authoritative.
func (s *Store) save(t *txn) {
	var errs []error
	if t.notes {
		errs = append(errs, s.persist.SaveNotes(s.notes))
	}
	if t.notebooks {
		errs = append(errs, s.persist.SaveNotebooks(s.notebooks))
	}
	if t.documents {
		errs = append(errs, s.persist.SaveDocuments(s.documents))
	}
	for _, err := range errs {
		if err != nil {
			s.logger.Error("workspace: persist failed", slog.String("error", err.Error()))
		}
	}
}

// stamp returns the current time, strictly after prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func (s *Store) indexNote(n models.Note, notebookID string) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexNote(n, notebookID); err != nil {
		s.logger.Warn("workspace: index note failed", slog.String("note_id", n.ID), slog.String("error", err.Error()))
	}
}

func (s *Store) unindexNote(id string) {
	if s.index == nil {
		return
	}
	if err := s.index.DeleteNote(id); err != nil {
		s.logger.Warn("workspace: unindex note failed", slog.String("note_id", id), slog.String("error", err.Error()))
	}
}

// Reload replaces collection c with what is currently persisted, typically
// after another process rewrote it. Active pointers to vanished entries are
// cleared. The chat collection is not owned by the store and is ignored.
func (s *Store) Reload(c persist.Collection) {
	_ = s.mutate("reload", func(t *txn) error {
		switch c {
		case persist.Notes:
			s.notes = s.persist.LoadNotes()
		case persist.Notebooks:
			s.notebooks = s.persist.LoadNotebooks()
		case persist.Documents:
			s.documents = s.persist.LoadDocuments()
		default:
			return nil
		}
		if s.activeNoteID != "" && s.noteIndex(s.activeNoteID) < 0 {
			s.activeNoteID = ""
		}
		if s.activeNotebookID != "" && s.notebookIndex(s.activeNotebookID) < 0 {
			s.activeNotebookID = ""
		}
		if s.index != nil && (c == persist.Notes || c == persist.Notebooks) {
			if err := s.index.Reconcile(s.notes, s.notebooks); err != nil {
				s.logger.Warn("workspace: index reconcile failed", slog.String("error", err.Error()))
			}
		}
		s.logger.Info("workspace: reloaded", slog.String("collection", string(c)))
		t.emit(WorkspaceReloaded, string(c))
		return nil
	})
}

func (s *Store) noteIndex(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notebookIndex(id string) int {
	for i := range s.notebooks {
		if s.notebooks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) documentIndex(id string) int {
	for i := range s.documents {
		if s.documents[i].ID == id {
			return i
		}
	}
	return -1
}

// owner returns the id of the notebook listing noteID, or "".
func (s *Store) owner(noteID string) string {
	for _, nb := range s.notebooks {
		if nb.Contains(noteID) {
			return nb.ID
		}
	}
	return ""
}
