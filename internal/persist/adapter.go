// Package persist mirrors the in-memory workspace collections to storage.
//
// Each collection is one JSON array stored under a fixed key. Every save
// rewrites the whole collection; there is no transaction spanning
// collections.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// Collection names a persisted collection.
type Collection string

const (
	Notes     Collection = "notes"
	Notebooks Collection = "notebooks"
	Documents Collection = "documents"
	Chat      Collection = "chat"
)

const keySuffix = ".json"

// Collections lists every persisted collection.
var Collections = []Collection{Notes, Notebooks, Documents, Chat}

// Key returns the storage key of c.
func (c Collection) Key() string { return string(c) + keySuffix }

// collectionForKey maps a storage key back to its collection.
func collectionForKey(key string) (Collection, bool) {
	name := strings.TrimSuffix(key, keySuffix)
	for _, c := range Collections {
		if string(c) == name && strings.HasSuffix(key, keySuffix) {
			return c, true
		}
	}
	return "", false
}

// Adapter loads and saves collections through a storage.Provider.
type Adapter struct {
	store   storage.Provider
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	seen map[Collection]string // checksum of the last bytes read or written
}

// NewAdapter creates an adapter over store. m may be nil.
func NewAdapter(store storage.Provider, logger *slog.Logger, m *metrics.Metrics) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		store:   store,
		logger:  logger,
		metrics: m,
		seen:    make(map[Collection]string),
	}
	a.scan()
	return a
}

// scan records the checksum of every collection already on disk, so the
// watcher ignores events for bytes it has seen, and logs stray files.
func (a *Adapter) scan() {
	entries, err := a.store.List(keySuffix)
	if err != nil {
		a.logger.Warn("persist: scan failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		c, ok := collectionForKey(e.Key)
		if !ok {
			a.logger.Warn("persist: ignoring unknown collection file", slog.String("key", e.Key))
			continue
		}
		a.seen[c] = e.Checksum
	}
}

// Root returns the directory backing the adapter.
func (a *Adapter) Root() string { return a.store.Root() }

// LoadNotes returns the persisted notes, or an empty slice.
func (a *Adapter) LoadNotes() []models.Note { return load[models.Note](a, Notes) }

// LoadNotebooks returns the persisted notebooks, or an empty slice.
func (a *Adapter) LoadNotebooks() []models.Notebook { return load[models.Notebook](a, Notebooks) }

// LoadDocuments returns the persisted documents, or an empty slice.
func (a *Adapter) LoadDocuments() []models.Document { return load[models.Document](a, Documents) }

// LoadChat returns the persisted chat transcript, or an empty slice.
func (a *Adapter) LoadChat() []models.ChatMessage { return load[models.ChatMessage](a, Chat) }

// SaveNotes rewrites the notes collection.
func (a *Adapter) SaveNotes(v []models.Note) error { return save(a, Notes, v) }

// SaveNotebooks rewrites the notebooks collection.
func (a *Adapter) SaveNotebooks(v []models.Notebook) error { return save(a, Notebooks, v) }

// SaveDocuments rewrites the documents collection.
func (a *Adapter) SaveDocuments(v []models.Document) error { return save(a, Documents, v) }

// SaveChat rewrites the chat collection.
func (a *Adapter) SaveChat(v []models.ChatMessage) error { return save(a, Chat, v) }

// Changed reports whether data differs from the last bytes the adapter
// read or wrote for c.
func (a *Adapter) Changed(c Collection, data []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.seen[c] != checksum.Sum(data)
}

func (a *Adapter) remember(c Collection, data []byte) {
	a.mu.Lock()
	a.seen[c] = checksum.Sum(data)
	a.mu.Unlock()
}

// load never fails: absent or malformed collections are logged and
// replaced by an empty slice.
func load[T any](a *Adapter, c Collection) []T {
	data, err := a.store.Read(c.Key())
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			a.logger.Error("persist: load failed",
				slog.String("collection", string(c)),
				slog.String("error", err.Error()))
			a.metrics.PersistError(string(c), "load")
		}
		return []T{}
	}
	a.remember(c, data)

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		a.logger.Error("persist: decode failed",
			slog.String("collection", string(c)),
			slog.String("error", err.Error()))
		a.metrics.PersistError(string(c), "decode")
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

func save[T any](a *Adapter, c Collection, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		a.metrics.PersistError(string(c), "encode")
		return fmt.Errorf("persist: encode %s: %w", c, err)
	}
	// Remember before writing so the watcher never mistakes our own write
	// for an external change.
	a.remember(c, data)
	if err := a.store.Write(c.Key(), data); err != nil {
		a.metrics.PersistError(string(c), "save")
		return fmt.Errorf("persist: save %s: %w", c, err)
	}
	return nil
}
