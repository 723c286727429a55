// Package testutil provides shared fixtures for store, index and API tests.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/ingest"
	"github.com/starford/folio/internal/persist"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/workspace"
)

// Logger discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB creates a temporary SQLite index that is closed on cleanup.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "folio-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestAdapter creates a persistence adapter over a temporary directory.
func TestAdapter(t *testing.T) *persist.Adapter {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return persist.NewAdapter(fs, Logger(), nil)
}

// TestStore opens a store over a fresh adapter with an instant extractor.
func TestStore(t *testing.T, opts ...workspace.Option) (*workspace.Store, *persist.Adapter) {
	t.Helper()
	a := TestAdapter(t)
	opts = append([]workspace.Option{workspace.WithLogger(Logger())}, opts...)
	return workspace.Open(a, ingest.NewStub(0), opts...), a
}

// Clock is a manual clock advancing by Step on each call.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock starts a clock at start.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, Step: step}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}

// Change is one recorded notification.
type Change struct {
	Kind string
	ID   string
}

// Recorder collects store notifications.
type Recorder struct {
	mu      sync.Mutex
	changes []Change
}

// Changed implements workspace.Notifier.
func (r *Recorder) Changed(kind, id string) {
	r.mu.Lock()
	r.changes = append(r.changes, Change{Kind: kind, ID: id})
	r.mu.Unlock()
}

// Kinds returns the recorded kinds in order.
func (r *Recorder) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Kind
	}
	return out
}
