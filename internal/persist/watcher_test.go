package persist

import (
	"context"
	"testing"
	"time"

	"github.com/starford/folio/internal/models"
)

func TestWatchReportsExternalWrite(t *testing.T) {
	a, fs := testAdapter(t)
	if err := a.SaveNotes([]models.Note{{ID: "mine"}}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Collection, 4)
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, a, a.logger, func(c Collection) { got <- c })
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	// Another process rewrites notebooks.
	if err := fs.Write(Notebooks.Key(), []byte(`[{"id":"theirs"}]`)); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c != Notebooks {
			t.Errorf("collection = %q, want notebooks", c)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for reload callback")
	}

	cancel()
	<-done
}

func TestWatchIgnoresOwnWrites(t *testing.T) {
	a, _ := testAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Collection, 4)
	done := make(chan struct{})
	go func() {
		_ = Watch(ctx, a, a.logger, func(c Collection) { got <- c })
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)

	if err := a.SaveNotes([]models.Note{{ID: "mine"}}); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		t.Errorf("unexpected reload of %q after own write", c)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	<-done
}
