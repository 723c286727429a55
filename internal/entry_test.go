package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func testServices(t *testing.T) (*services, *Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(dir, "data")
	cfg.SQLite.Path = filepath.Join(dir, "folio.db")
	cfg.Ingest.Latency = 0
	cfg.Assistant.Latency = 0
	cfg.SSE.Throttle = 10 * time.Millisecond

	svc, err := setup(newApplication([]Option{WithConfig(cfg), WithLogOutput(io.Discard)}))
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(svc.close)
	return svc, cfg
}

func TestSetupRequiresConfig(t *testing.T) {
	if _, err := setup(newApplication(nil)); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	svc, cfg := testServices(t)
	h := svc.router(cfg)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s = %d", path, w.Code)
		}
	}

	// One mutation so the store counter has a sample.
	body, _ := json.Marshal(map[string]string{"title": "Work"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/notebooks", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create notebook = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	for _, name := range []string{"folio_store_mutations_total", "folio_event_clients"} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

func TestSetupCreatesDefaultNotebook(t *testing.T) {
	svc, _ := testServices(t)
	nbs := svc.store.Notebooks()
	if len(nbs) != 1 || nbs[0].Title != "My First Notebook" {
		t.Errorf("notebooks = %+v", nbs)
	}
	if len(svc.chat.History()) != 1 {
		t.Errorf("chat should start with the greeting")
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// startRun runs Run with the storage watcher on and waits until it serves.
func startRun(t *testing.T, ctx context.Context) <-chan error {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = freePort(t)
	cfg.Storage.Path = filepath.Join(dir, "data")
	cfg.Storage.Watch = true
	cfg.SQLite.Path = filepath.Join(dir, "folio.db")

	done := make(chan error, 1)
	go func() { done <- Run(ctx, WithConfig(cfg), WithLogOutput(io.Discard)) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/health/live", cfg.App.HTTP.Port)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-done:
			t.Fatalf("Run returned early: %v", err)
		default:
		}
		if resp, err := http.Get(url); err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return done
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("server never became live")
	return nil
}

func waitRun(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

func TestRunStopsOnSignalWithWatcher(t *testing.T) {
	done := startRun(t, context.Background())
	if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("kill: %v", err)
	}
	waitRun(t, done)
}

func TestRunStopsOnContextCancelWithWatcher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startRun(t, ctx)
	cancel()
	waitRun(t, done)
}
