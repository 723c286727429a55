// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/assistant"
	"github.com/starford/folio/internal/chat"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/ingest"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/persist"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/storage"
	"github.com/starford/folio/internal/workspace"
)

// services is everything both commands run on.
type services struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	adapter  *persist.Adapter
	db       *index.DB
	broker   *sse.Broker
	store    *workspace.Store
	chat     *chat.Service
}

func (s *services) close() {
	s.broker.Close()
	if err := s.db.Close(); err != nil {
		s.logger.Warn("index close failed", slog.String("error", err.Error()))
	}
}

func setup(app *application) (*services, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_path", cfg.Storage.Path),
		slog.Bool("storage_watch", cfg.Storage.Watch),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("assistant_configured", assistant.NewStub(cfg.Assistant.APIKey, 0).Configured()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	adapter := persist.NewAdapter(fs, logger, m)

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	broker := sse.NewBroker(cfg.SSE.Throttle)
	metrics.EventClients(registry, broker.ClientCount)

	store := workspace.Open(adapter, ingest.NewStub(cfg.Ingest.Latency),
		workspace.WithIndex(db),
		workspace.WithNotifier(broker),
		workspace.WithMetrics(m),
		workspace.WithLogger(logger),
	)

	chatSvc := chat.New(chat.Config{
		Persist:   adapter,
		Responder: assistant.NewStub(cfg.Assistant.APIKey, cfg.Assistant.Latency),
		Documents: store,
		Notifier:  broker,
		Metrics:   m,
		Logger:    logger,
	})

	return &services{
		logger:   logger,
		registry: registry,
		adapter:  adapter,
		db:       db,
		broker:   broker,
		store:    store,
		chat:     chatSvc,
	}, nil
}

// watch reloads collections rewritten by another process.
func (s *services) watch(ctx context.Context) error {
	return persist.Watch(ctx, s.adapter, s.logger, func(c persist.Collection) {
		if c == persist.Chat {
			s.chat.Reload()
			return
		}
		s.store.Reload(c)
	})
}

func (s *services) router(cfg *Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := s.db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Mount("/api", api.NewRouter(api.Deps{
		Store:  s.store,
		Chat:   s.chat,
		Policy: cfg.Upload.Policy(),
		Events: s.broker,
	}))
	return r
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	svc, err := setup(app)
	if err != nil {
		return err
	}
	defer svc.close()

	cfg := app.config
	logger := svc.logger

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           svc.router(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Cancelled once the server has shut down so the watcher exits too.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Storage.Watch {
		g.Go(func() error {
			if err := svc.watch(gCtx); err != nil {
				logger.Warn("storage watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		defer cancel()

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE streams only end when the broker closes.
		svc.broker.Close()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the workspace to an MCP client over stdio.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	svc, err := setup(app)
	if err != nil {
		return err
	}
	defer svc.close()

	srv := mcpserver.New(svc.store, svc.chat, app.config.Upload.Policy(), app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	if app.config.Storage.Watch {
		g.Go(func() error {
			if err := svc.watch(gCtx); err != nil {
				svc.logger.Warn("storage watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}
	g.Go(func() error {
		// The session ends when the client closes stdin.
		defer cancel()
		svc.logger.Info("MCP server starting", slog.String("version", app.version))
		return srv.ServeStdio()
	})

	return g.Wait()
}
