// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/mimir/internal/anki"
	"github.com/starford/mimir/internal/api"
	"github.com/starford/mimir/internal/index"
	"github.com/starford/mimir/internal/mcpserver"
	"github.com/starford/mimir/internal/parser"
	"github.com/starford/mimir/internal/storage"
	"github.com/starford/mimir/internal/syncer"
)

// engine bundles the wired collaborators shared by every run mode.
type engine struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	parser *parser.Parser
	svc    *syncer.Service
}

func (e *engine) close() {
	if e.db != nil {
		_ = e.db.Close()
	}
}

// buildEngine wires storage, index, parser, connector, and the sync
// service from the resolved configuration.
func buildEngine(opts []Option, logWriter *os.File) (*engine, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := s.config

	logger := slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Join(cfg.Vault.Path, cfg.Vault.Folder), 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	vaultName := cfg.Vault.Name
	if vaultName == "" {
		vaultName = filepath.Base(store.Root())
	}

	p := parser.New(parser.Config{
		DeckPrefix: cfg.Anki.DeckPrefix,
		VaultName:  vaultName,
	})

	svc := syncer.NewService(syncer.Options{
		Store:     store,
		Parser:    p,
		Connector: anki.NewClient(cfg.Anki.Endpoint),
		Index:     db,
		Folder:    cfg.Vault.Folder,
		MaxCards:  cfg.Anki.MaxCards,
		Logger:    logger,
	})

	return &engine{cfg: cfg, logger: logger, store: store, db: db, parser: p, svc: svc}, nil
}

// Run starts the HTTP server and the vault watcher with the given options.
func Run(ctx context.Context, opts ...Option) error {
	e, err := buildEngine(opts, os.Stdout)
	if err != nil {
		return err
	}
	defer e.close()

	cfg, logger := e.cfg, e.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("anki_endpoint", cfg.Anki.Endpoint),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Run initial index sync.
	if err := index.Sync(e.db, e.store, e.parser, cfg.Vault.Folder, logger); err != nil {
		logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(e.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start vault watcher to keep the card index current.
	g.Go(func() error {
		if err := index.Watch(gCtx, e.db, e.store, e.parser, e.store.Root(), cfg.Vault.Folder, logger); err != nil {
			logger.Warn("vault watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

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
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
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

// RunMCP starts the MCP server on stdin/stdout. Logs go to stderr so
// they never corrupt the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	e, err := buildEngine(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	if err := index.Sync(e.db, e.store, e.parser, e.cfg.Vault.Folder, e.logger); err != nil {
		e.logger.Warn("initial index sync failed", slog.String("error", err.Error()))
	}

	e.logger.Info("MCP server starting on stdio")
	return mcpserver.New(e.svc).ServeStdio()
}

// RunSync performs a one-shot synchronization and prints the result as
// JSON to stdout. document may name a single vault document; empty syncs
// the whole flashcards folder.
func RunSync(ctx context.Context, document string, opts ...Option) error {
	e, err := buildEngine(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.svc.ApplySync(ctx, document)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(out))

	if len(res.Errors) > 0 {
		return fmt.Errorf("sync finished with %d card errors", len(res.Errors))
	}
	return nil
}

// RunParse parses a single document and prints the extracted cards as
// JSON to stdout without contacting the remote store.
func RunParse(ctx context.Context, document string, opts ...Option) error {
	e, err := buildEngine(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.svc.ParseDocument(ctx, document)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	out, _ := json.MarshalIndent(res.Cards, "", "  ")
	fmt.Println(string(out))
	return nil
}
