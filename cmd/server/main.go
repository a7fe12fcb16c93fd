package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/gdocmark/internal/api"
	"github.com/dgallion1/gdocmark/internal/config"
	"github.com/dgallion1/gdocmark/internal/docsapi"
	"github.com/dgallion1/gdocmark/internal/docsim"
	"github.com/dgallion1/gdocmark/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the document backend.
	var (
		source docsapi.Source
		sink   docsapi.Sink
		stats  *docsapi.LatencyStats
	)
	switch cfg.DocsBackend {
	case config.BackendMemory:
		store := docsim.NewStore()
		source, sink = store, store
		log.Warn("using in-memory document backend, documents are not persisted")
	default:
		stats = docsapi.NewLatencyStats(cfg.StatsWindow)
		client, err := docsapi.NewClient(ctx, docsapi.Options{
			CredentialsFile: cfg.GoogleCredentialsFile,
			Stats:           stats,
			Logger:          log,
		})
		if err != nil {
			log.Error("docs api client", "error", err)
			os.Exit(1)
		}
		source, sink = client, client
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, source, sink, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, source, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting gdocmark", "port", cfg.Port, "backend", cfg.DocsBackend)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
