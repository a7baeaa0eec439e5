package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmercer/draftsmith/internal/agent"
	"github.com/jmercer/draftsmith/internal/api"
	"github.com/jmercer/draftsmith/internal/config"
	"github.com/jmercer/draftsmith/internal/provider"
	"github.com/jmercer/draftsmith/internal/session"
)

func main() {
	// Best effort: credentials usually live in a local .env during development.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.CompletionAPIKey == "" {
		log.Warn("GROQ_API_KEY not set; edit and chat endpoints will report a configuration error")
	}
	if cfg.SearchAPIKey == "" {
		log.Warn("SERPER_API_KEY not set; search endpoints will report a configuration error")
	}

	// Initialize provider clients.
	stats := provider.NewStats(time.Hour)
	completion := provider.NewCompletionClient(cfg.CompletionAPIKey, cfg.CompletionBaseURL, cfg.CompletionModel, cfg.ProviderTimeout, stats)
	search := provider.NewSearchClient(cfg.SearchAPIKey, cfg.SearchBaseURL, cfg.MaxSearchResults, cfg.ProviderTimeout, stats)
	engine := agent.NewEngine(search, completion, log, cfg.AnswerMaxTokens, cfg.Temperature)

	// Initialize session registry.
	sessions := session.NewStore(cfg.SessionTTL)
	sessions.Start()

	// Initialize HTTP server.
	srv := api.NewServer(completion, search, engine, sessions, stats, log, cfg)

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

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		sessions.Stop()
		completion.Close()
		search.Close()
	}()

	log.Info("starting draftsmith", "port", cfg.Port, "model", cfg.CompletionModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
