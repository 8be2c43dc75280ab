package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/papergraph/papergraph"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := papergraph.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}

	// Override from environment variables.
	if v := os.Getenv("PAPERGRAPH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PAPERGRAPH_DB_NAME"); v != "" {
		cfg.DBName = v
	}
	if v := os.Getenv("PAPERGRAPH_STORAGE_DIR"); v != "" {
		cfg.StorageDir = v
	}

	apiKey := os.Getenv("PAPERGRAPH_API_KEY")
	corsOrigins := os.Getenv("PAPERGRAPH_CORS_ORIGINS")

	engine, err := papergraph.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine)
	mux := http.NewServeMux()

	mux.HandleFunc("POST /records", h.handleLoadRecord)
	mux.HandleFunc("GET /snapshots", h.handleListSnapshots)
	mux.HandleFunc("GET /snapshots/{id}", h.handleGetSnapshot)
	mux.HandleFunc("DELETE /snapshots/{id}", h.handleDeleteSnapshot)
	mux.HandleFunc("GET /snapshots/{id}/graph", h.handleGraph)
	mux.HandleFunc("GET /snapshots/{id}/contradictions", h.handleContradictions)
	mux.HandleFunc("GET /snapshots/{id}/search", h.handleSearch)
	mux.HandleFunc("GET /snapshots/{id}/nodes/{nodeID}/evidence", h.handleEvidence)
	mux.HandleFunc("GET /snapshots/{id}/nodes/{nodeID}/variants", h.handleVariants)
	mux.HandleFunc("GET /snapshots/{id}/nodes/{nodeID}/connected", h.handleConnected)
	mux.HandleFunc("GET /snapshots/{id}/nodes/{nodeID}/neighbors", h.handleNeighbors)
	mux.HandleFunc("POST /papers", h.handleUploadPaper)
	mux.HandleFunc("GET /papers", h.handleListPapers)
	mux.HandleFunc("GET /health", h.handleHealth)

	// Middleware chain: recovery -> cors -> auth -> logging -> mux
	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
