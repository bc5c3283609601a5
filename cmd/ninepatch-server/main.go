package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/earthring/ninepatch/internal/api"
	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/performance"
)

const shutdownTimeout = 10 * time.Second

// main starts the nine-patch chunk server.
// Configuration comes from the environment (and .env); see internal/config.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Logging.OutputPath != "" {
		f, err := os.OpenFile(cfg.Logging.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	profiler := performance.NewProfiler(cfg.Profiling.Enabled)
	server := api.NewServer(cfg, profiler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go server.Hub.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      server.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Nine-patch server starting on %s (environment=%s, byte_order=%s, strict=%v)",
			httpServer.Addr, cfg.Server.Environment, cfg.Chunk.ByteOrder, cfg.Chunk.Strict)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if profiler.IsEnabled() {
		profiler.LogReport()
	}
}
