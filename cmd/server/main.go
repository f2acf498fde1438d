package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/guideparse/internal/api"
	"github.com/dgallion1/guideparse/internal/config"
	"github.com/dgallion1/guideparse/internal/grobid"
	"github.com/dgallion1/guideparse/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gc *grobid.Client
	if cfg.UseGrobid {
		gc = grobid.NewClient(cfg.GrobidURL, cfg.GrobidTimeout)
		aliveCtx, aliveCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := gc.IsAlive(aliveCtx); err != nil {
			log.Warn("grobid not reachable at startup", "url", cfg.GrobidURL, "error", err)
		}
		aliveCancel()
	}

	orch := pipeline.NewOrchestrator(cfg, gc, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

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

		// No handler can Submit past this point.
		orch.Stop()

		if gc != nil {
			gc.Close()
		}
	}()

	log.Info("starting guideparse", "port", cfg.Port, "grobid", cfg.UseGrobid, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
