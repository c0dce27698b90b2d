package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tablescope/tablescope/internal/config"
	"github.com/tablescope/tablescope/internal/gateway"
	"github.com/tablescope/tablescope/internal/session"
	"github.com/tablescope/tablescope/internal/ui"
	"github.com/tablescope/tablescope/internal/webui"
)

func main() {
	serve := flag.Bool("serve", false, "run the local web view instead of the terminal UI")
	addr := flag.String("addr", "", "listen address for -serve (overrides LISTEN_ADDR)")
	backend := flag.String("backend", "", "extraction backend URL (overrides BACKEND_URL)")
	flag.Parse()

	cfg := config.Load()
	if *backend != "" {
		cfg.BackendURL = *backend
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	log := newLogger(cfg, *serve)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gw := gateway.NewClient(cfg.BackendURL, cfg.HTTPTimeout, log)
	defer gw.Close()

	if *serve {
		runWeb(cfg, gw, log)
		return
	}

	ses := session.New(gw, log)
	if err := ui.Run(ses, gw, cfg); err != nil {
		log.Error("terminal ui error", "error", err)
		os.Exit(1)
	}
}

// newLogger picks a sink that stays out of the terminal UI's way. The
// web server logs JSON to stderr; the TUI logs to TABLESCOPE_LOG when
// set and is otherwise silent.
func newLogger(cfg config.Config, serve bool) *slog.Logger {
	if serve {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			return slog.New(slog.NewJSONHandler(f, nil))
		}
	}
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func runWeb(cfg config.Config, gw *gateway.Client, log *slog.Logger) {
	srv := webui.NewServer(gw, log)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
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
	}()

	log.Info("starting tablescope web view", "addr", cfg.ListenAddr, "backend", cfg.BackendURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
