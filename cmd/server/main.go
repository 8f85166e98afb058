package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/jthawme/spotify-ambient-display/internal/app"
	"github.com/jthawme/spotify-ambient-display/internal/bus"
	"github.com/jthawme/spotify-ambient-display/internal/cache"
	"github.com/jthawme/spotify-ambient-display/internal/config"
	"github.com/jthawme/spotify-ambient-display/internal/domain"
	"github.com/jthawme/spotify-ambient-display/internal/hub"
	"github.com/jthawme/spotify-ambient-display/internal/logging"
	"github.com/jthawme/spotify-ambient-display/internal/poller"
	"github.com/jthawme/spotify-ambient-display/internal/server"
	"github.com/jthawme/spotify-ambient-display/internal/spotify"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func runGracefulShutdown(srv *server.Server, viewerHub *hub.Hub, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		// Stop the poll loop and event consumers before tearing down the hub,
		// so nothing broadcasts into closing connections.
		cancel()
		viewerHub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := spotify.NewHolder()
	player := spotify.NewPlayer(sessions)
	requestCache := cache.New(cfg.CacheTTL, clock)
	messageBus := bus.New()
	viewerHub := hub.New(clock, cfg.MaxClients)

	appSvc := app.NewService(player, requestCache, messageBus, sessions, viewerHub)

	// Forward notices and lifecycle events to connected viewers.
	go viewerHub.Relay(ctx, messageBus)
	go appSvc.Run(ctx)

	if cfg.CentralisedPolling {
		p := poller.New(cfg.PollInterval, clock, sessions, viewerHub, appSvc, viewerHub)
		go p.Run(ctx)
	} else {
		slog.Info("Centralised polling disabled")
	}

	srv := server.NewServer(cfg, appSvc, viewerHub, sessions)

	done := runGracefulShutdown(srv, viewerHub, cancel)

	messageBus.Emit(domain.EventStarted, map[string]string{"env": cfg.AppEnv})

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
