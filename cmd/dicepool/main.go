// Command dicepool serves the dice API, the table chat and login.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/dicepool/api"
	"github.com/use-agent/dicepool/auth"
	"github.com/use-agent/dicepool/chat"
	"github.com/use-agent/dicepool/config"
	"github.com/use-agent/dicepool/history"
	"github.com/use-agent/dicepool/webhook"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.Log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("dicepool exited", "error", err)
		os.Exit(1)
	}
	slog.Info("dicepool stopped")
}

// run serves until ctx is cancelled, then drains in-flight requests for at
// most cfg.Server.ShutdownTimeout.
func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("dicepool starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"auth", cfg.Auth.Enabled,
	)
	if cfg.Auth.SecretKey == "" {
		slog.Warn("SECRET_KEY is not set; login and authenticated routes will fail")
	}

	hist := history.New(cfg.History.MaxEntries, cfg.History.TTL)
	defer hist.Close()

	hub := chat.NewHub(cfg.Chat.HistorySize)
	defer hub.Stop()

	notifier := webhook.NewNotifier(cfg.Webhook.URL, cfg.Webhook.Secret)
	if notifier.Enabled() {
		slog.Info("roll webhooks enabled", "url", cfg.Webhook.URL)
	}

	router := api.NewRouter(cfg, api.Deps{
		Issuer:   auth.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.TokenTTL, nil),
		History:  hist,
		Hub:      hub,
		Notifier: notifier,
	}, time.Now())

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		defer hub.Stop()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		slog.Info("HTTP server drained gracefully")
		return nil
	})

	return g.Wait()
}

// newLogger builds the slog logger described by cfg. Unknown levels fall
// back to info.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
