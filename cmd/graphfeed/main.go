// Package main implements graphfeed, a command-line Graph API client that
// loads the signed-in user's profile, friends and news feed through the
// asynchronous task controller.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/graphfeed/internal/config"
	"github.com/phrazzld/graphfeed/internal/platform/logger"
)

func main() {
	cfg, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(cfg, slog.Default())
	if err != nil {
		slog.Error("failed to create application", "error", err)
		os.Exit(1)
	}

	if err := app.run(ctx); err != nil {
		slog.Error("graphfeed exited with error", "error", err)
		os.Exit(1)
	}
}

// initializeApp loads configuration and sets up logging.
func initializeApp() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := os.Getenv("GRAPHFEED_CONFIG"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if _, err := logger.Setup(cfg.Client); err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("configuration loaded",
		"log_level", cfg.Client.LogLevel,
		"graph_base_url", cfg.Graph.BaseURL,
		"pause_policy", cfg.Scheduler.PausePolicy,
		"max_pending", cfg.Scheduler.MaxPending,
		"image_cache_entries", cfg.Images.CacheEntries)

	return cfg, nil
}
