// Command cleanup-locks deletes edit locks whose expiry has passed. It is
// intended to be invoked by an external cron job when the server's own
// sweeper is disabled.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres"
	"github.com/heartmarshall/laborhub-backend/internal/adapter/postgres/document"
	"github.com/heartmarshall/laborhub-backend/internal/app"
	"github.com/heartmarshall/laborhub-backend/internal/config"
	"github.com/heartmarshall/laborhub-backend/internal/service/lock"
)

func main() {
	configPath := flag.String("config", "", "config file (default: CONFIG_PATH or ./config.yaml)")
	flag.Parse()

	load := config.Load
	if *configPath != "" {
		load = func() (*config.Config, error) { return config.LoadFile(*configPath) }
	}
	cfg, err := load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	locks := lock.NewService(logger, document.New(pool), cfg.Lock, nil)

	deleted, err := locks.SweepExpired(ctx)
	if err != nil {
		logger.Error("sweep expired locks failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("expired locks deleted", slog.Int("deleted", deleted))
}
