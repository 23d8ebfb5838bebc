package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/screwyprof/racer/migrator"
	"github.com/screwyprof/racer/migrator/config"
	"github.com/screwyprof/racer/pkg/logger"
	"github.com/screwyprof/racer/pkg/pgxdb"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg := config.New()

	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting database migrator service",
		slog.String("migrationsDir", cfg.MigrationsDir),
		slog.Uint64("chainID", cfg.ChainID),
		slog.Uint64("startHeight", cfg.StartHeight),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Create a context that cancels on SIGINT/SIGTERM _or_ when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	log.Info("Applying database migrations")
	if err := migrator.ApplyMigrations(db, cfg.MigrationsDir); err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("Database migrations applied successfully")

	if cfg.ChainID > 0 {
		log.Info("Initializing sync height",
			slog.Uint64("chainID", cfg.ChainID),
			slog.Uint64("height", cfg.StartHeight),
		)
		if err := migrator.InitializeSyncHeight(ctx, db, cfg.ChainID, cfg.StartHeight); err != nil {
			log.Error("Failed to initialize sync height", slog.Any("error", err))
			os.Exit(1)
		}
		log.Info("Sync height initialized successfully")
	}

	log.Info("Database migrator completed successfully")
}
