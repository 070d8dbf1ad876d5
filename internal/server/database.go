package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/forms-intake/internal/common"
	"github.com/joseph-ayodele/forms-intake/internal/repository"
)

// ConnectDB opens the database described by cfg (Postgres or SQLite).
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repository.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "sqlite", repository.IsSQLiteDSN(cfg.DSN))
	db, err := repository.Open(ctx, repository.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	logger.Info("successfully connected to database", "dialect", db.Dialect)
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repository.DB, logger *slog.Logger, timeout time.Duration) error {
	return repository.HealthCheck(ctx, db, timeout, logger)
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repository.DB, logger *slog.Logger) {
	repository.Close(db, logger)
}
