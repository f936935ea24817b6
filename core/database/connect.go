package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/weatherbot/core/logger"
)

// Connect opens the database, configures the pool and verifies connectivity.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	attrs := []slog.Attr{
		slog.String("driver", cfg.Driver),
		slog.String("db", cfg.Name),
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
	}
	if cfg.Driver == DriverSQLite {
		attrs = []slog.Attr{slog.String("driver", cfg.Driver), slog.String("db", cfg.Path)}
	}

	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.DSN())
	took := time.Since(start)
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed", append(attrs,
			slog.String("event", "db.connect"),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	if cfg.Driver == DriverSQLite {
		// keep the single connection alive so pragmas stay applied
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}

	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected", append(attrs,
		slog.String("event", "db.connect"),
		slog.Int("pool_open", cfg.MaxConnections),
		slog.Duration("duration", logger.RoundMS(took)),
	)...)
	return db, nil
}

// WaitFor pings the database until it answers or timeout elapses.
func WaitFor(cfg Config, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		db, err := sqlx.Open(cfg.Driver, cfg.DSN())
		if err == nil {
			err = db.Ping()
			_ = db.Close()
			if err == nil {
				return nil
			}
		}
		lastErr = err
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout reached waiting for database: %w", lastErr)
		}
		time.Sleep(2 * time.Second)
	}
}
