package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "github.com/lib/pq"
)

// ConnectionPool manages the bounded set of database connections. The pool
// is deliberately small: when it is exhausted, callers block, and that
// blocking is the system's backpressure mechanism.
type ConnectionPool struct {
	db     *sql.DB
	logger *slog.Logger
}

// connectBackoff is the fixed delay between startup connection attempts.
const connectBackoff = 2 * time.Second

// ConnectWithRetry opens the pool, retrying indefinitely with a constant
// backoff until the database is reachable or ctx is cancelled. This is the
// only retried operation in the system; per-request failures are terminal.
func ConnectWithRetry(ctx context.Context, databaseURL string, maxOpenConns int, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxOpenConns <= 0 {
		maxOpenConns = 5
	}

	operation := func() (*sql.DB, error) {
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			logger.Error("database connection failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("backoff", connectBackoff),
			)
			return nil, err
		}
		return db, nil
	}

	// WithMaxElapsedTime(0) lifts the library's default 15-minute cap:
	// only ctx cancellation ends the retry loop.
	db, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(connectBackoff)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("database connected",
		slog.Int("max_open_conns", maxOpenConns),
	)

	return &ConnectionPool{db: db, logger: logger}, nil
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}
