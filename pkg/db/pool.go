// Package db wraps the Postgres connection pool and per-entity
// repositories (Source, DocumentVector, Summary, Podcast).
// Adapted from the teacher's pkg/config.DBPool: same single shared-pool
// manager shape, narrowed to the one driver spec.md's persistent state
// actually needs (pgvector-backed Postgres — see DESIGN.md for why the
// teacher's mysql/sqlite3 drivers were dropped).
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Config holds the parameters needed to open a pool. Callers build it from
// pkg/config.DatabaseConfig (its DSN(), MaxConns and MaxIdle).
type Config struct {
	DSN      string
	MaxConns int
	MaxIdle  int
}

// Open creates and pings a connection pool.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	if cfg.MaxConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdle)
	}
	conn.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: connect: %w", err)
	}

	slog.Info("db: connected")
	return conn, nil
}
