// Package store is the daemon's single relational database: one SQLite
// file holding tasks, memories, execution logs, self-evaluations, the
// audit trail, the knowledge graph, and the tool marketplace cache.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps a *sql.DB opened against the daemon's database file.
type Store struct {
	DB *sql.DB
}

// Config controls how the underlying database is opened.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func (c Config) withDefaults() Config {
	if c.Path == "" {
		c.Path = "aegisd.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 1 // modernc.org/sqlite is a single-writer driver
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = time.Hour
	}
	return c
}

// Open opens the database file, applies pragmas, and runs the schema
// migration. It is safe to call on an already-migrated file.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: enable foreign keys: %w", err)
	}

	s := &Store{DB: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// RecordExecution appends one row to execution_log for a task the
// scheduler just drove to completion, regardless of outcome. toolName is
// empty for tasks that never reach the tool wrapper.
func (s *Store) RecordExecution(ctx context.Context, taskID, toolName, actor string, success bool, durationMs int64, errMsg string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO execution_log (id, task_id, tool_name, actor, success, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), taskID, toolName, actor, success, durationMs, errMsg, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store: record execution: %w", err)
	}
	return nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}
