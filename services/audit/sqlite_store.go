package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteStore persists the chain into the `audit_trail` table of the shared
// relational store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already-open database handle. Schema creation is
// the caller's responsibility (see services/store.Schema), since the audit
// table lives alongside the rest of the daemon's tables in one database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) AppendEntry(ctx context.Context, e Entry) error {
	detailsJSON, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("audit store: marshal details: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("audit store: begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxSeq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(sequence_number) FROM audit_trail`).Scan(&maxSeq); err != nil {
		return fmt.Errorf("audit store: read max sequence: %w", err)
	}
	expected := maxSeq.Int64 + 1
	if e.SequenceNumber != expected {
		return fmt.Errorf("audit store: out-of-order sequence: got %d, expected %d", e.SequenceNumber, expected)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO audit_trail
			(id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SequenceNumber, e.Timestamp.UTC().Unix(), e.Actor, e.Action, e.Target,
		string(detailsJSON), e.PreviousHash, e.Hash,
	)
	if err != nil {
		return fmt.Errorf("audit store: insert: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteStore) LastEntry(ctx context.Context) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash
		FROM audit_trail ORDER BY sequence_number DESC LIMIT 1`)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit store: last entry: %w", err)
	}
	return &e, nil
}

func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash
		FROM audit_trail ORDER BY sequence_number DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("audit store: recent: %w", err)
	}
	defer rows.Close()
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	reverse(entries)
	return entries, nil
}

func (s *SQLiteStore) ByActor(ctx context.Context, actor string, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash
		FROM audit_trail WHERE actor = ? ORDER BY sequence_number ASC LIMIT ?`, actor, n)
	if err != nil {
		return nil, fmt.Errorf("audit store: by actor: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) ByDateRange(ctx context.Context, start, end int64, n int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash
		FROM audit_trail WHERE timestamp >= ? AND timestamp < ? ORDER BY sequence_number ASC LIMIT ?`,
		start, end, n)
	if err != nil {
		return nil, fmt.Errorf("audit store: by date range: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sequence_number, timestamp, actor, action, target, details, previous_hash, hash
		FROM audit_trail ORDER BY sequence_number ASC`)
	if err != nil {
		return nil, fmt.Errorf("audit store: all: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_trail`).Scan(&count); err != nil {
		return 0, fmt.Errorf("audit store: count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var ts int64
	var detailsJSON string
	if err := row.Scan(&e.ID, &e.SequenceNumber, &ts, &e.Actor, &e.Action, &e.Target,
		&detailsJSON, &e.PreviousHash, &e.Hash); err != nil {
		return Entry{}, err
	}
	e.Timestamp = time.Unix(ts, 0).UTC()
	if detailsJSON != "" {
		if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
			return Entry{}, fmt.Errorf("audit store: unmarshal details: %w", err)
		}
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("audit store: scan row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit store: iterate rows: %w", err)
	}
	return out, nil
}

func reverse(entries []Entry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
