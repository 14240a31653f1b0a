package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/aegisd/pkg/logging"
)

// Ledger is the single writer of the hash chain. All Record calls are
// serialized through mu so two concurrent callers can never claim the same
// sequence number or compute a hash against a stale previousHash.
type Ledger struct {
	store  Store
	logger *logging.Logger

	mu       sync.Mutex
	sequence int64
	prevHash string
}

// New builds a Ledger backed by store, restoring chain state from the last
// persisted entry (or the genesis values if the store is empty).
func New(ctx context.Context, store Store, logger *logging.Logger) (*Ledger, error) {
	if logger == nil {
		logger = logging.Default()
	}
	l := &Ledger{store: store, logger: logger, prevHash: GenesisHash}

	last, err := store.LastEntry(ctx)
	if err != nil {
		return nil, fmt.Errorf("audit: restore chain state: %w", err)
	}
	if last != nil {
		l.sequence = last.SequenceNumber
		l.prevHash = last.Hash
	}

	l.logger.Info("audit ledger initialized", "starting_sequence", l.sequence)
	return l, nil
}

// Record appends a new entry. A write failure means the action must not be
// considered recorded — callers must treat it as fatal to the calling
// operation, never retry silently.
func (l *Ledger) Record(ctx context.Context, actor, action, target string, details map[string]any) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:             uuid.NewString(),
		SequenceNumber: l.sequence + 1,
		// Truncated to whole seconds: the sqlite store persists an INTEGER
		// unix timestamp, so the hash must be computed over the same
		// truncated value or VerifyChain recomputes a different digest
		// after any restart.
		Timestamp:      time.Now().UTC().Truncate(time.Second),
		Actor:          actor,
		Action:         action,
		Target:         target,
		Details:        details,
		PreviousHash:   l.prevHash,
	}

	hash, err := computeHash(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: compute hash: %w", err)
	}
	entry.Hash = hash

	if err := l.store.AppendEntry(ctx, entry); err != nil {
		return Entry{}, fmt.Errorf("audit: append entry: %w", err)
	}

	l.sequence = entry.SequenceNumber
	l.prevHash = entry.Hash

	l.logger.Debug("audit.entry.recorded",
		"sequence", entry.SequenceNumber, "actor", actor, "action", action, "target", target)

	return entry, nil
}

// VerifyChain replays every persisted entry and checks previousHash linkage
// and recomputed hash. It never repairs a broken chain — integrity
// violations are surfaced, not silenced.
func (l *Ledger) VerifyChain(ctx context.Context) (ChainResult, error) {
	entries, err := l.store.All(ctx)
	if err != nil {
		return ChainResult{}, fmt.Errorf("audit: verify chain: %w", err)
	}

	prevHash := GenesisHash
	for _, e := range entries {
		if e.PreviousHash != prevHash {
			return ChainResult{Valid: false, BrokenAt: e.SequenceNumber, TotalEntries: int64(len(entries))}, nil
		}
		computed, err := computeHash(e)
		if err != nil {
			return ChainResult{}, fmt.Errorf("audit: recompute hash at seq %d: %w", e.SequenceNumber, err)
		}
		if computed != e.Hash {
			return ChainResult{Valid: false, BrokenAt: e.SequenceNumber, TotalEntries: int64(len(entries))}, nil
		}
		prevHash = e.Hash
	}

	return ChainResult{Valid: true, TotalEntries: int64(len(entries))}, nil
}

// GetRecent returns up to n entries in ascending sequence order.
func (l *Ledger) GetRecent(ctx context.Context, n int) ([]Entry, error) {
	entries, err := l.store.Recent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("audit: get recent: %w", err)
	}
	return entries, nil
}

// GetByActor returns up to n entries recorded by actor, ascending.
func (l *Ledger) GetByActor(ctx context.Context, actor string, n int) ([]Entry, error) {
	entries, err := l.store.ByActor(ctx, actor, n)
	if err != nil {
		return nil, fmt.Errorf("audit: get by actor: %w", err)
	}
	return entries, nil
}

// GetByDateRange returns up to n entries with start <= timestamp < end.
func (l *Ledger) GetByDateRange(ctx context.Context, start, end time.Time, n int) ([]Entry, error) {
	entries, err := l.store.ByDateRange(ctx, start.Unix(), end.Unix(), n)
	if err != nil {
		return nil, fmt.Errorf("audit: get by date range: %w", err)
	}
	return entries, nil
}

// Count returns the total number of persisted entries.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	count, err := l.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return count, nil
}
