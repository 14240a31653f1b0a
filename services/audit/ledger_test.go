package audit

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory Store used to exercise Ledger without a
// real database.
type memStore struct {
	mu      sync.Mutex
	entries []Entry
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) AppendEntry(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	expected := int64(len(m.entries)) + 1
	if e.SequenceNumber != expected {
		return fmt.Errorf("out-of-order sequence: got %d, expected %d", e.SequenceNumber, expected)
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) LastEntry(ctx context.Context) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil, nil
	}
	e := m.entries[len(m.entries)-1]
	return &e, nil
}

func (m *memStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := len(m.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(m.entries[start:]))
	copy(out, m.entries[start:])
	return out, nil
}

func (m *memStore) ByActor(ctx context.Context, actor string, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		if e.Actor == actor {
			out = append(out, e)
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) ByDateRange(ctx context.Context, start, end int64, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	for _, e := range m.entries {
		ts := e.Timestamp.Unix()
		if ts >= start && ts < end {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNumber < out[j].SequenceNumber })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *memStore) All(ctx context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

func TestLedger_Record_ChainsSequentially(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger, err := New(ctx, store, nil)
	require.NoError(t, err)

	e1, err := ledger.Record(ctx, "governance", "tool_invoke", "wire_transfer", map[string]any{"amount": 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e1.SequenceNumber)
	assert.Equal(t, GenesisHash, e1.PreviousHash)

	e2, err := ledger.Record(ctx, "governance", "tool_invoke", "wire_transfer", map[string]any{"amount": 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), e2.SequenceNumber)
	assert.Equal(t, e1.Hash, e2.PreviousHash)
}

func TestLedger_VerifyChain_ValidChain(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger, err := New(ctx, store, nil)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := ledger.Record(ctx, "scheduler", "job_run", "health_check", nil)
		require.NoError(t, err)
	}

	result, err := ledger.VerifyChain(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, int64(5), result.TotalEntries)
}

func TestLedger_VerifyChain_DetectsTamper(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger, err := New(ctx, store, nil)
	require.NoError(t, err)

	_, err = ledger.Record(ctx, "scheduler", "job_run", "health_check", nil)
	require.NoError(t, err)
	_, err = ledger.Record(ctx, "scheduler", "job_run", "health_check", nil)
	require.NoError(t, err)

	store.mu.Lock()
	store.entries[0].Target = "tampered"
	store.mu.Unlock()

	result, err := ledger.VerifyChain(ctx)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, int64(1), result.BrokenAt)
}

func TestLedger_RestoresChainStateOnReopen(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	ledger, err := New(ctx, store, nil)
	require.NoError(t, err)
	last, err := ledger.Record(ctx, "scheduler", "job_run", "health_check", nil)
	require.NoError(t, err)

	reopened, err := New(ctx, store, nil)
	require.NoError(t, err)
	next, err := reopened.Record(ctx, "scheduler", "job_run", "health_check", nil)
	require.NoError(t, err)

	assert.Equal(t, last.Hash, next.PreviousHash)
	assert.Equal(t, int64(2), next.SequenceNumber)
}
