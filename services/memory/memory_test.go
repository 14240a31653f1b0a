package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeaviateStore_EmptyURLIsOptOut(t *testing.T) {
	store, err := NewWeaviateStore(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestNewWeaviateStore_InvalidURLErrors(t *testing.T) {
	store, err := NewWeaviateStore(context.Background(), "not-a-url", nil)
	assert.Error(t, err)
	assert.Nil(t, store)
}

// fakeStore is an in-memory Store used to check the capability contract
// without a live Weaviate server.
type fakeStore struct {
	records []Record
}

func (f *fakeStore) Record(ctx context.Context, namespace, content string, metadata map[string]any) (Record, error) {
	r := Record{ID: "rec", Namespace: namespace, Content: content, Metadata: metadata}
	f.records = append(f.records, r)
	return r, nil
}

func (f *fakeStore) Recall(ctx context.Context, namespace, query string, limit int) ([]Record, error) {
	var out []Record
	for _, r := range f.records {
		if r.Namespace == namespace {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) Stats(ctx context.Context) (Stats, error) {
	return Stats{TotalRecords: int64(len(f.records))}, nil
}

func TestFakeStore_SatisfiesStoreInterface(t *testing.T) {
	var s Store = &fakeStore{}
	_, err := s.Record(context.Background(), "ops", "daily summary", nil)
	require.NoError(t, err)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalRecords)
}
