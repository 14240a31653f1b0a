package audit

import "context"

// Store persists audit entries. The ledger is the only writer; Store
// implementations must make AppendEntry atomic with respect to the sequence
// counter so two concurrent callers can never be assigned the same number.
type Store interface {
	// AppendEntry inserts e, which must already carry the next sequence
	// number and computed hash. Implementations reject a sequence number
	// that is not exactly one greater than the current maximum.
	AppendEntry(ctx context.Context, e Entry) error

	// LastEntry returns the highest-sequence entry, or nil if the ledger
	// is empty.
	LastEntry(ctx context.Context) (*Entry, error)

	// Recent returns up to n entries in ascending sequence order, the n
	// most recently appended.
	Recent(ctx context.Context, n int) ([]Entry, error)

	// ByActor returns up to n entries for actor in ascending sequence order.
	ByActor(ctx context.Context, actor string, n int) ([]Entry, error)

	// ByDateRange returns up to n entries with start <= timestamp < end,
	// ascending.
	ByDateRange(ctx context.Context, start, end int64, n int) ([]Entry, error)

	// All streams every entry in ascending sequence order for verification.
	All(ctx context.Context) ([]Entry, error)

	// Count returns the total number of persisted entries.
	Count(ctx context.Context) (int64, error)
}
