// Package audit implements the append-only, hash-chained record of every
// governed action the daemon takes.
//
// The chain shape — sequence number, previous hash, recomputed hash — is the
// same one the daemon's predecessor used for TTL deletion records, just
// generalized from a single deletion event to an arbitrary (actor, action,
// target, details) tuple and backed by the relational store instead of a
// flat file.
package audit

import "time"

// GenesisHash is the previousHash of sequence 1.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one link in the hash chain.
type Entry struct {
	ID             string
	SequenceNumber int64
	Timestamp      time.Time
	Actor          string
	Action         string
	Target         string
	Details        map[string]any
	PreviousHash   string
	Hash           string
}

// ChainResult is the outcome of VerifyChain.
type ChainResult struct {
	Valid        bool
	BrokenAt     int64 // sequence number of the first mismatch, 0 if Valid
	TotalEntries int64
}
