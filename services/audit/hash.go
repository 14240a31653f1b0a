package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// computeHash hashes the canonical form of an entry, excluding Hash itself:
// previousHash | sequenceNumber | RFC3339 timestamp | actor | action | target | canonical-JSON details.
//
// The timestamp is formatted at whole-second precision to match what the
// sqlite store actually persists (an INTEGER unix-seconds column) — hashing
// a finer-grained value than the store can round-trip would make VerifyChain
// fail on every entry after a restart.
func computeHash(e Entry) (string, error) {
	detailsJSON, err := canonicalDetails(e.Details)
	if err != nil {
		return "", fmt.Errorf("audit: canonicalize details: %w", err)
	}
	data := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s",
		e.PreviousHash,
		e.SequenceNumber,
		e.Timestamp.UTC().Truncate(time.Second).Format(time.RFC3339),
		e.Actor,
		e.Action,
		e.Target,
		detailsJSON,
	)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:]), nil
}

// canonicalDetails renders details as JSON with sorted keys so the same
// logical map always hashes to the same bytes regardless of map iteration
// order. encoding/json already sorts map[string]any keys, so this just
// pins that behavior down as the contract computeHash relies on.
func canonicalDetails(details map[string]any) (string, error) {
	if details == nil {
		details = map[string]any{}
	}
	b, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
