// Package llm defines the narrow interface the orchestrator's llm_complete
// system task binds to. The backend is out of core scope per the design —
// this package owns only the contract and the one concrete adapter wired
// to exercise it.
package llm

import "context"

// GenerationParams carries optional decoding knobs. A nil field means
// "let the backend use its default".
type GenerationParams struct {
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	Stop        []string
}

// Client is the narrow interface every backend binds to.
type Client interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}
