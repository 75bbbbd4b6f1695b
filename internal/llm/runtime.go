// Package llm implements the two-stage planner/reviewer orchestration:
// robust JSON extraction from raw model text, schema-shape validation, and
// two interchangeable inference backends.
package llm

import "context"

// Message is one turn in the conversation sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request is the runtime-agnostic contract from spec §6: a system prompt,
// a message list, a token budget, and a temperature.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Runtime invokes a remote inference API and returns the first text block
// of the response message.
type Runtime interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
