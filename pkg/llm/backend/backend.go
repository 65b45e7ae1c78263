// Package backend defines the generation backend consumed by the streaming
// bridge. A Backend turns an assembled message list into either a live
// stream of partial generation events or a single blocking completion.
package backend

import (
	"context"

	"github.com/talentwire/interviewd/pkg/llm"
)

// Request is a provider-agnostic generation request.
type Request struct {
	// Model is the model label to generate with. Backends may substitute
	// their configured default when empty.
	Model string

	// Messages is the final ordered message list, system prompt first.
	Messages []llm.Message

	// Generation parameters. Nil means provider default.
	MaxTokens   *int
	Temperature *float64
}

// Backend is the generation collaborator behind the protocol bridge.
type Backend interface {
	// Name returns the canonical backend name (e.g., "openai").
	Name() string

	// Stream starts a streaming generation. The returned Stream is a
	// finite, ordered, single-consumer sequence of GenerationEvents.
	// Closing the Stream cancels the underlying generation promptly.
	Stream(ctx context.Context, req Request) (*Stream, error)

	// Call performs a blocking, non-streaming generation. Used by the
	// evaluation and resume-extraction paths.
	Call(ctx context.Context, req Request) (*llm.Completion, error)
}
