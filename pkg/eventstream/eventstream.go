// Package eventstream publishes interview lifecycle events for downstream
// consumers (scoring pipelines, analytics). Publishing is fire-and-forget
// from the caller's point of view: a broker outage never fails a chat turn.
package eventstream

import (
	"context"
	"time"
)

// TurnCompletedEvent is emitted after each streamed assistant reply.
type TurnCompletedEvent struct {
	StreamID     string    `json:"stream_id"`
	Model        string    `json:"model"`
	UserText     string    `json:"user_text"`
	ReplyText    string    `json:"reply_text"`
	FinishReason string    `json:"finish_reason"`
	TotalTokens  int       `json:"total_tokens,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// Publisher delivers interview events to an external stream.
type Publisher interface {
	// PublishTurnCompleted emits one turn event.
	PublishTurnCompleted(ctx context.Context, ev TurnCompletedEvent) error

	// Close flushes and releases the underlying transport.
	Close() error
}
