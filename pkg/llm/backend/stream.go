package backend

import (
	"context"
	"sync"

	"github.com/talentwire/interviewd/pkg/llm"
)

// Stream is a live sequence of GenerationEvents produced by a Backend.
// The consumer reads Events until the channel closes, then inspects Err
// to distinguish completion from failure. Close cancels the producer and
// is safe to call more than once.
type Stream struct {
	events chan llm.GenerationEvent
	cancel context.CancelFunc

	mu  sync.Mutex
	err error

	closeOnce sync.Once
	sendOnce  sync.Once
}

// NewStream creates a Stream whose producer is torn down via cancel.
// Backend implementations feed it with Send and finish it with CloseSend.
func NewStream(cancel context.CancelFunc) *Stream {
	if cancel == nil {
		cancel = func() {}
	}
	return &Stream{
		events: make(chan llm.GenerationEvent),
		cancel: cancel,
	}
}

// Events returns the event channel. It is closed by the producer when the
// backend signals completion or failure.
func (s *Stream) Events() <-chan llm.GenerationEvent {
	return s.events
}

// Err reports the terminal error of the stream. Only meaningful after the
// Events channel has been closed; nil means clean completion.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer. No further backend work is performed after
// Close returns; the Events channel still closes normally from the
// producer side.
func (s *Stream) Close() {
	s.closeOnce.Do(s.cancel)
}

// Send delivers one event to the consumer. It returns false when the
// producer context is done, which means the consumer has gone away and
// production should stop.
func (s *Stream) Send(ctx context.Context, ev llm.GenerationEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// CloseSend records the terminal error (nil for clean completion) and
// closes the Events channel. Must be called exactly once by the producer.
func (s *Stream) CloseSend(err error) {
	s.sendOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.events)
	})
}
