// Package stream adapts a backend generation stream into the
// OpenAI-compatible chunked wire protocol. The Processor owns all per-stream
// state: the chunk id, the creation timestamp, whether the assistant role has
// been announced, and the most recent usage observation.
package stream

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/openai"
)

// Done is the terminal sentinel of a successful stream.
const Done = "[DONE]"

// EventError names the SSE event used for stream failures.
const EventError = "error"

// Frame is one unit of the outgoing event stream. Event is the SSE event
// name; empty means the default message event.
type Frame struct {
	Event string
	Data  string
}

// validFinishReasons is the closed set of finish reasons the wire protocol
// admits. Anything else is coerced to "stop".
var validFinishReasons = map[string]struct{}{
	"stop":           {},
	"length":         {},
	"tool_calls":     {},
	"content_filter": {},
	"function_call":  {},
}

// Processor converts one generation stream into wire frames. Not safe for
// reuse; create one per request.
type Processor struct {
	model        string
	includeUsage bool
	logger       *zap.Logger

	streamID string
	created  int64

	firstEmitted bool
	terminalSent bool
	latestUsage  *llm.Usage
}

// NewProcessor creates a Processor for a single streamed response. The
// stream id and creation timestamp are fixed here and reused on every chunk.
func NewProcessor(model string, includeUsage bool, logger *zap.Logger) *Processor {
	return &Processor{
		model:        model,
		includeUsage: includeUsage,
		logger:       logger,
		streamID:     "chatcmpl-" + uuid.NewString(),
		created:      time.Now().Unix(),
	}
}

// StreamID returns the chunk id shared by every frame of this stream.
func (p *Processor) StreamID() string {
	return p.streamID
}

// Process consumes src and returns the channel of outgoing frames. The
// channel closes after the [DONE] sentinel, after an error frame, or when
// ctx is cancelled (in which case neither is emitted). Process closes src
// on every exit path.
func (p *Processor) Process(ctx context.Context, src *backend.Stream) <-chan Frame {
	out := make(chan Frame)

	go func() {
		defer close(out)
		defer src.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-src.Events():
				if !ok {
					p.finish(ctx, src.Err(), out)
					return
				}

				frame, emit := p.convert(ev)
				if !emit {
					continue
				}
				if !send(ctx, out, frame) {
					return
				}
			}
		}
	}()

	return out
}

// finish emits the terminal unit: [DONE] on clean completion, an error frame
// on failure, nothing when the consumer is already gone.
func (p *Processor) finish(ctx context.Context, err error, out chan<- Frame) {
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Error("generation stream failed",
			zap.String("stream_id", p.streamID),
			zap.Error(err))

		body, marshalErr := json.Marshal(llm.NewErrorResponse(err.Error(), llm.ErrorTypeUpstream))
		if marshalErr != nil {
			return
		}
		send(ctx, out, Frame{Event: EventError, Data: string(body)})
		return
	}

	send(ctx, out, Frame{Data: Done})
}

// convert maps one generation event to at most one wire frame, advancing the
// per-stream state.
func (p *Processor) convert(ev llm.GenerationEvent) (Frame, bool) {
	if ev.Usage != nil {
		usage := *ev.Usage
		p.latestUsage = &usage
	}

	finishReason, terminal := p.normalizeFinishReason(ev.FinishReason)

	// Anything arriving after the terminal chunk (trailing usage frames in
	// particular) is absorbed into state but never emitted; the terminal
	// chunk must stay last on the wire.
	if p.terminalSent {
		return Frame{}, false
	}

	var delta openai.Delta
	switch {
	case !p.firstEmitted:
		p.firstEmitted = true
		if terminal && ev.DeltaText == "" {
			break
		}
		role := llm.RoleAssistant
		content := ev.DeltaText
		delta.Role = &role
		delta.Content = &content
	case ev.DeltaText != "":
		content := ev.DeltaText
		delta.Content = &content
	case terminal:
		// Empty delta object alongside the finish reason.
	default:
		// Keep the connection observably progressing.
		content := ""
		delta.Content = &content
	}

	choice := openai.StreamChoice{Index: 0, Delta: delta}
	if terminal {
		choice.FinishReason = &finishReason
		p.terminalSent = true
	}

	chunk := openai.ChunkResponse{
		ID:      p.streamID,
		Object:  openai.ObjectChunk,
		Created: p.created,
		Model:   p.model,
		Choices: []openai.StreamChoice{choice},
	}
	if terminal && p.includeUsage && p.latestUsage != nil {
		chunk.Usage = &openai.Usage{
			PromptTokens:     p.latestUsage.PromptTokens,
			CompletionTokens: p.latestUsage.CompletionTokens,
			TotalTokens:      p.latestUsage.TotalTokens,
		}
	}

	body, err := json.Marshal(chunk)
	if err != nil {
		p.logger.Error("marshaling stream chunk", zap.Error(err))
		return Frame{}, false
	}
	return Frame{Data: string(body)}, true
}

// normalizeFinishReason maps the backend's raw finish reason onto the wire
// protocol's closed set. The literal string "null" (any casing) counts as
// absent; unrecognized reasons are coerced to "stop" and logged.
func (p *Processor) normalizeFinishReason(raw string) (string, bool) {
	if raw == "" || strings.EqualFold(raw, "null") {
		return "", false
	}

	reason := strings.ToLower(raw)
	if _, ok := validFinishReasons[reason]; !ok {
		p.logger.Warn("coercing unrecognized finish reason",
			zap.String("stream_id", p.streamID),
			zap.String("finish_reason", raw))
		return "stop", true
	}
	return reason, true
}

func send(ctx context.Context, out chan<- Frame, frame Frame) bool {
	select {
	case out <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}
