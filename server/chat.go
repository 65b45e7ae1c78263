package server

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/eventstream"
	"github.com/talentwire/interviewd/pkg/interview"
	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/openai"
	"github.com/talentwire/interviewd/pkg/rag"
	"github.com/talentwire/interviewd/pkg/sse"
	"github.com/talentwire/interviewd/pkg/stream"
)

// handleChatCompletions serves the OpenAI-compatible streaming chat
// endpoint. The request is augmented with the current interview context and
// retrieved knowledge, then bridged to the generation backend.
func (s *Server) handleChatCompletions(c *fiber.Ctx) error {
	var req openai.ChatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("malformed chat request: "+err.Error(), llm.ErrorTypeInvalidRequest))
	}

	if !req.WantsStream() {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("this endpoint only supports stream=true requests", llm.ErrorTypeInvalidRequest))
	}

	messages, userText := s.buildMessages(c.Context(), &req)

	model := req.Model
	if model == "" {
		model = s.config.Model
	}

	// The handler returns while the stream is still being produced, so the
	// backend must not inherit the request context; fasthttp recycles it.
	streamCtx, cancel := context.WithCancel(context.Background())

	src, err := s.backend.Stream(streamCtx, backend.Request{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		cancel()
		s.logger.Error("starting generation stream failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).
			JSON(llm.NewErrorResponse("generation backend unavailable", llm.ErrorTypeUpstream))
	}

	s.store.AppendTranscript(llm.RoleUser, userText)

	rec := newStreamRecorder(streamCtx, src)
	processor := stream.NewProcessor(model, req.WantsUsage(), s.logger)
	frames := processor.Process(streamCtx, rec.Stream())

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe gives direct backpressure and true per-chunk flushing:
	// fasthttp's chunked writer flushes to the socket after every read from
	// the pipe.
	pr, pw := io.Pipe()
	go s.writeFrames(pw, frames, cancel, rec, processor.StreamID(), model, userText)
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// buildMessages assembles the final message list: interview system prompt
// first, then the client's non-system turns, augmented with retrieved
// knowledge. Returns the list and the latest user utterance.
func (s *Server) buildMessages(ctx context.Context, req *openai.ChatRequest) ([]llm.Message, string) {
	systemPrompt := interview.DefaultSystemPrompt
	var tags []string
	if ic, ok := s.store.Get(); ok {
		if ic.SystemPrompt != "" {
			systemPrompt = ic.SystemPrompt
		}
		tags = ic.Tags
	}

	base := make([]llm.Message, 0, len(req.Messages)+1)
	base = append(base, llm.NewTextMessage(llm.RoleSystem, systemPrompt))

	userText := ""
	for _, msg := range req.Messages {
		// The interview persona owns the system slot; client-supplied
		// system messages are dropped.
		if msg.Role == llm.RoleSystem {
			continue
		}
		base = append(base, llm.NewTextMessage(msg.Role, msg.Text()))
		if msg.Role == llm.RoleUser {
			userText = msg.Text()
		}
	}

	passages := s.retriever.Retrieve(ctx, userText, tags)
	return rag.Assemble(base, passages), userText
}

// writeFrames copies processor frames onto the SSE pipe. A write failure
// means the client went away: the stream context is cancelled so the
// backend stops producing. On clean completion the turn is recorded and
// published.
func (s *Server) writeFrames(pw *io.PipeWriter, frames <-chan stream.Frame, cancel context.CancelFunc,
	rec *streamRecorder, streamID, model, userText string) {
	defer pw.Close()
	defer cancel()

	w := sse.NewWriter(pw)

	// An immediate comment keeps intermediaries from timing out the
	// connection while generation warms up.
	if err := w.WriteComment("keep-alive"); err != nil {
		s.abortStream(frames, cancel, streamID, err)
		return
	}

	if s.config.FirstEventTimeout > 0 {
		timer := time.NewTimer(s.config.FirstEventTimeout)
		select {
		case frame, ok := <-frames:
			timer.Stop()
			if !ok {
				return
			}
			if err := writeFrame(w, frame); err != nil {
				s.abortStream(frames, cancel, streamID, err)
				return
			}
		case <-timer.C:
			s.logger.Error("timed out waiting for first generation event",
				zap.String("stream_id", streamID))
			_ = w.WriteEvent(stream.EventError, errorBody("generation backend timed out", llm.ErrorTypeUpstream))
			s.abortStream(frames, cancel, streamID, nil)
			return
		}
	}

	for frame := range frames {
		if err := writeFrame(w, frame); err != nil {
			s.abortStream(frames, cancel, streamID, err)
			return
		}
	}

	s.finishTurn(rec, streamID, model, userText)
}

func writeFrame(w *sse.Writer, frame stream.Frame) error {
	if frame.Event != "" {
		return w.WriteEvent(frame.Event, frame.Data)
	}
	return w.WriteData(frame.Data)
}

// abortStream cancels production and drains remaining frames so the
// processor goroutine can exit.
func (s *Server) abortStream(frames <-chan stream.Frame, cancel context.CancelFunc, streamID string, err error) {
	if err != nil {
		s.logger.Debug("client disconnected mid-stream",
			zap.String("stream_id", streamID),
			zap.Error(err))
	}
	cancel()
	for range frames {
	}
}

// finishTurn records the assistant reply on the transcript and publishes
// the turn event after a clean stream.
func (s *Server) finishTurn(rec *streamRecorder, streamID, model, userText string) {
	reply, finish, usage := rec.Result()
	if rec.Failed() || reply == "" {
		return
	}

	s.store.AppendTranscript(llm.RoleAssistant, reply)

	if s.publisher == nil {
		return
	}

	ev := eventstream.TurnCompletedEvent{
		StreamID:     streamID,
		Model:        model,
		UserText:     userText,
		ReplyText:    reply,
		FinishReason: finish,
		CompletedAt:  time.Now().UTC(),
	}
	if usage != nil {
		ev.TotalTokens = usage.TotalTokens
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishTurnCompleted(ctx, ev); err != nil {
		s.logger.Warn("publishing turn event failed",
			zap.String("stream_id", streamID),
			zap.Error(err))
	}
}

// streamRecorder sits between the backend stream and the processor,
// accumulating the reply text, finish reason and usage for transcript and
// event publishing.
type streamRecorder struct {
	out    *backend.Stream
	failed bool

	text   strings.Builder
	finish string
	usage  *llm.Usage
}

func newStreamRecorder(ctx context.Context, src *backend.Stream) *streamRecorder {
	rec := &streamRecorder{
		out: backend.NewStream(src.Close),
	}

	go func() {
		for ev := range src.Events() {
			rec.text.WriteString(ev.DeltaText)
			if ev.FinishReason != "" {
				rec.finish = ev.FinishReason
			}
			if ev.Usage != nil {
				usage := *ev.Usage
				rec.usage = &usage
			}
			if !rec.out.Send(ctx, ev) {
				break
			}
		}
		rec.failed = src.Err() != nil
		rec.out.CloseSend(src.Err())
	}()

	return rec
}

// Stream returns the pass-through stream consumed by the processor.
func (r *streamRecorder) Stream() *backend.Stream {
	return r.out
}

// Result returns the accumulated reply. Only valid after the pass-through
// stream has closed.
func (r *streamRecorder) Result() (text, finishReason string, usage *llm.Usage) {
	return r.text.String(), r.finish, r.usage
}

// Failed reports whether the source stream ended in error.
func (r *streamRecorder) Failed() bool {
	return r.failed
}

func errorBody(message, errType string) string {
	body, err := json.Marshal(llm.NewErrorResponse(message, errType))
	if err != nil {
		return `{"error":{"message":"internal error","type":"internal_error"}}`
	}
	return string(body)
}
