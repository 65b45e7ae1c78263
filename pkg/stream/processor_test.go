package stream_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/logger"
	"github.com/talentwire/interviewd/pkg/openai"
	"github.com/talentwire/interviewd/pkg/stream"
)

// source builds a backend stream pre-fed with the given events, terminated
// with err.
func source(err error, events ...llm.GenerationEvent) *backend.Stream {
	s := backend.NewStream(nil)
	go func() {
		for _, ev := range events {
			if !s.Send(context.Background(), ev) {
				break
			}
		}
		s.CloseSend(err)
	}()
	return s
}

func run(p *stream.Processor, src *backend.Stream) []stream.Frame {
	var frames []stream.Frame
	for f := range p.Process(context.Background(), src) {
		frames = append(frames, f)
	}
	return frames
}

// decode parses the chunk frames of a stream, asserting the last frame is
// the [DONE] sentinel.
func decode(frames []stream.Frame) []openai.ChunkResponse {
	Expect(frames).NotTo(BeEmpty())
	Expect(frames[len(frames)-1].Data).To(Equal(stream.Done))

	chunks := make([]openai.ChunkResponse, 0, len(frames)-1)
	for _, f := range frames[:len(frames)-1] {
		Expect(f.Event).To(BeEmpty())
		var chunk openai.ChunkResponse
		Expect(json.Unmarshal([]byte(f.Data), &chunk)).To(Succeed())
		chunks = append(chunks, chunk)
	}
	return chunks
}

func usageEvent(total int) *llm.Usage {
	return &llm.Usage{PromptTokens: total - 1, CompletionTokens: 1, TotalTokens: total}
}

var _ = Describe("Processor", func() {
	var log = logger.Nop()

	It("announces the assistant role exactly once, on the first chunk", func() {
		p := stream.NewProcessor("qwen-plus", false, log)
		frames := run(p, source(nil,
			llm.GenerationEvent{DeltaText: "Hel"},
			llm.GenerationEvent{DeltaText: "lo"},
			llm.GenerationEvent{FinishReason: "stop"},
		))

		chunks := decode(frames)
		Expect(chunks).To(HaveLen(3))

		Expect(chunks[0].Choices[0].Delta.Role).To(HaveValue(Equal("assistant")))
		Expect(chunks[0].Choices[0].Delta.Content).To(HaveValue(Equal("Hel")))
		for _, chunk := range chunks[1:] {
			Expect(chunk.Choices[0].Delta.Role).To(BeNil())
		}
	})

	It("emits exactly one terminal chunk, last before the sentinel", func() {
		p := stream.NewProcessor("qwen-plus", false, log)
		frames := run(p, source(nil,
			llm.GenerationEvent{DeltaText: "a"},
			llm.GenerationEvent{DeltaText: "b"},
			llm.GenerationEvent{FinishReason: "stop"},
		))

		chunks := decode(frames)
		for _, chunk := range chunks[:len(chunks)-1] {
			Expect(chunk.Choices[0].FinishReason).To(BeNil())
		}
		Expect(chunks[len(chunks)-1].Choices[0].FinishReason).To(HaveValue(Equal("stop")))
	})

	It("shares one id and created timestamp across all chunks", func() {
		p := stream.NewProcessor("qwen-plus", false, log)
		frames := run(p, source(nil,
			llm.GenerationEvent{DeltaText: "x"},
			llm.GenerationEvent{DeltaText: "y"},
			llm.GenerationEvent{FinishReason: "stop"},
		))

		chunks := decode(frames)
		Expect(chunks[0].ID).To(HavePrefix("chatcmpl-"))
		Expect(chunks[0].ID).To(Equal(p.StreamID()))
		for _, chunk := range chunks {
			Expect(chunk.ID).To(Equal(chunks[0].ID))
			Expect(chunk.Created).To(Equal(chunks[0].Created))
			Expect(chunk.Object).To(Equal(openai.ObjectChunk))
			Expect(chunk.Model).To(Equal("qwen-plus"))
		}
	})

	Describe("finish reason normalization", func() {
		It("treats a literal NULL sentinel as absent", func() {
			p := stream.NewProcessor("m", false, log)
			frames := run(p, source(nil,
				llm.GenerationEvent{DeltaText: "Hi", FinishReason: "NULL"},
				llm.GenerationEvent{FinishReason: "stop"},
			))

			chunks := decode(frames)
			Expect(chunks[0].Choices[0].Delta.Role).To(HaveValue(Equal("assistant")))
			Expect(chunks[0].Choices[0].Delta.Content).To(HaveValue(Equal("Hi")))
			Expect(chunks[0].Choices[0].FinishReason).To(BeNil())
		})

		It("lower-cases recognized reasons", func() {
			p := stream.NewProcessor("m", false, log)
			frames := run(p, source(nil,
				llm.GenerationEvent{DeltaText: "x"},
				llm.GenerationEvent{FinishReason: "LENGTH"},
			))

			chunks := decode(frames)
			Expect(chunks[len(chunks)-1].Choices[0].FinishReason).To(HaveValue(Equal("length")))
		})

		It("coerces unrecognized reasons to stop", func() {
			p := stream.NewProcessor("m", false, log)
			frames := run(p, source(nil,
				llm.GenerationEvent{DeltaText: "x"},
				llm.GenerationEvent{FinishReason: "unknown_code"},
			))

			chunks := decode(frames)
			Expect(chunks[len(chunks)-1].Choices[0].FinishReason).To(HaveValue(Equal("stop")))
		})
	})

	Describe("usage gating", func() {
		events := func() []llm.GenerationEvent {
			return []llm.GenerationEvent{
				{DeltaText: "a", Usage: usageEvent(5)},
				{DeltaText: "b", Usage: usageEvent(7)},
				{FinishReason: "stop", Usage: usageEvent(9)},
			}
		}

		It("attaches the latest usage only to the terminal chunk when requested", func() {
			p := stream.NewProcessor("m", true, log)
			chunks := decode(run(p, source(nil, events()...)))

			for _, chunk := range chunks[:len(chunks)-1] {
				Expect(chunk.Usage).To(BeNil())
			}
			terminal := chunks[len(chunks)-1]
			Expect(terminal.Usage).NotTo(BeNil())
			Expect(terminal.Usage.TotalTokens).To(Equal(9))
		})

		It("omits usage entirely when not requested", func() {
			p := stream.NewProcessor("m", false, log)
			chunks := decode(run(p, source(nil, events()...)))
			for _, chunk := range chunks {
				Expect(chunk.Usage).To(BeNil())
			}
		})

		It("omits usage when requested but never observed", func() {
			p := stream.NewProcessor("m", true, log)
			chunks := decode(run(p, source(nil,
				llm.GenerationEvent{DeltaText: "a"},
				llm.GenerationEvent{FinishReason: "stop"},
			)))
			for _, chunk := range chunks {
				Expect(chunk.Usage).To(BeNil())
			}
		})

		It("uses a mid-stream observation when the terminal event carries none", func() {
			p := stream.NewProcessor("m", true, log)
			chunks := decode(run(p, source(nil,
				llm.GenerationEvent{DeltaText: "a", Usage: usageEvent(4)},
				llm.GenerationEvent{FinishReason: "stop"},
			)))
			terminal := chunks[len(chunks)-1]
			Expect(terminal.Usage).NotTo(BeNil())
			Expect(terminal.Usage.TotalTokens).To(Equal(4))
		})
	})

	It("keeps empty mid-stream events observable as empty content deltas", func() {
		p := stream.NewProcessor("m", false, log)
		chunks := decode(run(p, source(nil,
			llm.GenerationEvent{DeltaText: "a"},
			llm.GenerationEvent{},
			llm.GenerationEvent{FinishReason: "stop"},
		)))

		Expect(chunks).To(HaveLen(3))
		Expect(chunks[1].Choices[0].Delta.Role).To(BeNil())
		Expect(chunks[1].Choices[0].Delta.Content).To(HaveValue(Equal("")))
	})

	It("absorbs trailing events after the terminal chunk", func() {
		p := stream.NewProcessor("m", true, log)
		frames := run(p, source(nil,
			llm.GenerationEvent{DeltaText: "a", Usage: usageEvent(6)},
			llm.GenerationEvent{FinishReason: "stop"},
			llm.GenerationEvent{Usage: usageEvent(8)},
		))

		chunks := decode(frames)
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[1].Choices[0].FinishReason).To(HaveValue(Equal("stop")))
	})

	It("handles a single-event stream that is both first and terminal", func() {
		p := stream.NewProcessor("m", false, log)
		chunks := decode(run(p, source(nil,
			llm.GenerationEvent{DeltaText: "Hi", FinishReason: "stop"},
		)))

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].Choices[0].Delta.Role).To(HaveValue(Equal("assistant")))
		Expect(chunks[0].Choices[0].Delta.Content).To(HaveValue(Equal("Hi")))
		Expect(chunks[0].Choices[0].FinishReason).To(HaveValue(Equal("stop")))
	})

	It("emits an empty delta when the first event is terminal without content", func() {
		p := stream.NewProcessor("m", false, log)
		chunks := decode(run(p, source(nil,
			llm.GenerationEvent{FinishReason: "stop"},
		)))

		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].Choices[0].Delta.Role).To(BeNil())
		Expect(chunks[0].Choices[0].Delta.Content).To(BeNil())
		Expect(chunks[0].Choices[0].FinishReason).To(HaveValue(Equal("stop")))
	})

	Describe("terminal behavior", func() {
		It("emits an error frame and no sentinel on failure", func() {
			p := stream.NewProcessor("m", false, log)
			frames := run(p, source(errors.New("upstream blew up"),
				llm.GenerationEvent{DeltaText: "partial"},
			))

			last := frames[len(frames)-1]
			Expect(last.Event).To(Equal(stream.EventError))

			var resp llm.ErrorResponse
			Expect(json.Unmarshal([]byte(last.Data), &resp)).To(Succeed())
			Expect(resp.Error.Message).To(ContainSubstring("upstream blew up"))
			Expect(resp.Error.Type).To(Equal(llm.ErrorTypeUpstream))

			for _, f := range frames {
				Expect(f.Data).NotTo(Equal(stream.Done))
			}
		})

		It("emits neither sentinel nor error frame when cancelled", func() {
			src := backend.NewStream(nil)
			ctx, cancel := context.WithCancel(context.Background())

			p := stream.NewProcessor("m", false, log)
			out := p.Process(ctx, src)

			Expect(src.Send(context.Background(), llm.GenerationEvent{DeltaText: "a"})).To(BeTrue())
			first := <-out

			cancel()
			src.CloseSend(ctx.Err())

			var rest []stream.Frame
			for f := range out {
				rest = append(rest, f)
			}

			Expect(first.Data).To(ContainSubstring("assistant"))
			Expect(rest).To(BeEmpty())
		})
	})
})
