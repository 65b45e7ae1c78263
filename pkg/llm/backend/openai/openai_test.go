package openai_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/llm/backend/openai"
	"github.com/talentwire/interviewd/pkg/logger"
)

// sseUpstream builds a test server that emits the given data payloads as
// SSE events followed by [DONE].
func sseUpstream(capture *[]byte, payloads ...string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, _ := io.ReadAll(r.Body)
			*capture = body
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, p := range payloads {
			fmt.Fprintf(w, "data: %s\n\n", p)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
}

func collect(s *backend.Stream) []llm.GenerationEvent {
	var events []llm.GenerationEvent
	for ev := range s.Events() {
		events = append(events, ev)
	}
	return events
}

var _ = Describe("Client", func() {
	var log = logger.Nop()

	Describe("Stream", func() {
		It("converts upstream chunks into generation events", func() {
			upstream := sseUpstream(nil,
				`{"id":"chatcmpl-x","choices":[{"index":0,"delta":{"role":"assistant","content":"Hel"},"finish_reason":null}]}`,
				`{"id":"chatcmpl-x","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":null}]}`,
				`{"id":"chatcmpl-x","choices":[{"index":0,"delta":{},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`,
			)
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			s, err := client.Stream(context.Background(), backend.Request{
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			})
			Expect(err).NotTo(HaveOccurred())

			events := collect(s)
			Expect(s.Err()).NotTo(HaveOccurred())

			Expect(events).To(HaveLen(3))
			Expect(events[0].DeltaText).To(Equal("Hel"))
			Expect(events[1].DeltaText).To(Equal("lo"))
			Expect(events[2].FinishReason).To(Equal("stop"))
			Expect(events[2].Usage).NotTo(BeNil())
			Expect(events[2].Usage.TotalTokens).To(Equal(5))
		})

		It("always requests usage from the upstream", func() {
			var captured []byte
			upstream := sseUpstream(&captured,
				`{"id":"c","choices":[{"index":0,"delta":{"content":"x"},"finish_reason":"stop"}]}`,
			)
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			s, err := client.Stream(context.Background(), backend.Request{
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			})
			Expect(err).NotTo(HaveOccurred())
			collect(s)

			var body map[string]any
			Expect(json.Unmarshal(captured, &body)).To(Succeed())
			Expect(body["stream"]).To(BeTrue())
			Expect(body["stream_options"]).To(HaveKeyWithValue("include_usage", true))
		})

		It("skips malformed chunks without ending the stream", func() {
			upstream := sseUpstream(nil,
				`{not json`,
				`{"id":"c","choices":[{"index":0,"delta":{"content":"ok"},"finish_reason":"stop"}]}`,
			)
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			s, err := client.Stream(context.Background(), backend.Request{
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			})
			Expect(err).NotTo(HaveOccurred())

			events := collect(s)
			Expect(s.Err()).NotTo(HaveOccurred())
			Expect(events).To(HaveLen(1))
			Expect(events[0].DeltaText).To(Equal("ok"))
		})

		It("surfaces upstream error statuses as errors", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
			}))
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Stream(context.Background(), backend.Request{
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("rate limited"))
		})

		It("sends the bearer token when an API key is configured", func() {
			var auth string
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				auth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "text/event-stream")
				fmt.Fprint(w, "data: [DONE]\n\n")
			}))
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, APIKey: "sk-test", Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			s, err := client.Stream(context.Background(), backend.Request{})
			Expect(err).NotTo(HaveOccurred())
			collect(s)

			Expect(auth).To(Equal("Bearer sk-test"))
		})
	})

	Describe("Call", func() {
		It("returns the completion text, finish reason and usage", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{
					"id": "chatcmpl-y",
					"choices": [{"index":0,"message":{"role":"assistant","content":"Answer."},"finish_reason":"stop"}],
					"usage": {"prompt_tokens":10,"completion_tokens":4,"total_tokens":14}
				}`)
			}))
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			completion, err := client.Call(context.Background(), backend.Request{
				Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "q")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(completion.Text).To(Equal("Answer."))
			Expect(completion.FinishReason).To(Equal("stop"))
			Expect(completion.Usage.TotalTokens).To(Equal(14))
		})

		It("fails when the upstream returns no choices", func() {
			upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"id":"chatcmpl-z","choices":[]}`)
			}))
			defer upstream.Close()

			client, err := openai.New(openai.Config{BaseURL: upstream.URL, Model: "m"}, log)
			Expect(err).NotTo(HaveOccurred())

			_, err = client.Call(context.Background(), backend.Request{})
			Expect(err).To(MatchError(ContainSubstring("no choices")))
		})
	})

	Describe("New", func() {
		It("requires a base URL", func() {
			_, err := openai.New(openai.Config{}, log)
			Expect(err).To(HaveOccurred())
		})
	})
})
