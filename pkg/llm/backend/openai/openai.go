// Package openai implements the generation Backend against any
// OpenAI-compatible chat completions API (OpenAI, DashScope's compatible
// mode, vLLM, Ollama's /v1 surface, ...).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/sse"
)

const (
	// doneSentinel terminates an upstream OpenAI SSE stream.
	doneSentinel = "[DONE]"

	chatCompletionsPath = "/chat/completions"
)

// Config holds configuration for the OpenAI-compatible backend.
type Config struct {
	// BaseURL is the upstream API root (e.g., "https://api.openai.com/v1").
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the default model when a request does not name one.
	Model string

	// Timeout bounds a single upstream exchange. Generation can be slow;
	// defaults to 5 minutes when zero.
	Timeout time.Duration
}

// Client is an OpenAI-compatible generation backend.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Client for the configured upstream.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("backend base URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (c *Client) Name() string {
	return "openai"
}

// Stream starts a streaming generation against the upstream and returns a
// Stream fed from its SSE response. Usage reporting is always requested
// upstream; whether it reaches the client is decided by the adapter.
func (c *Client) Stream(ctx context.Context, req backend.Request) (*backend.Stream, error) {
	body := c.buildBody(req, true)

	streamCtx, cancel := context.WithCancel(ctx)

	httpResp, err := c.post(streamCtx, body)
	if err != nil {
		cancel()
		return nil, err
	}

	s := backend.NewStream(cancel)
	go c.consumeSSE(streamCtx, httpResp, s)
	return s, nil
}

// Call performs a blocking, non-streaming generation.
func (c *Client) Call(ctx context.Context, req backend.Request) (*llm.Completion, error) {
	body := c.buildBody(req, false)

	httpResp, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var payload completionPayload
	if err := json.NewDecoder(httpResp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding completion response: %w", err)
	}

	if len(payload.Choices) == 0 {
		return nil, errors.New("upstream returned no choices")
	}

	choice := payload.Choices[0]
	completion := &llm.Completion{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
	}
	if payload.Usage != nil {
		completion.Usage = &llm.Usage{
			PromptTokens:     payload.Usage.PromptTokens,
			CompletionTokens: payload.Usage.CompletionTokens,
			TotalTokens:      payload.Usage.TotalTokens,
		}
	}
	return completion, nil
}

func (c *Client) buildBody(req backend.Request, streaming bool) chatBody {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}

	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{
			Role:    msg.Role,
			Content: msg.GetText(),
		})
	}

	body := chatBody{
		Model:       model,
		Messages:    messages,
		Stream:      streaming,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if streaming {
		// Always ask the upstream for usage; the stream adapter decides
		// whether it reaches the client.
		body.StreamOptions = &chatStreamOptions{IncludeUsage: true}
	}
	return body
}

func (c *Client) post(ctx context.Context, body chatBody) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		respBody, _ := io.ReadAll(httpResp.Body)

		var upstream errorPayload
		if err := json.Unmarshal(respBody, &upstream); err == nil && upstream.Error.Message != "" {
			return nil, fmt.Errorf("upstream returned status %d: %s", httpResp.StatusCode, upstream.Error.Message)
		}
		return nil, fmt.Errorf("upstream returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	return httpResp, nil
}

// consumeSSE reads the upstream SSE response and feeds the stream until the
// [DONE] sentinel, source exhaustion, or cancellation.
func (c *Client) consumeSSE(ctx context.Context, httpResp *http.Response, s *backend.Stream) {
	defer httpResp.Body.Close()

	reader := sse.NewReader(httpResp.Body)

	for {
		ev, err := reader.Next()
		if err != nil {
			// A read error after consumer cancellation is expected teardown.
			if ctx.Err() != nil {
				s.CloseSend(ctx.Err())
				return
			}
			c.logger.Error("error reading upstream SSE stream", zap.Error(err))
			s.CloseSend(err)
			return
		}
		if ev == nil {
			s.CloseSend(nil)
			return
		}

		if ev.Data == doneSentinel {
			s.CloseSend(nil)
			return
		}

		genEvent, ok := c.parseChunk([]byte(ev.Data))
		if !ok {
			continue
		}

		if !s.Send(ctx, genEvent) {
			s.CloseSend(ctx.Err())
			return
		}
	}
}

// parseChunk converts one upstream chunk payload into a GenerationEvent.
// Returns ok=false for frames carrying nothing of interest.
func (c *Client) parseChunk(data []byte) (llm.GenerationEvent, bool) {
	var payload chunkPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.logger.Warn("skipping malformed upstream chunk", zap.Error(err))
		return llm.GenerationEvent{}, false
	}

	var ev llm.GenerationEvent
	if len(payload.Choices) > 0 {
		choice := payload.Choices[0]
		ev.DeltaText = choice.Delta.Content
		if choice.FinishReason != nil {
			ev.FinishReason = *choice.FinishReason
		}
	}
	if payload.Usage != nil {
		ev.Usage = &llm.Usage{
			PromptTokens:     payload.Usage.PromptTokens,
			CompletionTokens: payload.Usage.CompletionTokens,
			TotalTokens:      payload.Usage.TotalTokens,
		}
	}

	// Usage-only frames (stream_options.include_usage) have no choices but
	// still matter for accounting.
	if len(payload.Choices) == 0 && payload.Usage == nil {
		return llm.GenerationEvent{}, false
	}

	return ev, true
}

var _ backend.Backend = (*Client)(nil)
