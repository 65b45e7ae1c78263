package openai

// ObjectChunk is the object tag carried by every streamed chunk.
const ObjectChunk = "chat.completion.chunk"

// ChunkResponse is one streamed chat.completion.chunk payload. One chunk is
// emitted per generation event that carries observable state, plus exactly
// one terminal chunk bearing the finish reason.
type ChunkResponse struct {
	ID                string         `json:"id"`
	Object            string         `json:"object"`
	Created           int64          `json:"created"`
	Model             string         `json:"model"`
	Choices           []StreamChoice `json:"choices"`
	SystemFingerprint *string        `json:"system_fingerprint,omitempty"`
	Usage             *Usage         `json:"usage,omitempty"`
}

// StreamChoice is a single choice entry inside a streamed chunk. Index is
// always 0: the bridge never fans a stream out into parallel completions.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason,omitempty"`
}

// Delta is the incremental portion of the assistant reply carried by one
// chunk. Content is a pointer so an explicit empty string survives
// serialization; a nil field is omitted entirely.
type Delta struct {
	Role    *string `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Usage is the OpenAI-shaped token accounting object attached to the
// terminal chunk when the client requested it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
