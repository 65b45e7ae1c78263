package llm

// GenerationEvent is one partial result from the generation backend.
// A stream of GenerationEvents is a finite, ordered, single-consumer
// sequence terminating when the backend signals completion or failure.
type GenerationEvent struct {
	// DeltaText is the incremental assistant text carried by this event.
	// Empty when the event carries only metadata.
	DeltaText string `json:"delta_text,omitempty"`

	// FinishReason is the provider's raw stop signal. Empty means the
	// stream is still in progress. Providers disagree on casing and
	// vocabulary; normalization happens in the stream adapter, not here.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is updated opportunistically whenever the backend reports
	// token accounting, independent of the finish reason.
	Usage *Usage `json:"usage,omitempty"`
}

// Usage contains token counts for a generation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is the result of a non-streaming backend call.
type Completion struct {
	// Text is the full assistant reply.
	Text string `json:"text"`

	// FinishReason is the provider's raw stop signal.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage holds token accounting when the provider reports it.
	Usage *Usage `json:"usage,omitempty"`
}
