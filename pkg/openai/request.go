// Package openai defines the OpenAI chat-completion wire entities served and
// consumed by the interviewd bridge: the inbound chat request and the
// streamed chat.completion.chunk payloads.
package openai

import (
	"encoding/json"

	"github.com/talentwire/interviewd/pkg/llm"
)

// ChatRequest represents an OpenAI-shaped chat completion request.
type ChatRequest struct {
	Model         string         `json:"model"`
	Messages      []Message      `json:"messages"`
	Stream        *bool          `json:"stream,omitempty"`
	StreamOptions *StreamOptions `json:"stream_options,omitempty"`
	MaxTokens     *int           `json:"max_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	TopP          *float64       `json:"top_p,omitempty"`
}

// StreamOptions mirrors OpenAI's stream_options object.
type StreamOptions struct {
	IncludeUsage bool `json:"include_usage,omitempty"`
}

// Message is a single OpenAI-format chat message. Content on the wire is
// either a plain string or an array of typed parts; UnmarshalJSON decodes
// both shapes into the Parts union exactly once, at this boundary.
type Message struct {
	Role  string        `json:"role"`
	Parts []ContentPart `json:"-"`

	// raw string form preserved for marshalling simple messages back out.
	text   string
	isText bool
}

// ContentPart is one element of an array-form message content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	ImageURL *struct {
		URL    string `json:"url"`
		Detail string `json:"detail,omitempty"`
	} `json:"image_url,omitempty"`
}

type messageWire struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// UnmarshalJSON decodes the polymorphic content field into the closed
// ContentPart union. String content becomes a single text part.
func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	m.Role = wire.Role
	m.Parts = nil
	m.isText = false

	if len(wire.Content) == 0 || string(wire.Content) == "null" {
		return nil
	}

	var text string
	if err := json.Unmarshal(wire.Content, &text); err == nil {
		m.text = text
		m.isText = true
		m.Parts = []ContentPart{{Type: "text", Text: text}}
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(wire.Content, &parts); err != nil {
		return err
	}
	m.Parts = parts
	return nil
}

// MarshalJSON encodes string-form content back to a string and part-form
// content back to an array, so round-trips preserve the client's shape.
func (m Message) MarshalJSON() ([]byte, error) {
	var content any
	if m.isText {
		content = m.text
	} else if m.Parts != nil {
		content = m.Parts
	}
	return json.Marshal(struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	}{Role: m.Role, Content: content})
}

// Text returns the concatenated text content of the message.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Type == "text" {
			out += p.Text
		}
	}
	return out
}

// NewTextWireMessage builds a string-content Message, used when echoing
// transcripts back out in OpenAI shape.
func NewTextWireMessage(role, text string) Message {
	return Message{
		Role:   role,
		Parts:  []ContentPart{{Type: "text", Text: text}},
		text:   text,
		isText: true,
	}
}

// ToMessages converts the request's wire messages into the internal
// representation consumed by the prompt assembler and backend.
func (r *ChatRequest) ToMessages() []llm.Message {
	messages := make([]llm.Message, 0, len(r.Messages))
	for _, msg := range r.Messages {
		converted := llm.Message{Role: msg.Role}
		for _, part := range msg.Parts {
			switch part.Type {
			case "text":
				converted.Content = append(converted.Content, llm.ContentBlock{Type: "text", Text: part.Text})
			case "image_url":
				block := llm.ContentBlock{Type: "image"}
				if part.ImageURL != nil {
					block.ImageURL = part.ImageURL.URL
				}
				converted.Content = append(converted.Content, block)
			}
		}
		messages = append(messages, converted)
	}
	return messages
}

// WantsStream reports whether the request asked for a streamed response.
func (r *ChatRequest) WantsStream() bool {
	return r.Stream != nil && *r.Stream
}

// WantsUsage reports whether the request asked for usage accounting on the
// terminal stream chunk.
func (r *ChatRequest) WantsUsage() bool {
	return r.StreamOptions != nil && r.StreamOptions.IncludeUsage
}
