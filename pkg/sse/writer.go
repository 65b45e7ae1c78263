package sse

import (
	"io"
	"strings"
)

// Writer frames outbound SSE events onto an io.Writer. Each call produces a
// complete event terminated by a blank line, so a downstream parser never
// observes a partial frame from a single call.
type Writer struct {
	dest io.Writer
}

// NewWriter returns a Writer that frames events onto dest.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// WriteData writes a default-type event carrying the given payload.
// Multi-line payloads are split into one "data:" line each, per spec.
func (w *Writer) WriteData(data string) error {
	var b strings.Builder
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w.dest, b.String())
	return err
}

// WriteEvent writes a named event with the given payload.
func (w *Writer) WriteEvent(name, data string) error {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(name)
	b.WriteString("\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w.dest, b.String())
	return err
}

// WriteComment writes a comment line. Comments are invisible to SSE parsers
// and serve as keep-alive traffic for idle connections.
func (w *Writer) WriteComment(text string) error {
	_, err := io.WriteString(w.dest, ": "+text+"\n\n")
	return err
}
