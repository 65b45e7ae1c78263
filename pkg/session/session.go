// Package session holds the process-wide interview context. One context is
// current at a time; replacing it atomically discards the prior one. Nothing
// here is persisted across restarts.
package session

import (
	"strings"
	"sync/atomic"

	"github.com/talentwire/interviewd/pkg/resume"
)

// TranscriptEntry is one spoken turn of the interview.
type TranscriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Context is an immutable snapshot of the current interview. Readers get a
// consistent view; mutation goes through the Store, which swaps whole
// snapshots.
type Context struct {
	SystemPrompt  string
	Tags          []string
	ResumeSummary *resume.Info
	Transcript    []TranscriptEntry
}

// Store is the atomic holder of the current interview context. The zero
// value is empty and ready to use.
type Store struct {
	current atomic.Pointer[Context]
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the current context. The previous one, transcript included,
// is discarded.
func (s *Store) Set(ctx *Context) {
	s.current.Store(ctx)
}

// Get returns the current context snapshot. ok is false when no interview
// has been set up.
func (s *Store) Get() (*Context, bool) {
	ctx := s.current.Load()
	return ctx, ctx != nil
}

// Clear drops the current context.
func (s *Store) Clear() {
	s.current.Store(nil)
}

// AppendTranscript records one turn on the current context via
// copy-on-write. Blank content is skipped. A no-op when no context is set;
// a concurrent Set or Clear wins over the append.
func (s *Store) AppendTranscript(role, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}

	for {
		old := s.current.Load()
		if old == nil {
			return
		}

		next := *old
		next.Transcript = make([]TranscriptEntry, len(old.Transcript), len(old.Transcript)+1)
		copy(next.Transcript, old.Transcript)
		next.Transcript = append(next.Transcript, TranscriptEntry{Role: role, Content: content})

		if s.current.CompareAndSwap(old, &next) {
			return
		}
	}
}
