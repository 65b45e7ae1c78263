// Package rag retrieves knowledge passages for a chat turn and folds them
// into the outgoing message list. Retrieval is strictly best-effort: any
// failure degrades to an unaugmented request, never to a failed one.
package rag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/embeddings"
	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/vector"
)

// DefaultTopK is the retrieval depth used when none is configured.
const DefaultTopK = 3

// passageSeparator joins rendered passages inside the augmentation block.
const passageSeparator = "\n\n"

// Passage is one retrieved knowledge snippet.
type Passage struct {
	// Source identifies where the passage came from.
	Source string

	// Text is the passage content.
	Text string

	// Tags are the topic labels the passage was ingested under.
	Tags []string

	// Score is the similarity score (higher = more similar).
	Score float32
}

// Engine performs similarity retrieval over the knowledge index.
type Engine struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	topK     int
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. topK <= 0 selects DefaultTopK.
func NewEngine(embedder embeddings.Embedder, driver vector.Driver, topK int, logger *zap.Logger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{
		embedder: embedder,
		driver:   driver,
		topK:     topK,
		logger:   logger,
	}
}

// Retrieve returns up to topK passages similar to query, preferring those
// matching the given tags. A blank query retrieves nothing. When tags match
// zero passages, the tag filter is dropped rather than returning nothing.
// Failures are logged and reported as an empty result.
func (e *Engine) Retrieve(ctx context.Context, query string, tags []string) []Passage {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("embedding retrieval query failed, skipping retrieval", zap.Error(err))
		return nil
	}

	filter := tagFilter(tags)

	results, err := e.driver.Query(ctx, embedding, e.topK, filter)
	if err != nil {
		e.logger.Warn("knowledge index query failed, skipping retrieval", zap.Error(err))
		return nil
	}

	if len(results) == 0 && filter != nil {
		e.logger.Debug("tag filter matched nothing, falling back to unfiltered search",
			zap.Strings("tags", filter.Tags))
		results, err = e.driver.Query(ctx, embedding, e.topK, nil)
		if err != nil {
			e.logger.Warn("knowledge index query failed, skipping retrieval", zap.Error(err))
			return nil
		}
	}

	passages := make([]Passage, 0, len(results))
	for _, r := range results {
		passages = append(passages, Passage{
			Source: r.ID,
			Text:   r.Text,
			Tags:   r.Tags,
			Score:  r.Score,
		})
	}
	return passages
}

// tagFilter normalizes tags to lower case and drops blanks. Returns nil when
// nothing remains, meaning no filtering.
func tagFilter(tags []string) *vector.Filter {
	normalized := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			normalized = append(normalized, t)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return &vector.Filter{Tags: normalized}
}

// Assemble folds passages into base. The augmentation text is appended to
// the leading system message, or inserted as a new one at position 0 when
// none exists. With no passages, base is returned untouched. User and
// assistant turns are never reordered or dropped.
func Assemble(base []llm.Message, passages []Passage) []llm.Message {
	if len(passages) == 0 {
		return base
	}

	augmentation := renderPassages(passages)

	if len(base) > 0 && base[0].Role == llm.RoleSystem {
		out := make([]llm.Message, len(base))
		copy(out, base)
		out[0] = llm.NewTextMessage(llm.RoleSystem, base[0].GetText()+"\n\n"+augmentation)
		return out
	}

	out := make([]llm.Message, 0, len(base)+1)
	out = append(out, llm.NewTextMessage(llm.RoleSystem, augmentation))
	out = append(out, base...)
	return out
}

// renderPassages produces the augmentation block, one source-annotated
// passage per paragraph.
func renderPassages(passages []Passage) string {
	rendered := make([]string, 0, len(passages))
	for _, p := range passages {
		rendered = append(rendered, fmt.Sprintf("[source: %s] %s", p.Source, p.Text))
	}
	return strings.Join(rendered, passageSeparator)
}
