// Package vector provides interfaces and implementations for vector storage
// of knowledge passages.
package vector

import "context"

// Document represents a stored passage with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the passage.
	ID string

	// Text is the passage content returned to retrieval callers.
	Text string

	// Tags are the lower-cased topic labels the passage was ingested under.
	Tags []string

	// Embedding is the vector representation of the passage.
	Embedding []float32
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// Filter restricts a query to passages carrying at least one of the given
// tags. A nil Filter (or one with no tags) matches everything.
type Filter struct {
	Tags []string
}

// Matches reports whether a document passes the filter.
func (f *Filter) Matches(doc Document) bool {
	if f == nil || len(f.Tags) == 0 {
		return true
	}
	for _, want := range f.Tags {
		for _, have := range doc.Tags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Driver handles storage and retrieval of passage embeddings.
type Driver interface {
	// Add stores documents with their embeddings. Documents with an
	// existing ID are updated in place.
	Add(ctx context.Context, docs []Document) error

	// Query finds the topK most similar documents to the given embedding,
	// restricted by filter when non-nil.
	Query(ctx context.Context, embedding []float32, topK int, filter *Filter) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the driver.
	Close() error
}
