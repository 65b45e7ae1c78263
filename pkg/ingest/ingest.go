// Package ingest provides an asynchronous worker pool that embeds knowledge
// passages and writes them to the vector store.
//
// The pool decouples indexing from request handling: setup and startup paths
// enqueue work and move on, while workers drain the queue in the background.
package ingest

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/embeddings"
	"github.com/talentwire/interviewd/pkg/knowledge"
	"github.com/talentwire/interviewd/pkg/vector"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is one knowledge source to embed and index.
type Job struct {
	Source knowledge.Source
}

// Config is the configuration options for the worker pool.
type Config struct {
	// VectorDriver is the vector store the passages are written to.
	VectorDriver vector.Driver

	// Embedder generates the passage embeddings.
	Embedder embeddings.Embedder

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool indexes knowledge sources asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.VectorDriver == nil || c.Embedder == nil {
		return nil, fmt.Errorf("ingest pool requires a vector driver and an embedder")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	p := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	p.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go p.worker(i)
	}

	return p, nil
}

// Enqueue submits a source for indexing.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("ingest job queued",
			zap.String("source", job.Source.ID),
			zap.Int("chunks", len(job.Source.Chunks)),
		)
		return true
	default:
		p.logger.Error("ingest job not queued, queue full, job dropped",
			zap.String("source", job.Source.ID),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("ingest worker started", zap.Uint("worker_id", id))

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("ingest worker stopped", zap.Uint("worker_id", id))
}

// processJob embeds every chunk of a source and upserts the resulting
// documents. A chunk whose embedding fails is skipped; the rest of the
// source still lands.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	docs := make([]vector.Document, 0, len(job.Source.Chunks))
	for i, chunk := range job.Source.Chunks {
		embedding, err := p.config.Embedder.Embed(ctx, chunk)
		if err != nil {
			p.logger.Error("embedding knowledge chunk failed",
				zap.String("source", job.Source.ID),
				zap.Int("chunk", i),
				zap.Error(err),
			)
			continue
		}

		docs = append(docs, vector.Document{
			ID:        fmt.Sprintf("%s-%d", job.Source.ID, i),
			Text:      chunk,
			Tags:      job.Source.Tags,
			Embedding: embedding,
		})
	}

	if len(docs) == 0 {
		return
	}

	if err := p.config.VectorDriver.Add(ctx, docs); err != nil {
		p.logger.Error("indexing knowledge source failed",
			zap.String("source", job.Source.ID),
			zap.Error(err),
		)
		return
	}

	p.logger.Info("knowledge source indexed",
		zap.String("source", job.Source.ID),
		zap.Int("passages", len(docs)),
	)
}
