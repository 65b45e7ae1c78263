// Package server exposes the interview assistant over HTTP: an
// OpenAI-compatible streaming chat endpoint plus the interview lifecycle
// surface (setup, clear, evaluation, resume analysis).
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/eventstream"
	"github.com/talentwire/interviewd/pkg/interview"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/rag"
	"github.com/talentwire/interviewd/pkg/resume"
	"github.com/talentwire/interviewd/pkg/session"
)

// Retriever finds knowledge passages for a chat turn. Satisfied by
// rag.Engine.
type Retriever interface {
	Retrieve(ctx context.Context, query string, tags []string) []rag.Passage
}

// Evaluator judges a finished interview. Satisfied by interview.Evaluator.
type Evaluator interface {
	Evaluate(ctx context.Context, ic *session.Context) (*interview.Evaluation, error)
}

// Extractor summarizes resume text. Satisfied by resume.Extractor.
type Extractor interface {
	Extract(ctx context.Context, text string) (*resume.Info, error)
}

// Config holds server settings.
type Config struct {
	// ListenAddr is the address the HTTP server binds.
	ListenAddr string

	// Model is the model label stamped on outgoing chunks when the
	// request does not name one.
	Model string

	// FirstEventTimeout bounds the wait for the first backend event of a
	// stream. Zero disables the bound.
	FirstEventTimeout time.Duration
}

// Server is the interviewd HTTP server.
type Server struct {
	config    Config
	backend   backend.Backend
	store     *session.Store
	retriever Retriever
	evaluator Evaluator
	extractor Extractor
	publisher eventstream.Publisher
	logger    *zap.Logger
	app       *fiber.App
}

// New creates a Server wiring the given collaborators. All of them are
// required except the publisher, which defaults to discarding events.
func New(config Config, b backend.Backend, store *session.Store, retriever Retriever,
	evaluator Evaluator, extractor Extractor, publisher eventstream.Publisher, logger *zap.Logger) (*Server, error) {
	if b == nil {
		return nil, errors.New("generation backend is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if retriever == nil {
		return nil, errors.New("retriever is required")
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	app.Use(compress.New())

	s := &Server{
		config:    config,
		backend:   b,
		store:     store,
		retriever: retriever,
		evaluator: evaluator,
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/chat/completions", s.handleChatCompletions)
	app.Post("/interview/setup-current", s.handleInterviewSetup)
	app.Post("/interview/clear", s.handleInterviewClear)
	app.Post("/interview/evaluation", s.handleInterviewEvaluation)
	app.Post("/resume/analyze", s.handleResumeAnalyze)

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting interviewd server",
		zap.String("listen", s.config.ListenAddr),
		zap.String("backend", s.backend.Name()),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server using the provided listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting interviewd server",
		zap.String("listen", listener.Addr().String()),
		zap.String("backend", s.backend.Name()),
	)

	return s.app.Listener(listener)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Close gracefully shuts down the server. Active streams end on their own;
// new connections are refused.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
