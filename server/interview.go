package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/interview"
	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/resume"
	"github.com/talentwire/interviewd/pkg/session"
)

// setupRequest is the body of POST /interview/setup-current.
type setupRequest struct {
	Position     string       `json:"position"`
	Tags         []string     `json:"tags"`
	SystemPrompt string       `json:"system_prompt"`
	Resume       *resume.Info `json:"resume"`

	// ResumeText triggers extraction when no structured resume is given.
	ResumeText string `json:"resume_text"`
}

type setupResponse struct {
	Status       string   `json:"status"`
	SystemPrompt string   `json:"system_prompt"`
	Tags         []string `json:"tags"`
}

// handleInterviewSetup atomically replaces the current interview context.
// The previous interview, transcript included, is discarded.
func (s *Server) handleInterviewSetup(c *fiber.Ctx) error {
	var req setupRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("malformed setup request: "+err.Error(), llm.ErrorTypeInvalidRequest))
	}

	info := req.Resume
	if info == nil && strings.TrimSpace(req.ResumeText) != "" {
		if s.extractor == nil {
			return c.Status(fiber.StatusBadRequest).
				JSON(llm.NewErrorResponse("resume extraction is not configured", llm.ErrorTypeInvalidRequest))
		}
		extracted, err := s.extractor.Extract(c.Context(), req.ResumeText)
		if err != nil {
			s.logger.Error("resume extraction during setup failed", zap.Error(err))
			return c.Status(fiber.StatusBadGateway).
				JSON(llm.NewErrorResponse("resume extraction failed", llm.ErrorTypeUpstream))
		}
		info = extracted
	}

	tags := normalizeTags(req.Tags)
	prompt := interview.BuildSystemPrompt(interview.Setup{
		Position:     req.Position,
		Tags:         tags,
		SystemPrompt: req.SystemPrompt,
		Resume:       info,
	})

	s.store.Set(&session.Context{
		SystemPrompt:  prompt,
		Tags:          tags,
		ResumeSummary: info,
	})

	s.logger.Info("interview context replaced",
		zap.String("position", req.Position),
		zap.Strings("tags", tags),
	)

	return c.JSON(setupResponse{
		Status:       "ok",
		SystemPrompt: prompt,
		Tags:         tags,
	})
}

// handleInterviewClear drops the current interview context.
func (s *Server) handleInterviewClear(c *fiber.Ctx) error {
	s.store.Clear()
	s.logger.Info("interview context cleared")
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleInterviewEvaluation scores the current interview's transcript.
func (s *Server) handleInterviewEvaluation(c *fiber.Ctx) error {
	ic, ok := s.store.Get()
	if !ok {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("no active interview to evaluate", llm.ErrorTypeInvalidRequest))
	}

	if s.evaluator == nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("evaluation is not configured", llm.ErrorTypeInvalidRequest))
	}

	eval, err := s.evaluator.Evaluate(c.Context(), ic)
	if err != nil {
		s.logger.Error("interview evaluation failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).
			JSON(llm.NewErrorResponse("evaluation failed", llm.ErrorTypeUpstream))
	}

	return c.JSON(eval)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
