package server

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/llm"
)

// analyzeRequest is the body of POST /resume/analyze.
type analyzeRequest struct {
	Text string `json:"text"`
}

// handleResumeAnalyze extracts a structured summary from resume text. The
// result is returned to the caller; attaching it to an interview happens
// via setup.
func (s *Server) handleResumeAnalyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("malformed analyze request: "+err.Error(), llm.ErrorTypeInvalidRequest))
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("resume text is required", llm.ErrorTypeInvalidRequest))
	}

	if s.extractor == nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(llm.NewErrorResponse("resume extraction is not configured", llm.ErrorTypeInvalidRequest))
	}

	info, err := s.extractor.Extract(c.Context(), req.Text)
	if err != nil {
		s.logger.Error("resume analysis failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).
			JSON(llm.NewErrorResponse("resume extraction failed", llm.ErrorTypeUpstream))
	}

	return c.JSON(info)
}
