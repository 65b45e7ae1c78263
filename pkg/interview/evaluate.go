package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
	"github.com/talentwire/interviewd/pkg/session"
)

// Evaluation is the structured verdict over a finished interview.
type Evaluation struct {
	Score      int      `json:"score"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Verdict    string   `json:"verdict"`
	Summary    string   `json:"summary"`
}

const evaluationPrompt = `You are reviewing the transcript of a technical job interview. Judge only what the candidate actually said. Respond with a single JSON object and nothing else, using this shape:
{"score": number from 0 to 100, "strengths": [string], "weaknesses": [string], "verdict": one of "strong_hire"|"hire"|"no_hire", "summary": string}`

// Evaluator judges an interview transcript via the generation backend's
// non-streaming path.
type Evaluator struct {
	backend backend.Backend
	logger  *zap.Logger
}

func NewEvaluator(b backend.Backend, logger *zap.Logger) *Evaluator {
	return &Evaluator{backend: b, logger: logger}
}

// Evaluate scores the transcript of the given interview context.
func (e *Evaluator) Evaluate(ctx context.Context, ic *session.Context) (*Evaluation, error) {
	if ic == nil || len(ic.Transcript) == 0 {
		return nil, fmt.Errorf("no transcript to evaluate")
	}

	completion, err := e.backend.Call(ctx, backend.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, evaluationPrompt),
			llm.NewTextMessage(llm.RoleUser, renderTranscript(ic.Transcript)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation call: %w", err)
	}

	eval, err := parseEvaluation(completion.Text)
	if err != nil {
		e.logger.Warn("evaluation returned unparseable output",
			zap.String("output", completion.Text),
			zap.Error(err))
		return nil, err
	}
	return eval, nil
}

// renderTranscript flattens the transcript into labeled lines, interviewer
// first-person mapped from the assistant role.
func renderTranscript(transcript []session.TranscriptEntry) string {
	var b strings.Builder
	for _, entry := range transcript {
		label := "Candidate"
		if entry.Role == llm.RoleAssistant {
			label = "Interviewer"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, entry.Content)
	}
	return b.String()
}

func parseEvaluation(raw string) (*Evaluation, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in evaluation output")
	}

	var eval Evaluation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &eval); err != nil {
		return nil, fmt.Errorf("decoding evaluation output: %w", err)
	}
	return &eval, nil
}
