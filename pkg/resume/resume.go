// Package resume extracts a structured candidate summary from raw resume
// text. Extraction delegates to the generation backend's non-streaming path
// and expects a JSON object back.
package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/talentwire/interviewd/pkg/llm"
	"github.com/talentwire/interviewd/pkg/llm/backend"
)

// Info is the structured summary of a candidate's resume.
type Info struct {
	Name            string   `json:"name"`
	Title           string   `json:"title"`
	YearsExperience int      `json:"years_experience"`
	Skills          []string `json:"skills"`
	Highlights      []string `json:"highlights"`
	Summary         string   `json:"summary"`
}

// PromptText renders the summary for inclusion in an interview system
// prompt. Empty fields are left out.
func (i *Info) PromptText() string {
	if i == nil {
		return ""
	}

	var b strings.Builder
	if i.Name != "" {
		fmt.Fprintf(&b, "Candidate: %s\n", i.Name)
	}
	if i.Title != "" {
		fmt.Fprintf(&b, "Current title: %s\n", i.Title)
	}
	if i.YearsExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %d\n", i.YearsExperience)
	}
	if len(i.Skills) > 0 {
		fmt.Fprintf(&b, "Key skills: %s\n", strings.Join(i.Skills, ", "))
	}
	for _, h := range i.Highlights {
		fmt.Fprintf(&b, "- %s\n", h)
	}
	if i.Summary != "" {
		fmt.Fprintf(&b, "%s\n", i.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

const extractionPrompt = `You are a resume screening assistant. Extract a structured summary from the resume text provided by the user. Respond with a single JSON object and nothing else, using this shape:
{"name": string, "title": string, "years_experience": number, "skills": [string], "highlights": [string], "summary": string}
Use empty values for fields the resume does not support. The summary is at most three sentences.`

// Extractor turns raw resume text into an Info via the generation backend.
type Extractor struct {
	backend backend.Backend
	logger  *zap.Logger
}

func NewExtractor(b backend.Backend, logger *zap.Logger) *Extractor {
	return &Extractor{backend: b, logger: logger}
}

// Extract analyzes resume text. The backend is instructed to answer with
// bare JSON; fenced or prefixed output is tolerated.
func (e *Extractor) Extract(ctx context.Context, text string) (*Info, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("resume text is empty")
	}

	completion, err := e.backend.Call(ctx, backend.Request{
		Messages: []llm.Message{
			llm.NewTextMessage(llm.RoleSystem, extractionPrompt),
			llm.NewTextMessage(llm.RoleUser, text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("resume extraction call: %w", err)
	}

	info, err := parseInfo(completion.Text)
	if err != nil {
		e.logger.Warn("resume extraction returned unparseable output",
			zap.String("output", completion.Text),
			zap.Error(err))
		return nil, err
	}
	return info, nil
}

// parseInfo decodes the first JSON object found in the model output.
func parseInfo(raw string) (*Info, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in extraction output")
	}

	var info Info
	if err := json.Unmarshal([]byte(raw[start:end+1]), &info); err != nil {
		return nil, fmt.Errorf("decoding extraction output: %w", err)
	}
	return &info, nil
}
