package resumeparser

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Abraxas-365/hireflow/internal/ai/llm"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

// DefaultExcerptLimit is how many leading runes of a resume are sent.
const DefaultExcerptLimit = 4000

// maxPlausibleYears discards experience values no resume can carry.
const maxPlausibleYears = 60

// ResumeParser asks a language model for the fields the rule-based
// extractor could not find.
type ResumeParser struct {
	client       llm.Client
	excerptLimit int
}

func NewResumeParser(client llm.Client, excerptLimit int) *ResumeParser {
	if excerptLimit <= 0 {
		excerptLimit = DefaultExcerptLimit
	}
	return &ResumeParser{client: client, excerptLimit: excerptLimit}
}

// Annotation is the model's view of a resume. Nil fields were not found.
type Annotation struct {
	Skills          []string `json:"skills"`
	ExperienceYears *int     `json:"experience_years,omitempty"`
	Education       *string  `json:"education,omitempty"`
	WorkSummary     *string  `json:"work_summary,omitempty"`
}

var annotationSchema = map[string]any{
	"type":     "object",
	"required": []any{"skills"},
	"properties": map[string]any{
		"skills": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"experience_years": map[string]any{"type": []any{"number", "string", "null"}},
		"education":        map[string]any{"type": []any{"string", "null"}},
		"work_summary":     map[string]any{"type": []any{"string", "null"}},
	},
}

const systemPrompt = `You are a professional resume parser. Read the resume excerpt and return ONLY a valid JSON object. Never invent information that is not in the text.`

const userPromptTemplate = `Extract the following fields from this resume excerpt and return them as JSON:

{
  "skills": [string],            // technical and professional skills, one per entry
  "experience_years": number,    // total years of professional experience, null if unknown
  "education": string,           // highest degree with field and institution, null if none
  "work_summary": string         // two sentences describing the candidate's work, null if unclear
}

Resume excerpt:
---
%s
---`

// Annotate sends the resume excerpt to the model and returns the validated
// annotation. Any transport or schema problem is returned as an error and
// callers keep their own result.
func (p *ResumeParser) Annotate(ctx context.Context, text string) (*Annotation, error) {
	excerpt := Excerpt(text, p.excerptLimit)
	if strings.TrimSpace(excerpt) == "" {
		return nil, errors.New("resume text is empty")
	}

	raw, err := p.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf(userPromptTemplate, excerpt),
		JSON:        true,
		MaxTokens:   1500,
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("annotate resume: %w", err)
	}

	var ann Annotation
	if err := llm.DecodeJSON(raw, annotationSchema, &ann); err != nil {
		logx.Debugf("annotation rejected: %s", logx.TruncateForLog(raw, 200))
		return nil, err
	}

	ann.normalize()
	return &ann, nil
}

func (a *Annotation) normalize() {
	skills := make([]string, 0, len(a.Skills))
	for _, s := range a.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	a.Skills = skills

	if a.ExperienceYears != nil && (*a.ExperienceYears < 0 || *a.ExperienceYears > maxPlausibleYears) {
		a.ExperienceYears = nil
	}
	a.Education = nonBlank(a.Education)
	a.WorkSummary = nonBlank(a.WorkSummary)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// Excerpt returns the first limit runes of text.
func Excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
