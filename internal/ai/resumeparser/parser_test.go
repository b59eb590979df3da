package resumeparser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/internal/ai/llm"
)

type stubClient struct {
	answer string
	err    error
	prompt string
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Complete(_ context.Context, req llm.Request) (string, error) {
	s.prompt = req.Prompt
	return s.answer, s.err
}

func TestAnnotateDecodesWeaklyTypedOutput(t *testing.T) {
	client := &stubClient{answer: "```json\n" + `{
		"skills": ["Go", " Kubernetes ", ""],
		"experience_years": "6",
		"education": "MSc Computer Science, ETH Zurich",
		"work_summary": null
	}` + "\n```"}

	ann, err := NewResumeParser(client, 0).Annotate(context.Background(), "resume body")
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Kubernetes"}, ann.Skills)
	require.NotNil(t, ann.ExperienceYears)
	assert.Equal(t, 6, *ann.ExperienceYears)
	require.NotNil(t, ann.Education)
	assert.Equal(t, "MSc Computer Science, ETH Zurich", *ann.Education)
	assert.Nil(t, ann.WorkSummary)
}

func TestAnnotateRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name   string
		answer string
	}{
		{"not json", "I could not read this resume"},
		{"missing skills", `{"experience_years": 3}`},
		{"skills wrong type", `{"skills": "Go, Rust"}`},
		{"unparseable years", `{"skills": [], "experience_years": "many"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResumeParser(&stubClient{answer: tt.answer}, 0).Annotate(context.Background(), "resume")
			assert.ErrorIs(t, err, llm.ErrMalformedOutput)
		})
	}
}

func TestAnnotateDropsImplausibleValues(t *testing.T) {
	client := &stubClient{answer: `{"skills": ["Go"], "experience_years": 99, "education": "  ", "work_summary": "null"}`}

	ann, err := NewResumeParser(client, 0).Annotate(context.Background(), "resume")
	require.NoError(t, err)

	assert.Nil(t, ann.ExperienceYears)
	assert.Nil(t, ann.Education)
	assert.Nil(t, ann.WorkSummary)
}

func TestAnnotatePropagatesClientError(t *testing.T) {
	boom := errors.New("all providers down")
	_, err := NewResumeParser(&stubClient{err: boom}, 0).Annotate(context.Background(), "resume")
	assert.ErrorIs(t, err, boom)
}

func TestAnnotateSendsOnlyExcerpt(t *testing.T) {
	client := &stubClient{answer: `{"skills": []}`}
	text := strings.Repeat("a", 50) + "TAIL"

	_, err := NewResumeParser(client, 50).Annotate(context.Background(), text)
	require.NoError(t, err)

	assert.Contains(t, client.prompt, strings.Repeat("a", 50))
	assert.NotContains(t, client.prompt, "TAIL")
}

func TestAnnotateEmptyText(t *testing.T) {
	_, err := NewResumeParser(&stubClient{}, 0).Annotate(context.Background(), "   ")
	assert.Error(t, err)
}

func TestExcerptIsRuneSafe(t *testing.T) {
	assert.Equal(t, "héllo", Excerpt("héllo wörld", 5))
	assert.Equal(t, "short", Excerpt("short", 4000))
}
