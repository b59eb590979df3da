package extractor

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

var fixedNow = func() time.Time { return time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) }

func newTestExtractor(t *testing.T, extra ...string) *Extractor {
	t.Helper()
	e, err := New(extra, WithClock(fixedNow))
	require.NoError(t, err)
	return e
}

func TestExtractFullResume(t *testing.T) {
	resume := `Jane Doe
Senior Software Engineer with 7+ years of experience building data platforms.
Skills: python, Django, PostgreSQL, Docker, Kubernetes, AWS, React, TypeScript, Redis, Terraform, Kafka
Acme Corp 2018 - present
Education: Bachelor of Science in Computer Science, University of Texas at Austin`

	p := newTestExtractor(t).Extract(resume)

	assert.Equal(t, []string{
		"AWS", "Django", "Docker", "Kafka", "Kubernetes", "PostgreSQL",
		"Python", "React", "Redis", "Terraform", "TypeScript",
	}, p.Skills)
	require.NotNil(t, p.ExperienceYears)
	assert.Equal(t, 7, *p.ExperienceYears)
	require.NotNil(t, p.Education)
	assert.Equal(t, "Bachelor of Science in Computer Science, University of Texas", *p.Education)
	assert.InDelta(t, 1.0, p.Confidence, 1e-9)
	assert.Equal(t, matching.SourceAlgorithmic, p.Source)
}

func TestSkillsAreWholeWord(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"java inside javascript", "Senior JavaScript developer", []string{"JavaScript"}},
		{"both java and javascript", "Java and JavaScript", []string{"Java", "JavaScript"}},
		{"sql inside postgresql", "Tuned PostgreSQL queries", []string{"PostgreSQL"}},
		{"symbols", "C++ and C# daily", []string{"C#", "C++"}},
		{"case insensitive", "PYTHON, docker", []string{"Docker", "Python"}},
		{"multi word spacing", "machine\n  learning research", []string{"Machine Learning"}},
		{"punctuation boundaries", "(AWS/Terraform).", []string{"AWS", "Terraform"}},
		{"nothing", "Enjoys hiking", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Skills)
		})
	}
}

func TestExtraSkillsExtendVocabulary(t *testing.T) {
	e := newTestExtractor(t, "Phoenix LiveView")

	p := e.Extract("Built dashboards with phoenix liveview")
	assert.Equal(t, []string{"Phoenix LiveView"}, p.Skills)

	name, ok := e.Canonical("PHOENIX  liveview")
	assert.True(t, ok)
	assert.Equal(t, "Phoenix LiveView", name)
}

func TestExtractExperience(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want *int
	}{
		{"explicit beats range", "5+ years experience. Acme 2020-2024", intp(5)},
		{"range beats explicit", "2 years experience. Acme 2012 - 2022", intp(10)},
		{"qualified experience", "8 years of hands-on professional experience", intp(8)},
		{"dash range takes max", "3-5 years in backend", intp(5)},
		{"to range takes max", "2 to 4 years of Java", intp(4)},
		{"open ended range", "Acme 2019 - present", intp(5)},
		{"implausible span ignored", "Born 1950-2024", nil},
		{"reversed range ignored", "2024-2020", nil},
		{"none", "Fresh graduate", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).ExperienceYears
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestExtractEducation(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want string
	}{
		{"institution after", "MBA from Harvard Business School", "MBA, Harvard Business School"},
		{"institution before", "Stanford University - Master's degree in Data Science", "Master's degree in Data Science, Stanford University"},
		{"no institution", "PhD in Physics", "PhD in Physics"},
		{"lowercase field ignored", "bachelor of arts in history", "bachelor of arts"},
		{"dotted doctorate keeps field", "Ph.D. in Physics, Stanford University", "Ph.D. in Physics, Stanford University"},
		{"plural masters", "Masters in Computer Science from MIT Institute", "Masters in Computer Science, MIT Institute"},
		{"plural bachelors", "Bachelors in Economics", "Bachelors in Economics"},
		{"dotted master of science", "M.S. in Computer Science", "M.S. in Computer Science"},
		{"dotted bachelor of science", "B.S. in Mathematics", "B.S. in Mathematics"},
		{"bare abbreviation with field", "BA in History", "BA in History"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text).Education
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestScrumMasterIsNotADegree(t *testing.T) {
	p := newTestExtractor(t).Extract("Certified Scrum Master leading two teams")
	assert.Nil(t, p.Education)
}

func TestBareTwoLetterAbbreviationIsNotADegree(t *testing.T) {
	p := newTestExtractor(t).Extract("Office in Boston, MA. Daily MS Office user")
	assert.Nil(t, p.Education)
}

func TestInstitutionWindowIsRuneSafe(t *testing.T) {
	text := "MBA " + strings.Repeat("é", 60) + " Columbia University"
	p := newTestExtractor(t).Extract(text)
	require.NotNil(t, p.Education)
	assert.Equal(t, "MBA", *p.Education)
}

func TestConfidence(t *testing.T) {
	assert.InDelta(t, 0.08, Confidence(2, false, false), 1e-9)
	assert.InDelta(t, 0.4, Confidence(15, false, false), 1e-9)
	assert.InDelta(t, 0.68, Confidence(2, true, true), 1e-9)
	assert.InDelta(t, 1.0, Confidence(10, true, true), 1e-9)
}

func intp(v int) *int { return &v }
