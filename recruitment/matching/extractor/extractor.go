package extractor

import (
	"fmt"
	"math"
	"time"

	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// skillSaturation is the skill count at which the skill component of the
// confidence score maxes out.
const skillSaturation = 10

// Extractor derives a profile from raw resume text with patterns only.
// It never touches the network and is safe for concurrent use.
type Extractor struct {
	vocab *vocabulary
	now   func() time.Time
}

type Option func(*Extractor)

// WithClock fixes the time used to resolve open-ended ranges like
// "2019 - present".
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New compiles DefaultSkills plus extra into the matching vocabulary.
func New(extra []string, opts ...Option) (*Extractor, error) {
	skills := append(append([]string{}, DefaultSkills...), extra...)
	vocab, err := newVocabulary(skills)
	if err != nil {
		return nil, fmt.Errorf("compile skill vocabulary: %w", err)
	}

	e := &Extractor{vocab: vocab, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract builds an algorithmic profile. Missing fields are left nil.
func (e *Extractor) Extract(text string) matching.ExtractedProfile {
	skills := e.vocab.find(text)
	experience := extractExperience(text, e.now())
	education := extractEducation(text)

	return matching.ExtractedProfile{
		Skills:          skills,
		ExperienceYears: experience,
		Education:       education,
		Confidence:      Confidence(len(skills), experience != nil, education != nil),
		Source:          matching.SourceAlgorithmic,
		ExtractedAt:     e.now(),
	}
}

// Canonical maps skill to its vocabulary spelling.
func (e *Extractor) Canonical(skill string) (string, bool) {
	return e.vocab.canonical(skill)
}

// Confidence is min(skills/10,1)*0.4 plus 0.3 for each of experience and
// education being present.
func Confidence(skills int, hasExperience, hasEducation bool) float64 {
	c := math.Min(float64(skills)/skillSaturation, 1) * 0.4
	if hasExperience {
		c += 0.3
	}
	if hasEducation {
		c += 0.3
	}
	return math.Min(c, 1)
}
