package matching

import (
	"math"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// NeutralKeywordScore is the keyword score when a job lists no required skills.
const NeutralKeywordScore = 0.5

// Overlap is the case-insensitive comparison of required and held skills.
// Matched and Missing keep the job's spelling and order; Additional keeps
// the candidate's.
type Overlap struct {
	Matched    []string
	Missing    []string
	Additional []string
	Score      float64
}

// ScoreOverlap computes matched/max(|required|,1), or 0.5 when nothing is
// required.
func ScoreOverlap(required, held []string) Overlap {
	required = kernel.UniqueSkills(required)
	held = kernel.UniqueSkills(held)

	heldKeys := make(map[string]struct{}, len(held))
	for _, s := range held {
		heldKeys[kernel.SkillKey(s)] = struct{}{}
	}
	requiredKeys := make(map[string]struct{}, len(required))

	o := Overlap{Matched: []string{}, Missing: []string{}, Additional: []string{}}
	for _, r := range required {
		key := kernel.SkillKey(r)
		requiredKeys[key] = struct{}{}
		if _, ok := heldKeys[key]; ok {
			o.Matched = append(o.Matched, r)
		} else {
			o.Missing = append(o.Missing, r)
		}
	}
	for _, s := range held {
		if _, ok := requiredKeys[kernel.SkillKey(s)]; !ok {
			o.Additional = append(o.Additional, s)
		}
	}

	if len(required) == 0 {
		o.Score = NeutralKeywordScore
	} else {
		o.Score = float64(len(o.Matched)) / float64(len(required))
	}
	return o
}

// MatchingTerms returns the entries of terms held by the candidate.
func MatchingTerms(terms, held []string) []string {
	return ScoreOverlap(terms, held).Matched
}

// NormalizeSimilarity maps cosine similarity from [-1,1] onto [0,1].
func NormalizeSimilarity(sim float64) float64 {
	if math.IsNaN(sim) {
		return 0
	}
	return math.Min(1, math.Max(0, (sim+1)/2))
}
