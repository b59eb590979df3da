package matching

import (
	"math"
	"time"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// HybridConfidenceFloor is the minimum confidence of a merged profile.
const HybridConfidenceFloor = 0.8

// MergeProfiles combines an algorithmic profile with an AI annotation.
//
//	Skills          union of both, sorted
//	ExperienceYears AI when present, else algorithmic
//	Education       AI when present, else algorithmic
//	WorkSummary     AI only
//	Confidence      max(algorithmic, 0.8)
//	Source          hybrid
func MergeProfiles(algo, ai ExtractedProfile) ExtractedProfile {
	merged := ExtractedProfile{
		Skills:      kernel.SortedSkills(append(append([]string{}, algo.Skills...), ai.Skills...)),
		Confidence:  math.Max(algo.Confidence, HybridConfidenceFloor),
		Source:      SourceHybrid,
		ExtractedAt: time.Now(),
	}

	switch {
	case ai.ExperienceYears != nil:
		merged.ExperienceYears = intPtr(*ai.ExperienceYears)
	case algo.ExperienceYears != nil:
		merged.ExperienceYears = intPtr(*algo.ExperienceYears)
	}

	switch {
	case ai.HasEducation():
		merged.Education = strPtr(*ai.Education)
	case algo.HasEducation():
		merged.Education = strPtr(*algo.Education)
	}

	if ai.WorkSummary != nil && *ai.WorkSummary != "" {
		merged.WorkSummary = strPtr(*ai.WorkSummary)
	}

	return merged
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
