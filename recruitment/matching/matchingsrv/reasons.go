package matchingsrv

import (
	"fmt"
	"strings"

	"github.com/Abraxas-365/hireflow/recruitment/matching"
)

// maxListedTerms caps how many terms one reason line lists.
const maxListedTerms = 5

// keywordReasons explains a keyword score in a few short lines.
func keywordReasons(job matching.JobProfile, c matching.CandidateProfile, o matching.Overlap) []string {
	reasons := make([]string, 0, 4)

	required := len(o.Matched) + len(o.Missing)
	switch {
	case required == 0:
		reasons = append(reasons, "Job lists no required skills; neutral score")
	case len(o.Matched) == 0:
		reasons = append(reasons, fmt.Sprintf("Matches none of %d required skills", required))
	default:
		reasons = append(reasons, fmt.Sprintf("Matches %d of %d required skills: %s", len(o.Matched), required, listTerms(o.Matched)))
	}

	if len(o.Missing) > 0 {
		reasons = append(reasons, "Missing: "+listTerms(o.Missing))
	}

	if preferred := matching.MatchingTerms(job.PreferredSkills, c.Skills); len(preferred) > 0 {
		reasons = append(reasons, "Has preferred skills: "+listTerms(preferred))
	}

	if c.ExperienceYears != nil {
		line := fmt.Sprintf("%d years of experience", *c.ExperienceYears)
		if job.ExperienceLevel != "" {
			line += fmt.Sprintf(" for a %s role", strings.ToLower(job.ExperienceLevel))
		}
		reasons = append(reasons, line)
	}

	return reasons
}

func listTerms(terms []string) string {
	if len(terms) <= maxListedTerms {
		return strings.Join(terms, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(terms[:maxListedTerms], ", "), len(terms)-maxListedTerms)
}
