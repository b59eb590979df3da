package matching

import (
	"fmt"
	"strings"
)

// EmbeddingText projects a job into the labeled text that gets embedded.
// Empty fields are left out so their labels do not dilute the vector.
func (j JobProfile) EmbeddingText() string {
	var b strings.Builder
	writeLine(&b, "Title", j.Title)
	writeLine(&b, "Company", j.Company)
	writeLine(&b, "Location", j.Location)
	writeLine(&b, "Experience Level", j.ExperienceLevel)
	writeLine(&b, "Description", j.Description)
	writeLine(&b, "Required Skills", strings.Join(j.RequiredSkills, ", "))
	writeLine(&b, "Preferred Skills", strings.Join(j.PreferredSkills, ", "))
	return strings.TrimRight(b.String(), "\n")
}

// EmbeddingText projects a candidate into the labeled text that gets embedded.
func (c CandidateProfile) EmbeddingText() string {
	var b strings.Builder
	writeLine(&b, "Name", c.Name)
	writeLine(&b, "Skills", strings.Join(c.Skills, ", "))
	if c.ExperienceYears != nil {
		writeLine(&b, "Experience", fmt.Sprintf("%d years", *c.ExperienceYears))
	}
	writeLine(&b, "Education", c.Education)
	writeLine(&b, "Summary", c.Bio)
	return strings.TrimRight(b.String(), "\n")
}

func writeLine(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}
