package kernel

import (
	"sort"
	"strings"
)

// SkillKey is the case-insensitive comparison key of a skill name.
func SkillKey(skill string) string {
	return strings.ToLower(strings.Join(strings.Fields(skill), " "))
}

// UniqueSkills trims and deduplicates skills case-insensitively, keeping the
// first spelling seen and the input order.
func UniqueSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SortedSkills is UniqueSkills ordered case-insensitively.
func SortedSkills(skills []string) []string {
	out := UniqueSkills(skills)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}
