package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const institutionWindow = 100

var (
	// Spelled-out degrees are case-insensitive; the two-letter abbreviations
	// are upper case only so "Ms." is not a degree. The field must be
	// capitalized so that "master of ceremonies" style prose does not pick
	// up a field.
	degreeRe = regexp.MustCompile(`\b(?:(?i:` +
		`bachelor(?:'?s)?(?:\s+of\s+(?:science|arts|engineering|technology|business administration))?` +
		`|master(?:'?s)?(?:\s+of\s+(?:science|arts|engineering|technology|business administration))?` +
		`|ph\.?\s?d\.?|doctorate|mba|b\.?sc|m\.?sc|b\.?tech|m\.?tech|b\.?eng|m\.?eng` +
		`)|B\.?S\.?|M\.?S\.?|B\.?A\.?|M\.?A\.?` +
		`)(?:\.|\b)(?:\s+(?i:degree))?(?:\s+(?i:in)\s+([A-Z][A-Za-z&]*(?:\s+[A-Z][A-Za-z&]*)*))?`)

	// A bare "MA" or "MS" is more often a state or a product than a degree.
	bareAbbrevRe = regexp.MustCompile(`^[BM][AS]\.?$`)

	institutionRe = regexp.MustCompile(`(?:[A-Z][\w.&'-]*\s+)*(?:University|College|Institute|School|Academy)(?:\s+of\s+[A-Z][\w&'-]*(?:\s+[A-Z][\w&'-]*)*)?`)
)

// extractEducation finds the first degree mention and, when an institution
// name appears within 100 characters of it, appends ", <institution>".
func extractEducation(text string) *string {
	var loc []int
	for _, m := range degreeRe.FindAllStringIndex(text, -1) {
		if isJobTitle(text[:m[0]]) || bareAbbrevRe.MatchString(text[m[0]:m[1]]) {
			continue
		}
		loc = m
		break
	}
	if loc == nil {
		return nil
	}

	degree := strings.Join(strings.Fields(text[loc[0]:loc[1]]), " ")
	degree = strings.TrimRight(degree, ".,;: ")

	if inst := findInstitution(text, loc[0], loc[1]); inst != "" {
		degree += ", " + inst
	}
	return &degree
}

// isJobTitle reports whether the word before a "master" match makes it a
// role such as "Scrum Master".
func isJobTitle(prefix string) bool {
	fields := strings.Fields(prefix)
	if len(fields) == 0 {
		return false
	}
	return strings.EqualFold(fields[len(fields)-1], "scrum")
}

// findInstitution prefers a name after the degree, then the closest name
// before it.
func findInstitution(text string, start, end int) string {
	after := text[end:runeBoundary(text, end+institutionWindow)]
	if m := institutionRe.FindString(after); m != "" {
		return strings.Join(strings.Fields(m), " ")
	}

	before := text[runeBoundary(text, start-institutionWindow):start]
	matches := institutionRe.FindAllString(before, -1)
	if len(matches) > 0 {
		return strings.Join(strings.Fields(matches[len(matches)-1]), " ")
	}
	return ""
}

// runeBoundary clamps i into text and moves it back to a rune start.
func runeBoundary(text string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
