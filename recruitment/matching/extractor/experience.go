package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxYearSpan drops ranges like "1970-2024" that are more likely a birth
// year or a typo than a tenure.
const maxYearSpan = 49

var (
	yearsPlusRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*\+?\s*(?:years?|yrs?)\.?\s+(?:of\s+)?(?:[\w-]+\s+){0,3}experience`)
	yearsDashRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*[-–—]\s*(\d{1,2})\s*\+?\s*(?:years?|yrs?)\b`)
	yearsToRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+to\s+(\d{1,2})\s*(?:years?|yrs?)\b`)
	yearRangeRe  = regexp.MustCompile(`(?i)\b((?:19|20)\d{2})\s*(?:[-–—]|to)\s*((?:19|20)\d{2}|present|current|now|today)\b`)
	openEndWords = map[string]bool{"present": true, "current": true, "now": true, "today": true}
)

// extractExperience returns the largest explicit years-of-experience value,
// or the largest plausible year-range span if that is bigger. Nil when
// neither is found.
func extractExperience(text string, now time.Time) *int {
	best := -1

	for _, m := range yearsPlusRe.FindAllStringSubmatch(text, -1) {
		best = max(best, atoi(m[1]))
	}
	for _, re := range []*regexp.Regexp{yearsDashRe, yearsToRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			best = max(best, atoi(m[1]), atoi(m[2]))
		}
	}

	for _, m := range yearRangeRe.FindAllStringSubmatch(text, -1) {
		start := atoi(m[1])
		end := now.Year()
		if !openEndWords[strings.ToLower(m[2])] {
			end = atoi(m[2])
		}
		span := end - start
		if span < 0 || span > maxYearSpan {
			continue
		}
		best = max(best, span)
	}

	if best < 0 {
		return nil
	}
	return &best
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
