package recommend

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Clause patterns in priority order; Normalize strips at most one
var clausePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\s*\b(feat\.?|ft\.?|featuring)\s+.*$`),
	regexp.MustCompile(`\s*&\s+.*$`),
	regexp.MustCompile(`\s*,\s+.*$`),
}

// Normalize returns the comparison key of an artist name: lowercased,
// trimmed, with one trailing featuring, "&" or comma clause removed.
//
//	Normalize("Drake feat. Future")  // "drake"
//	Normalize("Simon & Garfunkel")   // "simon"
//	Normalize("Tyler, The Creator")  // "tyler"
func Normalize(name string) string {
	key := strings.TrimSpace(strings.ToLower(name))
	for _, re := range clausePatterns {
		if !re.MatchString(key) {
			continue
		}
		stripped := strings.TrimSpace(re.ReplaceAllString(key, ""))
		if stripped == "" {
			// "& friends" style names have nothing left to compare
			return key
		}
		return stripped
	}
	return key
}

// Similarity is the edit-distance similarity of a and b in [0,1]:
// (maxLen - distance) / maxLen, lengths in runes
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := max(la, lb)
	if maxLen == 0 {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}
	return float64(maxLen-levenshtein.Distance(a, b, nil)) / float64(maxLen)
}
