package citations

import (
	"regexp"
	"strings"
)

// Markers look like 【12†sourcefile.pdf】.
var markerPattern = regexp.MustCompile(`【[^【】]*?†[^【】]*?】`)

// \s is ASCII only; \p{Z} adds NBSP, U+3000 and friends.
var whitespacePattern = regexp.MustCompile(`[\s\p{Z}]{2,}`)

// Clean strips inline citation markers, collapses whitespace runs into a
// single space and trims the result.
func Clean(text string) string {
	// removing an inner marker can close an outer one, so repeat until stable
	for markerPattern.MatchString(text) {
		text = markerPattern.ReplaceAllString(text, "")
	}
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
