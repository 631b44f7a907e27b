package chat

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StrictToken forces the assistant to search its documents for this turn.
const StrictToken = "/точно"

// ParseMode splits an optional strict-mode prefix off the raw input. The
// returned query is never empty for non-empty input: a bare token is sent
// as typed.
func ParseMode(raw string) (forceTool bool, query string) {
	trimmed := strings.TrimSpace(raw)

	tokenRunes := utf8.RuneCountInString(StrictToken)
	if utf8.RuneCountInString(trimmed) < tokenRunes {
		return false, raw
	}

	head, rest := splitRunes(trimmed, tokenRunes)
	if !strings.EqualFold(head, StrictToken) {
		return false, raw
	}

	// "/точності" is a word, not the token
	if next, _ := utf8.DecodeRuneInString(rest); rest != "" && !unicode.IsSpace(next) {
		return false, raw
	}

	query = strings.TrimSpace(rest)
	if query == "" {
		return true, raw
	}
	return true, query
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
