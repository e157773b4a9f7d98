package engine

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxQueryChars bounds what a single query may send to the generator.
const maxQueryChars = 8000

// ErrEmptyQuery is returned for queries that are blank after trimming.
var ErrEmptyQuery = errors.New("query is empty")

// normalizeQuery trims the query and truncates oversize input at a word
// boundary. The second result reports whether truncation happened.
func normalizeQuery(q string) (string, bool, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", false, ErrEmptyQuery
	}
	if len(q) <= maxQueryChars {
		return q, false, nil
	}
	return truncateClean(q, maxQueryChars), true, nil
}

// truncateClean truncates a string to maxLen bytes, cutting at the last
// word boundary to avoid mid-word breaks and never splitting a rune.
func truncateClean(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	truncated := s[:cut]
	if idx := strings.LastIndexFunc(truncated, unicode.IsSpace); idx > 0 && idx > cut-200 {
		truncated = truncated[:idx]
	}
	return strings.TrimSpace(truncated)
}
