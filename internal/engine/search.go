package engine

import (
	"regexp"
	"strings"

	"github.com/ssism/dhammi/internal/cttm"
)

// DefaultLimit is how many facts are injected into a prompt.
const DefaultLimit = 3

// maxTokens caps the alternation built from a query.
const maxTokens = 12

// tokenPattern matches words of three or more letters, digits, marks or
// underscores. Marks are included so scripts with combining vowel signs
// are not split mid-word.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]{3,}`)

// Tokens returns the query words used for matching, in order, capped at
// the first twelve.
func Tokens(query string) []string {
	toks := tokenPattern.FindAllString(query, -1)
	if len(toks) > maxTokens {
		toks = toks[:maxTokens]
	}
	return toks
}

// matcher builds one case-insensitive alternation over the query tokens,
// or nil when the query has none.
func matcher(query string) *regexp.Regexp {
	toks := Tokens(query)
	if len(toks) == 0 {
		return nil
	}
	quoted := make([]string, len(toks))
	for i, t := range toks {
		quoted[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)`)
}

// Select returns at most limit facts whose text contains any query token.
// facts must already be ordered by confidence; the first matches in that
// order win. limit <= 0 means DefaultLimit.
func Select(query string, facts []cttm.FactRecord, limit int) []cttm.FactRecord {
	if limit <= 0 {
		limit = DefaultLimit
	}
	re := matcher(query)
	if re == nil || len(facts) == 0 {
		return nil
	}

	var out []cttm.FactRecord
	for _, f := range facts {
		if f.Text == "" || !re.MatchString(f.Text) {
			continue
		}
		out = append(out, f)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Filter returns every fact matching the query, in order. An empty query
// matches everything.
func Filter(query string, facts []cttm.FactRecord) []cttm.FactRecord {
	if strings.TrimSpace(query) == "" {
		return facts
	}
	return Select(query, facts, len(facts)+1)
}
