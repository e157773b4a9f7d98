// Package firewall screens raw user input against a fixed deny-list before
// any retrieval or generation happens.
package firewall

import (
	"regexp"
	"strings"
)

// DefaultPhrases is the fixed deny-list: harm-related verbs plus
// social-engineering markers.
var DefaultPhrases = []string{
	"kill", "attack", "harm", "manipulate", "bomb", "destroy", "illegal",
	"act now or lose", "immediate supervisor",
}

// Decision is the outcome of screening one query.
type Decision struct {
	Allowed bool
	Phrase  string // the deny-list phrase that tripped, empty when allowed
	Reason  string
}

// Blocked reports whether the query must not proceed.
func (d Decision) Blocked() bool { return !d.Allowed }

// Screener decides whether a query may enter the pipeline.
type Screener interface {
	Screen(query string) Decision
}

// SubstringScreener blocks a query when any phrase occurs anywhere in the
// lower-cased query. Matching ignores word boundaries, so "skilled" trips
// "kill".
type SubstringScreener struct {
	phrases []string
}

// NewSubstringScreener returns a screener over phrases, or DefaultPhrases
// when none are given.
func NewSubstringScreener(phrases ...string) *SubstringScreener {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &SubstringScreener{phrases: lowered}
}

// Screen implements Screener.
func (s *SubstringScreener) Screen(query string) Decision {
	lower := strings.ToLower(query)
	for _, p := range s.phrases {
		if strings.Contains(lower, p) {
			return blocked(p)
		}
	}
	return Decision{Allowed: true}
}

// WordBoundaryScreener only matches whole-word phrases: neither "skilled"
// nor "killing" trips "kill". It is not the default.
type WordBoundaryScreener struct {
	patterns []*regexp.Regexp
	phrases  []string
}

// NewWordBoundaryScreener compiles one pattern per phrase.
func NewWordBoundaryScreener(phrases ...string) *WordBoundaryScreener {
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	s := &WordBoundaryScreener{}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		s.patterns = append(s.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b`))
		s.phrases = append(s.phrases, p)
	}
	return s
}

// Screen implements Screener.
func (s *WordBoundaryScreener) Screen(query string) Decision {
	for i, re := range s.patterns {
		if re.MatchString(query) {
			return blocked(s.phrases[i])
		}
	}
	return Decision{Allowed: true}
}

func blocked(phrase string) Decision {
	return Decision{
		Allowed: false,
		Phrase:  phrase,
		Reason:  "deny-list phrase " + `"` + phrase + `"`,
	}
}
