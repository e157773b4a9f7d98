package engine

import (
	"strings"
	"testing"

	"github.com/ssism/dhammi/internal/cttm"
)

func ledgerFacts() []cttm.FactRecord {
	// Already sorted by confidence, as the accessor returns them.
	return []cttm.FactRecord{
		{Text: "", Confidence: 0.99},
		{Text: "Candidate A won Ward 3 with 61% of the vote.", Confidence: 0.92, Source: "Witness X"},
		{Text: "Polling stations in Ward 3 closed early.", Confidence: 0.8},
		{Text: "The council budget was approved.", Confidence: 0.7},
		{Text: "Ward 3 turnout was reported at 40%.", Confidence: 0.6},
		{Text: "Ward boundaries were redrawn in 2019.", Confidence: 0.5},
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"Who won in Ward 3?", []string{"Who", "won", "Ward"}},
		{"a an to", nil},
		{"", nil},
		{"snake_case words", []string{"snake_case", "words"}},
		{"one two six ten abc def ghi jkl mno pqr stu vwx yz0 end", []string{"one", "two", "six", "ten", "abc", "def", "ghi", "jkl", "mno", "pqr", "stu", "vwx"}},
		{"ရွေးကောက်ပွဲ result", []string{"ရွေးကောက်ပွဲ", "result"}},
	}
	for _, tt := range tests {
		got := Tokens(tt.query)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Tokens(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestSelectWardThree(t *testing.T) {
	got := Select("Who won in Ward 3?", ledgerFacts(), 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Confidence != 0.92 {
		t.Errorf("first = %+v, want the 0.92 fact", got[0])
	}
	for _, f := range got {
		if !strings.Contains(strings.ToLower(f.Text), "ward") && !strings.Contains(strings.ToLower(f.Text), "won") {
			t.Errorf("selected fact shares no token with query: %q", f.Text)
		}
	}
}

func TestSelectCaseInsensitive(t *testing.T) {
	got := Select("BUDGET", ledgerFacts(), 3)
	if len(got) != 1 || got[0].Text != "The council budget was approved." {
		t.Errorf("Select(BUDGET) = %+v", got)
	}
}

func TestSelectSubstringMatch(t *testing.T) {
	// Tokens match inside longer words, as substrings.
	got := Select("redraw", ledgerFacts(), 3)
	if len(got) != 1 {
		t.Errorf("Select(redraw) = %+v, want the boundaries fact", got)
	}
}

func TestSelectEmpty(t *testing.T) {
	if got := Select("anything", nil, 3); len(got) != 0 {
		t.Errorf("Select with no facts = %v", got)
	}
	if got := Select("", ledgerFacts(), 3); len(got) != 0 {
		t.Errorf("Select with empty query = %v", got)
	}
	if got := Select("is it ok", ledgerFacts(), 3); len(got) != 0 {
		t.Errorf("Select with short tokens only = %v", got)
	}
	if got := Select("zebra", ledgerFacts(), 3); len(got) != 0 {
		t.Errorf("Select with no match = %v", got)
	}
}

func TestSelectQuotesMetacharacters(t *testing.T) {
	facts := []cttm.FactRecord{{Text: "price rose (again)", Confidence: 1}}
	if got := Select("(again)+", facts, 3); len(got) != 1 {
		t.Errorf("Select with metacharacters = %v", got)
	}
}

func TestSelectDefaultLimit(t *testing.T) {
	got := Select("Ward", ledgerFacts(), 0)
	if len(got) != DefaultLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultLimit)
	}
}

func TestFilter(t *testing.T) {
	if got := Filter("", ledgerFacts()); len(got) != len(ledgerFacts()) {
		t.Errorf("Filter with empty query = %d facts", len(got))
	}
	if got := Filter("Ward", ledgerFacts()); len(got) != 4 {
		t.Errorf("Filter(Ward) = %d facts, want 4", len(got))
	}
}
