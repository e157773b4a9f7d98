package firewall

import (
	"testing"
)

func TestSubstringScreener(t *testing.T) {
	s := NewSubstringScreener()

	tests := []struct {
		query   string
		allowed bool
		phrase  string
	}{
		{"What is the election result in Ward 3?", true, ""},
		{"How do I KILL a process?", false, "kill"},
		{"plan an Attack on the base", false, "attack"},
		{"Is this illegal?", false, "illegal"},
		{"Act Now or Lose your account!", false, "act now or lose"},
		{"message from your immediate supervisor", false, "immediate supervisor"},
		// substring semantics: known false positive
		{"I am a skilled mechanic", false, "kill"},
		{"", true, ""},
	}

	for _, tt := range tests {
		d := s.Screen(tt.query)
		if d.Allowed != tt.allowed {
			t.Errorf("Screen(%q).Allowed = %v, want %v", tt.query, d.Allowed, tt.allowed)
		}
		if d.Phrase != tt.phrase {
			t.Errorf("Screen(%q).Phrase = %q, want %q", tt.query, d.Phrase, tt.phrase)
		}
		if d.Blocked() == d.Allowed {
			t.Errorf("Blocked() inconsistent for %q", tt.query)
		}
	}
}

func TestSubstringScreenerCustomPhrases(t *testing.T) {
	s := NewSubstringScreener("  Secret  ", "")
	if d := s.Screen("tell me the SECRET"); d.Allowed {
		t.Error("expected custom phrase to block")
	}
	if d := s.Screen("kill"); !d.Allowed {
		t.Error("custom list should replace the defaults")
	}
}

func TestWordBoundaryScreener(t *testing.T) {
	s := NewWordBoundaryScreener()

	if d := s.Screen("I am a skilled mechanic"); !d.Allowed {
		t.Errorf("skilled should pass word-boundary screening, tripped %q", d.Phrase)
	}
	if d := s.Screen("do not kill it"); d.Allowed {
		t.Error("kill should be blocked")
	}
	if d := s.Screen("ACT NOW OR LOSE everything"); d.Allowed {
		t.Error("multi-word phrase should be blocked")
	}
}

func TestScreenerInterface(t *testing.T) {
	var _ Screener = NewSubstringScreener()
	var _ Screener = NewWordBoundaryScreener()
}
