package store

import (
	"testing"
)

func TestFactRows(t *testing.T) {
	db := testDB(t)

	rows, err := db.FactRows()
	if err != nil {
		t.Fatalf("FactRows: %v", err)
	}
	if len(rows) != 1 || rows[0][3] != "Fact_Text" {
		t.Fatalf("empty table rows = %v, want header only", rows)
	}

	if err := db.AppendFactRow([]string{"2024-01-01T00:00:00Z", "Election Result", "0.92", "Candidate A won Ward 3.", "Witness X"}); err != nil {
		t.Fatalf("AppendFactRow: %v", err)
	}
	if err := db.AppendFactRow([]string{"2024-01-02T00:00:00Z", "", "0.4"}); err != nil {
		t.Fatalf("AppendFactRow short: %v", err)
	}

	rows, err = db.FactRows()
	if err != nil {
		t.Fatalf("FactRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if rows[1][4] != "Witness X" {
		t.Errorf("source = %q, want Witness X", rows[1][4])
	}
	if rows[2][3] != "" {
		t.Errorf("missing text cell = %q, want empty", rows[2][3])
	}

	n, err := db.CountFacts()
	if err != nil || n != 2 {
		t.Errorf("CountFacts = %d, %v, want 2", n, err)
	}
}
