package store

import (
	"fmt"
)

// factColumns is the header FactRows reports, matching the ledger layout.
var factColumns = []string{"Timestamp", "Category", "Confidence", "Fact_Text", "Source"}

// AppendFactRow stores one ledger row. Cells beyond the fifth are ignored,
// missing cells are stored empty.
func (db *DB) AppendFactRow(row []string) error {
	cells := make([]any, len(factColumns))
	for i := range cells {
		if i < len(row) {
			cells[i] = row[i]
		} else {
			cells[i] = ""
		}
	}
	_, err := db.Exec(`
		INSERT INTO facts (recorded_at, category, confidence, fact_text, source)
		VALUES (?, ?, ?, ?, ?)
	`, cells...)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	return nil
}

// FactRows returns the facts table as a header-first grid in insertion
// order, the same shape a spreadsheet read produces.
func (db *DB) FactRows() ([][]string, error) {
	rows, err := db.Query(`
		SELECT recorded_at, category, confidence, fact_text, source
		FROM facts ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("get facts: %w", err)
	}
	defer rows.Close()

	out := [][]string{append([]string(nil), factColumns...)}
	for rows.Next() {
		r := make([]string, len(factColumns))
		if err := rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4]); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountFacts returns the number of stored fact rows.
func (db *DB) CountFacts() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM facts`).Scan(&n)
	return n, err
}
