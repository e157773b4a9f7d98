// Package cttm holds the CTTM fact model and the cached accessor that the
// retrieval pipeline reads facts through.
package cttm

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Fact categories offered at submission. Descriptive only.
const (
	CategoryElectionResult     = "Election Result"
	CategoryPoliticalStatement = "Political Statement"
	CategoryOSINTEvidence      = "OSINT Evidence"
	CategorySecurityUpdate     = "Security Update"
	CategoryPersonalInsight    = "Personal Insight"
	CategoryEssentialFact      = "Essential Fact"
	CategoryNewsDigest         = "News Digest"
)

// Categories lists the categories a submitter may choose from.
var Categories = []string{
	CategoryElectionResult,
	CategoryPoliticalStatement,
	CategoryOSINTEvidence,
	CategorySecurityUpdate,
	CategoryPersonalInsight,
}

// Ledger column names, in write order.
const (
	ColTimestamp  = "Timestamp"
	ColCategory   = "Category"
	ColConfidence = "Confidence"
	ColText       = "Fact_Text"
	ColSource     = "Source"
)

// Columns is the ledger header row.
var Columns = []string{ColTimestamp, ColCategory, ColConfidence, ColText, ColSource}

var (
	ErrEmptyText     = errors.New("fact text is required")
	ErrSchema        = errors.New("ledger header has no " + ColText + " column")
	ErrNotConfigured = errors.New("ledger not configured")
)

// FactRecord is one verified or reported claim. Records are immutable once
// written.
type FactRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"` // V-Score, 0..1
	Text       string    `json:"text"`
	Source     string    `json:"source,omitempty"`
}

// Normalize trims fields, clamps confidence and stamps a missing timestamp
// with now. It returns ErrEmptyText when the record cannot participate in
// retrieval.
func (f FactRecord) Normalize(now time.Time) (FactRecord, error) {
	f.Text = strings.TrimSpace(f.Text)
	f.Category = strings.TrimSpace(f.Category)
	f.Source = strings.TrimSpace(f.Source)
	if f.Text == "" {
		return f, ErrEmptyText
	}
	f.Confidence = clamp(f.Confidence)
	if f.Timestamp.IsZero() {
		f.Timestamp = now
	}
	return f, nil
}

// Row returns the record as ledger cells in Columns order.
func (f FactRecord) Row() []string {
	return []string{
		f.Timestamp.Format(time.RFC3339Nano),
		f.Category,
		strconv.FormatFloat(f.Confidence, 'f', -1, 64),
		f.Text,
		f.Source,
	}
}

var percentPrefix = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*%`)

// ParseConfidence coerces a ledger cell to a V-Score in [0,1].
//
//	"0.9"                  -> 0.9
//	"75%", "75% - Likely"  -> 0.75
//	"", "high", "NaN"      -> 0.0
//
// Out-of-range numbers are clamped.
func ParseConfidence(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	if v, err := strconv.ParseFloat(cell, 64); err == nil {
		return clamp(v)
	}
	if m := percentPrefix.FindStringSubmatch(cell); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return clamp(v / 100)
	}
	return 0
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05", // Google Forms response sheets
	"2006-01-02",
}

// ParseTimestamp accepts the layouts ledgers are known to write. An
// unparseable cell yields the zero time.
func ParseTimestamp(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseRows converts a header-first table into fact records. Rows without
// text are skipped and counted. A header without a text column is a schema
// mismatch.
func ParseRows(rows [][]string) (facts []FactRecord, skipped int, err error) {
	if len(rows) == 0 {
		return nil, 0, nil
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	col := func(name string) int {
		if i, ok := idx[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}
	textCol := col(ColText)
	if textCol < 0 {
		return nil, 0, fmt.Errorf("%w (header %v)", ErrSchema, rows[0])
	}
	tsCol, catCol, confCol, srcCol := col(ColTimestamp), col(ColCategory), col(ColConfidence), col(ColSource)

	cell := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for _, row := range rows[1:] {
		text := cell(row, textCol)
		if text == "" {
			skipped++
			continue
		}
		facts = append(facts, FactRecord{
			Timestamp:  ParseTimestamp(cell(row, tsCol)),
			Category:   cell(row, catCol),
			Confidence: ParseConfidence(cell(row, confCol)),
			Text:       text,
			Source:     cell(row, srcCol),
		})
	}
	return facts, skipped, nil
}

// SortByConfidence orders facts by confidence descending. The sort is
// stable, so equal scores keep ledger order.
func SortByConfidence(facts []FactRecord) {
	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].Confidence > facts[j].Confidence
	})
}
