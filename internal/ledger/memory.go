package ledger

import (
	"context"
	"sync"

	"github.com/ssism/dhammi/internal/cttm"
)

// Memory is an in-process ledger for tests and dry runs.
type Memory struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemory returns a ledger holding facts, header first.
func NewMemory(facts ...cttm.FactRecord) *Memory {
	m := &Memory{rows: [][]string{append([]string(nil), cttm.Columns...)}}
	for _, f := range facts {
		m.rows = append(m.rows, f.Row())
	}
	return m
}

// ReadRows implements cttm.Reader.
func (m *Memory) ReadRows(_ context.Context, _ cttm.Table) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

// AppendRow implements cttm.Writer.
func (m *Memory) AppendRow(_ context.Context, _ cttm.Table, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]string(nil), row...))
	return nil
}
