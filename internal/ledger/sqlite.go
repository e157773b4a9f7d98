package ledger

import (
	"context"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/store"
)

// SQLite keeps the ledger in the facts table of the local store.
type SQLite struct {
	db *store.DB
}

func NewSQLite(db *store.DB) *SQLite {
	return &SQLite{db: db}
}

// ReadRows implements cttm.Reader.
func (s *SQLite) ReadRows(_ context.Context, _ cttm.Table) ([][]string, error) {
	return s.db.FactRows()
}

// AppendRow implements cttm.Writer.
func (s *SQLite) AppendRow(_ context.Context, _ cttm.Table, row []string) error {
	return s.db.AppendFactRow(row)
}
