package ledger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/store"
)

// Backend names accepted by ledger.backend.
const (
	BackendAuto   = "auto"
	BackendSheets = "sheets"
	BackendXLSX   = "xlsx"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Backend is an opened ledger and the table it is addressed by.
type Backend struct {
	Name   string
	Ledger cttm.Ledger // nil for BackendNone
	Table  cttm.Table
	// File is set when the backend is the local fact file, so the headline
	// feed can update FACT_DAILY_HEADLINES in place.
	File *FactFile
}

// Open builds the backend cfg selects. "auto" picks Sheets when a
// spreadsheet and credentials are configured, the local fact file
// otherwise. db is only used by the sqlite backend.
func Open(ctx context.Context, cfg config.LedgerConfig, db *store.DB, log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	name := cfg.Backend
	if name == "" || name == BackendAuto {
		name = BackendFile
		if cfg.SheetsConfigured() {
			name = BackendSheets
		}
	}

	b := &Backend{Name: name}
	switch name {
	case BackendSheets:
		s, err := NewSheets(ctx, SheetsOptions{CredentialsFile: cfg.CredentialsFile, APIKey: cfg.APIKey})
		if err != nil {
			return nil, err
		}
		b.Ledger = s
		b.Table = cttm.DefaultTable(cfg.SpreadsheetID, cfg.Worksheet)
	case BackendXLSX:
		if cfg.XLSXPath == "" {
			return nil, fmt.Errorf("xlsx: %w: no xlsx_path", ErrNotConfigured)
		}
		b.Ledger = NewWorkbook()
		b.Table = cttm.DefaultTable(expandHome(cfg.XLSXPath), cfg.Worksheet)
	case BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("sqlite: %w: no database", ErrNotConfigured)
		}
		b.Ledger = NewSQLite(db)
		b.Table = cttm.DefaultTable(db.Path, cfg.Worksheet)
	case BackendFile:
		path := cfg.FactsFile
		if path == "" {
			var err error
			if path, err = DefaultFactsPath(); err != nil {
				return nil, err
			}
		}
		b.File = NewFactFile(expandHome(path), log)
		b.Ledger = b.File
		b.Table = cttm.DefaultTable(b.File.Path(), cfg.Worksheet)
	case BackendMemory:
		b.Ledger = NewMemory()
		b.Table = cttm.DefaultTable("memory", cfg.Worksheet)
	case BackendNone:
		b.Table = cttm.DefaultTable("", cfg.Worksheet)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}

	log.Info("ledger backend selected", zap.String("backend", b.Name), zap.String("sheet", b.Table.Sheet))
	return b, nil
}

// Accessor wraps the backend in a cached accessor.
func (b *Backend) Accessor(opts ...cttm.Option) *cttm.Accessor {
	if b.Ledger == nil {
		return cttm.NewAccessor(nil, nil, b.Table, opts...)
	}
	return cttm.NewAccessor(b.Ledger, b.Ledger, b.Table, opts...)
}

// DefaultFactsPath returns ~/.dhammi/dhammi_cttm_facts.json.
func DefaultFactsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".dhammi", "dhammi_cttm_facts.json"), nil
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
