package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ssism/dhammi/internal/cttm"
)

// Workbook is a ledger kept in a local .xlsx file. The file and worksheet
// are created with a header row on the first append.
type Workbook struct {
	mu sync.Mutex
}

// NewWorkbook returns an xlsx backend. The file path comes from the table.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// ReadRows implements cttm.Reader.
func (w *Workbook) ReadRows(_ context.Context, t cttm.Table) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(t.Sheet)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(t.Worksheet)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", t.Worksheet, err)
	}
	return rows, nil
}

// AppendRow implements cttm.Writer.
func (w *Workbook) AppendRow(_ context.Context, t cttm.Table, row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := excelize.OpenFile(t.Sheet)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(t.Sheet), 0755); err != nil {
			return fmt.Errorf("create workbook dir: %w", err)
		}
		f = excelize.NewFile()
	case err != nil:
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(t.Worksheet)
	if err != nil {
		return fmt.Errorf("find worksheet: %w", err)
	}
	if idx < 0 {
		if idx, err = f.NewSheet(t.Worksheet); err != nil {
			return fmt.Errorf("create worksheet: %w", err)
		}
		f.SetActiveSheet(idx)
		header := append([]string(nil), t.Columns...)
		if err := f.SetSheetRow(t.Worksheet, "A1", &header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	rows, err := f.GetRows(t.Worksheet)
	if err != nil {
		return fmt.Errorf("read worksheet: %w", err)
	}
	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}
	cells := append([]string(nil), row...)
	if err := f.SetSheetRow(t.Worksheet, cell, &cells); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	if err := f.SaveAs(t.Sheet); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
