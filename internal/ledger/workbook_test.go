package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssism/dhammi/internal/cttm"
)

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "cttm.xlsx")
	table := cttm.DefaultTable(path, "")
	w := NewWorkbook()
	ctx := context.Background()

	_, err := w.ReadRows(ctx, table)
	assert.Error(t, err, "missing file should fail the read")

	a := cttm.NewAccessor(w, w, table)
	assert.Empty(t, a.Fetch(ctx))

	for _, rec := range []cttm.FactRecord{
		{Category: cttm.CategorySecurityUpdate, Confidence: 0.4, Text: "Checkpoint moved north."},
		{Category: cttm.CategoryElectionResult, Confidence: 0.92, Text: "Candidate A won Ward 3.", Source: "Witness X"},
	} {
		_, err := a.Append(ctx, rec)
		require.NoError(t, err)
	}

	rows, err := w.ReadRows(ctx, table)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, cttm.Columns, rows[0])

	facts := a.Fetch(ctx)
	require.Len(t, facts, 2)
	assert.Equal(t, "Candidate A won Ward 3.", facts[0].Text)
	assert.Equal(t, "Witness X", facts[0].Source)
}

func TestWorkbookMissingWorksheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cttm.xlsx")
	w := NewWorkbook()
	ctx := context.Background()

	require.NoError(t, w.AppendRow(ctx, cttm.DefaultTable(path, "Other"), []string{"", "", "1", "x", ""}))
	_, err := w.ReadRows(ctx, cttm.DefaultTable(path, "CTTM_Facts"))
	assert.Error(t, err)
}
