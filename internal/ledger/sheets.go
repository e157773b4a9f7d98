// Package ledger implements the CTTM ledger backends the accessor reads
// facts from and appends submissions to.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ssism/dhammi/internal/cttm"
)

// ErrNotConfigured is returned when no backend can be built from config.
var ErrNotConfigured = cttm.ErrNotConfigured

// SheetsOptions selects how to authenticate against the Sheets API. A
// service account file is needed to append; an API key only allows reads
// of shared sheets.
type SheetsOptions struct {
	CredentialsFile string
	APIKey          string
	Endpoint        string // override for tests
}

// Sheets reads and appends rows of a Google Sheets worksheet.
type Sheets struct {
	srv *sheets.Service
}

// NewSheets creates a Sheets API client.
func NewSheets(ctx context.Context, opts SheetsOptions) (*Sheets, error) {
	var clientOpts []option.ClientOption
	switch {
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(opts.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope))
	case opts.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	case opts.Endpoint != "":
		clientOpts = append(clientOpts, option.WithoutAuthentication())
	default:
		return nil, fmt.Errorf("sheets: %w: no credentials", ErrNotConfigured)
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	srv, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Sheets{srv: srv}, nil
}

func sheetRange(t cttm.Table) string {
	last := 'A' + rune(max(len(t.Columns), 1)-1)
	return fmt.Sprintf("%s!A:%c", t.Worksheet, last)
}

// ReadRows implements cttm.Reader.
func (s *Sheets) ReadRows(ctx context.Context, t cttm.Table) ([][]string, error) {
	if t.Sheet == "" {
		return nil, fmt.Errorf("sheets: %w: no spreadsheet id", ErrNotConfigured)
	}
	resp, err := s.srv.Spreadsheets.Values.Get(t.Sheet, sheetRange(t)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, vals := range resp.Values {
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = strings.TrimSpace(fmt.Sprint(v))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// AppendRow implements cttm.Writer. Values are entered as a user would
// type them, so the sheet applies its own number formats.
func (s *Sheets) AppendRow(ctx context.Context, t cttm.Table, row []string) error {
	if t.Sheet == "" {
		return fmt.Errorf("sheets: %w: no spreadsheet id", ErrNotConfigured)
	}
	vals := make([]interface{}, len(row))
	for i, c := range row {
		vals[i] = c
	}
	_, err := s.srv.Spreadsheets.Values.Append(t.Sheet, sheetRange(t), &sheets.ValueRange{
		Values: [][]interface{}{vals},
	}).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}
