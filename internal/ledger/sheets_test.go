package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssism/dhammi/internal/cttm"
)

// fakeSheets serves the two Values endpoints the backend calls.
type fakeSheets struct {
	mu     sync.Mutex
	values [][]interface{}
	ranges []string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/v4/spreadsheets/sheet-1/values/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
		return
	}
	rng := strings.TrimPrefix(r.URL.Path, prefix)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		f.ranges = append(f.ranges, rng)
		json.NewEncoder(w).Encode(map[string]any{
			"range":          rng,
			"majorDimension": "ROWS",
			"values":         f.values,
		})
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		var body struct {
			Values [][]interface{} `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":{"code":400,"message":"bad body"}}`, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, `{"error":{"code":400,"message":"valueInputOption"}}`, http.StatusBadRequest)
			return
		}
		f.values = append(f.values, body.Values...)
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	default:
		http.Error(w, `{"error":{"code":405,"message":"method"}}`, http.StatusMethodNotAllowed)
	}
}

func newTestSheets(t *testing.T, f *fakeSheets) *Sheets {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	s, err := NewSheets(context.Background(), SheetsOptions{Endpoint: srv.URL + "/"})
	require.NoError(t, err)
	return s
}

func TestSheetsReadRows(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"Timestamp", "Category", "Confidence", "Fact_Text", "Source"},
		{"2024-01-01", "Election Result", "0.92", "Candidate A won Ward 3.", "Witness X"},
		{"2024-01-02", "Security Update", 0.3},
	}}
	s := newTestSheets(t, f)

	rows, err := s.ReadRows(context.Background(), cttm.DefaultTable("sheet-1", ""))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Witness X", rows[1][4])
	assert.Equal(t, "0.3", rows[2][2])
	assert.Equal(t, []string{"CTTM_Facts!A:E"}, f.ranges)
}

func TestSheetsRoundTrip(t *testing.T) {
	f := &fakeSheets{values: [][]interface{}{
		{"Timestamp", "Category", "Confidence", "Fact_Text", "Source"},
	}}
	s := newTestSheets(t, f)
	ctx := context.Background()

	a := cttm.NewAccessor(s, s, cttm.DefaultTable("sheet-1", ""))
	assert.Empty(t, a.Fetch(ctx))

	_, err := a.Append(ctx, cttm.FactRecord{
		Category:   cttm.CategoryElectionResult,
		Confidence: 0.92,
		Text:       "Candidate A won Ward 3.",
		Source:     "Witness X",
	})
	require.NoError(t, err)

	facts := a.Fetch(ctx)
	require.Len(t, facts, 1)
	assert.Equal(t, "Candidate A won Ward 3.", facts[0].Text)
	assert.InDelta(t, 0.92, facts[0].Confidence, 1e-9)
}

func TestSheetsServerErrorDegrades(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
	}))
	defer srv.Close()

	s, err := NewSheets(context.Background(), SheetsOptions{Endpoint: srv.URL + "/"})
	require.NoError(t, err)

	_, err = s.ReadRows(context.Background(), cttm.DefaultTable("sheet-1", ""))
	assert.Error(t, err)

	a := cttm.NewAccessor(s, s, cttm.DefaultTable("sheet-1", ""))
	assert.Empty(t, a.Fetch(context.Background()))
}

func TestSheetsNotConfigured(t *testing.T) {
	_, err := NewSheets(context.Background(), SheetsOptions{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
