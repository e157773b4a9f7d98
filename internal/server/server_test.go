package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
	"github.com/ssism/dhammi/internal/ledger"
	"github.com/ssism/dhammi/internal/llm"
	"github.com/ssism/dhammi/internal/metrics"
	"github.com/ssism/dhammi/internal/store"
)

type testEnv struct {
	srv  *Server
	db   *store.DB
	mock *llm.MockClient
}

func testServer(t *testing.T, facts ...cttm.FactRecord) *testEnv {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mem := ledger.NewMemory(facts...)
	acc := cttm.NewAccessor(mem, mem, cttm.DefaultTable("memory", ""))
	mock := &llm.MockClient{Response: &llm.Response{Content: "May you be well.", Provider: "mock"}}
	eng := engine.New(acc, db, mock, config.Default(), nil)

	srv := New(db, eng, acc, "test-version", WithMetrics(metrics.New()))
	return &testEnv{srv: srv, db: db, mock: mock}
}

// do sends a request and decodes a JSON response body into out when non-nil.
func (e *testEnv) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.srv.ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestHealthEndpoint(t *testing.T) {
	env := testServer(t)

	var body map[string]any
	if code := env.do(t, "GET", "/api/health", "", &body); code != http.StatusOK {
		t.Fatalf("status = %d, want %d", code, http.StatusOK)
	}

	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if body["version"] != "test-version" {
		t.Errorf("version = %v, want test-version", body["version"])
	}
	if body["db"] != true {
		t.Errorf("db = %v, want true", body["db"])
	}
	if body["ledger_write"] != true {
		t.Errorf("ledger_write = %v, want true", body["ledger_write"])
	}
	if body["generator"] != true {
		t.Errorf("generator = %v, want true", body["generator"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := testServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Errorf("metrics output missing go collector")
	}
}

func TestUnknownRoute(t *testing.T) {
	env := testServer(t)
	if code := env.do(t, "GET", "/api/nope", "", nil); code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", code, http.StatusNotFound)
	}
}
