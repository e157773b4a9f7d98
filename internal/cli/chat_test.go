package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ssism/dhammi/internal/client"
	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
	"github.com/ssism/dhammi/internal/ledger"
	"github.com/ssism/dhammi/internal/llm"
	"github.com/ssism/dhammi/internal/server"
	"github.com/ssism/dhammi/internal/store"
)

func testAPI(t *testing.T) (*client.Client, *llm.MockClient) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mem := ledger.NewMemory(cttm.FactRecord{
		Category:   cttm.CategoryElectionResult,
		Confidence: 0.92,
		Text:       "Candidate A won Ward 3.",
		Source:     "Witness X",
	})
	acc := cttm.NewAccessor(mem, mem, cttm.DefaultTable("memory", ""))
	mock := &llm.MockClient{Response: &llm.Response{Content: "Candidate A won, per Witness X.", Provider: "mock"}}
	eng := engine.New(acc, db, mock, config.Default(), nil)

	ts := httptest.NewServer(server.New(db, eng, acc, "test"))
	t.Cleanup(ts.Close)
	return client.New(ts.URL), mock
}

func TestChatLoop(t *testing.T) {
	c, mock := testAPI(t)
	ctx := context.Background()
	sess, err := c.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	in := strings.NewReader("Who won in Ward 3?\n\n/facts\n/reset\n/quit\nnever sent\n")
	var out bytes.Buffer
	if err := chatLoop(ctx, c, sess.SessionID, in, &out); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Candidate A won, per Witness X.",
		"(grounded on 1 fact(s))",
		"V-Score 0.92",
		"history cleared",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if mock.CallCount() != 1 {
		t.Errorf("generator calls = %d, want 1", mock.CallCount())
	}

	turns, err := c.Messages(ctx, sess.SessionID)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("history after /reset = %d turns, want 0", len(turns))
	}
}

func TestChatLoopEOF(t *testing.T) {
	c, _ := testAPI(t)
	var out bytes.Buffer
	if err := chatLoop(context.Background(), c, "s-1", strings.NewReader(""), &out); err != nil {
		t.Fatalf("chatLoop on empty input: %v", err)
	}
}

func TestPrintFacts(t *testing.T) {
	var out bytes.Buffer
	printFacts(&out, []cttm.FactRecord{{Confidence: 0.5, Category: "News Digest", Text: "Roads closed.", Source: "headline feed"}})
	if !strings.Contains(out.String(), "0.50") || !strings.Contains(out.String(), "Roads closed.") {
		t.Errorf("unexpected table:\n%s", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if !strings.HasPrefix(out.String(), "dhammi dev") {
		t.Errorf("version output = %q", out.String())
	}
}
