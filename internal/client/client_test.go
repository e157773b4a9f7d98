package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssism/dhammi/internal/cttm"
)

func fakeServer(t *testing.T) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SessionID string `json:"session_id"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.SessionID == "" {
			req.SessionID = "generated"
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"session_id": req.SessionID, "turn_count": 0})
	})
	mux.HandleFunc("POST /api/sessions/{id}/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(map[string]any{
			"reply":   "echo: " + req.Prompt + " in " + r.PathValue("id"),
			"blocked": false,
			"facts":   []cttm.FactRecord{{Text: "Candidate A won Ward 3.", Confidence: 0.92}},
		})
	})
	mux.HandleFunc("GET /api/sessions/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found: missing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"messages": []map[string]string{
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
		}})
	})
	mux.HandleFunc("GET /api/facts", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"facts": []cttm.FactRecord{{Text: r.URL.Query().Get("q") + "/" + r.URL.Query().Get("limit")}}})
	})
	mux.HandleFunc("POST /api/facts", func(w http.ResponseWriter, r *http.Request) {
		var rec cttm.FactRecord
		json.NewDecoder(r.Body).Decode(&rec)
		if rec.Text == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "Please enter a fact"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rec)
	})
	mux.HandleFunc("GET /api/preview", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"prompt": r.URL.Query().Get("q")})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestClientSessionsAndChat(t *testing.T) {
	c := fakeServer(t)
	ctx := context.Background()

	assert.True(t, c.Healthy(ctx))

	s, err := c.CreateSession(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "generated", s.SessionID)

	s, err = c.CreateSession(ctx, "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", s.SessionID)

	reply, err := c.Chat(ctx, "mine", "Ward 3?")
	require.NoError(t, err)
	assert.Equal(t, "echo: Ward 3? in mine", reply.Reply)
	require.Len(t, reply.Facts, 1)
	assert.Equal(t, 0.92, reply.Facts[0].Confidence)

	turns, err := c.Messages(ctx, "mine")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "assistant", turns[1].Role)
}

func TestClientStatusError(t *testing.T) {
	c := fakeServer(t)

	_, err := c.Messages(context.Background(), "missing")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "session not found: missing", se.Msg)

	_, err = c.SubmitFact(context.Background(), cttm.FactRecord{})
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Please enter a fact", se.Msg)
}

func TestClientFacts(t *testing.T) {
	c := fakeServer(t)
	ctx := context.Background()

	facts, err := c.Facts(ctx, "ward three", 2)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "ward three/2", facts[0].Text)

	rec, err := c.SubmitFact(ctx, cttm.FactRecord{Text: "Bridge reopened.", Confidence: 0.8})
	require.NoError(t, err)
	assert.Equal(t, "Bridge reopened.", rec.Text)

	p, err := c.Preview(ctx, "who won?")
	require.NoError(t, err)
	assert.Equal(t, "who won?", p.Prompt)
}

func TestClientUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	assert.False(t, c.Healthy(context.Background()))
}
