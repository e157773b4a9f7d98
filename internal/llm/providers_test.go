package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRequest = Request{
	System: "be kind",
	Messages: []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "answer"},
		{Role: RoleUser, Content: "second"},
	},
	Temperature:     0.7,
	MaxOutputTokens: 1024,
}

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"message":{"role":"assistant","content":"hello"},"prompt_eval_count":5,"eval_count":7}`))
	}))
	defer srv.Close()

	resp, err := NewOllama(srv.URL, "llama3.2").Generate(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, 12, resp.TokensUsed)

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "second", msgs[3].(map[string]any)["content"])
	assert.Equal(t, false, got["stream"])
}

func TestAnthropicGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"content":[{"type":"text","text":"hi there"}],"usage":{"input_tokens":3,"output_tokens":4}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("test-key", "claude-haiku-4-5-20251001")
	a.url = srv.URL
	resp, err := a.Generate(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.Equal(t, "be kind", got["system"])
	assert.EqualValues(t, 1024, got["max_tokens"])
	assert.Len(t, got["messages"], 3)
}

func TestAnthropicUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type":"error","error":{"type":"authentication_error"}}`))
	}))
	defer srv.Close()

	a := NewAnthropic("bad", "claude-haiku-4-5-20251001")
	a.url = srv.URL
	_, err := a.Generate(context.Background(), testRequest)
	assert.True(t, errors.Is(err, ErrAuth))
	assert.Equal(t, AuthErrorMessage, ErrorMessage(err))
}

func TestGeminiGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"metta"}]}}],"usageMetadata":{"totalTokenCount":9}}`))
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "gemini-2.5-flash", srv.URL)
	require.NoError(t, err)

	resp, err := g.Generate(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "metta", resp.Content)
	assert.Equal(t, 9, resp.TokensUsed)

	contents := got["contents"].([]any)
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
	assert.Contains(t, got, "systemInstruction")
}
