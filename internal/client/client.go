// Package client talks to a running dhammi server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/store"
)

const (
	defaultServerURL = "http://127.0.0.1:37780"
	// Replies wait on the generator, which has its own two minute budget.
	httpTimeout = 150 * time.Second
)

// Client is an HTTP client for the dhammi API.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. Empty means DHAMMI_URL, then
// http://127.0.0.1:37780.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("DHAMMI_URL")
	}
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Msg    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Msg)
}

// do sends body as JSON when non-nil and decodes the response into out when
// non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		msg := string(bytes.TrimSpace(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Msg: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

// Session is the server's view of a session.
type Session struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

// CreateSession starts a session. An empty id lets the server pick one;
// an existing id resumes it.
func (c *Client) CreateSession(ctx context.Context, id string) (*Session, error) {
	var body any
	if id != "" {
		body = map[string]string{"session_id": id}
	}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Reply is one chat answer.
type Reply struct {
	Reply    string            `json:"reply"`
	Blocked  bool              `json:"blocked"`
	Phrase   string            `json:"phrase,omitempty"`
	Facts    []cttm.FactRecord `json:"facts"`
	Provider string            `json:"provider,omitempty"`
}

// Chat sends one prompt within a session.
func (c *Client) Chat(ctx context.Context, sessionID, prompt string) (*Reply, error) {
	var r Reply
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/chat"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"prompt": prompt}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Messages returns a session's history.
func (c *Client) Messages(ctx context.Context, sessionID string) ([]store.Turn, error) {
	var resp struct {
		Messages []store.Turn `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(sessionID)+"/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Reset clears a session's history.
func (c *Client) Reset(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessionID)+"/messages", nil, nil)
}

// Facts lists cached facts, ranked against query when it is non-empty.
func (c *Client) Facts(ctx context.Context, query string, limit int) ([]cttm.FactRecord, error) {
	v := url.Values{}
	if query != "" {
		v.Set("q", query)
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/facts"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	var resp struct {
		Facts []cttm.FactRecord `json:"facts"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Facts, nil
}

// SubmitFact appends a fact to the server's ledger.
func (c *Client) SubmitFact(ctx context.Context, rec cttm.FactRecord) (*cttm.FactRecord, error) {
	body := map[string]any{
		"category":   rec.Category,
		"confidence": rec.Confidence,
		"text":       rec.Text,
		"source":     rec.Source,
	}
	var out cttm.FactRecord
	if err := c.do(ctx, http.MethodPost, "/api/facts", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Preview is a dry run of retrieval for query.
type Preview struct {
	Blocked bool              `json:"blocked"`
	Phrase  string            `json:"phrase,omitempty"`
	Prompt  string            `json:"prompt"`
	Facts   []cttm.FactRecord `json:"facts"`
	Related []string          `json:"related,omitempty"`
}

// Preview asks the server to compose without generating.
func (c *Client) Preview(ctx context.Context, query string) (*Preview, error) {
	var p Preview
	if err := c.do(ctx, http.MethodGet, "/api/preview?q="+url.QueryEscape(query), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
