package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
	"github.com/ssism/dhammi/internal/store"
)

// msgEmptyFact is returned for a submission without text.
const msgEmptyFact = "Please enter a fact"

type sessionJSON struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	TurnCount int       `json:"turn_count"`
}

func toSessionJSON(s *store.Session) sessionJSON {
	return sessionJSON{
		SessionID: s.SessionID,
		StartedAt: time.UnixMilli(s.StartedAt).UTC(),
		UpdatedAt: time.UnixMilli(s.UpdatedAt).UTC(),
		TurnCount: s.TurnCount,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	// The body is optional.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	var (
		sess *store.Session
		err  error
	)
	if req.SessionID == "" {
		sess, err = s.db.CreateSession()
	} else {
		sess, err = s.db.InitSession(req.SessionID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSessionJSON(sess))
}

func (s *Server) handleRecentSessions(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 20)
	sessions, err := s.db.GetRecentSessions(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]sessionJSON, len(sessions))
	for i := range sessions {
		out[i] = toSessionJSON(&sessions[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(out),
		"sessions": out,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.db.DeleteSession(sessionID); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turns, err := s.db.GetTurns(sessionID)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   turns,
	})
}

func (s *Server) handleResetMessages(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.engine.Reset(sessionID); err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// handleChat resumes or creates the session named in the path and runs one
// turn of the pipeline.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if _, err := s.db.InitSession(sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	reply, err := s.engine.Chat(r.Context(), sessionID, req.Prompt)
	switch {
	case errors.Is(err, engine.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "prompt required")
		return
	case err != nil:
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleListFacts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := intParam(r, "limit", 0)

	facts := s.facts.Fetch(r.Context())
	switch {
	case query != "":
		if limit <= 0 {
			limit = engine.DefaultLimit
		}
		facts = engine.Select(query, facts, limit)
	case limit > 0 && limit < len(facts):
		facts = facts[:limit]
	}
	if facts == nil {
		facts = []cttm.FactRecord{}
	}

	resp := map[string]any{
		"query": query,
		"count": len(facts),
		"facts": facts,
	}
	if snap := s.facts.Snapshot(); snap != nil {
		resp["fetched_at"] = snap.FetchedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitFact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category   string  `json:"category"`
		Confidence float64 `json:"confidence"`
		Text       string  `json:"text"`
		Source     string  `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec, err := s.facts.Append(r.Context(), cttm.FactRecord{
		Category:   req.Category,
		Confidence: req.Confidence,
		Text:       req.Text,
		Source:     req.Source,
	})
	switch {
	case errors.Is(err, cttm.ErrEmptyText):
		writeError(w, http.StatusBadRequest, msgEmptyFact)
		return
	case errors.Is(err, cttm.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "fact ledger is read-only or not configured")
		return
	case err != nil:
		s.log.Warn("fact submission failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "could not save fact: "+err.Error())
		return
	}

	s.metrics.ObserveAppend()
	s.log.Info("fact submitted", zap.String("category", rec.Category), zap.Float64("confidence", rec.Confidence))
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	preview, err := s.engine.Preview(r.Context(), r.URL.Query().Get("q"))
	if errors.Is(err, engine.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// storeError maps history errors to a status code.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.log.Error("history store failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

func intParam(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
