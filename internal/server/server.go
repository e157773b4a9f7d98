package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/engine"
	"github.com/ssism/dhammi/internal/metrics"
	"github.com/ssism/dhammi/internal/store"
)

// Server is the dhammi HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	facts   *cttm.Accessor
	metrics *metrics.Metrics
	log     *zap.Logger
	router  chi.Router
	version string
	started time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics exposes m at /metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// WithLogger enables request logging.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// New creates a new Server. facts is the accessor eng reads through; it is
// also the write path for fact submissions.
func New(db *store.DB, eng *engine.Engine, facts *cttm.Accessor, version string, opts ...Option) *Server {
	s := &Server{
		db:      db,
		engine:  eng,
		facts:   facts,
		log:     zap.NewNop(),
		version: version,
		started: time.Now(),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/sessions", s.handleRecentSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)
		r.Get("/sessions/{sessionID}/messages", s.handleGetMessages)
		r.Delete("/sessions/{sessionID}/messages", s.handleResetMessages)
		r.Post("/sessions/{sessionID}/chat", s.handleChat)

		r.Get("/facts", s.handleListFacts)
		r.Post("/facts", s.handleSubmitFact)
		r.Get("/preview", s.handlePreview)
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router = r
}

// logRequests logs method, path, status and duration for every request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		}
		if status >= 500 {
			s.log.Error("http request", fields...)
			return
		}
		s.log.Debug("http request", fields...)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	cached := 0
	if snap := s.facts.Snapshot(); snap != nil {
		cached = len(snap.Facts)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      s.version,
		"uptime":       time.Since(s.started).Seconds(),
		"db":           dbOK,
		"db_path":      s.db.Path,
		"cached_facts": cached,
		"ledger_write": s.facts.Writable(),
		"generator":    s.engine.LLM != nil,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
