// Package engine ranks ledger facts against a query, composes the
// augmented prompt and runs the chat pipeline around them.
package engine

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ssism/dhammi/internal/config"
	"github.com/ssism/dhammi/internal/cttm"
	"github.com/ssism/dhammi/internal/firewall"
	"github.com/ssism/dhammi/internal/llm"
	"github.com/ssism/dhammi/internal/metrics"
	"github.com/ssism/dhammi/internal/store"
)

// FactSource yields the current ledger facts sorted by confidence.
type FactSource interface {
	Fetch(ctx context.Context) []cttm.FactRecord
}

// History is the session-scoped conversation store.
type History interface {
	GetTurns(sessionID string) ([]store.Turn, error)
	AppendTurns(sessionID string, turns ...store.Turn) error
	ResetTurns(sessionID string) error
}

// Reply is the outcome of one chat request.
type Reply struct {
	Text         string            `json:"reply"`
	Blocked      bool              `json:"blocked"`
	Phrase       string            `json:"phrase,omitempty"`
	Facts        []cttm.FactRecord `json:"facts"`
	Prompt       string            `json:"-"`
	Provider     string            `json:"provider,omitempty"`
	GeneratorErr error             `json:"-"`
}

// Preview is a dry run of the retrieval half of the pipeline.
type Preview struct {
	Blocked bool              `json:"blocked"`
	Phrase  string            `json:"phrase,omitempty"`
	Prompt  string            `json:"prompt"`
	Facts   []cttm.FactRecord `json:"facts"`
	Related []string          `json:"related,omitempty"`
}

// Engine runs screen, fetch, rank, compose and generate for each query.
type Engine struct {
	Screener firewall.Screener
	Facts    FactSource
	History  History
	LLM      llm.Generator // nil when no provider is configured
	Metrics  *metrics.Metrics

	cfg   config.LLMConfig
	limit int
	log   *zap.Logger
}

// New creates an Engine with the screener cfg.Firewall selects.
func New(facts FactSource, history History, gen llm.Generator, cfg config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	var screener firewall.Screener = firewall.NewSubstringScreener()
	if cfg.Firewall.Match == "word" {
		screener = firewall.NewWordBoundaryScreener()
	}
	return &Engine{
		Screener: screener,
		Facts:    facts,
		History:  history,
		LLM:      gen,
		cfg:      cfg.LLM,
		limit:    cfg.RAG.Limit,
		log:      log,
	}
}

// Chat answers query within the session and records both turns. Blocked
// queries and generator failures are replies, not errors; only a blank
// query or a history failure returns an error.
func (e *Engine) Chat(ctx context.Context, sessionID, query string) (*Reply, error) {
	query, truncated, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if truncated {
		e.log.Info("query truncated", zap.String("session", sessionID), zap.Int("chars", len(query)))
	}

	prior, err := e.History.GetTurns(sessionID)
	if err != nil {
		return nil, err
	}

	user := store.UserTurn(query)
	if d := e.Screener.Screen(query); d.Blocked() {
		e.log.Info("query blocked", zap.String("session", sessionID), zap.String("phrase", d.Phrase))
		e.Metrics.ObserveChat(metrics.OutcomeBlocked)
		if err := e.History.AppendTurns(sessionID, user, store.AssistantTurn(llm.RefusalMessage)); err != nil {
			return nil, err
		}
		return &Reply{Text: llm.RefusalMessage, Blocked: true, Phrase: d.Phrase, Facts: []cttm.FactRecord{}}, nil
	}

	if err := e.History.AppendTurns(sessionID, user); err != nil {
		return nil, err
	}

	history := make([]store.Turn, 0, len(prior)+1)
	history = append(append(history, prior...), user)
	selected := Select(query, e.Facts.Fetch(ctx), e.limit)
	prompt, messages := Compose(query, selected, history)
	e.Metrics.ObserveInjected(len(selected))

	reply := &Reply{Facts: selected, Prompt: prompt}
	if reply.Facts == nil {
		reply.Facts = []cttm.FactRecord{}
	}

	resp, err := e.generate(ctx, messages)
	switch {
	case err != nil:
		e.log.Warn("generation failed", zap.String("session", sessionID), zap.Error(err))
		e.Metrics.ObserveChat(metrics.OutcomeGeneratorError)
		reply.Text = llm.ErrorMessage(err)
		reply.GeneratorErr = err
	default:
		e.Metrics.ObserveChat(metrics.OutcomeAnswered)
		reply.Text = resp.Content
		reply.Provider = resp.Provider
	}

	if err := e.History.AppendTurns(sessionID, store.AssistantTurn(reply.Text)); err != nil {
		return nil, err
	}
	e.log.Debug("chat answered",
		zap.String("session", sessionID),
		zap.Int("facts", len(selected)),
		zap.Int("messages", len(messages)))
	return reply, nil
}

// errNoGenerator is reported when no provider could be built at startup.
var errNoGenerator = errors.New("generator not configured: set GEMINI_API_KEY or llm.provider")

// errEmptyResponse is reported when a provider answers with no text.
var errEmptyResponse = errors.New("generator returned an empty response")

func (e *Engine) generate(ctx context.Context, turns []store.Turn) (*llm.Response, error) {
	if e.LLM == nil {
		return nil, errNoGenerator
	}
	timeout := e.cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	messages := make([]llm.Message, len(turns))
	for i, t := range turns {
		messages[i] = llm.Message{Role: t.Role, Content: t.Content}
	}
	resp, err := e.LLM.Generate(ctx, llm.NewRequest(e.cfg, messages))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Content == "" {
		return nil, errEmptyResponse
	}
	return resp, nil
}

// Preview screens, fetches, ranks and composes without generating or
// touching history.
func (e *Engine) Preview(ctx context.Context, query string) (*Preview, error) {
	query, _, err := normalizeQuery(query)
	if err != nil {
		return nil, err
	}
	if d := e.Screener.Screen(query); d.Blocked() {
		return &Preview{Blocked: true, Phrase: d.Phrase, Facts: []cttm.FactRecord{}}, nil
	}

	selected := Select(query, e.Facts.Fetch(ctx), e.limit)
	if selected == nil {
		selected = []cttm.FactRecord{}
	}
	return &Preview{
		Prompt:  Prompt(query, selected),
		Facts:   selected,
		Related: RelatedTopics(query),
	}, nil
}

// Reset clears a session's history.
func (e *Engine) Reset(sessionID string) error {
	return e.History.ResetTurns(sessionID)
}
