package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ssism/dhammi/internal/config"
)

// Generator is the interface for LLM providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Roles used in Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Request is one generation call: a system charter plus the ordered
// conversation, the last message being the user's.
type Request struct {
	System          string
	Messages        []Message
	Temperature     float64
	MaxOutputTokens int
}

// Response holds the result of an LLM completion.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// NewRequest builds a request with the advisor charter and the generation
// settings from cfg.
func NewRequest(cfg config.LLMConfig, messages []Message) Request {
	return Request{
		System:          SystemInstruction,
		Messages:        messages,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
	}
}

// NewClient creates a generator based on the config provider setting.
func NewClient(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	switch cfg.Provider {
	case "gemini", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY or config: %w", ErrAuth)
		}
		return NewGemini(ctx, cfg.APIKey, modelOr(cfg.Model, "gemini", "gemini-2.5-flash"), "")
	case "anthropic":
		if cfg.AnthropicKey == "" {
			return nil, fmt.Errorf("anthropic provider requires ANTHROPIC_API_KEY or config: %w", ErrAuth)
		}
		a := NewAnthropic(cfg.AnthropicKey, modelOr(cfg.Model, "claude", "claude-haiku-4-5-20251001"))
		a.client.Timeout = timeout
		return a, nil
	case "ollama":
		url := cfg.OllamaURL
		if url == "" {
			url = "http://localhost:11434"
		}
		o := NewOllama(url, modelOr(cfg.Model, "", "llama3.2"))
		o.client.Timeout = timeout
		return o, nil
	case "mock":
		return &MockClient{Response: &Response{Content: "mock reply", Provider: "mock"}}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// modelOr keeps model when it looks like it belongs to the provider (by
// prefix, empty matches anything non-gemini), else returns def.
func modelOr(model, prefix, def string) string {
	switch {
	case model == "":
		return def
	case prefix == "" && strings.HasPrefix(model, "gemini"):
		return def
	case prefix != "" && !strings.HasPrefix(model, prefix):
		return def
	}
	return model
}
