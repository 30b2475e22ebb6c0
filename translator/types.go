package translator

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// TRANSLATOR — AI boundary for natural language → instruction text
// ============================================================================
// The Translator is the ONLY component that calls an external AI service.
// It receives a system prompt (column profile, rules, examples) and the user
// request, and returns raw text. Parsing that text into an instruction is
// instruction.Parse's job; the translator never interprets the answer.
// ============================================================================

// Translator sends one system + user prompt pair to a text-generation
// service and returns its reply.
// Implementations: Gemini, OpenAI-compatible chat completions.
type Translator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Provider names a text-generation backend.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Config holds translator configuration.
type Config struct {
	Provider Provider
	APIKey   string        // AI provider API key (consumer's key)
	Model    string        // Model name (e.g., "gemini-2.0-flash")
	Endpoint string        // API endpoint override (empty = default)
	Timeout  time.Duration // per call; default 30s
	Logger   *slog.Logger
}

const (
	defaultGeminiModel    = "gemini-2.0-flash"
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultOpenAIEndpoint = "https://api.openai.com/v1"
	defaultTimeout        = 30 * time.Second
)

// DefaultGeminiConfig returns a Config with sensible Gemini defaults.
func DefaultGeminiConfig(apiKey string) Config {
	return Config{
		Provider: ProviderGemini,
		APIKey:   apiKey,
		Model:    defaultGeminiModel,
		Endpoint: defaultGeminiEndpoint,
		Timeout:  defaultTimeout,
	}
}

// DefaultOpenAIConfig returns a Config for the OpenAI chat completions API.
// Endpoint can be pointed at any compatible server.
func DefaultOpenAIConfig(apiKey string) Config {
	return Config{
		Provider: ProviderOpenAI,
		APIKey:   apiKey,
		Model:    defaultOpenAIModel,
		Endpoint: defaultOpenAIEndpoint,
		Timeout:  defaultTimeout,
	}
}

// New builds the Translator for cfg.Provider. An empty provider means Gemini.
func New(cfg Config) (Translator, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGemini(cfg), nil
	case ProviderOpenAI:
		return NewOpenAI(cfg), nil
	default:
		return nil, fmt.Errorf("unknown translator provider %q", cfg.Provider)
	}
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}
