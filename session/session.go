// Package session ties one dataset snapshot to an instruction source:
// natural-language request → instruction text → parsed instruction →
// pipeline → chart spec.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spektr-org/charta/dataset"
	"github.com/spektr-org/charta/engine"
	"github.com/spektr-org/charta/instruction"
	"github.com/spektr-org/charta/schema"
	"github.com/spektr-org/charta/translator"
)

// ============================================================================
// SESSION — one dataset, many requests
// ============================================================================
// The dataset and its profile are fixed when the session is created and
// never mutated, so a Session is safe for concurrent requests. A failed
// request never affects the next one.
// ============================================================================

// Session answers requests against one dataset snapshot.
type Session struct {
	data       *dataset.Dataset
	profile    *schema.Profile
	translator translator.Translator
	logger     *slog.Logger
	engineOpts []engine.Option
	now        func() time.Time
}

// Reply is the outcome of one request.
type Reply struct {
	Query   string                   `json:"query"`
	Type    instruction.ResponseType `json:"type"`
	Answer  string                   `json:"answer,omitempty"`  // analysis
	Message string                   `json:"message,omitempty"` // error
	Result  *engine.Result           `json:"result,omitempty"`  // visualization
}

// ErrNoTranslator is returned by requests that need an instruction source
// when the session was created without one.
var ErrNoTranslator = errors.New("session has no translator")

// New creates a session over data. tr may be nil when only Interpret is used.
func New(data *dataset.Dataset, tr translator.Translator, opts ...Option) *Session {
	cfg := applyOptions(opts)
	s := &Session{
		data:       data,
		translator: tr,
		logger:     cfg.Logger,
		now:        cfg.Now,
		engineOpts: append([]engine.Option{engine.WithLogger(cfg.Logger)}, cfg.EngineOptions...),
	}
	s.profile = schema.Discover(data, schema.Options{Name: cfg.Name, SampleSize: cfg.SampleSize})
	s.logger.Info("charta: session ready",
		"dataset", s.profile.Name, "rows", data.Len(), "columns", len(data.Columns()),
		"dimensions", len(s.profile.Dimensions()), "measures", len(s.profile.Measures()))
	return s
}

// Data returns the session's dataset snapshot.
func (s *Session) Data() *dataset.Dataset { return s.data }

// Profile returns the column profile used to build prompts.
func (s *Session) Profile() *schema.Profile { return s.profile }

// Visualize asks the instruction source for an instruction and executes it.
// An error means the request failed: the instruction source was unreachable
// or the instruction could not be rendered. The reply is still returned in
// the second case so the caller can show the trace.
func (s *Session) Visualize(ctx context.Context, query string) (*Reply, error) {
	if s.translator == nil {
		return nil, ErrNoTranslator
	}
	system := translator.BuildInstructionPrompt(s.profile, s.now())
	text, err := s.translator.Complete(ctx, system, translator.BuildUserMessage(s.profile, query))
	if err != nil {
		s.logger.Warn("charta: instruction source failed", "query", query, "error", err)
		return nil, err
	}
	reply, err := s.Interpret(ctx, text)
	if reply != nil {
		reply.Query = query
	}
	return reply, err
}

// Interpret parses raw instruction text and executes it. Non-JSON text or
// an error document becomes an error reply, not a Go error.
func (s *Session) Interpret(ctx context.Context, text string) (*Reply, error) {
	resp := instruction.Parse(text)
	reply := &Reply{Type: resp.Type}

	switch resp.Type {
	case instruction.TypeError:
		reply.Message = resp.Message
		s.logger.Warn("charta: instruction unreadable", "message", resp.Message)
		return reply, nil
	case instruction.TypeAnalysis:
		reply.Answer = resp.Answer
		return reply, nil
	}

	res, err := engine.Execute(ctx, resp.Instruction, s.data, s.engineOpts...)
	if res != nil && len(resp.Warnings) > 0 {
		parsed := make([]engine.Warning, 0, len(resp.Warnings)+len(res.Warnings))
		for _, w := range resp.Warnings {
			parsed = append(parsed, engine.Warning{Stage: engine.StageParse, Err: w})
		}
		res.Warnings = append(parsed, res.Warnings...)
	}
	reply.Result = res
	if err != nil {
		reply.Message = err.Error()
	}
	return reply, err
}

// Ask sends the dataset and a free-form question to the instruction source
// and returns its answer text.
func (s *Session) Ask(ctx context.Context, question string) (*Reply, error) {
	if s.translator == nil {
		return nil, ErrNoTranslator
	}
	answer, err := s.translator.Complete(ctx, translator.BuildQuestionPrompt(s.data), question)
	if err != nil {
		s.logger.Warn("charta: question failed", "error", err)
		return nil, err
	}
	return &Reply{Query: question, Type: instruction.TypeAnalysis, Answer: answer}, nil
}
