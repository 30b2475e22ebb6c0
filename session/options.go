package session

import (
	"log/slog"
	"time"

	"github.com/spektr-org/charta/engine"
)

// Option configures a Session.
type Option func(*config)

type config struct {
	Logger        *slog.Logger
	EngineOptions []engine.Option
	Name          string
	SampleSize    int
	Now           func() time.Time
}

// WithLogger sets the logger for session and pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithEngineOptions passes options through to every engine.Execute call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) {
		c.EngineOptions = append(c.EngineOptions, opts...)
	}
}

// WithName names the dataset in prompts.
func WithName(name string) Option {
	return func(c *config) {
		c.Name = name
	}
}

// WithProfileSample limits how many rows are profiled (0 = all).
func WithProfileSample(n int) Option {
	return func(c *config) {
		c.SampleSize = n
	}
}

// WithClock overrides the current date given to the instruction source.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.Now = now
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{SampleSize: 1000}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}
