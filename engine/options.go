package engine

import (
	"log/slog"

	"github.com/spektr-org/charta/render"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger     *slog.Logger
	Dispatcher *render.Dispatcher
	Render     render.Options
}

// WithLogger sets the logger for pipeline events.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.Logger = l
	}
}

// WithDispatcher replaces the built-in render dispatcher (custom renderers).
func WithDispatcher(d *render.Dispatcher) Option {
	return func(c *config) {
		c.Dispatcher = d
	}
}

// WithHistogramBins sets the bin count used when a histogram names none.
// Ignored when WithDispatcher is also given.
func WithHistogramBins(n int) Option {
	return func(c *config) {
		c.Render.DefaultBins = n
	}
}

// WithRenderOptions sets all built-in renderer settings.
// Ignored when WithDispatcher is also given.
func WithRenderOptions(o render.Options) Option {
	return func(c *config) {
		c.Render = o
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{Render: render.DefaultOptions()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = render.NewDispatcher(cfg.Render)
	}
	return cfg
}
