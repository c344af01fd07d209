package module

import (
	"log/slog"

	"triage/internal/config"
)

// Settings are the engine knobs shared by both stage kinds.
type Settings struct {
	Logger      *slog.Logger
	Parallel    bool
	Workers     int
	MaxAttempts int
	Strict      bool
}

// DefaultSettings returns production defaults: pooled dispatch, host-sized
// workers, the default retry budget, non-strict failures.
func DefaultSettings() Settings {
	return Settings{Parallel: true}
}

// Option adjusts stage settings at construction.
type Option func(*Settings)

// WithLogger attaches the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Settings) { s.Logger = logger }
}

// WithParallel selects pooled versus serial main-phase dispatch.
func WithParallel(parallel bool) Option {
	return func(s *Settings) { s.Parallel = parallel }
}

// WithWorkers bounds the worker pool; zero means host-sized.
func WithWorkers(workers int) Option {
	return func(s *Settings) { s.Workers = workers }
}

// WithMaxAttempts overrides the per-element attempt budget.
func WithMaxAttempts(attempts int) Option {
	return func(s *Settings) { s.MaxAttempts = attempts }
}

// WithStrict makes unclassified element errors abort the run.
func WithStrict(strict bool) Option {
	return func(s *Settings) { s.Strict = strict }
}

// WithEngine applies the dispatcher and retry knobs from loaded configuration.
func WithEngine(engine config.Engine) Option {
	return func(s *Settings) {
		s.Parallel = engine.Parallel
		s.Workers = engine.Workers
		s.MaxAttempts = engine.MaxAttempts
		s.Strict = engine.Strict
	}
}

// Apply folds opts over the defaults.
func (s Settings) Apply(opts ...Option) Settings {
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
