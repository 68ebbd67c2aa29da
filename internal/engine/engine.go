package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gofrs/flock"

	"shortloop/internal/analytics"
	"shortloop/internal/config"
	"shortloop/internal/logging"
	"shortloop/internal/notifications"
	"shortloop/internal/store"
)

// Engine is the long-lived state shared by runs: configuration, the open
// store, the run lock, and the notification service. All loop state that
// survives a run lives here or in the store, never in globals.
type Engine struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	lock      *flock.Flock
	notifier  notifications.Service
	peakCache *analytics.PeakHoursCache

	// Injected for tests; nil means real clock, real sleep, seeded rng.
	now   func() time.Time
	sleep func(time.Duration)
	rng   *rand.Rand
}

// Option adjusts engine construction, mainly for tests.
type Option func(*Engine)

// WithClock replaces the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSleep replaces the retry backoff sleeper.
func WithSleep(sleep func(time.Duration)) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithRand replaces the random source used for sampling and backoff jitter.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// New acquires the run lock, opens the store, and prepares the engine. Only
// one engine per data directory can exist at a time; a second caller gets an
// error instead of a second writer.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another instance holds the run lock at %s", cfg.LockPath())
	}

	st, err := store.Open(cfg, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	eng := &Engine{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "engine"),
		store:    st,
		lock:     lock,
		notifier: notifications.NewService(cfg),
		peakCache: analytics.NewPeakHoursCache(
			cfg.PeakCachePath(),
			time.Duration(cfg.Analytics.PeakCacheTTLHours)*time.Hour,
			nil,
		),
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.now == nil {
		eng.now = time.Now
	}
	return eng, nil
}

// Store exposes the engine store for CLI inspection commands.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Close releases the run lock and closes the store.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	var firstErr error
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			firstErr = err
		}
	}
	if e.lock != nil {
		if err := e.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
