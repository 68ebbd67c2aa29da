// Package testsupport provides shared helpers for constructing configured
// fixtures in tests.
package testsupport

import (
	"testing"

	"shortloop/internal/config"
	"shortloop/internal/logging"
	"shortloop/internal/store"
)

// ConfigOption mutates a test configuration before it is returned.
type ConfigOption func(*config.Config)

// NewConfig returns a validated configuration rooted in a temporary
// directory, with a seed source set so validation passes.
func NewConfig(t *testing.T, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.DataDir = base + "/data"
	cfg.Paths.LogDir = base + "/logs"
	cfg.Discovery.SeedSource = "test seed topic"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// MustOpenStore opens a store for cfg and closes it when the test ends.
func MustOpenStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}
