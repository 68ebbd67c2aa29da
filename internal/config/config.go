package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Discovery contains the source pool settings: the protected seed, pool
// capacity, and the per-run fetch budget.
type Discovery struct {
	SeedSource     string `toml:"seed_source"`
	MaxSources     int    `toml:"max_sources"`
	SourcesPerRun  int    `toml:"sources_per_run"`
	ItemsPerSource int    `toml:"items_per_source"`
	MaxDownloads   int    `toml:"max_downloads"`
}

// Selection contains weighted-sampling settings.
type Selection struct {
	BaseWeight float64 `toml:"base_weight"`
}

// Schedule contains publish-time planning settings.
type Schedule struct {
	Mode               string   `toml:"mode"`
	IntervalMinutes    int      `toml:"interval_minutes"`
	MinLeadMinutes     int      `toml:"min_lead_minutes"`
	CustomSlots        []string `toml:"custom_slots"`
	StrictSlots        bool     `toml:"strict_slots"`
	PeakHours          []int    `toml:"peak_hours"`
	PeakStepMinutes    int      `toml:"peak_step_minutes"`
	PeakLookaheadHours int      `toml:"peak_lookahead_hours"`
}

// Publish contains the attempt coordinator settings.
type Publish struct {
	MaxAttempts        int     `toml:"max_attempts"`
	BackoffMinSeconds  int     `toml:"backoff_min_seconds"`
	BackoffMaxSeconds  int     `toml:"backoff_max_seconds"`
	DiscoveryBump      float64 `toml:"discovery_bump"`
	Command            string  `toml:"command"`
	CommandTimeoutSecs int     `toml:"command_timeout_seconds"`
}

// Analytics contains the performance feedback settings.
type Analytics struct {
	Apply              string  `toml:"apply"`
	BlendWeight        float64 `toml:"blend_weight"`
	ViewWeight         float64 `toml:"view_weight"`
	LikeWeight         float64 `toml:"like_weight"`
	CommentWeight      float64 `toml:"comment_weight"`
	CorrelationTTLDays int     `toml:"correlation_ttl_days"`
	PeakCacheTTLHours  int     `toml:"peak_cache_ttl_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunSummary     bool   `toml:"run_summary"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shortloop.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Discovery: source pool capacity, seed source, per-run budgets
//   - Selection: weighted sampling
//   - Schedule: publish-time planning modes and bounds
//   - Publish: retry coordinator and external publisher command
//   - Analytics: performance feedback weights and cache lifetimes
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Discovery     Discovery     `toml:"discovery"`
	Selection     Selection     `toml:"selection"`
	Schedule      Schedule      `toml:"schedule"`
	Publish       Publish       `toml:"publish"`
	Analytics     Analytics     `toml:"analytics"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortloop/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the engine database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "engine.db")
}

// PeakCachePath returns the location of the peak-hours analytics cache.
func (c *Config) PeakCachePath() string {
	return filepath.Join(c.Paths.DataDir, "peak_hours_cache.json")
}

// LockPath returns the location of the single-writer run lock.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "shortloop.lock")
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ and relative paths to absolute ones.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
