// Package config loads, normalizes, and validates the TOML configuration for
// the shortloop engine.
package config
