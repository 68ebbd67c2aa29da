// Package logging provides slog construction helpers and the standardized
// structured field keys used across the engine.
package logging
