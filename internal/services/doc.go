// Package services defines the shared error taxonomy used across the engine.
// Errors are tagged with sentinel markers so callers can classify a failure
// with errors.Is without inspecting message text.
package services
