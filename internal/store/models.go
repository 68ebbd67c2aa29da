package store

import "time"

// UnknownSource is recorded when an item's discovery source was not captured.
const UnknownSource = "Unknown"

// SourceScore is one entry of the persistent discovery-source ranking.
type SourceScore struct {
	SourceID    string
	Score       float64
	SampleCount int
	UpdatedAt   time.Time
}

// CorrelationEntry threads an ephemeral per-run item id through download and
// publish so externally observed performance can be attributed back to the
// source that discovered the item. AddedAt keeps the raw persisted string:
// entries with unparsable timestamps survive pruning by design.
type CorrelationEntry struct {
	ID          int64
	EphemeralID string
	Source      string
	PermanentID string
	AddedAt     string
}

// AddedTime parses the entry timestamp. ok is false when the raw value cannot
// be interpreted.
func (e CorrelationEntry) AddedTime() (time.Time, bool) {
	t, err := parseTimeString(e.AddedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Metric name constants for run-level counters. Failure kinds from the
// services taxonomy are tallied under their own names.
const (
	MetricItemsAttempted = "items_attempted"
	MetricItemsPublished = "items_published"
)
