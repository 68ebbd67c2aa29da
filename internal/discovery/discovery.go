package discovery

import (
	"context"

	"github.com/google/uuid"
)

// Candidate is a raw discovery result before metadata generation.
type Candidate struct {
	Title      string
	Uploader   string
	URL        string
	Popularity float64
	Tags       []string
}

// Metadata is the publishable description of an item.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
}

// Item is an admitted candidate carrying its run-scoped ephemeral id and the
// source that surfaced it.
type Item struct {
	EphemeralID string
	SourceID    string
	Candidate   Candidate
	Metadata    Metadata
}

// Source enumerates candidates for a discovery source id.
type Source interface {
	Enumerate(ctx context.Context, sourceID string, limit int) ([]Candidate, error)
}

// MetadataGenerator produces publish metadata for a candidate. ok reports
// whether the candidate is usable; unusable candidates are skipped without
// failing the run.
type MetadataGenerator interface {
	Generate(ctx context.Context, candidate Candidate) (Metadata, bool, error)
}

// NewItem admits a candidate, assigning its ephemeral id.
func NewItem(sourceID string, candidate Candidate, meta Metadata) Item {
	return Item{
		EphemeralID: uuid.NewString(),
		SourceID:    sourceID,
		Candidate:   candidate,
		Metadata:    meta,
	}
}
