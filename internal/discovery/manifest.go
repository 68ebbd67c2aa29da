package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ManifestSource serves candidates from a JSON manifest on disk, keyed by
// source id. It backs offline runs and lets an external fetcher hand its
// results to the engine through a file.
type ManifestSource struct {
	sources map[string][]Candidate
}

type manifestFile struct {
	Sources map[string][]manifestCandidate `json:"sources"`
}

type manifestCandidate struct {
	Title      string   `json:"title"`
	Uploader   string   `json:"uploader"`
	URL        string   `json:"url"`
	Popularity float64  `json:"popularity"`
	Tags       []string `json:"tags"`
}

// LoadManifest reads a candidate manifest from path.
func LoadManifest(path string) (*ManifestSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var file manifestFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	sources := make(map[string][]Candidate, len(file.Sources))
	for id, raw := range file.Sources {
		candidates := make([]Candidate, 0, len(raw))
		for _, c := range raw {
			candidates = append(candidates, Candidate{
				Title:      c.Title,
				Uploader:   c.Uploader,
				URL:        c.URL,
				Popularity: c.Popularity,
				Tags:       c.Tags,
			})
		}
		sources[id] = candidates
	}
	return &ManifestSource{sources: sources}, nil
}

// Enumerate returns up to limit candidates recorded for sourceID.
func (m *ManifestSource) Enumerate(_ context.Context, sourceID string, limit int) ([]Candidate, error) {
	candidates := m.sources[sourceID]
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// PassthroughMetadata generates publish metadata directly from the candidate:
// the title is kept, the description credits the uploader, and tags carry
// over. Candidates without a title are unusable.
type PassthroughMetadata struct{}

// Generate implements MetadataGenerator.
func (PassthroughMetadata) Generate(_ context.Context, candidate Candidate) (Metadata, bool, error) {
	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return Metadata{}, false, nil
	}
	description := title
	if uploader := strings.TrimSpace(candidate.Uploader); uploader != "" {
		description = fmt.Sprintf("%s\n\nOriginal creator: %s", title, uploader)
	}
	return Metadata{Title: title, Description: description, Tags: candidate.Tags}, true, nil
}
