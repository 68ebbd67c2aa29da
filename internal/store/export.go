package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"shortloop/internal/fileutil"
	"shortloop/internal/logging"
	"shortloop/internal/services"
)

// exportedCorrelation is the on-disk JSON shape for a correlation entry.
type exportedCorrelation struct {
	EphemeralID string `json:"ephemeral_id"`
	Source      string `json:"discovery_source"`
	PermanentID string `json:"permanent_id,omitempty"`
	AddedAt     string `json:"added_at"`
}

type exportedState struct {
	Scores       map[string]float64    `json:"scores"`
	Correlations []exportedCorrelation `json:"correlations"`
}

// ExportJSON writes scores and correlation entries to a JSON file. The file
// is written atomically so an interrupted export never leaves a half-written
// snapshot behind.
func (s *Store) ExportJSON(ctx context.Context, path string) error {
	scores, err := s.AllScores(ctx)
	if err != nil {
		return err
	}
	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}

	state := exportedState{Scores: scores}
	for _, entry := range entries {
		state.Correlations = append(state.Correlations, exportedCorrelation{
			EphemeralID: entry.EphemeralID,
			Source:      entry.Source,
			PermanentID: entry.PermanentID,
			AddedAt:     entry.AddedAt,
		})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// ImportJSON merges a previously exported snapshot into the store. Scores
// overwrite existing entries; correlations are appended. A missing file is
// not an error, and a corrupt file leaves the store untouched and reports a
// store-corrupt condition rather than aborting the caller's run.
func (s *Store) ImportJSON(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}

	var state exportedState
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("import file is not valid JSON; ignoring it",
			logging.Args(
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "store_corrupt"),
			)...)
		if metricErr := s.IncrementMetric(ctx, string(services.KindStoreCorrupt)); metricErr != nil {
			return metricErr
		}
		return nil
	}

	for id, score := range state.Scores {
		if err := s.SetScore(ctx, id, score); err != nil {
			return err
		}
	}
	for _, entry := range state.Correlations {
		source := entry.Source
		if source == "" {
			source = UnknownSource
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO correlation_entries (ephemeral_id, discovery_source, permanent_id, added_at)
             VALUES (?, ?, ?, ?)`,
			entry.EphemeralID, source, nullableString(entry.PermanentID), entry.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("import correlation: %w", err)
		}
	}
	return nil
}
