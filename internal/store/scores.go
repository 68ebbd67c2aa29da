package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"shortloop/internal/services"
)

// lowScoreThreshold bounds the first eviction tier: sources at or below it are
// considered unproven and are cleared before anything with a track record.
const lowScoreThreshold = 1.0

// Score returns the score for a source, or 0 when the source is absent.
func (s *Store) Score(ctx context.Context, sourceID string) (float64, error) {
	var score float64
	err := s.db.QueryRowContext(ctx,
		`SELECT score FROM source_scores WHERE source_id = ?`, sourceID,
	).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score: %w", err)
	}
	return score, nil
}

// SetScore writes a score for a source, clamping negative values to 0.
func (s *Store) SetScore(ctx context.Context, sourceID string, value float64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_scores (source_id, score, sample_count, updated_at)
         VALUES (?, ?, 0, ?)
         ON CONFLICT(source_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		sourceID, clampScore(value), now,
	)
	if err != nil {
		return fmt.Errorf("set score: %w", err)
	}
	return nil
}

// IncrementScore adds delta to a source's score, creating the source when
// absent. The result is clamped to 0; scores are never negative.
func (s *Store) IncrementScore(ctx context.Context, sourceID string, delta float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin increment tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current float64
	err = tx.QueryRowContext(ctx,
		`SELECT score FROM source_scores WHERE source_id = ?`, sourceID,
	).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read score: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO source_scores (source_id, score, sample_count, updated_at)
         VALUES (?, ?, 0, ?)
         ON CONFLICT(source_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`,
		sourceID, clampScore(current+delta), now,
	)
	if err != nil {
		return fmt.Errorf("write score: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit increment: %w", err)
	}
	return nil
}

// EnsureSource creates a source with score 0 if it does not exist yet.
func (s *Store) EnsureSource(ctx context.Context, sourceID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_scores (source_id, score, sample_count, updated_at)
         VALUES (?, 0, 0, ?)
         ON CONFLICT(source_id) DO NOTHING`,
		sourceID, now,
	)
	if err != nil {
		return fmt.Errorf("ensure source: %w", err)
	}
	return nil
}

// AddSamples increments a source's analytics sample count.
func (s *Store) AddSamples(ctx context.Context, sourceID string, n int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE source_scores SET sample_count = sample_count + ? WHERE source_id = ?`,
		n, sourceID,
	)
	if err != nil {
		return fmt.Errorf("add samples: %w", err)
	}
	return nil
}

// AllScores returns the full score map.
func (s *Store) AllScores(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source_id, score FROM source_scores`)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[string]float64)
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores[id] = score
	}
	return scores, rows.Err()
}

// Sources returns all score entries ordered by descending score, ties broken
// by source id for stable output.
func (s *Store) Sources(ctx context.Context) ([]SourceScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, score, sample_count, updated_at FROM source_scores
         ORDER BY score DESC, source_id`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []SourceScore
	for rows.Next() {
		var entry SourceScore
		var updatedRaw string
		if err := rows.Scan(&entry.SourceID, &entry.Score, &entry.SampleCount, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			entry.UpdatedAt = updated
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// SourceCount returns the number of sources in the pool.
func (s *Store) SourceCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM source_scores`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return count, nil
}

// EvictOne removes one source using the tiered policy: the lowest-scored
// entry at or below the low-score threshold goes first (lexicographically
// smallest id on ties), otherwise the globally lowest-scored entry. Protected
// ids are never removed; services.ErrCannotEvict is returned when only
// protected entries remain.
func (s *Store) EvictOne(ctx context.Context, protected map[string]struct{}) (string, error) {
	entries, err := s.Sources(ctx)
	if err != nil {
		return "", err
	}

	victim := pickEvictionVictim(entries, protected)
	if victim == "" {
		return "", services.ErrCannotEvict
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM source_scores WHERE source_id = ?`, victim); err != nil {
		return "", fmt.Errorf("evict source: %w", err)
	}
	return victim, nil
}

func pickEvictionVictim(entries []SourceScore, protected map[string]struct{}) string {
	eligible := entries[:0:0]
	for _, entry := range entries {
		if _, ok := protected[entry.SourceID]; ok {
			continue
		}
		eligible = append(eligible, entry)
	}
	if len(eligible) == 0 {
		return ""
	}

	byScoreThenID := func(list []SourceScore) {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Score != list[j].Score {
				return list[i].Score < list[j].Score
			}
			return list[i].SourceID < list[j].SourceID
		})
	}

	// Tier one: unproven sources at or below the threshold.
	lowTier := eligible[:0:0]
	for _, entry := range eligible {
		if entry.Score <= lowScoreThreshold {
			lowTier = append(lowTier, entry)
		}
	}
	if len(lowTier) > 0 {
		byScoreThenID(lowTier)
		return lowTier[0].SourceID
	}

	// Tier two: last resort, the globally lowest-scored entry.
	byScoreThenID(eligible)
	return eligible[0].SourceID
}

// AdmitSource inserts a new source into a capacity-bounded pool, evicting one
// entry via the tiered policy when full. It reports whether the source was
// added and which source (if any) made room for it. A pool full of protected
// entries refuses the insertion with services.ErrCannotEvict.
func (s *Store) AdmitSource(ctx context.Context, sourceID string, capacity int, protected map[string]struct{}) (bool, string, error) {
	var present int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM source_scores WHERE source_id = ?`, sourceID,
	).Scan(&present); err != nil {
		return false, "", fmt.Errorf("check source: %w", err)
	}
	if present > 0 {
		return false, "", nil
	}

	count, err := s.SourceCount(ctx)
	if err != nil {
		return false, "", err
	}

	evicted := ""
	if capacity > 0 && count >= capacity {
		evicted, err = s.EvictOne(ctx, protected)
		if err != nil {
			return false, "", err
		}
	}

	if err := s.EnsureSource(ctx, sourceID); err != nil {
		return false, evicted, err
	}
	return true, evicted, nil
}
