package store

import (
	"context"
	"fmt"
)

// InsertCorrelationForTest writes a correlation entry with a caller-chosen
// timestamp so pruning behavior can be exercised without clock manipulation.
func (s *Store) InsertCorrelationForTest(ctx context.Context, ephemeralID, source, permanentID, addedAt string) error {
	if source == "" {
		source = UnknownSource
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO correlation_entries (ephemeral_id, discovery_source, permanent_id, added_at)
         VALUES (?, ?, ?, ?)`,
		ephemeralID, source, nullableString(permanentID), addedAt,
	)
	if err != nil {
		return fmt.Errorf("insert test correlation: %w", err)
	}
	return nil
}
