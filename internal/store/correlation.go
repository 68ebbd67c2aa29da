package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RecordPending appends a correlation entry for an item that has been picked
// up for publishing. The permanent id is filled in later when the publish
// succeeds. An empty source is stored as UnknownSource.
func (s *Store) RecordPending(ctx context.Context, ephemeralID, source string) error {
	if source == "" {
		source = UnknownSource
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO correlation_entries (ephemeral_id, discovery_source, permanent_id, added_at)
         VALUES (?, ?, NULL, ?)`,
		ephemeralID, source, now,
	)
	if err != nil {
		return fmt.Errorf("record pending correlation: %w", err)
	}
	return nil
}

// Finalize attaches the externally assigned permanent id to the most recent
// pending entry for the ephemeral id. When no pending entry exists (the
// pending record was lost or never written) a finalized entry is inserted
// directly so the mapping is never dropped.
func (s *Store) Finalize(ctx context.Context, ephemeralID, permanentID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE correlation_entries SET permanent_id = ?
         WHERE id = (
             SELECT id FROM correlation_entries
             WHERE ephemeral_id = ? AND permanent_id IS NULL
             ORDER BY id DESC LIMIT 1
         )`,
		permanentID, ephemeralID,
	)
	if err != nil {
		return fmt.Errorf("finalize correlation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize correlation: %w", err)
	}
	if affected > 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO correlation_entries (ephemeral_id, discovery_source, permanent_id, added_at)
         VALUES (?, ?, ?, ?)`,
		ephemeralID, UnknownSource, permanentID, now,
	)
	if err != nil {
		return fmt.Errorf("insert finalized correlation: %w", err)
	}
	return nil
}

// LookupByPermanentID returns the correlation entry for a published item, or
// sql.ErrNoRows wrapped when the permanent id is unknown.
func (s *Store) LookupByPermanentID(ctx context.Context, permanentID string) (CorrelationEntry, error) {
	var entry CorrelationEntry
	var permanent sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ephemeral_id, discovery_source, permanent_id, added_at
         FROM correlation_entries WHERE permanent_id = ?
         ORDER BY id DESC LIMIT 1`,
		permanentID,
	).Scan(&entry.ID, &entry.EphemeralID, &entry.Source, &permanent, &entry.AddedAt)
	if err != nil {
		return CorrelationEntry{}, fmt.Errorf("lookup correlation %s: %w", permanentID, err)
	}
	entry.PermanentID = permanent.String
	return entry, nil
}

// IsUnknownCorrelation reports whether err indicates a permanent id with no
// recorded correlation entry.
func IsUnknownCorrelation(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Entries returns all correlation entries in insertion order.
func (s *Store) Entries(ctx context.Context) ([]CorrelationEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ephemeral_id, discovery_source, permanent_id, added_at
         FROM correlation_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query correlation entries: %w", err)
	}
	defer rows.Close()

	var out []CorrelationEntry
	for rows.Next() {
		var entry CorrelationEntry
		var permanent sql.NullString
		if err := rows.Scan(&entry.ID, &entry.EphemeralID, &entry.Source, &permanent, &entry.AddedAt); err != nil {
			return nil, fmt.Errorf("scan correlation entry: %w", err)
		}
		entry.PermanentID = permanent.String
		out = append(out, entry)
	}
	return out, rows.Err()
}

// Prune removes correlation entries older than ttl. Timestamps are parsed in
// Go rather than SQL so entries with unparsable timestamps are retained: a
// garbled date must never silently discard a correlation. Returns the number
// of removed entries.
func (s *Store) Prune(ctx context.Context, ttl time.Duration) (int, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-ttl)
	var stale []int64
	for _, entry := range entries {
		added, ok := entry.AddedTime()
		if !ok {
			continue
		}
		if added.Before(cutoff) {
			stale = append(stale, entry.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM correlation_entries WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("prune entry %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return len(stale), nil
}
