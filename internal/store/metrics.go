package store

import (
	"context"
	"fmt"
)

// IncrementMetric bumps a named run counter by one.
func (s *Store) IncrementMetric(ctx context.Context, kind string) error {
	return s.AddMetric(ctx, kind, 1)
}

// AddMetric adds n to a named run counter, creating it at n when absent.
func (s *Store) AddMetric(ctx context.Context, kind string, n int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_metrics (kind, count) VALUES (?, ?)
         ON CONFLICT(kind) DO UPDATE SET count = count + excluded.count`,
		kind, n,
	)
	if err != nil {
		return fmt.Errorf("add metric %s: %w", kind, err)
	}
	return nil
}

// Metrics returns all run counters keyed by name.
func (s *Store) Metrics(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, count FROM run_metrics`)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	metrics := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		metrics[kind] = count
	}
	return metrics, rows.Err()
}
