// Package engine owns the closed feedback loop: it selects discovery
// sources by score, fetches and deduplicates candidates, schedules and
// publishes items with bounded retries, admits newly surfaced sources into
// the capacity-bounded pool, and folds collected analytics back into the
// persistent ranking. A single engine instance holds the run lock; runs are
// strictly sequential.
package engine
