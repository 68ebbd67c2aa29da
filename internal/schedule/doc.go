// Package schedule assigns publish times to items within a run. A planner is
// run-scoped: it remembers the last assigned time so successive items always
// move forward, honors a minimum lead so external platforms accept the slot,
// and supports immediate publishing, fixed intervals, operator-chosen daily
// slots, and peak-hour targeting.
package schedule
