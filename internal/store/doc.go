// Package store manages engine persistence backed by SQLite: source scores,
// the upload correlation cache, and run metrics. A single run process owns
// the store at a time; an unreadable database is moved aside and recreated
// empty rather than aborting the run.
package store
