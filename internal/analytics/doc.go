// Package analytics closes the feedback loop: it pulls engagement metrics
// for published items, attributes them back to the discovery sources that
// surfaced the items, and folds the resulting performance scores into the
// persistent source ranking.
package analytics
