// Package publish drives the upload of one item at a time: a Publisher does
// the actual platform interaction, and the Coordinator wraps it in a bounded
// retry loop with jittered backoff, failure classification, and metric and
// correlation bookkeeping.
package publish
