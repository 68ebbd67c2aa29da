package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetryable marks a transient publish failure worth another attempt.
	ErrRetryable = errors.New("retryable failure")
	// ErrFatal marks an irrecoverable failure (lost automation session); the
	// run must abort rather than continue to the next item.
	ErrFatal = errors.New("fatal failure")
	// ErrUnavailable marks data the upstream collaborator could not provide.
	ErrUnavailable = errors.New("unavailable")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrStoreCorrupt marks a persisted store that could not be parsed.
	ErrStoreCorrupt = errors.New("store corrupt")
	// ErrCannotEvict signals a capacity-bound store that holds only protected
	// entries; the caller skips the insertion.
	ErrCannotEvict = errors.New("eviction impossible")
	// ErrCannotSchedule signals that no scheduling rule produced a valid time.
	ErrCannotSchedule = errors.New("cannot schedule")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRetryable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// FailureKind names a terminal or skip decision for after-the-fact
// attribution. Kinds are tallied in the run metrics store.
type FailureKind string

const (
	KindDiscoveryEmpty       FailureKind = "discovery_empty"
	KindPublishRetryable     FailureKind = "publish_retryable"
	KindPublishFatal         FailureKind = "publish_fatal"
	KindAnalyticsUnavailable FailureKind = "analytics_unavailable"
	KindStoreCorrupt         FailureKind = "store_corrupt"
	KindEvictionImpossible   FailureKind = "eviction_impossible"
)

// Classify maps an error to its failure kind. Unknown errors count as
// retryable publish failures, the default retry path.
func Classify(err error) FailureKind {
	switch {
	case errors.Is(err, ErrFatal):
		return KindPublishFatal
	case errors.Is(err, ErrUnavailable):
		return KindAnalyticsUnavailable
	case errors.Is(err, ErrStoreCorrupt):
		return KindStoreCorrupt
	case errors.Is(err, ErrCannotEvict):
		return KindEvictionImpossible
	default:
		return KindPublishRetryable
	}
}
