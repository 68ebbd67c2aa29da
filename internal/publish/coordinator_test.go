package publish_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"shortloop/internal/config"
	"shortloop/internal/discovery"
	"shortloop/internal/logging"
	"shortloop/internal/publish"
	"shortloop/internal/schedule"
	"shortloop/internal/services"
	"shortloop/internal/store"
	"shortloop/internal/testsupport"
)

// scriptedPublisher fails a fixed number of times before succeeding, or
// always returns err when set.
type scriptedPublisher struct {
	failures int
	err      error
	calls    int
}

func (p *scriptedPublisher) Publish(context.Context, discovery.Item, schedule.Decision) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	if p.calls <= p.failures {
		return "", fmt.Errorf("transient failure %d", p.calls)
	}
	return fmt.Sprintf("vid-%d", p.calls), nil
}

func newCoordinator(t *testing.T, st *store.Store, pub publish.Publisher) (*publish.Coordinator, *int) {
	t.Helper()
	sleeps := 0
	sleep := func(time.Duration) { sleeps++ }
	cfg := config.Default().Publish
	coord := publish.NewCoordinator(cfg, st, pub, logging.NewNop(), sleep, rand.New(rand.NewSource(1)))
	return coord, &sleeps
}

func testItem() discovery.Item {
	return discovery.NewItem("gaming clips", discovery.Candidate{Title: "clip"}, discovery.Metadata{Title: "clip"})
}

func TestAttemptSucceedsAfterTransientFailures(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	item := testItem()
	if err := st.RecordPending(ctx, item.EphemeralID, item.SourceID); err != nil {
		t.Fatalf("record pending: %v", err)
	}

	pub := &scriptedPublisher{failures: 2}
	coord, sleeps := newCoordinator(t, st, pub)

	outcome, err := coord.Attempt(ctx, item, schedule.Decision{PublishNow: true})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if outcome.Status != publish.StatusPublished || outcome.Attempts != 3 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if *sleeps != 2 {
		t.Fatalf("expected backoff between failed attempts, slept %d times", *sleeps)
	}

	// Attempted is counted once, not per try; success finalizes the
	// correlation entry.
	metrics, err := st.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics[store.MetricItemsAttempted] != 1 {
		t.Fatalf("expected 1 attempted, got %d", metrics[store.MetricItemsAttempted])
	}
	if metrics[store.MetricItemsPublished] != 1 {
		t.Fatalf("expected 1 published, got %d", metrics[store.MetricItemsPublished])
	}
	entry, err := st.LookupByPermanentID(ctx, outcome.PermanentID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if entry.Source != "gaming clips" {
		t.Fatalf("expected correlation finalized, got %+v", entry)
	}
}

func TestAttemptExhaustionEndsItemNotRun(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pub := &scriptedPublisher{failures: 99}
	coord, _ := newCoordinator(t, st, pub)

	outcome, err := coord.Attempt(ctx, testItem(), schedule.Decision{PublishNow: true})
	if err != nil {
		t.Fatalf("exhaustion must not return an error: %v", err)
	}
	if outcome.Status != publish.StatusFailed {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	if pub.calls != config.Default().Publish.MaxAttempts {
		t.Fatalf("expected %d attempts, got %d", config.Default().Publish.MaxAttempts, pub.calls)
	}

	metrics, err := st.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics[string(services.KindPublishRetryable)] != 1 {
		t.Fatalf("expected retryable tally, got %v", metrics)
	}
	if metrics[store.MetricItemsPublished] != 0 {
		t.Fatalf("expected nothing published, got %v", metrics)
	}
}

func TestAttemptFatalErrorAbortsImmediately(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pub := &scriptedPublisher{err: services.Wrap(services.ErrFatal, "publish", "session", "credentials rejected", nil)}
	coord, sleeps := newCoordinator(t, st, pub)

	outcome, err := coord.Attempt(ctx, testItem(), schedule.Decision{PublishNow: true})
	if !errors.Is(err, services.ErrFatal) {
		t.Fatalf("expected fatal error surfaced, got %v", err)
	}
	if outcome.Status != publish.StatusAborted || outcome.Attempts != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if pub.calls != 1 {
		t.Fatalf("fatal errors must not be retried, got %d calls", pub.calls)
	}
	if *sleeps != 0 {
		t.Fatalf("no backoff expected for fatal errors, slept %d times", *sleeps)
	}

	metrics, err := st.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics[string(services.KindPublishFatal)] != 1 {
		t.Fatalf("expected fatal tally, got %v", metrics)
	}
}
