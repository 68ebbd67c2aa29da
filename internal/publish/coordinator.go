package publish

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"shortloop/internal/config"
	"shortloop/internal/discovery"
	"shortloop/internal/logging"
	"shortloop/internal/schedule"
	"shortloop/internal/services"
	"shortloop/internal/store"
)

// Publisher uploads one item and returns its platform-assigned permanent id.
// Errors wrapping services.ErrFatal abort the whole run; anything else is
// treated as retryable.
type Publisher interface {
	Publish(ctx context.Context, item discovery.Item, decision schedule.Decision) (string, error)
}

// Status is the terminal state of one item's publish attempt sequence.
type Status string

const (
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
	StatusAborted   Status = "aborted"
)

// Outcome reports how an item's attempt sequence ended.
type Outcome struct {
	Status      Status
	PermanentID string
	Attempts    int
}

// Coordinator runs the bounded retry loop around a Publisher. The sleep
// function and random source are injected so tests run without waiting.
type Coordinator struct {
	cfg       config.Publish
	store     *store.Store
	publisher Publisher
	logger    *slog.Logger
	sleep     func(time.Duration)
	rng       *rand.Rand
}

// NewCoordinator builds a coordinator around publisher. nil sleep means
// time.Sleep; nil rng seeds from the clock.
func NewCoordinator(cfg config.Publish, st *store.Store, publisher Publisher, logger *slog.Logger, sleep func(time.Duration), rng *rand.Rand) *Coordinator {
	if sleep == nil {
		sleep = time.Sleep
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Coordinator{
		cfg:       cfg,
		store:     st,
		publisher: publisher,
		logger:    logging.NewComponentLogger(logger, "publish"),
		sleep:     sleep,
		rng:       rng,
	}
}

// Attempt publishes one item, retrying transient failures up to the
// configured attempt limit. The item is counted as attempted exactly once no
// matter how many tries it takes. On success the correlation entry is
// finalized with the permanent id. Exhausted retries end the item, not the
// run; a fatal error ends the run and is returned alongside the outcome.
// Failed items keep their artifacts so a later run can retry them.
func (c *Coordinator) Attempt(ctx context.Context, item discovery.Item, decision schedule.Decision) (Outcome, error) {
	if err := c.store.IncrementMetric(ctx, store.MetricItemsAttempted); err != nil {
		return Outcome{}, err
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		permanentID, err := c.publisher.Publish(ctx, item, decision)
		if err == nil {
			if err := c.store.Finalize(ctx, item.EphemeralID, permanentID); err != nil {
				return Outcome{}, err
			}
			if err := c.store.IncrementMetric(ctx, store.MetricItemsPublished); err != nil {
				return Outcome{}, err
			}
			c.logger.Info("item published",
				logging.Args(
					logging.String(logging.FieldItem, item.EphemeralID),
					logging.String("permanent_id", permanentID),
					logging.Int("attempts", attempt),
				)...)
			return Outcome{Status: StatusPublished, PermanentID: permanentID, Attempts: attempt}, nil
		}

		if errors.Is(err, services.ErrFatal) {
			if metricErr := c.store.IncrementMetric(ctx, string(services.KindPublishFatal)); metricErr != nil {
				c.logger.Warn("failed to tally fatal publish failure", logging.Args(logging.Error(metricErr))...)
			}
			return Outcome{Status: StatusAborted, Attempts: attempt},
				services.Wrap(services.ErrFatal, "publish", "attempt", "publishing session is unusable", err)
		}

		lastErr = err
		c.logger.Warn("publish attempt failed",
			logging.Args(
				logging.String(logging.FieldItem, item.EphemeralID),
				logging.Int("attempt", attempt),
				logging.Int("max_attempts", c.cfg.MaxAttempts),
				logging.Error(err),
			)...)
		if attempt < c.cfg.MaxAttempts {
			c.sleep(c.backoff())
		}
	}

	if err := c.store.IncrementMetric(ctx, string(services.KindPublishRetryable)); err != nil {
		return Outcome{}, err
	}
	c.logger.Warn("item exhausted its publish attempts; artifacts retained",
		logging.Args(
			logging.String(logging.FieldItem, item.EphemeralID),
			logging.Error(lastErr),
		)...)
	return Outcome{Status: StatusFailed, Attempts: c.cfg.MaxAttempts}, nil
}

func (c *Coordinator) backoff() time.Duration {
	min := time.Duration(c.cfg.BackoffMinSeconds) * time.Second
	max := time.Duration(c.cfg.BackoffMaxSeconds) * time.Second
	if max <= min {
		return min
	}
	return min + time.Duration(c.rng.Int63n(int64(max-min)))
}
