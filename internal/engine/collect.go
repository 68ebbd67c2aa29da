package engine

import (
	"context"
	"time"

	"shortloop/internal/analytics"
	"shortloop/internal/logging"
)

// PeakHoursProvider is an optional extension of a metrics source that also
// reports when the audience is most active.
type PeakHoursProvider interface {
	PeakHours(ctx context.Context) ([]int, error)
}

// Collect runs one analytics pass: engagement metrics are attributed back to
// discovery sources and applied to the persistent ranking, stale correlation
// entries are pruned, and audience peak hours are cached for the scheduler
// when the metrics source can report them.
func (e *Engine) Collect(ctx context.Context, source analytics.MetricsSource) (analytics.Report, error) {
	collector := analytics.NewCollector(e.cfg.Analytics, e.store, e.logger)
	report, err := collector.Collect(ctx, source)
	if err != nil {
		if notifyErr := e.notifier.NotifyError(ctx, err, "analytics collection"); notifyErr != nil {
			e.logger.Warn("error notification failed", logging.Args(logging.Error(notifyErr))...)
		}
		return report, err
	}

	ttl := time.Duration(e.cfg.Analytics.CorrelationTTLDays) * 24 * time.Hour
	pruned, err := e.store.Prune(ctx, ttl)
	if err != nil {
		return report, err
	}
	if pruned > 0 {
		e.logger.Info("pruned stale correlation entries", logging.Args(logging.Int("pruned", pruned))...)
	}

	if provider, ok := source.(PeakHoursProvider); ok {
		hours, err := provider.PeakHours(ctx)
		if err != nil {
			e.logger.Warn("peak hours unavailable", logging.Args(logging.Error(err))...)
		} else if len(hours) > 0 {
			if err := e.peakCache.Store(hours); err != nil {
				e.logger.Warn("failed to cache peak hours", logging.Args(logging.Error(err))...)
			}
		}
	}

	if report.SourcesUpdated > 0 {
		if err := e.notifier.NotifyAnalyticsApplied(ctx, report.SourcesUpdated, report.ItemsMatched); err != nil {
			e.logger.Warn("analytics notification failed", logging.Args(logging.Error(err))...)
		}
	}
	return report, nil
}
