package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shortloop/internal/discovery"
	"shortloop/internal/logging"
	"shortloop/internal/publish"
	"shortloop/internal/schedule"
	"shortloop/internal/selection"
	"shortloop/internal/services"
)

// Collaborators are the external integrations a run needs.
type Collaborators struct {
	Source    discovery.Source
	Metadata  discovery.MetadataGenerator
	Publisher publish.Publisher
}

// RunReport summarizes one completed run.
type RunReport struct {
	RunID           string
	SourcesSelected []string
	ItemsDiscovered int
	ItemsPublished  int
	ItemsFailed     int
	SourcesAdmitted []string
	SourcesEvicted  []string
	Duration        time.Duration
}

// Run executes one full loop iteration: select sources, discover and
// deduplicate candidates, schedule and publish each item, and grow the
// source pool from what the run surfaced. Per-source and per-item failures
// degrade the run; only a fatal publishing error or a broken store aborts
// it.
func (e *Engine) Run(ctx context.Context, collab Collaborators) (RunReport, error) {
	started := e.now()
	report := RunReport{RunID: uuid.NewString()}
	logger := e.logger.With(logging.String(logging.FieldRunID, report.RunID))

	if err := e.store.EnsureSource(ctx, e.cfg.Discovery.SeedSource); err != nil {
		return report, err
	}

	scores, err := e.store.AllScores(ctx)
	if err != nil {
		return report, err
	}

	sampler := selection.NewEngine(e.cfg.Selection.BaseWeight, e.rng)
	selected := sampler.Sample(scores, e.cfg.Discovery.SourcesPerRun)
	report.SourcesSelected = selected
	allocations := selection.Allocate(e.cfg.Discovery.MaxDownloads, scores, selected)

	logger.Info("run started",
		logging.Args(
			logging.Int("sources", len(selected)),
			logging.Int("budget", e.cfg.Discovery.MaxDownloads),
		)...)
	if err := e.notifier.NotifyRunStarted(ctx, len(selected), e.cfg.Discovery.MaxDownloads); err != nil {
		logger.Warn("run-started notification failed", logging.Args(logging.Error(err))...)
	}

	planner, err := e.newPlanner()
	if err != nil {
		return report, err
	}
	coordinator := publish.NewCoordinator(e.cfg.Publish, e.store, collab.Publisher, e.logger, e.sleep, e.rng)
	deduper := discovery.NewDeduper()
	protected := map[string]struct{}{e.cfg.Discovery.SeedSource: {}}

	var discoveredTags []string
	for _, alloc := range allocations {
		quota := alloc.Total()
		if quota <= 0 {
			continue
		}
		if max := e.cfg.Discovery.ItemsPerSource; max > 0 && quota > max {
			quota = max
		}
		sourceLogger := logger.With(logging.String(logging.FieldSourceID, alloc.SourceID))

		candidates, err := collab.Source.Enumerate(ctx, alloc.SourceID, quota)
		if err != nil {
			sourceLogger.Warn("discovery failed; skipping source", logging.Args(logging.Error(err))...)
			if metricErr := e.store.IncrementMetric(ctx, string(services.KindDiscoveryEmpty)); metricErr != nil {
				return report, metricErr
			}
			continue
		}
		if len(candidates) == 0 {
			sourceLogger.Info("source produced no candidates",
				logging.Args(logging.String(logging.FieldEventType, string(services.KindDiscoveryEmpty)))...)
			if metricErr := e.store.IncrementMetric(ctx, string(services.KindDiscoveryEmpty)); metricErr != nil {
				return report, metricErr
			}
			continue
		}

		for _, candidate := range candidates {
			if !deduper.Admit(candidate) {
				sourceLogger.Debug("duplicate candidate skipped", logging.Args(logging.String("title", candidate.Title))...)
				continue
			}

			meta, usable, err := collab.Metadata.Generate(ctx, candidate)
			if err != nil {
				sourceLogger.Warn("metadata generation failed; skipping candidate",
					logging.Args(logging.String("title", candidate.Title), logging.Error(err))...)
				continue
			}
			if !usable {
				continue
			}

			item := discovery.NewItem(alloc.SourceID, candidate, meta)
			report.ItemsDiscovered++
			discoveredTags = append(discoveredTags, candidate.Tags...)

			// Every usable discovery strengthens its source a little;
			// analytics later corrects the picture.
			if err := e.store.IncrementScore(ctx, alloc.SourceID, e.cfg.Publish.DiscoveryBump); err != nil {
				return report, err
			}
			if err := e.store.RecordPending(ctx, item.EphemeralID, item.SourceID); err != nil {
				return report, err
			}

			decision, err := planner.Next()
			if err != nil {
				if errors.Is(err, services.ErrCannotSchedule) {
					sourceLogger.Warn("no slot available for item; skipping", logging.Args(logging.Error(err))...)
					continue
				}
				return report, err
			}

			outcome, err := coordinator.Attempt(ctx, item, decision)
			if err != nil {
				report.Duration = e.now().Sub(started)
				if notifyErr := e.notifier.NotifyError(ctx, err, "publishing"); notifyErr != nil {
					logger.Warn("error notification failed", logging.Args(logging.Error(notifyErr))...)
				}
				return report, err
			}
			switch outcome.Status {
			case publish.StatusPublished:
				report.ItemsPublished++
			case publish.StatusFailed:
				report.ItemsFailed++
				if notifyErr := e.notifier.NotifyPublishFailed(ctx, meta.Title, outcome.Attempts); notifyErr != nil {
					logger.Warn("publish-failed notification failed", logging.Args(logging.Error(notifyErr))...)
				}
			}
		}
	}

	admitted, evicted := e.growPool(ctx, logger, discoveredTags, protected)
	report.SourcesAdmitted = admitted
	report.SourcesEvicted = evicted

	report.Duration = e.now().Sub(started)
	logger.Info("run completed",
		logging.Args(
			logging.Int("discovered", report.ItemsDiscovered),
			logging.Int("published", report.ItemsPublished),
			logging.Int("failed", report.ItemsFailed),
			logging.Int("sources_admitted", len(admitted)),
			logging.Duration("duration", report.Duration),
		)...)
	if err := e.notifier.NotifyRunCompleted(ctx, report.ItemsPublished, report.ItemsFailed, report.Duration); err != nil {
		logger.Warn("run-completed notification failed", logging.Args(logging.Error(err))...)
	}
	return report, nil
}

func (e *Engine) newPlanner() (*schedule.Planner, error) {
	planner, err := schedule.NewPlanner(e.cfg.Schedule, e.now)
	if err != nil {
		return nil, err
	}
	if schedule.Mode(e.cfg.Schedule.Mode) == schedule.ModePeakHourPriority {
		if hours, ok := e.peakCache.Load(); ok {
			planner.SetPeakHours(hours)
		}
	}
	return planner, nil
}

// growPool admits sources surfaced during discovery, evicting weak entries
// when the pool is at capacity. The seed source is never evicted. A pool
// that cannot make room refuses the newcomer and the run moves on.
func (e *Engine) growPool(ctx context.Context, logger *slog.Logger, tags []string, protected map[string]struct{}) (admitted, evicted []string) {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}

		added, removed, err := e.store.AdmitSource(ctx, tag, e.cfg.Discovery.MaxSources, protected)
		if errors.Is(err, services.ErrCannotEvict) {
			logger.Warn("pool full of protected sources; newcomer refused",
				logging.Args(
					logging.String(logging.FieldSourceID, tag),
					logging.String(logging.FieldEventType, string(services.KindEvictionImpossible)),
				)...)
			if metricErr := e.store.IncrementMetric(ctx, string(services.KindEvictionImpossible)); metricErr != nil {
				logger.Warn("failed to tally eviction refusal", logging.Args(logging.Error(metricErr))...)
			}
			continue
		}
		if err != nil {
			logger.Warn("failed to admit source", logging.Args(logging.String(logging.FieldSourceID, tag), logging.Error(err))...)
			continue
		}
		if added {
			admitted = append(admitted, tag)
		}
		if removed != "" {
			evicted = append(evicted, removed)
			logger.Info("source evicted to make room",
				logging.Args(
					logging.String("evicted", removed),
					logging.String("admitted", tag),
				)...)
		}
	}
	return admitted, evicted
}

// Plan previews the publish times the current configuration would assign to
// count items, without publishing anything.
func (e *Engine) Plan(count int) ([]schedule.Decision, error) {
	planner, err := e.newPlanner()
	if err != nil {
		return nil, err
	}
	decisions := make([]schedule.Decision, 0, count)
	for i := 0; i < count; i++ {
		decision, err := planner.Next()
		if err != nil {
			return decisions, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}
