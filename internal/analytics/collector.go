package analytics

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"shortloop/internal/config"
	"shortloop/internal/logging"
	"shortloop/internal/services"
	"shortloop/internal/store"
)

// Metrics is the engagement snapshot for one published item.
type Metrics struct {
	PermanentID string
	Views       int64
	Likes       int64
	Comments    int64
}

// MetricsSource supplies engagement metrics for recently published items.
type MetricsSource interface {
	RecentMetrics(ctx context.Context) ([]Metrics, error)
}

// Collector correlates engagement metrics back to discovery sources and
// applies the resulting performance scores.
type Collector struct {
	cfg    config.Analytics
	store  *store.Store
	logger *slog.Logger
}

// NewCollector builds a collector bound to the engine store.
func NewCollector(cfg config.Analytics, st *store.Store, logger *slog.Logger) *Collector {
	return &Collector{
		cfg:    cfg,
		store:  st,
		logger: logging.NewComponentLogger(logger, "analytics"),
	}
}

// Report summarizes one collection pass.
type Report struct {
	ItemsSeen      int
	ItemsMatched   int
	ItemsSkipped   int
	SourcesUpdated int
}

// Collect pulls metrics, attributes each item to its discovery source, and
// applies per-source average performance to the score store. Items whose
// source cannot be determined, or whose source is an off-platform link, are
// skipped. An unreachable metrics source is reported as an
// analytics-unavailable condition, leaving scores untouched.
func (c *Collector) Collect(ctx context.Context, source MetricsSource) (Report, error) {
	items, err := source.RecentMetrics(ctx)
	if err != nil {
		if metricErr := c.store.IncrementMetric(ctx, string(services.KindAnalyticsUnavailable)); metricErr != nil {
			c.logger.Warn("failed to tally analytics outage", logging.Args(logging.Error(metricErr))...)
		}
		return Report{}, services.Wrap(services.ErrUnavailable, "analytics", "collect", "metrics source unreachable", err)
	}

	report := Report{ItemsSeen: len(items)}
	perSource := make(map[string][]float64)
	for _, item := range items {
		entry, err := c.store.LookupByPermanentID(ctx, item.PermanentID)
		if store.IsUnknownCorrelation(err) {
			report.ItemsSkipped++
			continue
		}
		if err != nil {
			return report, err
		}
		if entry.Source == store.UnknownSource || isForeignScheme(entry.Source) {
			report.ItemsSkipped++
			continue
		}

		perSource[entry.Source] = append(perSource[entry.Source], c.performanceScore(item))
		report.ItemsMatched++
	}

	for sourceID, scores := range perSource {
		avg := mean(scores)
		if err := c.applyScore(ctx, sourceID, avg); err != nil {
			return report, err
		}
		if err := c.store.AddSamples(ctx, sourceID, len(scores)); err != nil {
			return report, err
		}
		report.SourcesUpdated++
		c.logger.Info("applied performance feedback",
			logging.Args(
				logging.String(logging.FieldSourceID, sourceID),
				logging.Float64("avg_performance", avg),
				logging.Int("samples", len(scores)),
			)...)
	}
	return report, nil
}

// performanceScore compresses raw engagement into a comparable magnitude.
// Log scaling keeps a viral outlier from erasing every other source's
// standing.
func (c *Collector) performanceScore(m Metrics) float64 {
	return c.cfg.ViewWeight*math.Log10(float64(m.Views)+1) +
		c.cfg.LikeWeight*math.Log10(float64(m.Likes)+1) +
		c.cfg.CommentWeight*math.Log10(float64(m.Comments)+1)
}

func (c *Collector) applyScore(ctx context.Context, sourceID string, avg float64) error {
	switch c.cfg.Apply {
	case "overwrite":
		return c.store.SetScore(ctx, sourceID, avg)
	default: // blend
		return c.store.IncrementScore(ctx, sourceID, avg*c.cfg.BlendWeight)
	}
}

// isForeignScheme reports whether a recorded source is an off-platform link
// rather than a topic. Feedback for linked sources is not actionable because
// the pool keys on topics.
func isForeignScheme(source string) bool {
	lowered := strings.ToLower(source)
	return strings.Contains(lowered, "youtube.com") || strings.Contains(lowered, "youtu.be")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
