package analytics_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"shortloop/internal/analytics"
	"shortloop/internal/config"
	"shortloop/internal/logging"
	"shortloop/internal/services"
	"shortloop/internal/store"
	"shortloop/internal/testsupport"
)

type stubMetrics struct {
	items []analytics.Metrics
	err   error
}

func (s stubMetrics) RecentMetrics(context.Context) ([]analytics.Metrics, error) {
	return s.items, s.err
}

func newCollector(t *testing.T, cfg *config.Config, st *store.Store) *analytics.Collector {
	t.Helper()
	return analytics.NewCollector(cfg.Analytics, st, logging.NewNop())
}

func seedPublishedItem(t *testing.T, st *store.Store, source, permanentID string) {
	t.Helper()
	ctx := context.Background()
	if err := st.RecordPending(ctx, "eph-"+permanentID, source); err != nil {
		t.Fatalf("record pending: %v", err)
	}
	if err := st.Finalize(ctx, "eph-"+permanentID, permanentID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
}

func TestCollectBlendsAveragePerformanceIntoScore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SetScore(ctx, "gaming clips", 2.0); err != nil {
		t.Fatalf("seed score: %v", err)
	}
	seedPublishedItem(t, st, "gaming clips", "vid-1")

	source := stubMetrics{items: []analytics.Metrics{
		{PermanentID: "vid-1", Views: 999, Likes: 99, Comments: 9},
	}}

	report, err := newCollector(t, cfg, st).Collect(ctx, source)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if report.ItemsMatched != 1 || report.SourcesUpdated != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	// view/like/comment weights 1.5/2.0/1.0 over log10(n+1) give exactly
	// 1.5*3 + 2*2 + 1*1 = 9.5 for this engagement; blended at weight 5.
	want := 2.0 + 9.5*cfg.Analytics.BlendWeight
	got, err := st.Score(ctx, "gaming clips")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}

	sources, err := st.Sources(ctx)
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if sources[0].SampleCount != 1 {
		t.Fatalf("expected sample recorded, got %+v", sources[0])
	}
}

func TestCollectOverwriteReplacesScore(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Analytics.Apply = "overwrite"
	})
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SetScore(ctx, "topic", 50); err != nil {
		t.Fatalf("seed: %v", err)
	}
	seedPublishedItem(t, st, "topic", "vid-1")

	source := stubMetrics{items: []analytics.Metrics{
		{PermanentID: "vid-1", Views: 9, Likes: 0, Comments: 0},
	}}
	if _, err := newCollector(t, cfg, st).Collect(ctx, source); err != nil {
		t.Fatalf("collect: %v", err)
	}

	got, err := st.Score(ctx, "topic")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	want := cfg.Analytics.ViewWeight * 1.0 // log10(10) == 1
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected overwrite to %v, got %v", want, got)
	}
}

func TestCollectAveragesMultipleItemsPerSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, func(c *config.Config) {
		c.Analytics.Apply = "overwrite"
	})
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedPublishedItem(t, st, "topic", "vid-1")
	seedPublishedItem(t, st, "topic", "vid-2")

	source := stubMetrics{items: []analytics.Metrics{
		{PermanentID: "vid-1", Views: 99},
		{PermanentID: "vid-2", Views: 0},
	}}
	report, err := newCollector(t, cfg, st).Collect(ctx, source)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if report.SourcesUpdated != 1 {
		t.Fatalf("expected one source updated, got %+v", report)
	}

	// (1.5*log10(100) + 1.5*log10(1)) / 2 == 1.5
	got, err := st.Score(ctx, "topic")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("expected average 1.5, got %v", got)
	}
}

func TestCollectSkipsUnattributableAndForeignItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seedPublishedItem(t, st, store.UnknownSource, "vid-unknown")
	seedPublishedItem(t, st, "https://youtube.com/@somechannel", "vid-linked")

	source := stubMetrics{items: []analytics.Metrics{
		{PermanentID: "vid-unknown", Views: 100},
		{PermanentID: "vid-linked", Views: 100},
		{PermanentID: "vid-never-seen", Views: 100},
	}}
	report, err := newCollector(t, cfg, st).Collect(ctx, source)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if report.ItemsSkipped != 3 || report.ItemsMatched != 0 {
		t.Fatalf("expected all items skipped, got %+v", report)
	}
}

func TestCollectUnreachableSourceFailsOpen(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.SetScore(ctx, "topic", 3.0); err != nil {
		t.Fatalf("seed: %v", err)
	}

	source := stubMetrics{err: errors.New("api down")}
	_, err := newCollector(t, cfg, st).Collect(ctx, source)
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	// Scores untouched, outage tallied.
	score, err := st.Score(ctx, "topic")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 3.0 {
		t.Fatalf("expected score untouched, got %v", score)
	}
	metrics, err := st.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics[string(services.KindAnalyticsUnavailable)] != 1 {
		t.Fatalf("expected outage tally, got %v", metrics)
	}
}
