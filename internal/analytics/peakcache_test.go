package analytics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"shortloop/internal/analytics"
)

func TestPeakCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peak.json")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := analytics.NewPeakHoursCache(path, 24*time.Hour, func() time.Time { return now })

	if _, ok := cache.Load(); ok {
		t.Fatal("expected empty cache before store")
	}
	if err := cache.Store([]int{12, 18, 20}); err != nil {
		t.Fatalf("store: %v", err)
	}
	hours, ok := cache.Load()
	if !ok {
		t.Fatal("expected fresh cache to load")
	}
	if len(hours) != 3 || hours[0] != 12 {
		t.Fatalf("unexpected hours: %v", hours)
	}
}

func TestPeakCacheExpires(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peak.json")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := analytics.NewPeakHoursCache(path, 24*time.Hour, clock)

	if err := cache.Store([]int{18}); err != nil {
		t.Fatalf("store: %v", err)
	}

	now = now.Add(25 * time.Hour)
	if _, ok := cache.Load(); ok {
		t.Fatal("expected stale cache to be rejected")
	}
}

func TestPeakCacheRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peak.json")
	if err := os.WriteFile(path, []byte("{ nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cache := analytics.NewPeakHoursCache(path, 24*time.Hour, nil)
	if _, ok := cache.Load(); ok {
		t.Fatal("expected corrupt cache to be rejected")
	}
}

func TestPeakCacheRejectsOutOfRangeHours(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peak.json")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cache := analytics.NewPeakHoursCache(path, 24*time.Hour, func() time.Time { return now })

	if err := cache.Store([]int{18, 99}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, ok := cache.Load(); ok {
		t.Fatal("expected out-of-range hours to be rejected")
	}
}

func TestPeakCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peak.json")
	cache := analytics.NewPeakHoursCache(path, 24*time.Hour, nil)

	if err := cache.Clear(); err != nil {
		t.Fatalf("clear of missing cache: %v", err)
	}
	if err := cache.Store([]int{18}); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected cache removed, stat err: %v", err)
	}
}
