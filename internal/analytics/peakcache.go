package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"shortloop/internal/fileutil"
)

// PeakHoursCache persists audience peak hours between runs so the scheduler
// can target them without re-deriving analytics every time.
type PeakHoursCache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

type peakCacheFile struct {
	Timestamp time.Time `json:"timestamp"`
	PeakHours []int     `json:"peak_hours"`
}

// NewPeakHoursCache builds a cache at path with the given freshness window.
// The clock is injected so tests control expiry; nil means time.Now.
func NewPeakHoursCache(path string, ttl time.Duration, now func() time.Time) *PeakHoursCache {
	if now == nil {
		now = time.Now
	}
	return &PeakHoursCache{path: path, ttl: ttl, now: now}
}

// Load returns the cached peak hours when the cache is present, readable,
// and fresh. A missing, corrupt, or stale cache returns ok=false; the caller
// falls back to configured hours.
func (c *PeakHoursCache) Load() ([]int, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}
	var file peakCacheFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, false
	}
	if file.Timestamp.IsZero() || c.now().Sub(file.Timestamp) > c.ttl {
		return nil, false
	}
	if len(file.PeakHours) == 0 {
		return nil, false
	}
	for _, hour := range file.PeakHours {
		if hour < 0 || hour > 23 {
			return nil, false
		}
	}
	return file.PeakHours, true
}

// Store writes peak hours with the current timestamp, atomically.
func (c *PeakHoursCache) Store(hours []int) error {
	file := peakCacheFile{Timestamp: c.now().UTC(), PeakHours: hours}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode peak cache: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write peak cache: %w", err)
	}
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *PeakHoursCache) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear peak cache: %w", err)
	}
	return nil
}
