package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDiscovery()
	c.normalizeSchedule()
	c.normalizeAnalytics()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDiscovery() {
	c.Discovery.SeedSource = strings.TrimSpace(c.Discovery.SeedSource)
	if c.Discovery.MaxSources <= 0 {
		c.Discovery.MaxSources = defaultMaxSources
	}
	if c.Discovery.SourcesPerRun <= 0 {
		c.Discovery.SourcesPerRun = defaultSourcesPerRun
	}
	if c.Discovery.ItemsPerSource <= 0 {
		c.Discovery.ItemsPerSource = defaultItemsPerSource
	}
}

func (c *Config) normalizeSchedule() {
	c.Schedule.Mode = strings.ToLower(strings.TrimSpace(c.Schedule.Mode))
	if c.Schedule.Mode == "" {
		c.Schedule.Mode = defaultScheduleMode
	}
	if c.Schedule.IntervalMinutes <= 0 {
		c.Schedule.IntervalMinutes = defaultIntervalMinutes
	}
	if c.Schedule.MinLeadMinutes <= 0 {
		c.Schedule.MinLeadMinutes = defaultMinLeadMinutes
	}
	if c.Schedule.PeakStepMinutes <= 0 {
		c.Schedule.PeakStepMinutes = defaultPeakStepMinutes
	}
	if c.Schedule.PeakLookaheadHours <= 0 {
		c.Schedule.PeakLookaheadHours = defaultPeakLookaheadHours
	}
	slots := make([]string, 0, len(c.Schedule.CustomSlots))
	for _, slot := range c.Schedule.CustomSlots {
		if trimmed := strings.TrimSpace(slot); trimmed != "" {
			slots = append(slots, trimmed)
		}
	}
	c.Schedule.CustomSlots = slots
}

func (c *Config) normalizeAnalytics() {
	c.Analytics.Apply = strings.ToLower(strings.TrimSpace(c.Analytics.Apply))
	if c.Analytics.Apply == "" {
		c.Analytics.Apply = defaultApplyMode
	}
	if c.Analytics.CorrelationTTLDays <= 0 {
		c.Analytics.CorrelationTTLDays = defaultCorrelationTTLDays
	}
	if c.Analytics.PeakCacheTTLHours <= 0 {
		c.Analytics.PeakCacheTTLHours = defaultPeakCacheTTLHours
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
