package config

import (
	"fmt"
	"time"

	"shortloop/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDiscovery(); err != nil {
		return err
	}
	if err := c.validateSelection(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateAnalytics(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDiscovery() error {
	if c.Discovery.SeedSource == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shortloop/config.toml"
		}
		return services.Wrap(services.ErrConfiguration, "config", "discovery",
			fmt.Sprintf("discovery.seed_source is required; edit %s (create with 'shortloop config init')", defaultPath), nil)
	}
	if c.Discovery.MaxDownloads < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "discovery",
			"discovery.max_downloads must not be negative", nil)
	}
	return nil
}

func (c *Config) validateSelection() error {
	if c.Selection.BaseWeight < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "selection",
			"selection.base_weight must not be negative", nil)
	}
	return nil
}

func (c *Config) validateSchedule() error {
	switch c.Schedule.Mode {
	case "publish_now", "default_interval", "custom_slots", "peak_hour_priority":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "schedule",
			fmt.Sprintf("schedule.mode %q is not one of publish_now, default_interval, custom_slots, peak_hour_priority", c.Schedule.Mode), nil)
	}
	for _, slot := range c.Schedule.CustomSlots {
		if _, err := time.Parse("15:04", slot); err != nil {
			return services.Wrap(services.ErrConfiguration, "config", "schedule",
				fmt.Sprintf("schedule.custom_slots entry %q is not HH:MM", slot), nil)
		}
	}
	for _, hour := range c.Schedule.PeakHours {
		if hour < 0 || hour > 23 {
			return services.Wrap(services.ErrConfiguration, "config", "schedule",
				fmt.Sprintf("schedule.peak_hours entry %d is outside 0-23", hour), nil)
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if c.Publish.MaxAttempts <= 0 {
		return services.Wrap(services.ErrConfiguration, "config", "publish",
			"publish.max_attempts must be positive", nil)
	}
	if c.Publish.BackoffMinSeconds < 0 || c.Publish.BackoffMaxSeconds < c.Publish.BackoffMinSeconds {
		return services.Wrap(services.ErrConfiguration, "config", "publish",
			"publish backoff bounds must satisfy 0 <= min <= max", nil)
	}
	return nil
}

func (c *Config) validateAnalytics() error {
	switch c.Analytics.Apply {
	case "blend", "overwrite":
	default:
		return services.Wrap(services.ErrConfiguration, "config", "analytics",
			fmt.Sprintf("analytics.apply %q is not one of blend, overwrite", c.Analytics.Apply), nil)
	}
	if c.Analytics.BlendWeight < 0 {
		return services.Wrap(services.ErrConfiguration, "config", "analytics",
			"analytics.blend_weight must not be negative", nil)
	}
	return nil
}
