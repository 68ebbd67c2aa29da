package schedule

import "fmt"

// Mode selects the publish-time strategy for a run.
type Mode string

const (
	// ModePublishNow publishes the first item immediately; later items in
	// the same run fall back to interval spacing.
	ModePublishNow Mode = "publish_now"
	// ModeDefaultInterval publishes the first item immediately and spaces
	// the rest at a fixed interval.
	ModeDefaultInterval Mode = "default_interval"
	// ModeCustomSlots schedules items into operator-chosen times of day,
	// placed on the following day.
	ModeCustomSlots Mode = "custom_slots"
	// ModePeakHourPriority scans forward for the next audience peak hour.
	ModePeakHourPriority Mode = "peak_hour_priority"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModePublishNow, ModeDefaultInterval, ModeCustomSlots, ModePeakHourPriority:
		return Mode(value), nil
	default:
		return "", fmt.Errorf("unknown schedule mode %q", value)
	}
}
