package schedule

import (
	"time"

	"shortloop/internal/config"
	"shortloop/internal/services"
)

// Decision is a planner verdict for one item: either publish immediately or
// at the scheduled time.
type Decision struct {
	PublishNow bool
	At         time.Time
}

// Planner assigns publish times within a run. It is not safe for concurrent
// use; a run drives it from a single goroutine.
type Planner struct {
	mode      Mode
	interval  time.Duration
	minLead   time.Duration
	slots     []TimeOfDay
	strict    bool
	peakHours map[int]struct{}
	peakStep  time.Duration
	lookahead time.Duration

	now     func() time.Time
	last    time.Time
	planned int
}

// NewPlanner builds a planner from the schedule configuration. The clock is
// injected so tests control time; nil means time.Now.
func NewPlanner(cfg config.Schedule, now func() time.Time) (*Planner, error) {
	mode, err := ParseMode(cfg.Mode)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "schedule", "init", "invalid mode", err)
	}

	slots := make([]TimeOfDay, 0, len(cfg.CustomSlots))
	for _, raw := range cfg.CustomSlots {
		slot, err := ParseTimeOfDay(raw)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "schedule", "init", "invalid custom slot", err)
		}
		slots = append(slots, slot)
	}

	peak := make(map[int]struct{}, len(cfg.PeakHours))
	for _, hour := range cfg.PeakHours {
		peak[hour] = struct{}{}
	}

	if now == nil {
		now = time.Now
	}

	return &Planner{
		mode:      mode,
		interval:  time.Duration(cfg.IntervalMinutes) * time.Minute,
		minLead:   time.Duration(cfg.MinLeadMinutes) * time.Minute,
		slots:     slots,
		strict:    cfg.StrictSlots,
		peakHours: peak,
		peakStep:  time.Duration(cfg.PeakStepMinutes) * time.Minute,
		lookahead: time.Duration(cfg.PeakLookaheadHours) * time.Hour,
		now:       now,
	}, nil
}

// SetPeakHours replaces the peak-hour set, typically with hours derived from
// collected analytics rather than static configuration.
func (p *Planner) SetPeakHours(hours []int) {
	peak := make(map[int]struct{}, len(hours))
	for _, hour := range hours {
		peak[hour] = struct{}{}
	}
	p.peakHours = peak
}

// LastAssigned returns the most recent assignment, zero before the first.
func (p *Planner) LastAssigned() time.Time {
	return p.last
}

// Next assigns a publish decision for the next item. Assignments within a
// run are strictly increasing.
func (p *Planner) Next() (Decision, error) {
	now := p.now()
	base := p.last
	if base.IsZero() {
		base = now
	}
	minFuture := now.Add(p.minLead)

	var decision Decision
	switch p.mode {
	case ModePublishNow, ModeDefaultInterval:
		if p.planned == 0 {
			decision = Decision{PublishNow: true, At: now}
		} else {
			decision = Decision{At: p.intervalFallback(base, minFuture)}
		}
	case ModeCustomSlots:
		at, ok := p.nextCustomSlot(now, minFuture)
		if !ok {
			if p.strict {
				return Decision{}, services.Wrap(services.ErrCannotSchedule, "schedule", "plan",
					"no usable custom slot and strict slots are enabled", nil)
			}
			at = p.intervalFallback(base, minFuture)
		}
		decision = Decision{At: at}
	case ModePeakHourPriority:
		at, ok := p.nextPeakTime(base, minFuture)
		if !ok {
			at = p.intervalFallback(base, minFuture)
		}
		decision = Decision{At: at}
	}

	p.planned++
	p.last = decision.At
	return decision, nil
}

// intervalFallback spaces the item one interval after the previous
// assignment, never earlier than the minimum lead.
func (p *Planner) intervalFallback(base, minFuture time.Time) time.Time {
	at := base.Add(p.interval)
	if at.Before(minFuture) {
		return minFuture
	}
	return at
}

// nextCustomSlot consumes the first remaining slot that lands tomorrow after
// both the minimum lead and the previous assignment. Unusable slots stay in
// the queue for later items.
func (p *Planner) nextCustomSlot(now, minFuture time.Time) (time.Time, bool) {
	tomorrow := now.Add(24 * time.Hour)
	for i, slot := range p.slots {
		at := slot.On(tomorrow)
		if at.Before(minFuture) || !at.After(p.last) {
			continue
		}
		p.slots = append(p.slots[:i:i], p.slots[i+1:]...)
		return at, true
	}
	return time.Time{}, false
}

// nextPeakTime scans forward from the later of base and the minimum lead,
// stepping until a peak hour is hit or the lookahead horizon is exhausted.
func (p *Planner) nextPeakTime(base, minFuture time.Time) (time.Time, bool) {
	if len(p.peakHours) == 0 || p.peakStep <= 0 {
		return time.Time{}, false
	}

	start := base
	if start.Before(minFuture) {
		start = minFuture
	}
	horizon := start.Add(p.lookahead)
	for at := start; !at.After(horizon); at = at.Add(p.peakStep) {
		if _, ok := p.peakHours[at.Hour()]; ok && at.After(p.last) {
			return at, true
		}
	}
	return time.Time{}, false
}
