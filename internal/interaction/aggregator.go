package interaction

import (
	"sync"
	"time"
)

// Aggregator folds events and timer ticks into Stats.
// Apply and Tick are the only mutation entry points; both run under one lock,
// so the record stays consistent even when they are called from different goroutines.
// After close no further mutation takes place.
type Aggregator struct {
	mu     sync.Mutex
	stats  Stats
	start  time.Time
	last   *Position // previous movement position, nil until the first movement
	closed bool
}

// NewAggregator creates an aggregator for a session that started at start.
func NewAggregator(start time.Time) *Aggregator {
	return &Aggregator{start: start}
}

// Start returns the session start instant.
func (a *Aggregator) Start() time.Time {
	return a.start
}

// Apply folds e into the stats. It reports false when the aggregator is closed
// and the event was discarded.
func (a *Aggregator) Apply(e Event) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}

	switch v := e.(type) {
	case Click:
		a.stats.Clicks++
		if v.Target != "" {
			a.stats.ActiveAreas.Add(v.Target, 1)
		}
	case Hover:
		// Intervals without a target or a positive duration carry no signal.
		if v.Target != "" && v.Duration > 0 {
			a.stats.Hovers.Add(v.Target, milliseconds(v.Duration))
		}
	case Scroll:
		a.stats.ScrollDepth = max(a.stats.ScrollDepth, v.Percent)
	case Movement:
		if a.last != nil {
			a.stats.MouseDistance += a.last.Distance(v.Position)
		}
		p := v.Position
		a.last = &p
	}
	return true
}

// Tick sets TimeSpent to the whole seconds elapsed between the session start and now.
func (a *Aggregator) Tick(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	elapsed := now.Sub(a.start)
	if elapsed < 0 {
		elapsed = 0
	}
	a.stats.TimeSpent = int(elapsed / time.Second)
}

// Snapshot returns a copy of the current stats.
func (a *Aggregator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.Clone()
}

func (a *Aggregator) close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}
