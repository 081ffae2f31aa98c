package history

import "time"

// WarmupConfig configures the pre-roll window (spec §4.10
// setWarmup(barCount|duration)). Exactly one of BarCount/Duration is
// expected to be set; BarCount takes precedence when both are.
type WarmupConfig struct {
	BarCount int
	Duration time.Duration
}

// IsZero reports whether no warm-up was configured.
func (c WarmupConfig) IsZero() bool { return c.BarCount == 0 && c.Duration == 0 }

// ResolveStart computes the instant warm-up replay should begin from,
// given the run's configured start date and the subscription's bar
// period (used to convert BarCount into a duration). internal/engine
// uses this to widen its data load window and seed the simulated clock
// before the configured start date.
func (c WarmupConfig) ResolveStart(startDate time.Time, barPeriod time.Duration) time.Time {
	if c.BarCount > 0 {
		return startDate.Add(-time.Duration(c.BarCount) * barPeriod)
	}
	return startDate.Add(-c.Duration)
}

// Gate suppresses strategy OnData callbacks while the clock is still
// within the warm-up window, while consolidators/indicators continue to
// be driven normally (spec §4.10: "driving consolidators and indicators
// but suppressing user callbacks").
type Gate struct {
	liveFrontier time.Time
	active       bool
}

// NewGate creates a Gate whose warm-up window runs from
// cfg.ResolveStart(startDate, barPeriod) up to (but excluding) startDate.
func NewGate(startDate time.Time, cfg WarmupConfig, barPeriod time.Duration) *Gate {
	if cfg.IsZero() {
		return &Gate{liveFrontier: startDate, active: false}
	}
	return &Gate{liveFrontier: startDate, active: true}
}

// Suppress reports whether callbacks should be suppressed for a slice at
// instant t: true while t is strictly before the live frontier
// (startDate).
func (g *Gate) Suppress(t time.Time) bool {
	if !g.active {
		return false
	}
	if !t.Before(g.liveFrontier) {
		g.active = false
		return false
	}
	return true
}

// InWarmup reports whether the gate is still suppressing, without
// consuming a clock tick (used by diagnostics/logging).
func (g *Gate) InWarmup() bool { return g.active }
