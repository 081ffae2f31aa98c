// Package clock is the single source of truth for simulation time (spec
// §4.1). Every other component that needs "now" is injected a *Clock
// handle rather than calling time.Now() directly, so tests can drive a
// virtual clock deterministically (DESIGN NOTES §9: "the one legitimate
// piece of process-wide state; inject it through a clock handle").
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Clock holds the current simulation UTC instant and a registry of time
// zones callers care about.
type Clock struct {
	mu    sync.RWMutex
	utc   time.Time
	zones map[string]*time.Location
}

// New creates a Clock starting at the given UTC instant.
func New(start time.Time) *Clock {
	return &Clock{
		utc:   start.UTC(),
		zones: make(map[string]*time.Location),
	}
}

// UTC returns the current simulation instant.
func (c *Clock) UTC() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utc
}

// SetUTC advances the clock. It is an error to move time backwards: the
// clock is monotonically non-decreasing by contract (spec §4.1).
func (c *Clock) SetUTC(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	t = t.UTC()
	if t.Before(c.utc) {
		return fmt.Errorf("clock: refusing to regress from %s to %s", c.utc, t)
	}
	c.utc = t
	return nil
}

// AddZone registers a time zone under a name so LocalTimeIn can resolve it.
func (c *Clock) AddZone(name string, loc *time.Location) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.zones[name] = loc
}

// LocalTimeIn returns the current instant converted into the named zone.
// It always reflects the zone-conversion of the current UTC instant — no
// caching of stale conversions is performed, keeping the invariant in
// spec §4.1 trivially true.
func (c *Clock) LocalTimeIn(name string) (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	loc, ok := c.zones[name]
	if !ok {
		return time.Time{}, fmt.Errorf("clock: zone %q not registered", name)
	}
	return c.utc.In(loc), nil
}

// In converts the current instant into an explicit *time.Location,
// bypassing the name registry — used by components (exchange, scheduler)
// that already hold a *time.Location rather than a zone name.
func (c *Clock) In(loc *time.Location) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.utc.In(loc)
}
