// Package subscription holds SubscriptionConfigs and the per-symbol
// consolidators that aggregate a raw BaseData stream into bars of a
// requested period (spec §4.3). Grounded on the teacher's universe
// registration/config pattern (internal/modules/universe), generalized
// from a static instrument registry to a live rolling-bar aggregator.
package subscription

import (
	"fmt"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
)

// Consolidator aggregates a time-ordered stream of BaseData into bars
// whose endTime-time equals Period. One Consolidator instance serves one
// symbol/subscription.
type Consolidator struct {
	period     time.Duration
	epochAnchor bool // true: time-period consolidator; false: value-defined boundaries

	working   *marketdata.BaseData
	lastTime  time.Time
	hasLast   bool

	onEmit func(marketdata.BaseData)
}

// NewTimePeriodConsolidator creates a consolidator whose output bar
// boundaries align to epoch-anchored multiples of period (the common
// case: minute/hour/day bars).
func NewTimePeriodConsolidator(period time.Duration, onEmit func(marketdata.BaseData)) *Consolidator {
	return &Consolidator{period: period, epochAnchor: true, onEmit: onEmit}
}

// NewTickCountConsolidator creates a consolidator with no period and no
// epoch alignment: each bar's EndTime equals its first sample's Time, so
// every later sample emits the working bar and starts a new one. It has
// no hook for caller-supplied boundary decisions.
func NewTickCountConsolidator(onEmit func(marketdata.BaseData)) *Consolidator {
	return &Consolidator{epochAnchor: false, onEmit: onEmit}
}

// epochBoundary returns the epoch-anchored bar boundary (start, end) that
// t falls within, for a time-period consolidator.
func (c *Consolidator) epochBoundary(t time.Time) (time.Time, time.Time) {
	unix := t.Unix()
	periodSec := int64(c.period / time.Second)
	if periodSec <= 0 {
		periodSec = 1
	}
	startUnix := (unix / periodSec) * periodSec
	start := time.Unix(startUnix, 0).UTC()
	end := start.Add(c.period)
	return start, end
}

// Update feeds one raw sample into the consolidator. It rejects duplicate
// timestamps within the same subscription (idempotent on repeated
// identical inputs) and emits a completed bar via onEmit exactly once,
// when the next input's time reaches or exceeds the current bar's
// endTime (the rolling-bar rule).
func (c *Consolidator) Update(d marketdata.BaseData) error {
	if c.hasLast && !d.Time.After(c.lastTime) {
		if d.Time.Equal(c.lastTime) {
			return nil // duplicate timestamp: reject silently, idempotent
		}
		return fmt.Errorf("subscription: out-of-order sample at %s (last %s)", d.Time, c.lastTime)
	}
	c.lastTime = d.Time
	c.hasLast = true

	if c.working == nil {
		c.startBar(d)
		return nil
	}

	if !d.Time.Before(c.working.EndTime) {
		c.emit()
		c.startBar(d)
		return nil
	}

	c.aggregate(d)
	return nil
}

func (c *Consolidator) startBar(d marketdata.BaseData) {
	start, end := d.Time, d.Time.Add(c.period)
	if c.epochAnchor {
		start, end = c.epochBoundary(d.Time)
	}
	bar := marketdata.TradeBar(d.Symbol, start, end, d.Open, d.High, d.Low, d.Close, d.Volume)
	c.working = &bar
}

func (c *Consolidator) aggregate(d marketdata.BaseData) {
	w := c.working
	if d.High > w.High {
		w.High = d.High
	}
	if d.Low < w.Low {
		w.Low = d.Low
	}
	w.Close = d.Close
	w.Volume += d.Volume
}

func (c *Consolidator) emit() {
	if c.working == nil {
		return
	}
	c.onEmit(*c.working)
	c.working = nil
}

// Flush emits any in-progress bar — used at the end of a subscription's
// data (end of backtest, warm-up frontier) so a partial bar isn't
// silently dropped. Emits nothing if there is no contributing sample
// (the "no bar with fewer than one sample" rule is automatically
// satisfied since working is only set after the first sample).
func (c *Consolidator) Flush() {
	c.emit()
}
