package feed

import (
	"time"

	"github.com/aristath/tradesim/internal/exchange"
	"github.com/aristath/tradesim/internal/marketdata"
)

// FillForwardSource wraps a Source and, when the subscription's
// fillForward flag is set, synthesizes a cloned bar (open/high/low/close
// all equal to the last close, volume=0) whenever the underlying source
// has no data for a session-valid interval on the subscription's period
// grid. It performs no fill-forward across non-session intervals unless
// extendedHours is set (spec §4.4).
type FillForwardSource struct {
	inner    Source
	cfg      marketdata.SubscriptionConfig
	calendar *exchange.Calendar

	lastBar  *marketdata.BaseData
	nextSlot time.Time
	pendingInner marketdata.BaseData
	innerOK      bool
	started      bool
}

// NewFillForwardSource creates a fill-forward wrapper over inner, using
// calendar to decide which grid slots are session-valid.
func NewFillForwardSource(inner Source, cfg marketdata.SubscriptionConfig, calendar *exchange.Calendar) *FillForwardSource {
	return &FillForwardSource{inner: inner, cfg: cfg, calendar: calendar}
}

func (f *FillForwardSource) Symbol() marketdata.Symbol   { return f.inner.Symbol() }
func (f *FillForwardSource) InsertionOrder() int          { return f.inner.InsertionOrder() }

// Next returns either the next real sample from inner, or a synthesized
// fill-forward bar if the grid slot preceding it falls in a session-valid
// interval with no real data.
func (f *FillForwardSource) Next() (marketdata.BaseData, bool) {
	if !f.cfg.FillForward {
		return f.inner.Next()
	}

	if !f.started {
		f.started = true
		f.pendingInner, f.innerOK = f.inner.Next()
		if f.innerOK {
			f.nextSlot = f.pendingInner.Time
		}
	}

	if !f.innerOK {
		return marketdata.BaseData{}, false
	}

	period := f.cfg.Period()
	if period <= 0 || f.nextSlot.Equal(f.pendingInner.Time) || f.nextSlot.After(f.pendingInner.Time) {
		d := f.pendingInner
		f.lastBar = &d
		f.nextSlot = d.EndTime
		f.pendingInner, f.innerOK = f.inner.Next()
		return d, true
	}

	// Gap between nextSlot and the next real sample: synthesize a bar if
	// the slot is session-valid (or extendedHours allows it) and we have a
	// prior close to clone.
	slotEnd := f.nextSlot.Add(period)
	f.nextSlot = slotEnd
	if f.lastBar == nil {
		return f.Next()
	}
	if !f.cfg.ExtendedHours && f.calendar != nil && !f.calendar.IsTradingDay(f.nextSlot) {
		return f.Next()
	}

	close := f.lastBar.Close
	synthetic := marketdata.TradeBar(f.cfg.Symbol, slotEnd.Add(-period), slotEnd, close, close, close, close, 0)
	return synthetic, true
}
