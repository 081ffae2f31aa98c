// Package universe implements the UniverseEngine (spec §4.5): scheduled
// selector evaluation, diffing the result against the previous member
// set, and driving security creation/removal.
//
// Grounded on the teacher's internal/modules/universe package (selector
// configuration, scheduled re-evaluation) generalized from a fixed
// ISIN-scored instrument universe to an arbitrary selector function over
// marketdata.Symbol.
package universe

import (
	"sort"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/scheduler"
)

// maxLookaheadDays bounds a universe's next-trigger search the same way
// scheduler.Scheduler bounds its own (spec §4.5 "evaluated at the
// universe's configured schedule, typically daily").
const maxLookaheadDays = 400

// Selector produces the current member set of a universe given the data
// slice available at evaluation time. Returning Unchanged signals that
// the prior member set still applies and the diff should be skipped.
type Selector func(slice *marketdata.Slice) []marketdata.Symbol

// Unchanged is a sentinel returned by a Selector to short-circuit the
// diff — the engine keeps the prior membership untouched.
var Unchanged = []marketdata.Symbol{{Ticker: "\x00unchanged\x00"}}

func isUnchanged(syms []marketdata.Symbol) bool {
	return len(syms) == 1 && syms[0].Ticker == "\x00unchanged\x00"
}

// Changes reports the result of diffing a universe's new member set
// against its previous one.
type Changes struct {
	Added   []marketdata.Symbol
	Removed []marketdata.Symbol
}

func (c Changes) IsEmpty() bool { return len(c.Added) == 0 && len(c.Removed) == 0 }

// Universe tracks one named selector's current membership and the
// schedule (spec §3 "config"/"settings") its selector is re-evaluated
// on — typically daily, never every slice instant.
type Universe struct {
	Name     string
	Selector Selector
	members  map[marketdata.Symbol]struct{}

	dateRule    scheduler.DateRule
	timeRule    scheduler.TimeRule
	nextTrigger time.Time
	hasNext     bool
}

// New creates a Universe with an empty initial membership, evaluated
// once per dateRule×timeRule match (the same (DateRule, TimeRule) pair
// internal/scheduler uses for strategy-scheduled actions). from seeds the
// first trigger search, normally the run's start date.
func New(name string, sel Selector, dateRule scheduler.DateRule, timeRule scheduler.TimeRule, from time.Time) *Universe {
	u := &Universe{
		Name:     name,
		Selector: sel,
		members:  make(map[marketdata.Symbol]struct{}),
		dateRule: dateRule,
		timeRule: timeRule,
	}
	if t, ok := nextMatchingTrigger(dateRule, timeRule, from); ok {
		u.nextTrigger, u.hasNext = t, true
	}
	return u
}

func nextMatchingTrigger(dateRule scheduler.DateRule, timeRule scheduler.TimeRule, after time.Time) (time.Time, bool) {
	candidate := after
	for i := 0; i < maxLookaheadDays*24; i++ {
		candidate = timeRule.Next(candidate)
		day := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, candidate.Location())
		if dateRule.AppliesOn(day) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// Due reports whether now has reached this universe's next scheduled
// evaluation instant. A Universe with no remaining trigger (lookahead
// exhausted) is never due again.
func (u *Universe) Due(now time.Time) bool {
	return u.hasNext && !u.nextTrigger.After(now)
}

// Advance recomputes the next trigger strictly after the instant just
// fired, mirroring scheduler.Scheduler.Fire's per-event recompute.
func (u *Universe) Advance(firedAt time.Time) {
	if t, ok := nextMatchingTrigger(u.dateRule, u.timeRule, firedAt); ok {
		u.nextTrigger, u.hasNext = t, true
	} else {
		u.hasNext = false
	}
}

// Evaluate runs the selector against slice and diffs the result against
// current membership. If the selector returns Unchanged, Evaluate returns
// an empty Changes without touching membership.
func (u *Universe) Evaluate(slice *marketdata.Slice) Changes {
	next := u.Selector(slice)
	if isUnchanged(next) {
		return Changes{}
	}

	nextSet := make(map[marketdata.Symbol]struct{}, len(next))
	for _, s := range next {
		nextSet[s] = struct{}{}
	}

	var added, removed []marketdata.Symbol
	for s := range nextSet {
		if _, ok := u.members[s]; !ok {
			added = append(added, s)
		}
	}
	for s := range u.members {
		if _, ok := nextSet[s]; !ok {
			removed = append(removed, s)
		}
	}

	sort.Slice(added, func(i, j int) bool { return added[i].ID.String() < added[j].ID.String() })
	sort.Slice(removed, func(i, j int) bool { return removed[i].ID.String() < removed[j].ID.String() })

	u.members = nextSet
	return Changes{Added: added, Removed: removed}
}

// Members returns the current membership, in stable sorted order.
func (u *Universe) Members() []marketdata.Symbol {
	out := make([]marketdata.Symbol, 0, len(u.members))
	for s := range u.members {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
