package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// maxLookaheadDays bounds how far an event's nextTrigger search advances
// when its DateRule keeps rejecting TimeRule candidates (e.g. MonthStart
// on a market closed for an extended holiday run); guards against an
// unbounded loop should a DateRule never match.
const maxLookaheadDays = 400

// Action is invoked when an event fires, receiving the instant it fired
// at (== its nextTrigger, not necessarily the clock's exact instant).
type Action func(t time.Time)

type event struct {
	name        string
	dateRule    DateRule
	timeRule    TimeRule
	action      Action
	regSeq      int
	nextTrigger time.Time
	hasNext     bool
}

// Scheduler owns every registered (DateRule, TimeRule, Action) event and
// fires those whose nextTrigger has elapsed, in nextTrigger-ascending,
// then registration order (spec §4.9).
type Scheduler struct {
	events []*event
	log    zerolog.Logger
}

// New creates an empty Scheduler.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{log: log.With().Str("component", "scheduler").Logger()}
}

// Add registers an event and seeds its first nextTrigger search starting
// strictly after "from" (normally the clock's current instant at
// registration time).
func (s *Scheduler) Add(name string, dateRule DateRule, timeRule TimeRule, from time.Time, action Action) {
	e := &event{
		name:     name,
		dateRule: dateRule,
		timeRule: timeRule,
		action:   action,
		regSeq:   len(s.events),
	}
	if t, ok := nextMatchingTrigger(dateRule, timeRule, from); ok {
		e.nextTrigger, e.hasNext = t, true
	}
	s.events = append(s.events, e)
}

func nextMatchingTrigger(dateRule DateRule, timeRule TimeRule, after time.Time) (time.Time, bool) {
	candidate := after
	for i := 0; i < maxLookaheadDays*24; i++ { // generous bound for sub-daily TimeRules too
		candidate = timeRule.Next(candidate)
		day := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), 0, 0, 0, 0, candidate.Location())
		if dateRule.AppliesOn(day) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// Fire advances the simulated clock to "now" and invokes every event
// whose nextTrigger is <= now, in (nextTrigger, registration order);
// each fired event's nextTrigger is recomputed immediately after firing,
// before the next event in this batch runs, so fast-repeating events do
// not reorder relative to slower ones registered later (spec §4.9).
func (s *Scheduler) Fire(now time.Time) {
	for {
		idx := s.nextDueIndex(now)
		if idx < 0 {
			return
		}
		e := s.events[idx]
		fired := e.nextTrigger
		e.action(fired)
		if t, ok := nextMatchingTrigger(e.dateRule, e.timeRule, fired); ok {
			e.nextTrigger, e.hasNext = t, true
		} else {
			e.hasNext = false
			s.log.Warn().Str("event", e.name).Msg("scheduler: no further trigger found within lookahead window")
		}
	}
}

// nextDueIndex returns the index of the due event with the smallest
// (nextTrigger, regSeq), or -1 if none is due.
func (s *Scheduler) nextDueIndex(now time.Time) int {
	best := -1
	for i, e := range s.events {
		if !e.hasNext || e.nextTrigger.After(now) {
			continue
		}
		if best == -1 {
			best = i
			continue
		}
		cur := s.events[best]
		if e.nextTrigger.Before(cur.nextTrigger) || (e.nextTrigger.Equal(cur.nextTrigger) && e.regSeq < cur.regSeq) {
			best = i
		}
	}
	return best
}
