// Package scheduler implements spec §4.9's Scheduler: DateRule × TimeRule
// events whose nextTrigger is recomputed against the simulated clock, not
// wall time.
//
// Grounded on the teacher's internal/work job-scheduling package for the
// registration-order/priority firing discipline, and on
// github.com/robfig/cron/v3's cron.Schedule interface — repurposed here to
// compute Next(simTime) against the simulation clock instead of
// time.Now(), per the "inject the clock through a handle" discipline
// noted for this codebase.
package scheduler

import (
	"fmt"
	"time"

	"github.com/aristath/tradesim/internal/exchange"
	"github.com/robfig/cron/v3"
)

// DateRule decides whether a candidate calendar day qualifies for
// firing. day is always normalized to midnight in the rule's reference
// location.
type DateRule interface {
	AppliesOn(day time.Time) bool
}

// everyDayRule fires on every calendar day regardless of market state.
type everyDayRule struct{}

func (everyDayRule) AppliesOn(time.Time) bool { return true }

// EveryDay returns a DateRule matching every calendar day.
func EveryDay() DateRule { return everyDayRule{} }

// tradingDayRule fires only on cal's trading days.
type tradingDayRule struct{ cal *exchange.Calendar }

func (r tradingDayRule) AppliesOn(day time.Time) bool { return r.cal.IsTradingDay(day) }

// EveryTradingDay returns a DateRule matching cal's trading days (spec's
// "everyDay(symbol)" rule — symbol resolves to its market calendar).
func EveryTradingDay(cal *exchange.Calendar) DateRule { return tradingDayRule{cal: cal} }

// onDateRule fires exactly once, on the given calendar day.
type onDateRule struct{ date time.Time }

func (r onDateRule) AppliesOn(day time.Time) bool { return sameDay(r.date, day) }

// OnDate returns a DateRule matching only the given date.
func OnDate(date time.Time) DateRule { return onDateRule{date: date} }

// monthStartRule fires on the first trading day of each month.
type monthStartRule struct{ cal *exchange.Calendar }

func (r monthStartRule) AppliesOn(day time.Time) bool {
	if !r.cal.IsTradingDay(day) {
		return false
	}
	for d := day.AddDate(0, 0, -1); d.Month() == day.Month(); d = d.AddDate(0, 0, -1) {
		if r.cal.IsTradingDay(d) {
			return false
		}
	}
	return true
}

// MonthStart returns a DateRule matching the first trading day of each
// month on cal.
func MonthStart(cal *exchange.Calendar) DateRule { return monthStartRule{cal: cal} }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// TimeRule computes the next candidate firing instant strictly after
// "after", without regard to DateRule filtering.
type TimeRule interface {
	Next(after time.Time) time.Time
}

// cronTimeRule adapts a cron.Schedule to TimeRule.
type cronTimeRule struct{ schedule cron.Schedule }

func (r cronTimeRule) Next(after time.Time) time.Time { return r.schedule.Next(after) }

// At fires daily at hour:minute. hour/minute are validated at
// registration time (0-23/0-59) and a malformed pair panics, since these
// are static strategy-setup arguments, never runtime-derived.
func At(hour, minute int) TimeRule {
	schedule, err := cron.ParseStandard(fmt.Sprintf("%d %d * * *", minute, hour))
	if err != nil {
		panic(fmt.Sprintf("scheduler: invalid At(%d, %d): %v", hour, minute, err))
	}
	return cronTimeRule{schedule: schedule}
}

// Every fires at a fixed period, anchored to the first call's "after"
// instant (cron's ConstantDelaySchedule semantics).
func Every(period time.Duration) TimeRule {
	return cronTimeRule{schedule: cron.ConstantDelaySchedule{Delay: period}}
}

// marketOpenRule fires offset minutes after cal's next session open.
type marketOpenRule struct {
	cal    *exchange.Calendar
	offset time.Duration
}

func (r marketOpenRule) Next(after time.Time) time.Time {
	open := r.cal.NextOpen(after)
	candidate := open.Add(r.offset)
	if !candidate.After(after) {
		candidate = r.cal.NextOpen(open.Add(time.Minute)).Add(r.offset)
	}
	return candidate
}

// AfterMarketOpen fires offsetMinutes after each session open on cal.
func AfterMarketOpen(cal *exchange.Calendar, offsetMinutes int) TimeRule {
	return marketOpenRule{cal: cal, offset: time.Duration(offsetMinutes) * time.Minute}
}

// marketCloseRule fires offset minutes before cal's next session close.
type marketCloseRule struct {
	cal    *exchange.Calendar
	offset time.Duration
}

func (r marketCloseRule) Next(after time.Time) time.Time {
	close := r.cal.NextClose(after)
	candidate := close.Add(-r.offset)
	if !candidate.After(after) {
		close = r.cal.NextClose(close.Add(time.Minute))
		candidate = close.Add(-r.offset)
	}
	return candidate
}

// BeforeMarketClose fires offsetMinutes before each session close on cal.
func BeforeMarketClose(cal *exchange.Calendar, offsetMinutes int) TimeRule {
	return marketCloseRule{cal: cal, offset: time.Duration(offsetMinutes) * time.Minute}
}
