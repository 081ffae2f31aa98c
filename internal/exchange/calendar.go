package exchange

import (
	"sort"
	"time"
)

// holidaysForYear lists the holiday dates (normalized to midnight, calendar
// time zone) observed by the calendar in a given year.
func (c *Calendar) holidaysForYear(year int) []time.Time {
	var out []time.Time

	for _, h := range c.Holidays.FixedDate {
		d := time.Date(year, time.Month(h.Month), h.Day, 0, 0, 0, 0, c.Timezone)
		if h.ObserveOnWeekday {
			d = observeOnNearestWeekday(d)
		}
		out = append(out, d)
	}

	for _, h := range c.Holidays.RuleBased {
		d := nthWeekday(year, h.Month, h.Weekday, h.N)
		out = append(out, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.Timezone))
	}

	for _, h := range c.Holidays.EasterBased {
		easter := calculateEaster(year, c.EasterCalendar)
		d := easter.AddDate(0, 0, h.DaysOffset)
		out = append(out, time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.Timezone))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (c *Calendar) isHoliday(date time.Time) bool {
	key := date.Format("2006-01-02")
	for _, h := range c.holidaysForYear(date.Year()) {
		if h.Format("2006-01-02") == key {
			return true
		}
	}
	return false
}

func (c *Calendar) sessionCloseTime(date time.Time) time.Time {
	close := time.Date(date.Year(), date.Month(), date.Day(),
		c.TradingHours.CloseHour, c.TradingHours.CloseMinute, 0, 0, c.Timezone)
	for _, rule := range c.EarlyClose {
		if rule.DatePattern != nil && rule.DatePattern(date) {
			close = time.Date(date.Year(), date.Month(), date.Day(),
				rule.CloseHour, rule.CloseMinute, 0, 0, c.Timezone)
			break
		}
	}
	return close
}

func (c *Calendar) sessionOpenTime(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		c.TradingHours.OpenHour, c.TradingHours.OpenMinute, 0, 0, c.Timezone)
}

// IsTradingDay reports whether date (any time on that calendar day) is a
// session day: not a weekend, not a holiday. Forex/CFD calendars trade
// every weekday (Sunday evening through Friday evening in practice, but
// for day-granularity purposes Monday-Friday).
func (c *Calendar) IsTradingDay(date time.Time) bool {
	local := date.In(c.Timezone)
	if local.Weekday() == time.Saturday || local.Weekday() == time.Sunday {
		return false
	}
	return !c.isHoliday(local)
}

// IsOpen reports whether the market is open for regular trading at local
// instant t. When extended is true, the result additionally allows the
// pre/post-market window one hour either side of the regular session for
// equities (forex/CFD calendars ignore extended since they already run
// 24x5).
func (c *Calendar) IsOpen(t time.Time, extended bool) bool {
	local := t.In(c.Timezone)

	if c.TwentyFourFive {
		return local.Weekday() != time.Saturday && !(local.Weekday() == time.Sunday)
	}

	if !c.IsTradingDay(local) {
		return false
	}

	open := c.sessionOpenTime(local)
	close := c.sessionCloseTime(local)
	if extended {
		open = open.Add(-time.Hour)
		close = close.Add(time.Hour)
	}

	if local.Before(open) || !local.Before(close) {
		return false
	}

	if c.LunchBreak != nil {
		lunchStart := time.Date(local.Year(), local.Month(), local.Day(),
			c.LunchBreak.StartHour, c.LunchBreak.StartMinute, 0, 0, c.Timezone)
		lunchEnd := time.Date(local.Year(), local.Month(), local.Day(),
			c.LunchBreak.EndHour, c.LunchBreak.EndMinute, 0, 0, c.Timezone)
		if !local.Before(lunchStart) && local.Before(lunchEnd) {
			return false
		}
	}

	return true
}

// NextOpen returns the next session-open instant strictly after t.
func (c *Calendar) NextOpen(t time.Time) time.Time {
	local := t.In(c.Timezone)
	if c.TwentyFourFive {
		d := local
		for i := 0; i < 8; i++ {
			if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
				open := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.Timezone)
				if open.After(local) {
					return open
				}
			}
			d = d.AddDate(0, 0, 1)
		}
	}
	for i := 0; i < 14; i++ {
		day := local.AddDate(0, 0, i)
		if !c.IsTradingDay(day) {
			continue
		}
		open := c.sessionOpenTime(day)
		if open.After(local) {
			return open
		}
	}
	return time.Time{}
}

// NextClose returns the next session-close instant strictly after t.
func (c *Calendar) NextClose(t time.Time) time.Time {
	local := t.In(c.Timezone)
	for i := 0; i < 14; i++ {
		day := local.AddDate(0, 0, i)
		if !c.IsTradingDay(day) {
			continue
		}
		close := c.sessionCloseTime(day)
		if close.After(local) {
			return close
		}
	}
	return time.Time{}
}

// RoundDownToSession rounds t down to the nearest period-aligned boundary
// that falls within (or at the start of) the current trading session,
// anchored at the session open. Used by consolidators to compute bar
// boundaries for session-aligned resolutions (e.g. daily bars align to
// session open, not midnight UTC).
func (c *Calendar) RoundDownToSession(t time.Time, period time.Duration) time.Time {
	local := t.In(c.Timezone)
	if period <= 0 {
		return local
	}
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Timezone)
	open := c.sessionOpenTime(day)
	if local.Before(open) {
		open = c.sessionOpenTime(day.AddDate(0, 0, -1))
	}
	elapsed := local.Sub(open)
	steps := elapsed / period
	return open.Add(steps * period)
}
