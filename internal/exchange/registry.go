package exchange

import (
	"fmt"
	"sync"
	"time"
)

// dayAfterThanksgiving reports whether d falls on the Friday after the
// fourth Thursday in November — the date pattern for the US equity
// market's early-close day.
func dayAfterThanksgiving(d time.Time) bool {
	if d.Month() != time.November || d.Weekday() != time.Friday {
		return false
	}
	thu := nthWeekday(d.Year(), int(time.November), time.Thursday, 4)
	return d.Day() == thu.Day()+1
}

func christmasEve(d time.Time) bool {
	return d.Month() == time.December && d.Day() == 24
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("exchange: cannot load time zone %q: %v", name, err))
	}
	return loc
}

// Registry is a thread-safe lookup of calendars keyed by market code, the
// generalization of the teacher's GetExchangeCode/getExchangeConfig
// switch-based registry into a map populated at construction time and
// extensible via Register for custom/backtested markets.
type Registry struct {
	mu        sync.RWMutex
	calendars map[string]*Calendar
}

// NewRegistry returns a Registry pre-populated with the built-in calendars:
// US equities (NYSE/NASDAQ), London Stock Exchange, and a 24x5 forex/CFD
// calendar.
func NewRegistry() *Registry {
	r := &Registry{calendars: make(map[string]*Calendar)}
	for _, c := range builtinCalendars() {
		r.calendars[c.Market] = c
	}
	return r
}

// Register adds or overwrites a calendar under its Market code.
func (r *Registry) Register(c *Calendar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calendars[c.Market] = c
}

// Lookup returns the calendar registered for market, or an error if none
// is registered.
func (r *Registry) Lookup(market string) (*Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calendars[market]
	if !ok {
		return nil, fmt.Errorf("exchange: no calendar registered for market %q", market)
	}
	return c, nil
}

func builtinCalendars() []*Calendar {
	us := &Calendar{
		Market:   "usa",
		Timezone: mustLoadLocation("America/New_York"),
		TradingHours: TradingHours{
			OpenHour: 9, OpenMinute: 30,
			CloseHour: 16, CloseMinute: 0,
		},
		EasterCalendar: Gregorian,
		EarlyClose: []EarlyCloseRule{
			{Name: "day-after-thanksgiving", DatePattern: dayAfterThanksgiving, CloseHour: 13, CloseMinute: 0},
			{Name: "christmas-eve", DatePattern: christmasEve, CloseHour: 13, CloseMinute: 0},
		},
		Holidays: HolidayRules{
			FixedDate: []FixedDateHoliday{
				{Month: 1, Day: 1, ObserveOnWeekday: true},
				{Month: 6, Day: 19, ObserveOnWeekday: true},
				{Month: 7, Day: 4, ObserveOnWeekday: true},
				{Month: 12, Day: 25, ObserveOnWeekday: true},
			},
			RuleBased: []RuleBasedHoliday{
				{Month: int(time.January), Weekday: time.Monday, N: 3},  // MLK day
				{Month: int(time.February), Weekday: time.Monday, N: 3}, // Presidents' day
				{Month: int(time.May), Weekday: time.Monday, N: -1},     // Memorial day
				{Month: int(time.September), Weekday: time.Monday, N: 1},
				{Month: int(time.November), Weekday: time.Thursday, N: 4}, // Thanksgiving
			},
			EasterBased: []EasterBasedHoliday{
				{DaysOffset: -2}, // Good Friday
			},
		},
	}

	lse := &Calendar{
		Market:   "lse",
		Timezone: mustLoadLocation("Europe/London"),
		TradingHours: TradingHours{
			OpenHour: 8, OpenMinute: 0,
			CloseHour: 16, CloseMinute: 30,
		},
		EasterCalendar: Gregorian,
		Holidays: HolidayRules{
			FixedDate: []FixedDateHoliday{
				{Month: 1, Day: 1, ObserveOnWeekday: true},
				{Month: 12, Day: 25, ObserveOnWeekday: true},
				{Month: 12, Day: 26, ObserveOnWeekday: true},
			},
			RuleBased: []RuleBasedHoliday{
				{Month: int(time.May), Weekday: time.Monday, N: 1},
				{Month: int(time.August), Weekday: time.Monday, N: -1},
			},
			EasterBased: []EasterBasedHoliday{
				{DaysOffset: -2}, // Good Friday
				{DaysOffset: 1},  // Easter Monday
			},
		},
	}

	forex := &Calendar{
		Market:         "fxcm",
		Timezone:       mustLoadLocation("UTC"),
		TwentyFourFive: true,
	}

	return []*Calendar{us, lse, forex}
}
