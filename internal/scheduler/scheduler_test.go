package scheduler

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/exchange"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usCalendar(t *testing.T) *exchange.Calendar {
	t.Helper()
	reg := exchange.NewRegistry()
	cal, err := reg.Lookup("usa")
	require.NoError(t, err)
	return cal
}

func TestAtRuleFiresDailyAtFixedTime(t *testing.T) {
	s := New(zerolog.Nop())
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) // Monday
	var fired []time.Time
	s.Add("daily-check", EveryDay(), At(10, 0), start, func(tm time.Time) {
		fired = append(fired, tm)
	})

	s.Fire(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	require.Len(t, fired, 1)
	assert.Equal(t, 10, fired[0].Hour())

	s.Fire(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	require.Len(t, fired, 2)
}

func TestEveryTradingDaySkipsWeekend(t *testing.T) {
	cal := usCalendar(t)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := New(zerolog.Nop())
	start := time.Date(2024, 3, 7, 0, 0, 0, 0, loc) // Thursday
	var fired []time.Time
	s.Add("open-check", EveryTradingDay(cal), AfterMarketOpen(cal, 1), start, func(tm time.Time) {
		fired = append(fired, tm)
	})

	// Thursday's firing, caught up to on the first Fire call.
	s.Fire(time.Date(2024, 3, 7, 23, 0, 0, 0, loc))
	require.Len(t, fired, 1)
	assert.Equal(t, time.Thursday, fired[0].Weekday())

	// Friday's firing.
	s.Fire(time.Date(2024, 3, 8, 23, 0, 0, 0, loc))
	require.Len(t, fired, 2)
	assert.Equal(t, time.Friday, fired[1].Weekday())

	// Next fire should skip the weekend straight to Monday.
	s.Fire(time.Date(2024, 3, 11, 23, 0, 0, 0, loc))
	require.Len(t, fired, 3)
	assert.Equal(t, time.Monday, fired[2].Weekday())
}

func TestFiresInNextTriggerThenRegistrationOrder(t *testing.T) {
	s := New(zerolog.Nop())
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	var order []string
	s.Add("second", EveryDay(), At(9, 0), start, func(time.Time) { order = append(order, "second") })
	s.Add("first", EveryDay(), At(9, 0), start, func(time.Time) { order = append(order, "first") })

	s.Fire(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestMonthStartFiresOnFirstTradingDayOfMonth(t *testing.T) {
	cal := usCalendar(t)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	s := New(zerolog.Nop())
	start := time.Date(2023, 12, 15, 0, 0, 0, 0, loc)
	var fired []time.Time
	s.Add("rebalance", MonthStart(cal), At(9, 31), start, func(tm time.Time) {
		fired = append(fired, tm)
	})

	// 2024-01-01 is a holiday (New Year's Day observed), so the first
	// trading day of January 2024 is 2024-01-02.
	s.Fire(time.Date(2024, 1, 2, 23, 0, 0, 0, loc))
	require.Len(t, fired, 1)
	assert.Equal(t, time.January, fired[0].Month())
	assert.Equal(t, 2, fired[0].Day())
}
