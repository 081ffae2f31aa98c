package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usCalendar(t *testing.T) *Calendar {
	t.Helper()
	r := NewRegistry()
	c, err := r.Lookup("usa")
	require.NoError(t, err)
	return c
}

func TestIsOpenDuringRegularSession(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	open := time.Date(2024, 3, 4, 10, 0, 0, 0, loc) // Monday
	assert.True(t, c.IsOpen(open, false))
}

func TestIsOpenClosedOnWeekend(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	saturday := time.Date(2024, 3, 2, 10, 0, 0, 0, loc)
	assert.False(t, c.IsOpen(saturday, false))
}

func TestIsOpenClosedOnHoliday(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	independenceDay := time.Date(2024, 7, 4, 10, 0, 0, 0, loc)
	assert.False(t, c.IsOpen(independenceDay, false))
}

func TestIsOpenRespectsEarlyClose(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	blackFriday := time.Date(2024, 11, 29, 13, 30, 0, 0, loc)
	assert.False(t, c.IsOpen(blackFriday, false))

	beforeEarlyClose := time.Date(2024, 11, 29, 12, 30, 0, 0, loc)
	assert.True(t, c.IsOpen(beforeEarlyClose, false))
}

func TestNextOpenSkipsHoliday(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	// July 4 2024 is a Thursday holiday; next open should be Friday 9:30.
	afterClose := time.Date(2024, 7, 3, 20, 0, 0, 0, loc)
	next := c.NextOpen(afterClose)
	assert.Equal(t, time.Date(2024, 7, 5, 9, 30, 0, 0, loc), next)
}

func TestRoundDownToSessionAnchorsAtOpen(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	t1 := time.Date(2024, 3, 4, 10, 47, 0, 0, loc)
	rounded := c.RoundDownToSession(t1, 30*time.Minute)
	assert.Equal(t, time.Date(2024, 3, 4, 10, 30, 0, 0, loc), rounded)
}

func TestForexCalendarIs24x5(t *testing.T) {
	r := NewRegistry()
	fx, err := r.Lookup("fxcm")
	require.NoError(t, err)

	monday3am := time.Date(2024, 3, 4, 3, 0, 0, 0, time.UTC)
	assert.True(t, fx.IsOpen(monday3am, false))

	saturday := time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.False(t, fx.IsOpen(saturday, false))
}

func TestEasterBasedHolidayGoodFriday(t *testing.T) {
	c := usCalendar(t)
	loc := c.Timezone
	// Easter Sunday 2024 is March 31; Good Friday is March 29.
	goodFriday := time.Date(2024, 3, 29, 10, 0, 0, 0, loc)
	assert.False(t, c.IsOpen(goodFriday, false))
}

func TestRegistryLookupUnknownMarket(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("nonexistent")
	assert.Error(t, err)
}
