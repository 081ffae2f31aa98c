package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockRejectsRegression(t *testing.T) {
	start := time.Date(2013, 10, 7, 0, 0, 0, 0, time.UTC)
	c := New(start)

	require.NoError(t, c.SetUTC(start.Add(time.Hour)))
	assert.Error(t, c.SetUTC(start))
	assert.Equal(t, start.Add(time.Hour), c.UTC())
}

func TestLocalTimeInTracksUTC(t *testing.T) {
	start := time.Date(2013, 10, 7, 14, 30, 0, 0, time.UTC)
	c := New(start)

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	c.AddZone("america/new_york", ny)

	local, err := c.LocalTimeIn("america/new_york")
	require.NoError(t, err)
	assert.Equal(t, start.In(ny), local)

	require.NoError(t, c.SetUTC(start.Add(time.Hour)))
	local, err = c.LocalTimeIn("america/new_york")
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour).In(ny), local)
}

func TestLocalTimeInUnknownZone(t *testing.T) {
	c := New(time.Now())
	_, err := c.LocalTimeIn("mars/olympus_mons")
	assert.Error(t, err)
}
