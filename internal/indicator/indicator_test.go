package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEMABecomesReadyAfterPeriodSamples(t *testing.T) {
	e := NewEMA(5)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ready bool
	for i := 0; i < 5; i++ {
		ready = e.Update(base.Add(time.Duration(i)*time.Minute), float64(100+i))
	}
	require.True(t, ready)
	assert.True(t, e.IsReady())
	assert.Equal(t, 5, e.Samples())
	assert.Greater(t, e.Value(), 0.0)
}

func TestEMANotReadyBeforePeriodSamples(t *testing.T) {
	e := NewEMA(10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ready := e.Update(base, 100)
	assert.False(t, ready)
	assert.False(t, e.IsReady())
}

func TestSMAConvergesToAverageOfConstantInput(t *testing.T) {
	s := NewSMA(3)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		s.Update(base.Add(time.Duration(i)*time.Minute), 50)
	}
	require.True(t, s.IsReady())
	assert.InDelta(t, 50.0, s.Value(), 0.0001)
}

func TestRSIRequiresPeriodPlusOneSamples(t *testing.T) {
	r := NewRSI(14)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ready bool
	for i := 0; i < 15; i++ {
		ready = r.Update(base.Add(time.Duration(i)*time.Minute), float64(100+i))
	}
	require.True(t, ready)
	assert.True(t, r.IsReady())
	assert.GreaterOrEqual(t, r.Value(), 0.0)
	assert.LessOrEqual(t, r.Value(), 100.0)
}
