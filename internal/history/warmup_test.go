package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGateSuppressesBeforeLiveFrontier(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	g := NewGate(start, WarmupConfig{BarCount: 3600}, time.Second)

	before := start.Add(-time.Hour)
	assert.True(t, g.Suppress(before))
	assert.True(t, g.InWarmup())
}

func TestGateStopsSuppressingAtLiveFrontier(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	g := NewGate(start, WarmupConfig{BarCount: 3600}, time.Second)

	assert.False(t, g.Suppress(start))
	assert.False(t, g.InWarmup())
	// Once past the frontier, the gate stays open even if asked about an
	// earlier-looking instant again (monotonic clock assumption).
	assert.False(t, g.Suppress(start.Add(time.Second)))
}

func TestGateNoOpWhenNoWarmupConfigured(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	g := NewGate(start, WarmupConfig{}, time.Second)
	assert.False(t, g.Suppress(start.Add(-time.Hour)))
}

func TestWarmupConfigResolveStartByBarCount(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	cfg := WarmupConfig{BarCount: 60}
	got := cfg.ResolveStart(start, time.Minute)
	assert.Equal(t, start.Add(-60*time.Minute), got)
}

func TestWarmupConfigResolveStartByDuration(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	cfg := WarmupConfig{Duration: 2 * time.Hour}
	got := cfg.ResolveStart(start, time.Minute)
	assert.Equal(t, start.Add(-2*time.Hour), got)
}
