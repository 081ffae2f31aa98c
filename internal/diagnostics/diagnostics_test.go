package diagnostics

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReturnsNonNegativeSample(t *testing.T) {
	m, err := New(time.Second, DefaultThresholds, zerolog.Nop())
	require.NoError(t, err)

	sample, err := m.Read()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, sample.CPUPercent, 0.0)
	assert.GreaterOrEqual(t, sample.MemoryRSSMB, 0.0)
}

func TestLogSampleWarnsAboveThreshold(t *testing.T) {
	m, err := New(time.Second, Thresholds{CPUPercent: -1, MemoryPercent: -1}, zerolog.Nop())
	require.NoError(t, err)
	// Any real sample exceeds a negative threshold; exercising logSample
	// directly confirms it does not panic when the warn branch is taken.
	m.logSample(Sample{CPUPercent: 50, MemoryPercent: 50})
}
