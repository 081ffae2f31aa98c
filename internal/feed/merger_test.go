package feed

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(sym marketdata.Symbol, t time.Time, period time.Duration, close float64) marketdata.BaseData {
	return marketdata.TradeBar(sym, t, t.Add(period), close, close, close, close, 1)
}

func TestMergerProducesNonDecreasingTime(t *testing.T) {
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	msft := marketdata.NewEquitySymbol("MSFT", "usa")

	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	period := time.Minute

	aaplData := []marketdata.BaseData{
		bar(aapl, base, period, 100),
		bar(aapl, base.Add(period), period, 101),
		bar(aapl, base.Add(2*period), period, 102),
	}
	msftData := []marketdata.BaseData{
		bar(msft, base, period, 300),
		bar(msft, base.Add(2*period), period, 302),
	}

	sources := []Source{
		NewMemorySource(aapl, 0, aaplData),
		NewMemorySource(msft, 1, msftData),
	}
	m := NewMerger(sources, false)

	var lastTime time.Time
	count := 0
	for {
		slice, err := m.Next()
		require.NoError(t, err)
		if slice == nil {
			break
		}
		assert.False(t, slice.Time.Before(lastTime))
		lastTime = slice.Time
		count++
	}
	assert.Equal(t, 3, count)
}

func TestMergerGroupsAllDataAtSameEndTime(t *testing.T) {
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	msft := marketdata.NewEquitySymbol("MSFT", "usa")
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	period := time.Minute

	sources := []Source{
		NewMemorySource(aapl, 0, []marketdata.BaseData{bar(aapl, base, period, 100)}),
		NewMemorySource(msft, 1, []marketdata.BaseData{bar(msft, base, period, 300)}),
	}
	m := NewMerger(sources, false)

	slice, err := m.Next()
	require.NoError(t, err)
	require.NotNil(t, slice)
	_, aaplOK := slice.Bar(aapl)
	_, msftOK := slice.Bar(msft)
	assert.True(t, aaplOK)
	assert.True(t, msftOK)

	next, err := m.Next()
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestMergerStrictModeErrorsOnNoSamples(t *testing.T) {
	m := NewMerger(nil, true)
	_, err := m.Next()
	assert.Error(t, err)
}
