package subscription

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolidatorEmitsOnPeriodBoundary(t *testing.T) {
	sym := marketdata.NewEquitySymbol("AAPL", "usa")
	var emitted []marketdata.BaseData
	c := NewTimePeriodConsolidator(time.Minute, func(b marketdata.BaseData) {
		emitted = append(emitted, b)
	})

	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, c.Update(marketdata.TradeBar(sym, base, base.Add(time.Second), 100, 101, 99, 100.5, 10)))
	require.NoError(t, c.Update(marketdata.TradeBar(sym, base.Add(30*time.Second), base.Add(31*time.Second), 100.5, 102, 100, 101, 5)))
	require.Len(t, emitted, 0)

	next := base.Add(time.Minute)
	require.NoError(t, c.Update(marketdata.TradeBar(sym, next, next.Add(time.Second), 101, 103, 100.5, 102, 8)))
	require.Len(t, emitted, 1)
	assert.Equal(t, 102.0, emitted[0].High)
	assert.Equal(t, 99.0, emitted[0].Low)
	assert.Equal(t, 101.0, emitted[0].Close)
	assert.Equal(t, 15.0, emitted[0].Volume)
}

func TestConsolidatorRejectsDuplicateTimestamp(t *testing.T) {
	sym := marketdata.NewEquitySymbol("AAPL", "usa")
	c := NewTimePeriodConsolidator(time.Minute, func(marketdata.BaseData) {})
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, c.Update(marketdata.TradeBar(sym, base, base.Add(time.Second), 1, 1, 1, 1, 1)))
	assert.NoError(t, c.Update(marketdata.TradeBar(sym, base, base.Add(time.Second), 2, 2, 2, 2, 2)))
}

func TestConsolidatorFlushEmitsPartialBar(t *testing.T) {
	sym := marketdata.NewEquitySymbol("AAPL", "usa")
	var emitted []marketdata.BaseData
	c := NewTimePeriodConsolidator(time.Minute, func(b marketdata.BaseData) {
		emitted = append(emitted, b)
	})
	base := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, c.Update(marketdata.TradeBar(sym, base, base.Add(time.Second), 1, 1, 1, 1, 1)))
	c.Flush()
	assert.Len(t, emitted, 1)
	c.Flush()
	assert.Len(t, emitted, 1, "flush with no contributing sample must not emit")
}

func TestManagerTracksInsertionOrder(t *testing.T) {
	m := NewManager()
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	msft := marketdata.NewEquitySymbol("MSFT", "usa")

	idx0 := m.Add(marketdata.SubscriptionConfig{Symbol: aapl, Resolution: marketdata.ResolutionMinute})
	idx1 := m.Add(marketdata.SubscriptionConfig{Symbol: msft, Resolution: marketdata.ResolutionMinute})
	assert.Equal(t, 0, idx0)
	assert.Equal(t, 1, idx1)

	order, err := m.InsertionOrder(aapl)
	require.NoError(t, err)
	assert.Equal(t, 0, order)
}
