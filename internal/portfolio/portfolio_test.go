package portfolio

import (
	"testing"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedConverter struct{ rate float64 }

func (f fixedConverter) Rate(from, to string) (float64, error) { return f.rate, nil }

func newTestPortfolio(t *testing.T, initialCash float64) *Portfolio {
	t.Helper()
	cash := NewCashBook("USD", initialCash, fixedConverter{rate: 1.0})
	return New(cash, zerolog.Nop())
}

func TestApplyFillExtendsPositionAndDebitsCash(t *testing.T) {
	p := newTestPortfolio(t, 100000)
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	require.NoError(t, p.EnsureSecurity(aapl))

	require.NoError(t, p.ApplyFill(aapl, 10, 100, 1))
	s, _ := p.Security(aapl)
	assert.Equal(t, 10.0, s.HoldingsQty)
	assert.Equal(t, 100.0, s.AvgPrice)
	assert.Equal(t, 100000-1001.0, p.Cash.Balance("USD"))
}

func TestApplyFillReducingPositionRealizesPnL(t *testing.T) {
	p := newTestPortfolio(t, 100000)
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	require.NoError(t, p.EnsureSecurity(aapl))
	require.NoError(t, p.ApplyFill(aapl, 10, 100, 0))
	require.NoError(t, p.ApplyFill(aapl, -4, 110, 0))

	s, _ := p.Security(aapl)
	assert.Equal(t, 6.0, s.HoldingsQty)
	assert.Equal(t, 40.0, s.RealizedPnL) // 4 * (110-100)
	assert.Equal(t, 100.0, s.AvgPrice)   // remaining side avgPrice unchanged
}

func TestApplyFillCrossingZeroFlipsSide(t *testing.T) {
	p := newTestPortfolio(t, 100000)
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	require.NoError(t, p.EnsureSecurity(aapl))
	require.NoError(t, p.ApplyFill(aapl, 10, 100, 0))
	require.NoError(t, p.ApplyFill(aapl, -15, 110, 0))

	s, _ := p.Security(aapl)
	assert.Equal(t, -5.0, s.HoldingsQty)
	assert.Equal(t, 100.0, s.RealizedPnL) // 10 * (110-100)
	assert.Equal(t, 110.0, s.AvgPrice)    // remainder opened the short side at 110
}

func TestApplySplitAdjustsHoldingsAndAvgPrice(t *testing.T) {
	p := newTestPortfolio(t, 100000)
	msft := marketdata.NewEquitySymbol("MSFT", "usa")
	require.NoError(t, p.EnsureSecurity(msft))
	require.NoError(t, p.ApplyFill(msft, 100, 200, 0))

	require.NoError(t, p.ApplySplit(msft, 0.5)) // 2:1 forward split
	s, _ := p.Security(msft)
	assert.Equal(t, 200.0, s.HoldingsQty)
	assert.Equal(t, 100.0, s.AvgPrice)
}

func TestMarginCallWarningTriggersBelowThreshold(t *testing.T) {
	p := newTestPortfolio(t, 1000)
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	require.NoError(t, p.EnsureSecurity(aapl))
	s, _ := p.Security(aapl)
	s.Leverage = 1.0

	require.NoError(t, p.ApplyFill(aapl, 15, 100, 0))
	p.UpdateLastPrice(aapl, 100)

	warn, err := p.MarginCallWarning()
	require.NoError(t, err)
	assert.True(t, warn)
}
