package history

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradeBar(sym marketdata.Symbol, start time.Time, close float64) marketdata.BaseData {
	return marketdata.TradeBar(sym, start, start.Add(time.Minute), close, close, close, close, 100)
}

func TestWindowReturnsLastNBarsOldestFirst(t *testing.T) {
	s := NewStore()
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	base := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Record(tradeBar(aapl, base.Add(time.Duration(i)*time.Minute), float64(100+i)))
	}

	asOf := base.Add(10 * time.Minute)
	w := s.Window(aapl, 3, asOf)
	require.Len(t, w, 3)
	assert.Equal(t, 107.0, w[0].Close)
	assert.Equal(t, 108.0, w[1].Close)
	assert.Equal(t, 109.0, w[2].Close)
}

func TestWindowNeverPeeksBeyondAsOf(t *testing.T) {
	s := NewStore()
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	base := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Record(tradeBar(aapl, base.Add(time.Duration(i)*time.Minute), float64(100+i)))
	}

	asOf := base.Add(2 * time.Minute).Add(time.Minute) // EndTime of bar index 2
	w := s.Window(aapl, 10, asOf)
	for _, b := range w {
		assert.False(t, b.EndTime.After(asOf))
	}
	assert.LessOrEqual(t, len(w), 3)
}

func TestSinceReturnsBarsWithinDuration(t *testing.T) {
	s := NewStore()
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	base := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		s.Record(tradeBar(aapl, base.Add(time.Duration(i)*time.Minute), float64(100+i)))
	}

	asOf := base.Add(10 * time.Minute)
	w := s.Since(aapl, 3*time.Minute, asOf)
	for _, b := range w {
		assert.False(t, b.EndTime.Before(asOf.Add(-3*time.Minute)))
	}
}

func TestWindowUnknownSymbolReturnsNil(t *testing.T) {
	s := NewStore()
	msft := marketdata.NewEquitySymbol("MSFT", "usa")
	assert.Nil(t, s.Window(msft, 5, time.Now().UTC()))
}
