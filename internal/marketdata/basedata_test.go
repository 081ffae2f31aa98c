package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseDataValidateRequiresEndAfterTime(t *testing.T) {
	sym := NewEquitySymbol("SPY", "usa")
	base := time.Date(2013, 10, 7, 9, 30, 0, 0, time.UTC)

	bar := TradeBar(sym, base, base.Add(time.Minute), 170, 171, 169.5, 170.5, 1000)
	require.NoError(t, bar.Validate())

	bad := bar
	bad.EndTime = base
	assert.Error(t, bad.Validate())
}

func TestSliceAddRoutesByKind(t *testing.T) {
	sym := NewEquitySymbol("SPY", "usa")
	end := time.Date(2013, 10, 7, 9, 31, 0, 0, time.UTC)
	start := end.Add(-time.Minute)

	s := NewSlice(end)
	s.Add(TradeBar(sym, start, end, 170, 171, 169.5, 170.5, 1000))
	s.Add(Dividend(sym, end.Add(-time.Nanosecond), 0.5))

	bar, ok := s.Bar(sym)
	require.True(t, ok)
	assert.Equal(t, 170.5, bar.Close)
	assert.False(t, s.IsEmpty())
}

func TestSymbolIdentityComparesByIdentifier(t *testing.T) {
	a := NewEquitySymbol("SPY", "usa")
	b := NewEquitySymbol("SPY", "usa")
	c := NewEquitySymbol("SPY", "uk")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, a, b) // plain struct equality must also hold, for map keys
}
