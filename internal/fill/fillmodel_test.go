package fill

import (
	"testing"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(open, high, low, close float64) marketdata.BaseData {
	sym := marketdata.NewEquitySymbol("AAPL", "usa")
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	return marketdata.TradeBar(sym, start, start.Add(time.Minute), open, high, low, close, 1000)
}

func TestMarketOrderFillsAtClose(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := mgr.Submit(aapl, true, orders.TypeMarket, 10, 0, 0, false, "")
	require.NoError(t, err)
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 98, 102), 10, false, false)
	require.NotNil(t, ev)
	assert.Equal(t, 102.0, ev.FillPrice)
	assert.Equal(t, 10.0, ev.FillQty)
}

func TestLimitBuyFillsWhenLowCrossesLimit(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeLimit, 10, 95, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 90, 102), 10, false, false)
	require.NotNil(t, ev)
	assert.Equal(t, 95.0, ev.FillPrice)
}

func TestLimitBuyNoFillWhenLowAboveLimit(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeLimit, 10, 95, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 96, 102), 10, false, false)
	assert.Nil(t, ev)
}

func TestLimitBuyGapsThroughLimitFillsAtOpen(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeLimit, 10, 95, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(90, 96, 88, 92), 10, false, false)
	require.NotNil(t, ev)
	assert.Equal(t, 90.0, ev.FillPrice)
}

func TestStopMarketBuyTriggersOnHigh(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeStopMarket, 10, 0, 105, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 110, 99, 108), 10, false, false)
	require.NotNil(t, ev)
	assert.Equal(t, 105.0, ev.FillPrice)
}

func TestStopLimitRequiresBothStopAndLimit(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeStopLimit, 10, 106, 105, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	// stop not hit
	ev := m.Evaluate(o, bar(100, 104, 99, 102), 10, false, false)
	assert.Nil(t, ev)

	// stop hit on this bar: no fill yet, even though the bar's low reaches
	// the limit
	ev = m.Evaluate(o, bar(100, 106, 99, 104), 10, false, false)
	assert.Nil(t, ev)
}

func TestMarketOnOpenFillsAtSessionOpen(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeMarketOnOpen, 10, 0, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 99, 102), 10, true, false)
	require.NotNil(t, ev)
	assert.Equal(t, 100.0, ev.FillPrice)
}

func TestMarketOnCloseFillsAtSessionClose(t *testing.T) {
	m := NewModel(1, nil, nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeMarketOnClose, 10, 0, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 99, 102), 10, false, true)
	require.NotNil(t, ev)
	assert.Equal(t, 102.0, ev.FillPrice)
}

func TestSlippageAppliesOnAdverseSide(t *testing.T) {
	m := NewModel(1, nil, FixedSlippageModel(0.5))
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	buyTicket, _ := mgr.Submit(aapl, true, orders.TypeMarket, 10, 0, 0, false, "")
	buyOrder, _ := mgr.Order(buyTicket.OrderID())
	sellTicket, _ := mgr.Submit(aapl, true, orders.TypeMarket, -10, 0, 0, false, "")
	sellOrder, _ := mgr.Order(sellTicket.OrderID())

	buyEv := m.Evaluate(buyOrder, bar(100, 105, 99, 102), 10, false, false)
	sellEv := m.Evaluate(sellOrder, bar(100, 105, 99, 102), -10, false, false)
	assert.Equal(t, 102.5, buyEv.FillPrice)
	assert.Equal(t, 101.5, sellEv.FillPrice)
}

func TestPerShareFeeModelChargesOnFillQty(t *testing.T) {
	m := NewModel(1, PerShareFeeModel(0.01), nil)
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeMarket, 100, 0, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	ev := m.Evaluate(o, bar(100, 105, 99, 102), 100, false, false)
	require.NotNil(t, ev)
	assert.InDelta(t, 1.0, ev.Commission, 0.0001)
}

func TestAdjustForSplitScalesQuantityAndPrices(t *testing.T) {
	mgr := orders.NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, _ := mgr.Submit(aapl, true, orders.TypeLimit, 10, 200, 0, false, "")
	o, _ := mgr.Order(ticket.OrderID())

	AdjustForSplit(o, 0.5) // 2:1 forward split
	assert.Equal(t, 20.0, o.Quantity)
	assert.Equal(t, 100.0, o.Limit)
}

func TestRandomPartialRatioDeterministicForSeed(t *testing.T) {
	a := NewModel(42, nil, nil)
	b := NewModel(42, nil, nil)
	assert.Equal(t, a.RandomPartialRatio(0.2), b.RandomPartialRatio(0.2))
}
