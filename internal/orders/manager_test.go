package orders

import (
	"testing"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRejectsZeroQuantity(t *testing.T) {
	m := NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := m.Submit(aapl, true, TypeMarket, 0, 0, 0, false, "")
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, ticket.Status())
}

func TestSubmitRejectsUntradableSymbol(t *testing.T) {
	m := NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := m.Submit(aapl, false, TypeMarket, 10, 0, 0, false, "")
	require.NoError(t, err)
	assert.Equal(t, StatusInvalid, ticket.Status())
}

func TestFillTransitionsPartialThenFilled(t *testing.T) {
	var events []OrderEvent
	m := NewManager(nil, func(e OrderEvent) { events = append(events, e) }, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := m.Submit(aapl, true, TypeMarket, 10, 0, 0, false, "")
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, ticket.Status())

	require.NoError(t, m.ApplyFill(ticket.OrderID(), 4, 100))
	assert.Equal(t, StatusPartiallyFilled, ticket.Status())

	require.NoError(t, m.ApplyFill(ticket.OrderID(), 6, 101))
	assert.Equal(t, StatusFilled, ticket.Status())
	assert.InDelta(t, 100.6, ticket.AvgFillPrice(), 0.001)
}

func TestCancelRejectedOnTerminalOrder(t *testing.T) {
	m := NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := m.Submit(aapl, true, TypeMarket, 10, 0, 0, false, "")
	require.NoError(t, err)
	require.NoError(t, m.ApplyFill(ticket.OrderID(), 10, 100))
	require.Equal(t, StatusFilled, ticket.Status())

	err = ticket.Cancel()
	assert.Error(t, err)
}

func TestOpenOrdersForSymbolPreservesFIFO(t *testing.T) {
	m := NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	t1, _ := m.Submit(aapl, true, TypeMarket, 10, 0, 0, true, "first")
	t2, _ := m.Submit(aapl, true, TypeMarket, 5, 0, 0, true, "second")

	open := m.OpenOrdersForSymbol(aapl)
	require.Len(t, open, 2)
	assert.Equal(t, t1.OrderID(), open[0].ID)
	assert.Equal(t, t2.OrderID(), open[1].ID)
}

func TestUpdateRejectsPriceChangeOnMarketOnOpen(t *testing.T) {
	m := NewManager(nil, nil, zerolog.Nop())
	aapl := marketdata.NewEquitySymbol("AAPL", "usa")
	ticket, err := m.Submit(aapl, true, TypeMarketOnOpen, 10, 0, 0, false, "")
	require.NoError(t, err)

	limit := 100.0
	err = ticket.Update(UpdateRequest{Limit: &limit})
	assert.Error(t, err)

	qty := 5.0
	err = ticket.Update(UpdateRequest{Quantity: &qty})
	assert.NoError(t, err)
}
