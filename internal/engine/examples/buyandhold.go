// Package examples ships reference Algorithm implementations documenting
// the engine.Algorithm callback surface, and doubles as the strategy
// fixture scenario tests replay against a real Engine.
package examples

import (
	"github.com/aristath/tradesim/internal/engine"
	"github.com/aristath/tradesim/internal/indicator"
	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
)

// BuyAndHold invests a fixed fraction of the portfolio in one symbol the
// first time it sees a price, then holds. The simplest possible
// strategy, exercising AddSecurity/SetHoldings/OnData.
type BuyAndHold struct {
	engine.BaseAlgorithm

	Ticker     string
	Market     string
	Resolution marketdata.Resolution
	Fraction   float64

	ctx     *engine.Context
	sym     marketdata.Symbol
	entered bool
}

func (a *BuyAndHold) Initialize(ctx *engine.Context) {
	a.ctx = ctx
	a.sym = ctx.AddSecurity(marketdata.SecurityTypeEquity, a.Ticker, a.Market, a.Resolution, true, false, 0)
}

func (a *BuyAndHold) OnData(slice *marketdata.Slice) {
	if a.entered {
		return
	}
	if _, ok := slice.Bar(a.sym); !ok {
		return
	}
	a.entered = true
	if _, err := a.ctx.SetHoldings(a.sym, a.Fraction); err != nil {
		a.OnBrokerageMessage(engine.BrokerageMessage{Severity: engine.SeverityWarning, Message: err.Error()})
	}
}

// LimitEntry submits a single limit order below market on the first bar
// and never repeats, exercising LimitOrder and partial-fill handling
// (spec S2).
type LimitEntry struct {
	engine.BaseAlgorithm

	Ticker     string
	Market     string
	Resolution marketdata.Resolution
	Quantity   float64
	LimitBelow float64 // limit price offset below the first observed close

	ctx       *engine.Context
	sym       marketdata.Symbol
	submitted bool
}

func (a *LimitEntry) Initialize(ctx *engine.Context) {
	a.ctx = ctx
	a.sym = ctx.AddSecurity(marketdata.SecurityTypeEquity, a.Ticker, a.Market, a.Resolution, true, false, 0)
}

func (a *LimitEntry) OnData(slice *marketdata.Slice) {
	if a.submitted {
		return
	}
	bar, ok := slice.Bar(a.sym)
	if !ok {
		return
	}
	a.submitted = true
	limit := bar.Close - a.LimitBelow
	if _, err := a.ctx.LimitOrder(a.sym, a.Quantity, limit, "entry"); err != nil {
		a.OnBrokerageMessage(engine.BrokerageMessage{Severity: engine.SeverityWarning, Message: err.Error()})
	}
}

// StopPair submits a protective stop immediately after a market entry
// fills, exercising StopMarketOrder and OnOrderEvent (spec S3).
type StopPair struct {
	engine.BaseAlgorithm

	Ticker       string
	Market       string
	Resolution   marketdata.Resolution
	Quantity     float64
	StopDistance float64

	ctx       *engine.Context
	sym       marketdata.Symbol
	entryID   int64
	entered   bool
	protected bool
}

func (a *StopPair) Initialize(ctx *engine.Context) {
	a.ctx = ctx
	a.sym = ctx.AddSecurity(marketdata.SecurityTypeEquity, a.Ticker, a.Market, a.Resolution, true, false, 0)
}

func (a *StopPair) OnData(slice *marketdata.Slice) {
	if a.entered {
		return
	}
	if _, ok := slice.Bar(a.sym); !ok {
		return
	}
	a.entered = true
	ticket, err := a.ctx.MarketOrder(a.sym, a.Quantity, "entry")
	if err != nil {
		a.OnBrokerageMessage(engine.BrokerageMessage{Severity: engine.SeverityWarning, Message: err.Error()})
		return
	}
	a.entryID = ticket.OrderID()
}

func (a *StopPair) OnOrderEvent(ev orders.OrderEvent) {
	if a.protected || ev.OrderID != a.entryID || ev.Status != orders.StatusFilled {
		return
	}
	a.protected = true
	stop := ev.FillPrice - a.StopDistance
	if a.Quantity < 0 {
		stop = ev.FillPrice + a.StopDistance
	}
	if _, err := a.ctx.StopMarketOrder(a.sym, -a.Quantity, stop, "stop"); err != nil {
		a.OnBrokerageMessage(engine.BrokerageMessage{Severity: engine.SeverityWarning, Message: err.Error()})
	}
}

// SplitAware holds a position across corporate actions without reacting
// to them, documenting that spec S4 needs no strategy-side code: the
// engine adjusts holdings and open orders on split events transparently.
type SplitAware struct {
	BuyAndHold
}

// EMACrossover waits for a pair of warmed-up EMAs to cross, exercising
// RegisterIndicator/SetWarmup (spec S6).
type EMACrossover struct {
	engine.BaseAlgorithm

	Ticker     string
	Market     string
	Resolution marketdata.Resolution
	FastPeriod int
	SlowPeriod int
	WarmupBars int
	Quantity   float64

	ctx       *engine.Context
	sym       marketdata.Symbol
	fast      *indicator.EMA
	slow      *indicator.EMA
	wasBelow  bool
	hasHolding bool
}

func (a *EMACrossover) Initialize(ctx *engine.Context) {
	a.ctx = ctx
	a.sym = ctx.AddSecurity(marketdata.SecurityTypeEquity, a.Ticker, a.Market, a.Resolution, true, false, 0)
	ctx.SetWarmup(a.WarmupBars, 0)
	a.fast = indicator.NewEMA(a.FastPeriod)
	a.slow = indicator.NewEMA(a.SlowPeriod)
	ctx.RegisterIndicator(a.sym, a.fast)
	ctx.RegisterIndicator(a.sym, a.slow)
}

func (a *EMACrossover) OnData(slice *marketdata.Slice) {
	if _, ok := slice.Bar(a.sym); !ok {
		return
	}
	if !a.fast.IsReady() || !a.slow.IsReady() {
		return
	}
	below := a.fast.Value() < a.slow.Value()
	crossedUp := a.wasBelow && !below
	crossedDown := !a.wasBelow && below

	switch {
	case crossedUp && !a.hasHolding:
		if _, err := a.ctx.MarketOrder(a.sym, a.Quantity, "crossUp"); err == nil {
			a.hasHolding = true
		}
	case crossedDown && a.hasHolding:
		if _, err := a.ctx.MarketOrder(a.sym, -a.Quantity, "crossDown"); err == nil {
			a.hasHolding = false
		}
	}
	a.wasBelow = below
}
