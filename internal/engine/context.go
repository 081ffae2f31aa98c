package engine

import (
	"time"

	"github.com/aristath/tradesim/internal/history"
	"github.com/aristath/tradesim/internal/indicator"
	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
	"github.com/aristath/tradesim/internal/portfolio"
	"github.com/aristath/tradesim/internal/scheduler"
	"github.com/aristath/tradesim/internal/universe"
)

// Context is the strategy-facing API (spec §6, "host -> core"), handed
// to Algorithm.Initialize. It is a thin façade over Engine, the same
// read-only-view-plus-owner-façade split internal/orders.Ticket uses for
// the order side of this same design note (spec §9).
type Context struct {
	eng *Engine
}

// AddSecurity registers a subscription for ticker on market at the given
// resolution and returns its canonical Symbol. Unknown markets refuse to
// start the run (spec §7 ConfigError), reported by panicking with
// *ConfigError, which Run recovers at the Initialize boundary.
func (c *Context) AddSecurity(secType marketdata.SecurityType, ticker, market string, resolution marketdata.Resolution, fillForward, extendedHours bool, leverage float64) marketdata.Symbol {
	cal, err := c.eng.calendars.Lookup(market)
	if err != nil {
		panic(&ConfigError{Field: "market", Reason: err.Error()})
	}

	var sym marketdata.Symbol
	switch secType {
	case marketdata.SecurityTypeForex:
		sym = marketdata.NewForexSymbol(ticker, market)
	case marketdata.SecurityTypeEquity:
		sym = marketdata.NewEquitySymbol(ticker, market)
	default:
		panic(&ConfigError{Field: "type", Reason: "unsupported security type for addSecurity"})
	}

	cfg := marketdata.SubscriptionConfig{
		Symbol:           sym,
		Type:             secType,
		Resolution:       resolution,
		DataTimeZone:     cal.Timezone,
		ExchangeTimeZone: cal.Timezone,
		FillForward:      fillForward,
		ExtendedHours:    extendedHours,
	}
	c.eng.addSubscription(cfg)

	if err := c.eng.portfolio.EnsureSecurity(sym); err != nil {
		panic(&ConfigError{Field: "symbol", Reason: err.Error()})
	}
	if leverage > 0 {
		if sec, ok := c.eng.portfolio.Security(sym); ok {
			sec.Leverage = leverage
		}
	}
	return sym
}

// AddUniverse registers a selector-driven universe, re-evaluated at
// dateRule×timeRule (spec §4.5, "typically daily") rather than every
// slice instant — the same (DateRule, TimeRule) pair Schedule uses.
// resolution documents the data granularity the selector expects its
// slice argument to carry; the universe engine itself is
// resolution-agnostic.
func (c *Context) AddUniverse(name string, resolution marketdata.Resolution, dateRule scheduler.DateRule, timeRule scheduler.TimeRule, selector universe.Selector) *universe.Universe {
	u := universe.New(name, selector, dateRule, timeRule, c.eng.cfg.StartDate)
	c.eng.universeEngine.Register(u)
	return u
}

// SetStartDate overrides the run's start date after construction (spec
// §6). Must be called before any Schedule call that relies on it as a
// trigger-search seed.
func (c *Context) SetStartDate(t time.Time) { c.eng.cfg.StartDate = t }

// SetEndDate overrides the run's end date.
func (c *Context) SetEndDate(t time.Time) { c.eng.cfg.EndDate = t }

// SetCash credits an additional currency balance on top of the
// RunConfig-seeded initial cash (spec §6 setCash(ccy?, amount, rate?)).
func (c *Context) SetCash(currency string, amount float64) {
	c.eng.portfolio.Cash.Add(currency, amount)
}

// SetWarmup configures the pre-roll window (spec §4.10). Pass barCount>0
// for a bar-count warm-up, or duration>0 for a calendar-duration one.
func (c *Context) SetWarmup(barCount int, duration time.Duration) {
	c.eng.warmupCfg = history.WarmupConfig{BarCount: barCount, Duration: duration}
}

// SetBenchmark designates a symbol whose buy-and-hold return the result
// document's statistics should be compared against.
func (c *Context) SetBenchmark(sym marketdata.Symbol) {
	c.eng.benchmark = sym
	c.eng.hasBenchmark = true
}

// SetBrokerageModel swaps the brokerage model consulted on every order
// submit.
func (c *Context) SetBrokerageModel(bm orders.BrokerageModel) {
	c.eng.orderMgr.SetBrokerageModel(bm)
}

// SetSecurityInitializer registers a callback invoked once per newly
// added security (spec §6), before OnSecuritiesChanged fires for it.
func (c *Context) SetSecurityInitializer(init universe.SecurityInitializer) {
	c.eng.universeEngine.SetInitializer(init)
}

// Schedule registers a recurring action against dateRule × timeRule
// (spec §4.9 schedule.on).
func (c *Context) Schedule(name string, dateRule scheduler.DateRule, timeRule scheduler.TimeRule, action scheduler.Action) {
	c.eng.scheduler.Add(name, dateRule, timeRule, c.eng.cfg.StartDate, action)
}

// History returns the last n recorded bars for sym, oldest first, never
// peeking beyond the current simulated instant (spec §4.10).
func (c *Context) History(sym marketdata.Symbol, n int) []marketdata.BaseData {
	return c.eng.history.Window(sym, n, c.eng.clock.UTC())
}

// HistorySince returns every recorded bar for sym within the trailing
// period, oldest first.
func (c *Context) HistorySince(sym marketdata.Symbol, period time.Duration) []marketdata.BaseData {
	return c.eng.history.Since(sym, period, c.eng.clock.UTC())
}

// RegisterIndicator attaches ind to sym: the engine feeds it every
// recorded bar's close price, during warm-up included, so it can reach
// IsReady before the live frontier (spec §4.10 / S6).
func (c *Context) RegisterIndicator(sym marketdata.Symbol, ind indicator.Indicator) {
	c.eng.indicators[sym] = append(c.eng.indicators[sym], ind)
}

// MarketOrder submits a market order for qty (signed: positive buy,
// negative sell).
func (c *Context) MarketOrder(sym marketdata.Symbol, qty float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeMarket, qty, 0, 0, tag)
}

// LimitOrder submits a limit order.
func (c *Context) LimitOrder(sym marketdata.Symbol, qty, limit float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeLimit, qty, limit, 0, tag)
}

// StopMarketOrder submits a stop-market order.
func (c *Context) StopMarketOrder(sym marketdata.Symbol, qty, stop float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeStopMarket, qty, 0, stop, tag)
}

// StopLimitOrder submits a stop-limit order.
func (c *Context) StopLimitOrder(sym marketdata.Symbol, qty, stop, limit float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeStopLimit, qty, limit, stop, tag)
}

// MarketOnOpenOrder submits a market-on-open order.
func (c *Context) MarketOnOpenOrder(sym marketdata.Symbol, qty float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeMarketOnOpen, qty, 0, 0, tag)
}

// MarketOnCloseOrder submits a market-on-close order.
func (c *Context) MarketOnCloseOrder(sym marketdata.Symbol, qty float64, tag string) (*orders.Ticket, error) {
	return c.eng.submitOrder(sym, orders.TypeMarketOnClose, qty, 0, 0, tag)
}

// Liquidate submits market orders closing every position in syms, or
// every held position if syms is empty (spec §6 liquidate(symbol?)).
func (c *Context) Liquidate(syms ...marketdata.Symbol) ([]*orders.Ticket, error) {
	if len(syms) == 0 {
		for sym, sec := range c.eng.portfolio.Securities() {
			if sec.HoldingsQty != 0 {
				syms = append(syms, sym)
			}
		}
	}
	var tickets []*orders.Ticket
	for _, sym := range syms {
		sec, ok := c.eng.portfolio.Security(sym)
		if !ok || sec.HoldingsQty == 0 {
			continue
		}
		t, err := c.MarketOrder(sym, -sec.HoldingsQty, "liquidate")
		if err != nil {
			return tickets, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// SetHoldings submits a market order sized to reach
// |fraction|*totalPortfolioValue notional in sym (spec §6).
func (c *Context) SetHoldings(sym marketdata.Symbol, fraction float64) (*orders.Ticket, error) {
	sec, ok := c.eng.portfolio.Security(sym)
	if !ok {
		return nil, &ConfigError{Field: "symbol", Reason: "setHoldings: security not found, call AddSecurity first"}
	}
	total, err := c.eng.portfolio.TotalPortfolioValue()
	if err != nil {
		return nil, err
	}
	if sec.LastPrice == 0 {
		return nil, &ConfigError{Field: "symbol", Reason: "setHoldings: no price observed yet for this security"}
	}
	targetQty := (fraction * total) / sec.LastPrice
	delta := targetQty - sec.HoldingsQty
	if delta == 0 {
		return nil, nil
	}
	return c.MarketOrder(sym, delta, "setHoldings")
}

// Portfolio exposes the run's live portfolio state.
func (c *Context) Portfolio() *portfolio.Portfolio {
	return c.eng.portfolio
}

// Time returns the engine's current simulated instant.
func (c *Context) Time() time.Time { return c.eng.clock.UTC() }
