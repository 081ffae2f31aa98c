package examples

import (
	"sort"

	"github.com/aristath/tradesim/internal/engine"
	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/scheduler"
	"github.com/aristath/tradesim/internal/universe"
)

// UniverseRotation selects the TopN highest-closing-price symbols among a
// fixed candidate list on DateRule×TimeRule, rebalancing equally across
// whatever the universe selector currently admits (spec S5). Every
// candidate is still subscribed directly via AddSecurity: the universe
// only chooses among known symbols, it does not discover new ones.
type UniverseRotation struct {
	engine.BaseAlgorithm

	Market     string
	Resolution marketdata.Resolution
	Candidates []string
	TopN       int
	DateRule   scheduler.DateRule
	TimeRule   scheduler.TimeRule

	ctx     *engine.Context
	symbols map[string]marketdata.Symbol
	current map[marketdata.Symbol]struct{}
}

func (a *UniverseRotation) Initialize(ctx *engine.Context) {
	a.ctx = ctx
	a.symbols = make(map[string]marketdata.Symbol, len(a.Candidates))
	a.current = make(map[marketdata.Symbol]struct{})
	for _, ticker := range a.Candidates {
		a.symbols[ticker] = ctx.AddSecurity(marketdata.SecurityTypeEquity, ticker, a.Market, a.Resolution, true, false, 0)
	}
	ctx.AddUniverse("rotation", a.Resolution, a.DateRule, a.TimeRule, a.rank)
}

// rank is the universe Selector: it returns TopN candidates by latest
// close, falling back to fewer when not every candidate has a bar yet
// (warm-up, gaps).
func (a *UniverseRotation) rank(slice *marketdata.Slice) []marketdata.Symbol {
	type priced struct {
		sym   marketdata.Symbol
		close float64
	}
	ranked := make([]priced, 0, len(a.symbols))
	for _, sym := range a.symbols {
		bar, ok := slice.Bar(sym)
		if !ok {
			continue
		}
		ranked = append(ranked, priced{sym, bar.Close})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].close != ranked[j].close {
			return ranked[i].close > ranked[j].close
		}
		return ranked[i].sym.ID.String() < ranked[j].sym.ID.String()
	})

	n := a.TopN
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]marketdata.Symbol, n)
	for i := range out {
		out[i] = ranked[i].sym
	}
	return out
}

// OnSecuritiesChanged rebalances equally across the new membership.
// Removed symbols are already marked untradable by the universe engine
// before this fires, per spec §4.5 ("liquidation is the strategy's
// responsibility") — the Liquidate attempt here documents that intent
// even though it lands on an already-untradable security and ends
// Invalid rather than Filled; a strategy wanting guaranteed exits must
// flatten ahead of its own rotation schedule instead.
func (a *UniverseRotation) OnSecuritiesChanged(changes universe.Changes) {
	for _, sym := range changes.Removed {
		delete(a.current, sym)
		a.ctx.Liquidate(sym)
	}
	for _, sym := range changes.Added {
		a.current[sym] = struct{}{}
	}
	if len(a.current) == 0 {
		return
	}
	fraction := 1.0 / float64(len(a.current))
	for sym := range a.current {
		if _, err := a.ctx.SetHoldings(sym, fraction); err != nil {
			a.OnBrokerageMessage(engine.BrokerageMessage{Severity: engine.SeverityWarning, Message: err.Error()})
		}
	}
}
