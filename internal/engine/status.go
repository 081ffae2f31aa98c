package engine

import (
	"github.com/aristath/tradesim/internal/api"
)

// Status satisfies api.StatusProvider, reporting the run's current mode
// and simulated instant for the read-only live/paper status API.
func (e *Engine) Status() api.StatusSnapshot {
	mode := "backtest"
	if e.cfg.LiveAPIPort > 0 {
		mode = "live"
	}
	return api.StatusSnapshot{
		Mode:        mode,
		CurrentTime: e.clock.UTC(),
		InWarmup:    e.gate != nil && e.gate.InWarmup(),
	}
}

// Portfolio satisfies api.StatusProvider, snapshotting account-level
// portfolio state (distinct from Context.Portfolio, which hands the
// strategy the live, mutable *portfolio.Portfolio).
func (e *Engine) Portfolio() api.PortfolioSnapshot {
	total, _ := e.portfolio.TotalPortfolioValue()
	marginRemaining, _ := e.portfolio.MarginRemaining()

	cash := e.portfolio.Cash.Balances()

	var positions []api.PositionSnapshot
	for sym, sec := range e.portfolio.Securities() {
		if sec.HoldingsQty == 0 {
			continue
		}
		positions = append(positions, api.PositionSnapshot{
			Symbol:      sym.Ticker,
			HoldingsQty: sec.HoldingsQty,
			AvgPrice:    sec.AvgPrice,
			LastPrice:   sec.LastPrice,
			RealizedPnL: sec.RealizedPnL,
		})
	}

	return api.PortfolioSnapshot{
		TotalPortfolioValue: total,
		CashByCurrency:      cash,
		MarginRemaining:     marginRemaining,
		Positions:           positions,
	}
}

// Orders satisfies api.StatusProvider, snapshotting every tracked order.
func (e *Engine) Orders() []api.OrderSnapshot {
	var out []api.OrderSnapshot
	for _, o := range e.orderMgr.AllOrders() {
		out = append(out, api.OrderSnapshot{
			ID:             o.ID,
			Symbol:         o.Symbol.Ticker,
			Type:           o.Type.String(),
			Status:         o.Status.String(),
			Quantity:       o.Quantity,
			FilledQuantity: o.FilledQuantity,
			AvgFillPrice:   o.AvgFillPrice,
		})
	}
	return out
}
