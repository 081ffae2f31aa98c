// Package fill implements the FillModel & BrokerageModel (spec §4.8): a
// pure function from (order, security, data event) to fill events, plus
// fee and slippage composition.
//
// Grounded on the teacher's internal/modules/optimization/risk.go (the
// one place in the teacher's tree already doing per-run numeric modeling)
// for the shape of a pluggable model, and internal/domain/broker_types.go
// for the order-type vocabulary. math/rand/v2 is used for the model's
// seeded per-run RNG — see DESIGN.md for why this is the one deliberate
// standard-library choice in the domain stack: no example repo in the
// corpus pulls in a third-party RNG for this purpose.
package fill

import (
	"math/rand/v2"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/aristath/tradesim/internal/orders"
)

// FeeModel computes the commission for a fill in account currency.
type FeeModel func(o *orders.Order, fillQty, fillPrice float64) float64

// SlippageModel returns the additive, adverse-side price adjustment for a
// fill.
type SlippageModel func(o *orders.Order, fillQty, referencePrice float64) float64

// ZeroFeeModel charges no commission.
func ZeroFeeModel(*orders.Order, float64, float64) float64 { return 0 }

// PerShareFeeModel charges a flat amount per unit filled.
func PerShareFeeModel(perShare float64) FeeModel {
	return func(_ *orders.Order, fillQty, _ float64) float64 {
		return abs(fillQty) * perShare
	}
}

// ZeroSlippageModel applies no slippage.
func ZeroSlippageModel(*orders.Order, float64, float64) float64 { return 0 }

// FixedSlippageModel applies a constant adverse slippage in price units.
func FixedSlippageModel(amount float64) SlippageModel {
	return func(o *orders.Order, _ float64, _ float64) float64 {
		if isBuy(o) {
			return amount
		}
		return -amount
	}
}

func isBuy(o *orders.Order) bool { return o.Quantity > 0 }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// Event is one fill decision emitted by the model for a single order
// against one bar.
type Event struct {
	OrderID    int64
	FillQty    float64
	FillPrice  float64
	Commission float64
}

// Model evaluates orders against incoming bars, owning its own seeded RNG
// so replay determinism is per-instance, never global-state (spec §9).
type Model struct {
	rng      *rand.Rand
	fees     FeeModel
	slippage SlippageModel

	// PartialFillRatio, if set in (0,1), caps every fill of any order type
	// to that fraction of the order's remaining quantity, modeling partial
	// liquidity. 0 or 1 means full fills always.
	PartialFillRatio float64
}

// NewModel creates a Model seeded deterministically from seed (so two
// runs with the same seed produce identical fill sequences).
func NewModel(seed uint64, fees FeeModel, slippage SlippageModel) *Model {
	if fees == nil {
		fees = ZeroFeeModel
	}
	if slippage == nil {
		slippage = ZeroSlippageModel
	}
	return &Model{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
		fees:     fees,
		slippage: slippage,
	}
}

// Evaluate applies spec §4.8's per-order-type rules against the current
// bar for o.Symbol, returning a fill Event or nil if the order does not
// trigger this bar. remainingQty is the order's unfilled quantity;
// isSessionOpen/isSessionClose report whether the bar ends at the
// session open/close and gate the market-on-open/close order types.
func (m *Model) Evaluate(o *orders.Order, bar marketdata.BaseData, remainingQty float64, isSessionOpen, isSessionClose bool) *Event {
	if remainingQty == 0 {
		return nil
	}

	var triggerPrice float64
	triggered := false

	switch o.Type {
	case orders.TypeMarket:
		triggerPrice = bar.Close
		triggered = true

	case orders.TypeLimit:
		if isBuy(o) {
			if bar.Low <= o.Limit {
				triggerPrice = o.Limit
				if bar.Open <= o.Limit {
					triggerPrice = min(o.Limit, bar.Open)
				}
				triggered = true
			}
		} else {
			if bar.High >= o.Limit {
				triggerPrice = o.Limit
				if bar.Open >= o.Limit {
					triggerPrice = max(o.Limit, bar.Open)
				}
				triggered = true
			}
		}

	case orders.TypeStopMarket:
		if isBuy(o) {
			if bar.High >= o.Stop {
				triggerPrice = max(bar.Open, o.Stop)
				triggered = true
			}
		} else {
			if bar.Low <= o.Stop {
				triggerPrice = min(bar.Open, o.Stop)
				triggered = true
			}
		}

	case orders.TypeStopLimit:
		stopHit := (isBuy(o) && bar.High >= o.Stop) || (!isBuy(o) && bar.Low <= o.Stop)
		if !stopHit {
			return nil
		}
		if isBuy(o) {
			if bar.Low <= o.Limit {
				triggerPrice = o.Limit
				triggered = true
			}
		} else {
			if bar.High >= o.Limit {
				triggerPrice = o.Limit
				triggered = true
			}
		}

	case orders.TypeMarketOnOpen:
		if isSessionOpen {
			triggerPrice = bar.Open
			triggered = true
		}

	case orders.TypeMarketOnClose:
		if isSessionClose {
			triggerPrice = bar.Close
			triggered = true
		}
	}

	if !triggered {
		return nil
	}

	price := triggerPrice + m.slippage(o, remainingQty, triggerPrice)
	fillQty := remainingQty
	if m.PartialFillRatio > 0 && m.PartialFillRatio < 1 {
		fillQty = remainingQty * m.PartialFillRatio
	}

	return &Event{
		OrderID:    o.ID,
		FillQty:    fillQty,
		FillPrice:  price,
		Commission: m.fees(o, fillQty, price),
	}
}

// AdjustForSplit scales a still-open order's quantity, limit, and stop
// prices for a split of the given factor (e.g. 0.5 for a 2:1 forward
// split), mirroring the holdings adjustment in internal/portfolio so
// resting orders stay economically equivalent across the corporate
// action (spec §4.8).
func AdjustForSplit(o *orders.Order, factor float64) {
	o.Quantity = roundShares(o.Quantity / factor)
	if o.Limit != 0 {
		o.Limit *= factor
	}
	if o.Stop != 0 {
		o.Stop *= factor
	}
}

func roundShares(x float64) float64 {
	if x < 0 {
		return -roundShares(-x)
	}
	return float64(int64(x + 0.5))
}

// RandomPartialRatio draws a uniform partial-fill ratio in [minRatio, 1],
// used by callers that want stochastic partial fills instead of the fixed
// PartialFillRatio field.
func (m *Model) RandomPartialRatio(minRatio float64) float64 {
	if minRatio >= 1 {
		return 1
	}
	return minRatio + m.rng.Float64()*(1-minRatio)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
