// Package portfolio implements SecurityManager & Portfolio (spec §4.6):
// per-security holdings, the cash book, corporate-action handling and
// margin/leverage accounting.
//
// Grounded on the teacher's internal/modules/portfolio/service.go
// (currency-aware aggregation, EUR-conversion-with-fallback pattern) and
// internal/domain (Security/BrokerPosition shapes), generalized from an
// ISIN-scored holdings summary to the fill-driven position model spec §4.6
// requires.
package portfolio

import (
	"math"

	"github.com/aristath/tradesim/internal/marketdata"
)

// Security tracks one symbol's tradability, holdings and accounting
// state. Portfolio owns the map of Securities; SecurityManager semantics
// (leverage, tradable flag) live directly on this struct per spec §4.6's
// ownership note.
type Security struct {
	Symbol   marketdata.Symbol
	Currency string

	HoldingsQty float64
	AvgPrice    float64
	RealizedPnL float64

	Leverage  float64 // e.g. 1.0 = no leverage, 2.0 = 2x
	Tradable  bool
	LastPrice float64
}

// NewSecurity returns a tradable Security with no holdings and 1x
// leverage.
func NewSecurity(sym marketdata.Symbol, currency string) *Security {
	return &Security{Symbol: sym, Currency: currency, Leverage: 1.0, Tradable: true}
}

// MarketValue returns the signed market value of current holdings at
// LastPrice.
func (s *Security) MarketValue() float64 {
	return s.HoldingsQty * s.LastPrice
}

// MaintenanceMargin returns |holdings|·price/leverage, per spec §4.6.
func (s *Security) MaintenanceMargin() float64 {
	if s.Leverage <= 0 {
		return math.Abs(s.HoldingsQty) * s.LastPrice
	}
	return math.Abs(s.HoldingsQty) * s.LastPrice / s.Leverage
}

// ApplyFill applies a fill (qty, price, fee) to this security's holdings,
// following the extend/reduce-or-cross rule in spec §4.6, and returns the
// cash delta (always negative of spend — i.e. the amount to subtract from
// cash in s.Currency, fee included).
func (s *Security) ApplyFill(qty, price, fee float64) (cashDelta float64) {
	h := s.HoldingsQty

	sameSignOrFlat := h == 0 || sign(h) == sign(qty)
	if sameSignOrFlat {
		newQty := h + qty
		s.AvgPrice = (math.Abs(h)*s.AvgPrice + math.Abs(qty)*price) / (math.Abs(h) + math.Abs(qty))
		s.HoldingsQty = newQty
	} else {
		closingQty := math.Min(math.Abs(h), math.Abs(qty))
		s.RealizedPnL += closingQty * (price - s.AvgPrice) * sign(h)

		remainder := math.Abs(qty) - closingQty
		s.HoldingsQty = h + qty
		if remainder > 0 {
			// Crossed through zero: remainder extends the opposite side.
			s.AvgPrice = price
		}
	}

	return -(qty*price + fee)
}

func sign(x float64) float64 {
	if x > 0 {
		return 1
	}
	if x < 0 {
		return -1
	}
	return 0
}

// ApplySplit adjusts holdings for a forward or reverse split of factor f
// (new shares = old/f; e.g. a 2:1 split has f=0.5 in this convention
// where quantity scales by 1/f... to match spec's "holdingsQty →
// round(holdingsQty/f)" we take f as the spec's split factor directly).
func (s *Security) ApplySplit(factor float64) {
	s.HoldingsQty = math.Round(s.HoldingsQty / factor)
	s.AvgPrice = s.AvgPrice * factor
}

// ApplyDividendCash returns the cash credit for a dividend distribution
// d on current holdings, per spec §4.6: only when holdings are long and
// data normalization is raw (the caller decides whether to invoke this
// based on the subscription's normalization mode).
func (s *Security) ApplyDividendCash(distribution float64) float64 {
	if s.HoldingsQty <= 0 {
		return 0
	}
	return distribution * s.HoldingsQty
}
