package portfolio

import (
	"fmt"

	"github.com/aristath/tradesim/internal/marketdata"
	"github.com/rs/zerolog"
)

// Portfolio owns CashBook and indexes Securities (spec §4.6 ownership
// note). It implements universe.SecurityRegistrar so the universe engine
// can drive security lifecycle transitions without a direct import
// dependency on this package.
type Portfolio struct {
	Cash       *CashBook
	securities map[marketdata.Symbol]*Security
	log        zerolog.Logger

	// MarginCallThreshold is the fraction of total portfolio value below
	// which marginRemaining triggers a margin-call warning (spec §4.6
	// default 0.05).
	MarginCallThreshold float64

	onSecurityInitialized func(sym marketdata.Symbol) error
}

// New creates a Portfolio with the given cash book.
func New(cash *CashBook, log zerolog.Logger) *Portfolio {
	return &Portfolio{
		Cash:                cash,
		securities:          make(map[marketdata.Symbol]*Security),
		log:                 log.With().Str("component", "portfolio").Logger(),
		MarginCallThreshold: 0.05,
	}
}

// EnsureSecurity creates a Security for sym if one doesn't already exist
// (idempotent, per spec §4.5's "creating a Security (if absent)").
func (p *Portfolio) EnsureSecurity(sym marketdata.Symbol) error {
	if _, ok := p.securities[sym]; ok {
		return nil
	}
	p.securities[sym] = NewSecurity(sym, p.Cash.AccountCurrency)
	return nil
}

// RegisterSubscription is a no-op at the portfolio layer: subscription
// registration is handled by internal/subscription.Manager, wired in by
// internal/engine. Declared here only so Portfolio satisfies
// universe.SecurityRegistrar end to end when subscription wiring isn't
// needed (e.g. tests).
func (p *Portfolio) RegisterSubscription(sym marketdata.Symbol) error { return nil }

// MarkUntradable flips a security's Tradable flag false. Per spec §4.5,
// liquidation remains the strategy's responsibility — this does not sell
// the position.
func (p *Portfolio) MarkUntradable(sym marketdata.Symbol) error {
	s, ok := p.securities[sym]
	if !ok {
		return fmt.Errorf("portfolio: %s not found", sym)
	}
	s.Tradable = false
	return nil
}

// CancelOpenOrders is a no-op at the portfolio layer: order cancellation
// is TransactionManager's responsibility (internal/orders), wired in by
// internal/engine.
func (p *Portfolio) CancelOpenOrders(sym marketdata.Symbol) error { return nil }

// Security returns the tracked Security for sym, if any.
func (p *Portfolio) Security(sym marketdata.Symbol) (*Security, bool) {
	s, ok := p.securities[sym]
	return s, ok
}

// Securities returns every tracked security.
func (p *Portfolio) Securities() map[marketdata.Symbol]*Security {
	return p.securities
}

// UpdateLastPrice records the latest observed price for sym, used by
// MarketValue/MaintenanceMargin.
func (p *Portfolio) UpdateLastPrice(sym marketdata.Symbol, price float64) {
	if s, ok := p.securities[sym]; ok {
		s.LastPrice = price
	}
}

// ApplyFill routes a fill to the named security, updating holdings and
// debiting cash (qty*price + fee) from the balance held in the security's
// currency; no conversion happens here (TotalInAccountCurrency converts
// when totals are read).
func (p *Portfolio) ApplyFill(sym marketdata.Symbol, qty, price, fee float64) error {
	s, ok := p.securities[sym]
	if !ok {
		return fmt.Errorf("portfolio: %s not found", sym)
	}
	cashDelta := s.ApplyFill(qty, price, fee)
	p.Cash.Add(s.Currency, cashDelta)
	return nil
}

// ApplySplit applies a split to sym's holdings (see Security.ApplySplit).
// Order-side split adjustment is handled by internal/engine through
// fill.AdjustForSplit, which reads the same factor.
func (p *Portfolio) ApplySplit(sym marketdata.Symbol, factor float64) error {
	s, ok := p.securities[sym]
	if !ok {
		return fmt.Errorf("portfolio: %s not found", sym)
	}
	s.ApplySplit(factor)
	return nil
}

// ApplyDividend credits cash for sym's dividend distribution, only when
// normalization is raw (the caller — internal/engine — checks the
// subscription's DataNormalization mode before invoking this).
func (p *Portfolio) ApplyDividend(sym marketdata.Symbol, distribution float64) error {
	s, ok := p.securities[sym]
	if !ok {
		return fmt.Errorf("portfolio: %s not found", sym)
	}
	credit := s.ApplyDividendCash(distribution)
	p.Cash.Add(s.Currency, credit)
	return nil
}

// TotalPortfolioValue sums cash (in account currency) plus every
// security's signed market value.
func (p *Portfolio) TotalPortfolioValue() (float64, error) {
	cash, err := p.Cash.TotalInAccountCurrency()
	if err != nil {
		return 0, err
	}
	total := cash
	for _, s := range p.securities {
		total += s.MarketValue()
	}
	return total, nil
}

// TotalMarginUsed sums MaintenanceMargin across every security.
func (p *Portfolio) TotalMarginUsed() float64 {
	total := 0.0
	for _, s := range p.securities {
		total += s.MaintenanceMargin()
	}
	return total
}

// MarginRemaining returns totalPortfolioValue - totalMarginUsed.
func (p *Portfolio) MarginRemaining() (float64, error) {
	total, err := p.TotalPortfolioValue()
	if err != nil {
		return 0, err
	}
	return total - p.TotalMarginUsed(), nil
}

// MarginCallWarning reports whether marginRemaining has fallen below
// MarginCallThreshold·totalPortfolioValue (spec §4.6 default 5%).
func (p *Portfolio) MarginCallWarning() (bool, error) {
	total, err := p.TotalPortfolioValue()
	if err != nil {
		return false, err
	}
	remaining, err := p.MarginRemaining()
	if err != nil {
		return false, err
	}
	return remaining < p.MarginCallThreshold*total, nil
}
