package portfolio

import "fmt"

// CurrencyConverter resolves the current exchange rate from one currency
// to another, 1 unit of `from` expressed in `to`. Grounded on the
// teacher's currency-conversion-with-fallback pattern
// (portfolio/service.go's EUR conversion): implementations should fall
// back to a cached/last-known rate rather than fail outright when a live
// rate is unavailable.
type CurrencyConverter interface {
	Rate(from, to string) (float64, error)
}

// CashBook tracks cash balances per currency.
type CashBook struct {
	AccountCurrency string
	balances        map[string]float64
	converter       CurrencyConverter
}

// NewCashBook creates a CashBook denominated in accountCurrency, seeded
// with an initial balance in that currency.
func NewCashBook(accountCurrency string, initial float64, converter CurrencyConverter) *CashBook {
	return &CashBook{
		AccountCurrency: accountCurrency,
		balances:        map[string]float64{accountCurrency: initial},
		converter:       converter,
	}
}

// Add adjusts the balance of one currency by delta.
func (c *CashBook) Add(currency string, delta float64) {
	c.balances[currency] += delta
}

// Balance returns the raw balance held in currency (0 if none held).
func (c *CashBook) Balance(currency string) float64 {
	return c.balances[currency]
}

// Balances returns a copy of every tracked currency balance, zero
// balances included, keyed by currency code (used by the status API's cash breakdown).
func (c *CashBook) Balances() map[string]float64 {
	out := make(map[string]float64, len(c.balances))
	for ccy, bal := range c.balances {
		out[ccy] = bal
	}
	return out
}

// TotalInAccountCurrency sums every currency balance converted into the
// account currency.
func (c *CashBook) TotalInAccountCurrency() (float64, error) {
	total := 0.0
	for ccy, bal := range c.balances {
		if ccy == c.AccountCurrency {
			total += bal
			continue
		}
		rate, err := c.converter.Rate(ccy, c.AccountCurrency)
		if err != nil {
			return 0, fmt.Errorf("cashbook: failed to convert %s to %s: %w", ccy, c.AccountCurrency, err)
		}
		total += bal * rate
	}
	return total, nil
}

// ApplyFeeInAccountCurrency subtracts fee (already expressed in the
// account currency, per spec §4.6: "fee always in account currency") from
// the account-currency balance.
func (c *CashBook) ApplyFeeInAccountCurrency(fee float64) {
	c.balances[c.AccountCurrency] -= fee
}
