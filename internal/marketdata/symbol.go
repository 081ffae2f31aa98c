// Package marketdata defines the core data model shared by every other
// package in the engine: symbol identity, the BaseData family, subscription
// configuration and the time-instant Slice snapshot.
package marketdata

import "fmt"

// SecurityType identifies the asset class of a tradable symbol.
type SecurityType int

const (
	SecurityTypeEquity SecurityType = iota
	SecurityTypeForex
	SecurityTypeCFD
	SecurityTypeOption
	SecurityTypeBase
)

func (t SecurityType) String() string {
	switch t {
	case SecurityTypeEquity:
		return "equity"
	case SecurityTypeForex:
		return "forex"
	case SecurityTypeCFD:
		return "cfd"
	case SecurityTypeOption:
		return "option"
	case SecurityTypeBase:
		return "base"
	default:
		return "unknown"
	}
}

// SecurityIdentifier is a stable identity for a tradable that survives
// ticker renames. It is a plain comparable struct, used directly as a Go
// map key — see DESIGN.md for why no hashing library is involved.
type SecurityIdentifier struct {
	Market string
	Type   SecurityType
	Unique string // stable id, e.g. an exchange-assigned identifier
}

func (id SecurityIdentifier) String() string {
	return fmt.Sprintf("%s:%s:%s", id.Market, id.Type, id.Unique)
}

// Symbol is the identity of a tradable: (ticker, SecurityType, market) plus
// a stable SecurityIdentifier. Symbols are value-typed, hashable (via plain
// struct equality) and compare by SecurityIdentifier.
type Symbol struct {
	Ticker string
	Type   SecurityType
	Market string
	ID     SecurityIdentifier
}

// NewEquitySymbol builds an equity Symbol whose SecurityIdentifier is
// derived from market+ticker. Renamed tickers must be constructed with an
// explicit SecurityIdentifier instead so identity survives the rename.
func NewEquitySymbol(ticker, market string) Symbol {
	return Symbol{
		Ticker: ticker,
		Type:   SecurityTypeEquity,
		Market: market,
		ID:     SecurityIdentifier{Market: market, Type: SecurityTypeEquity, Unique: ticker},
	}
}

// NewForexSymbol builds a forex pair Symbol (e.g. "EURUSD").
func NewForexSymbol(pair, market string) Symbol {
	return Symbol{
		Ticker: pair,
		Type:   SecurityTypeForex,
		Market: market,
		ID:     SecurityIdentifier{Market: market, Type: SecurityTypeForex, Unique: pair},
	}
}

// NewOptionSymbol derives a canonical option Symbol from its underlying.
// The SecurityIdentifier.Unique folds in expiry/strike/right so that two
// option contracts on the same underlying never collide.
func NewOptionSymbol(underlying Symbol, expiry, strike, right string) Symbol {
	unique := fmt.Sprintf("%s|%s|%s|%s", underlying.Ticker, expiry, strike, right)
	return Symbol{
		Ticker: underlying.Ticker,
		Type:   SecurityTypeOption,
		Market: underlying.Market,
		ID:     SecurityIdentifier{Market: underlying.Market, Type: SecurityTypeOption, Unique: unique},
	}
}

// Equal compares symbols by SecurityIdentifier, per the data-model
// invariant in spec §3.
func (s Symbol) Equal(other Symbol) bool {
	return s.ID == other.ID
}

func (s Symbol) String() string {
	return s.Ticker
}
