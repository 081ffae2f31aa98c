package marketdata

import "time"

// Slice is an immutable snapshot of all subscription data whose EndTime
// equals the given instant t. Lookup by symbol is constant time.
type Slice struct {
	Time time.Time

	bars      map[Symbol]BaseData
	quotes    map[Symbol]BaseData
	ticks     map[Symbol][]BaseData
	custom    map[Symbol][]BaseData
	splits    map[Symbol]BaseData
	dividends map[Symbol]BaseData
	delisting map[Symbol]BaseData

	// SymbolChangedEvents maps an old ticker to the Symbol it was renamed
	// to, for the instant this slice represents.
	SymbolChangedEvents map[string]Symbol
}

// NewSlice creates an empty Slice for instant t.
func NewSlice(t time.Time) *Slice {
	return &Slice{
		Time:                t,
		bars:                make(map[Symbol]BaseData),
		quotes:              make(map[Symbol]BaseData),
		ticks:               make(map[Symbol][]BaseData),
		custom:              make(map[Symbol][]BaseData),
		splits:              make(map[Symbol]BaseData),
		dividends:           make(map[Symbol]BaseData),
		delisting:           make(map[Symbol]BaseData),
		SymbolChangedEvents: make(map[string]Symbol),
	}
}

// Add inserts a data point into the slice, routing it by Kind. It panics if
// b.EndTime != s.Time, since every Slice entry must share the slice's
// instant (enforced by the caller, the feed merger, not by external users).
func (s *Slice) Add(b BaseData) {
	if !b.EndTime.Equal(s.Time) {
		panic("marketdata: slice.Add called with mismatched endTime")
	}
	switch b.Kind {
	case KindTradeBar:
		s.bars[b.Symbol] = b
	case KindQuoteBar:
		s.quotes[b.Symbol] = b
	case KindTick:
		s.ticks[b.Symbol] = append(s.ticks[b.Symbol], b)
	case KindSplit:
		s.splits[b.Symbol] = b
	case KindDividend:
		s.dividends[b.Symbol] = b
	case KindDelisting:
		s.delisting[b.Symbol] = b
	case KindCustom:
		s.custom[b.Symbol] = append(s.custom[b.Symbol], b)
	}
}

// Bar returns the TradeBar for sym in this slice, if present.
func (s *Slice) Bar(sym Symbol) (BaseData, bool) {
	b, ok := s.bars[sym]
	return b, ok
}

// Quote returns the QuoteBar for sym in this slice, if present.
func (s *Slice) Quote(sym Symbol) (BaseData, bool) {
	b, ok := s.quotes[sym]
	return b, ok
}

// Ticks returns the tick sequence for sym in this slice.
func (s *Slice) Ticks(sym Symbol) []BaseData {
	return s.ticks[sym]
}

// Custom returns the custom-data sequence for sym in this slice.
func (s *Slice) Custom(sym Symbol) []BaseData {
	return s.custom[sym]
}

// Split returns the split event for sym in this slice, if present.
func (s *Slice) Split(sym Symbol) (BaseData, bool) {
	b, ok := s.splits[sym]
	return b, ok
}

// Dividend returns the dividend event for sym in this slice, if present.
func (s *Slice) Dividend(sym Symbol) (BaseData, bool) {
	b, ok := s.dividends[sym]
	return b, ok
}

// Delisting returns the delisting event for sym in this slice, if present.
func (s *Slice) Delisting(sym Symbol) (BaseData, bool) {
	b, ok := s.delisting[sym]
	return b, ok
}

// Symbols returns every symbol with a bar, quote or tick entry in this
// slice, in a stable order (sorted by Symbol.ID.String()) so that consumers
// iterating it get deterministic replay per spec §4.7's ordering guarantee.
func (s *Slice) Symbols() []Symbol {
	seen := make(map[Symbol]struct{})
	for sym := range s.bars {
		seen[sym] = struct{}{}
	}
	for sym := range s.quotes {
		seen[sym] = struct{}{}
	}
	for sym := range s.ticks {
		seen[sym] = struct{}{}
	}
	out := make([]Symbol, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sortSymbolsStable(out)
	return out
}

// IsEmpty reports whether the slice carries no data at all. The feed
// merger's strict-mode check counts samples itself and does not call it.
func (s *Slice) IsEmpty() bool {
	return len(s.bars) == 0 && len(s.quotes) == 0 && len(s.ticks) == 0 &&
		len(s.custom) == 0 && len(s.splits) == 0 && len(s.dividends) == 0 &&
		len(s.delisting) == 0
}
