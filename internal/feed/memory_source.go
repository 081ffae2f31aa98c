package feed

import "github.com/aristath/tradesim/internal/marketdata"

// MemorySource is a Source backed by an in-memory, pre-sorted slice of
// BaseData — the backtest-mode reader. Live-mode sources are implemented
// in internal/feed/live against a websocket connection instead.
type MemorySource struct {
	sym   marketdata.Symbol
	order int
	data  []marketdata.BaseData
	pos   int
}

// NewMemorySource wraps data (already sorted by EndTime ascending) as a
// Source for sym, registered at the given subscription insertion order.
func NewMemorySource(sym marketdata.Symbol, order int, data []marketdata.BaseData) *MemorySource {
	return &MemorySource{sym: sym, order: order, data: data}
}

func (s *MemorySource) Symbol() marketdata.Symbol { return s.sym }
func (s *MemorySource) InsertionOrder() int        { return s.order }

func (s *MemorySource) Next() (marketdata.BaseData, bool) {
	if s.pos >= len(s.data) {
		return marketdata.BaseData{}, false
	}
	d := s.data[s.pos]
	s.pos++
	return d, true
}
