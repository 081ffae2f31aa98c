package engine

import (
	"fmt"
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
)

// DataProvider supplies the full, time-ordered history for one
// subscription across [start, end]. Backtests implement it against
// local/remote files (spec §6's getSource/reader contract collapses to
// this single load call here, since the merger only ever needs a
// pre-sorted slice per subscription). The engine calls Load in every
// mode, paper included; it does not read from internal/feed/live.
type DataProvider interface {
	Load(cfg marketdata.SubscriptionConfig, start, end time.Time) ([]marketdata.BaseData, error)
}

// MemoryDataProvider serves pre-loaded bars from an in-memory table,
// keyed by symbol — the harness used by scenario tests and by any
// backtest that has already parsed its own data into memory.
type MemoryDataProvider struct {
	bars map[marketdata.Symbol][]marketdata.BaseData
}

// NewMemoryDataProvider creates an empty MemoryDataProvider.
func NewMemoryDataProvider() *MemoryDataProvider {
	return &MemoryDataProvider{bars: make(map[marketdata.Symbol][]marketdata.BaseData)}
}

// Seed registers bars (already sorted by EndTime ascending) for sym,
// including any Split/Dividend/Delisting events interleaved in time
// order.
func (p *MemoryDataProvider) Seed(sym marketdata.Symbol, bars []marketdata.BaseData) {
	p.bars[sym] = bars
}

// Load returns every seeded bar for cfg.Symbol within [start, end],
// inclusive of EndTime.
func (p *MemoryDataProvider) Load(cfg marketdata.SubscriptionConfig, start, end time.Time) ([]marketdata.BaseData, error) {
	all, ok := p.bars[cfg.Symbol]
	if !ok {
		return nil, fmt.Errorf("engine: no data seeded for %s", cfg.Symbol)
	}
	var out []marketdata.BaseData
	for _, b := range all {
		if b.EndTime.Before(start) || b.EndTime.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
