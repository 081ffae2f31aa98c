// Package history implements spec §4.10's warm-up and history window
// contract: a pre-roll replay that drives consolidators/indicators while
// suppressing strategy callbacks, and a history(symbol, n|duration)
// accessor that never peeks beyond the current clock instant.
package history

import (
	"time"

	"github.com/aristath/tradesim/internal/marketdata"
)

// maxBufferMultiple bounds each symbol's retained bar count relative to
// the largest window ever requested for it, so memory stays proportional
// to what the strategy actually asks for (spec §5 resource discipline)
// rather than growing with total run length.
const maxBufferMultiple = 4

type buffer struct {
	bars      []marketdata.BaseData
	maxWanted int
}

// Store retains a capped rolling window of bars per symbol and serves
// history(symbol, n|duration) queries against it.
type Store struct {
	buffers map[marketdata.Symbol]*buffer
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{buffers: make(map[marketdata.Symbol]*buffer)}
}

// Record appends a newly observed bar for its symbol. Callers must only
// Record bars whose EndTime does not exceed the current clock instant;
// Store has no clock of its own and trusts this invariant, the way
// consolidators trust their feed's ordering.
func (s *Store) Record(b marketdata.BaseData) {
	buf, ok := s.buffers[b.Symbol]
	if !ok {
		buf = &buffer{}
		s.buffers[b.Symbol] = buf
	}
	buf.bars = append(buf.bars, b)
	// Until a Window/Since call tells us the largest window anyone has
	// actually asked for, keep everything: we cannot safely guess a cap
	// without risking trimming data a not-yet-issued query will need.
	if buf.maxWanted == 0 {
		return
	}
	cap := buf.maxWanted * maxBufferMultiple
	if len(buf.bars) > cap {
		trim := len(buf.bars) - cap
		buf.bars = append(buf.bars[:0], buf.bars[trim:]...)
	}
}

// Window returns the last n bars recorded for sym with EndTime <= asOf,
// oldest first. Fewer than n are returned if history does not go back
// that far yet.
func (s *Store) Window(sym marketdata.Symbol, n int, asOf time.Time) []marketdata.BaseData {
	buf, ok := s.buffers[sym]
	if !ok {
		return nil
	}
	if n > buf.maxWanted {
		buf.maxWanted = n
	}

	visible := visibleBars(buf.bars, asOf)
	if len(visible) > n {
		visible = visible[len(visible)-n:]
	}
	out := make([]marketdata.BaseData, len(visible))
	copy(out, visible)
	return out
}

// Since returns every bar recorded for sym whose EndTime falls within
// [asOf-period, asOf], oldest first.
func (s *Store) Since(sym marketdata.Symbol, period time.Duration, asOf time.Time) []marketdata.BaseData {
	buf, ok := s.buffers[sym]
	if !ok {
		return nil
	}
	cutoff := asOf.Add(-period)
	visible := visibleBars(buf.bars, asOf)

	start := 0
	for start < len(visible) && visible[start].EndTime.Before(cutoff) {
		start++
	}
	approxCount := len(visible) - start
	if approxCount > buf.maxWanted {
		buf.maxWanted = approxCount
	}

	out := make([]marketdata.BaseData, len(visible)-start)
	copy(out, visible[start:])
	return out
}

func visibleBars(bars []marketdata.BaseData, asOf time.Time) []marketdata.BaseData {
	i := len(bars)
	for i > 0 && bars[i-1].EndTime.After(asOf) {
		i--
	}
	return bars[:i]
}
