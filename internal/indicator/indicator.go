// Package indicator defines the rolling technical-indicator contract
// (spec §4.10 treats indicators as an external Update(time,value)->ready
// black box) and ships EMA/SMA/RSI implementations backed by
// github.com/markcheno/go-talib, grounded on trader-go's
// pkg/formulas/rsi.go talib.Rsi wrapping.
package indicator

import "time"

// Indicator is updated with each new sample for its symbol and reports
// whether it has accumulated enough history to be meaningful.
type Indicator interface {
	Update(t time.Time, value float64) bool
	Value() float64
	IsReady() bool
	Samples() int
	Name() string
}

// window is a capped rolling buffer the talib-backed indicators share:
// large enough to give talib's lookback-heavy kernels (EMA/RSI) a stable
// tail value, but bounded so Update stays O(period) instead of
// O(totalSamples).
type window struct {
	period int
	cap    int
	values []float64
	times  []time.Time
	total  int
}

func newWindow(period, capMultiple int) *window {
	if capMultiple < 2 {
		capMultiple = 2
	}
	return &window{period: period, cap: period * capMultiple}
}

func (w *window) push(t time.Time, v float64) {
	w.values = append(w.values, v)
	w.times = append(w.times, t)
	w.total++
	if len(w.values) > w.cap {
		trim := len(w.values) - w.cap
		w.values = append(w.values[:0], w.values[trim:]...)
		w.times = append(w.times[:0], w.times[trim:]...)
	}
}

func (w *window) ready() bool { return w.total >= w.period }
