package indicator

import (
	"time"

	"github.com/markcheno/go-talib"
)

// RSI is a relative strength index of the given period, backed by
// talib.Rsi over a capped rolling buffer. Ready only once period+1
// samples have accumulated, since RSI needs one extra point to form its
// first delta.
type RSI struct {
	w     *window
	value float64
}

// NewRSI creates an RSI indicator with the given period.
func NewRSI(period int) *RSI {
	return &RSI{w: newWindow(period+1, 4)}
}

func (r *RSI) Update(t time.Time, v float64) bool {
	r.w.push(t, v)
	if r.w.ready() {
		out := talib.Rsi(r.w.values, r.w.period-1)
		r.value = out[len(out)-1]
	}
	return r.w.ready()
}

func (r *RSI) Value() float64 { return r.value }
func (r *RSI) IsReady() bool  { return r.w.ready() }
func (r *RSI) Samples() int   { return r.w.total }
func (r *RSI) Name() string   { return "RSI" }
