package indicator

import (
	"time"

	"github.com/markcheno/go-talib"
)

// EMA is an exponential moving average of the given period, backed by
// talib.Ema over a capped rolling buffer.
type EMA struct {
	w     *window
	value float64
}

// NewEMA creates an EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{w: newWindow(period, 4)}
}

func (e *EMA) Update(t time.Time, v float64) bool {
	e.w.push(t, v)
	if e.w.ready() {
		out := talib.Ema(e.w.values, e.w.period)
		e.value = out[len(out)-1]
	}
	return e.w.ready()
}

func (e *EMA) Value() float64 { return e.value }
func (e *EMA) IsReady() bool  { return e.w.ready() }
func (e *EMA) Samples() int   { return e.w.total }
func (e *EMA) Name() string   { return "EMA" }
