package indicator

import (
	"time"

	"github.com/markcheno/go-talib"
)

// SMA is a simple moving average of the given period, backed by
// talib.Sma over a capped rolling buffer.
type SMA struct {
	w     *window
	value float64
}

// NewSMA creates an SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{w: newWindow(period, 2)}
}

func (s *SMA) Update(t time.Time, v float64) bool {
	s.w.push(t, v)
	if s.w.ready() {
		out := talib.Sma(s.w.values, s.w.period)
		s.value = out[len(out)-1]
	}
	return s.w.ready()
}

func (s *SMA) Value() float64 { return s.value }
func (s *SMA) IsReady() bool  { return s.w.ready() }
func (s *SMA) Samples() int   { return s.w.total }
func (s *SMA) Name() string   { return "SMA" }
