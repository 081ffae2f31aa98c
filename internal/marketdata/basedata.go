package marketdata

import (
	"fmt"
	"time"
)

// Resolution is the bar period a subscription samples at.
type Resolution int

const (
	ResolutionTick Resolution = iota
	ResolutionSecond
	ResolutionMinute
	ResolutionHour
	ResolutionDaily
)

func (r Resolution) String() string {
	switch r {
	case ResolutionTick:
		return "tick"
	case ResolutionSecond:
		return "second"
	case ResolutionMinute:
		return "minute"
	case ResolutionHour:
		return "hour"
	case ResolutionDaily:
		return "daily"
	default:
		return "unknown"
	}
}

// Period returns the bar duration for resolutions with a fixed period.
// Tick resolution has no fixed period and returns 0.
func (r Resolution) Period() time.Duration {
	switch r {
	case ResolutionSecond:
		return time.Second
	case ResolutionMinute:
		return time.Minute
	case ResolutionHour:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Kind tags the closed set of BaseData subtypes carried by a Slice.
type Kind int

const (
	KindTradeBar Kind = iota
	KindQuoteBar
	KindTick
	KindSplit
	KindDividend
	KindDelisting
	KindCustom
)

// DelistingType distinguishes a delisting warning from the terminal event.
type DelistingType int

const (
	DelistingWarning DelistingType = iota
	DelistingDelisted
)

// BaseData is the common envelope for every data point the feed carries.
// time is the bar's start instant in exchange local time; EndTime is
// time+period. The merger only requires (symbol, time, endTime) — payload
// interpretation is left to Kind-specific accessors below.
type BaseData struct {
	Symbol  Symbol
	Time    time.Time
	EndTime time.Time
	Value   float64 // close-equivalent price, used generically by consumers
	Kind    Kind

	// Payload fields, populated according to Kind. Using flat optional
	// fields (rather than an interface{} payload) keeps the merger and
	// consolidators allocation-free on the hot path.
	Open, High, Low, Close float64
	Volume                 float64

	BidPrice, AskPrice float64
	BidSize, AskSize   float64

	TickBid, TickAsk, TickLast float64
	TickExchange               string

	SplitFactor float64

	DividendDistribution float64

	DelistingType DelistingType

	// CustomType names the user-defined payload type for KindCustom data;
	// CustomFields carries its arbitrary columns.
	CustomType   string
	CustomFields map[string]float64
}

// Validate enforces the BaseData invariant: EndTime > Time, per spec §3.
func (b BaseData) Validate() error {
	if !b.EndTime.After(b.Time) {
		return fmt.Errorf("marketdata: endTime %s must be after time %s for %s", b.EndTime, b.Time, b.Symbol)
	}
	return nil
}

// TradeBar builds a KindTradeBar BaseData point.
func TradeBar(sym Symbol, t, end time.Time, open, high, low, close, volume float64) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: end, Value: close, Kind: KindTradeBar,
		Open: open, High: high, Low: low, Close: close, Volume: volume,
	}
}

// QuoteBar builds a KindQuoteBar BaseData point.
func QuoteBar(sym Symbol, t, end time.Time, bid, ask float64, bidSize, askSize float64) BaseData {
	mid := (bid + ask) / 2
	return BaseData{
		Symbol: sym, Time: t, EndTime: end, Value: mid, Kind: KindQuoteBar,
		BidPrice: bid, AskPrice: ask, BidSize: bidSize, AskSize: askSize,
	}
}

// Tick builds a KindTick BaseData point. Tick instants have EndTime==Time+
// a minimal epsilon so the endTime>time invariant still holds for a
// zero-duration sample.
func Tick(sym Symbol, t time.Time, bid, ask, last float64, exchange string) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: t.Add(time.Nanosecond), Value: last, Kind: KindTick,
		TickBid: bid, TickAsk: ask, TickLast: last, TickExchange: exchange,
	}
}

// Split builds a KindSplit corporate-action event.
func Split(sym Symbol, t time.Time, factor float64) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: t.Add(time.Nanosecond), Value: factor, Kind: KindSplit,
		SplitFactor: factor,
	}
}

// Dividend builds a KindDividend corporate-action event.
func Dividend(sym Symbol, t time.Time, distribution float64) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: t.Add(time.Nanosecond), Value: distribution, Kind: KindDividend,
		DividendDistribution: distribution,
	}
}

// Delisting builds a KindDelisting event.
func Delisting(sym Symbol, t time.Time, kind DelistingType) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: t.Add(time.Nanosecond), Kind: KindDelisting,
		DelistingType: kind,
	}
}

// Custom builds a user-defined KindCustom point.
func Custom(sym Symbol, t, end time.Time, typeName string, value float64, fields map[string]float64) BaseData {
	return BaseData{
		Symbol: sym, Time: t, EndTime: end, Value: value, Kind: KindCustom,
		CustomType: typeName, CustomFields: fields,
	}
}
