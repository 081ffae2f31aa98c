package main

import (
	"fmt"

	"github.com/aristath/tradesim/internal/engine"
	"github.com/aristath/tradesim/internal/engine/examples"
	"github.com/aristath/tradesim/internal/marketdata"
)

// strategyParams collects the CLI flags shared across the reference
// strategies in internal/engine/examples. A real deployment supplies its
// own engine.Algorithm instead of picking one of these by name.
type strategyParams struct {
	Symbol     string
	Market     string
	Resolution marketdata.Resolution
	Quantity   float64
	Fraction   float64
	Distance   float64
	FastPeriod int
	SlowPeriod int
	WarmupBars int
}

func buildStrategy(name string, p strategyParams) (engine.Algorithm, error) {
	switch name {
	case "buyandhold":
		return &examples.BuyAndHold{
			Ticker: p.Symbol, Market: p.Market, Resolution: p.Resolution, Fraction: p.Fraction,
		}, nil
	case "limitentry":
		return &examples.LimitEntry{
			Ticker: p.Symbol, Market: p.Market, Resolution: p.Resolution,
			Quantity: p.Quantity, LimitBelow: p.Distance,
		}, nil
	case "stoppair":
		return &examples.StopPair{
			Ticker: p.Symbol, Market: p.Market, Resolution: p.Resolution,
			Quantity: p.Quantity, StopDistance: p.Distance,
		}, nil
	case "splitaware":
		return &examples.SplitAware{BuyAndHold: examples.BuyAndHold{
			Ticker: p.Symbol, Market: p.Market, Resolution: p.Resolution, Fraction: p.Fraction,
		}}, nil
	case "emacrossover":
		return &examples.EMACrossover{
			Ticker: p.Symbol, Market: p.Market, Resolution: p.Resolution,
			FastPeriod: p.FastPeriod, SlowPeriod: p.SlowPeriod, WarmupBars: p.WarmupBars,
			Quantity: p.Quantity,
		}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want one of: buyandhold, limitentry, stoppair, splitaware, emacrossover)", name)
	}
}

func parseResolution(s string) (marketdata.Resolution, error) {
	switch s {
	case "tick":
		return marketdata.ResolutionTick, nil
	case "second":
		return marketdata.ResolutionSecond, nil
	case "minute":
		return marketdata.ResolutionMinute, nil
	case "hour":
		return marketdata.ResolutionHour, nil
	case "daily":
		return marketdata.ResolutionDaily, nil
	default:
		return 0, fmt.Errorf("unknown resolution %q (want one of: tick, second, minute, hour, daily)", s)
	}
}
