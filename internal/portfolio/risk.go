package portfolio

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RollingVolatility computes the sample standard deviation of simple
// returns derived from a rolling window of equity-curve samples,
// grounded on the teacher's optimization/risk.go use of
// gonum.org/v1/gonum/stat for portfolio risk statistics — generalized
// from a static rebalancing-risk model to a live rolling volatility
// estimate the strategy or onMarginCallWarning logic can consult.
func RollingVolatility(equityCurve []float64) float64 {
	if len(equityCurve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		prev := equityCurve[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, (equityCurve[i]-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil)
}

// SharpeRatio computes the annualized Sharpe ratio of a return series
// given a risk-free rate and the number of periods per year (252 for
// daily bars).
func SharpeRatio(returns []float64, riskFreeRate float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	sd := stat.StdDev(returns, nil)
	if sd == 0 {
		return 0
	}
	excess := mean - riskFreeRate/periodsPerYear
	return (excess / sd) * math.Sqrt(periodsPerYear)
}
