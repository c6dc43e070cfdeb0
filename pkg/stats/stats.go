// Package stats provides the numeric analytics used by strategy code:
// descriptive statistics over price and equity series, return series,
// Sharpe ratio, drawdown and level-weighted orderbook aggregates.
package stats

import (
	"math"

	"github.com/meridianhft/meridian/pkg/core"
	"github.com/meridianhft/meridian/pkg/core/orderbook"
)

// TradingDaysPerYear is the default annualization factor for daily returns.
const TradingDaysPerYear = 252.0

// Sum returns the sum of the series.
func Sum(data []float64) float64 {
	var s float64
	for _, v := range data {
		s += v
	}
	return s
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return Sum(data) / float64(len(data))
}

// Variance returns the sample variance (n-1 denominator), or 0 when the
// series has fewer than two points.
func Variance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	m := Mean(data)
	var acc float64
	for _, v := range data {
		d := v - m
		acc += d * d
	}
	return acc / float64(n-1)
}

// StdDev returns the sample standard deviation.
func StdDev(data []float64) float64 {
	return math.Sqrt(Variance(data))
}

// MinMax returns the smallest and largest values. Both are 0 for an empty
// series.
func MinMax(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max = data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Returns computes simple period returns: r[i] = (p[i+1] - p[i]) / p[i].
// The result has len(prices)-1 entries; fewer than two prices yield nil.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		out[i] = (prices[i+1] - prices[i]) / prices[i]
	}
	return out
}

// SharpeRatio computes the annualized Sharpe ratio of a return series
// against a per-year risk-free rate. Returns 0 when the series is too short
// or has zero dispersion.
func SharpeRatio(returns []float64, riskFreeRate, annualization float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	m := Mean(returns)
	s := StdDev(returns)
	if s == 0 {
		return 0
	}
	return (m - riskFreeRate/annualization) / s * math.Sqrt(annualization)
}

// MaxDrawdown returns the largest peak-to-trough decline of an equity curve
// as a fraction of the peak. Returns 0 for series shorter than two points.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}
	peak := equity[0]
	var maxDD float64
	for _, v := range equity[1:] {
		if v > peak {
			peak = v
		}
		if dd := (peak - v) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// TotalLiquidity sums the resting quantity across orderbook levels.
func TotalLiquidity(levels []orderbook.Level) core.QuantityNano {
	var total core.QuantityNano
	for _, lvl := range levels {
		total += lvl.Quantity
	}
	return total
}

// VWAP returns the volume-weighted average price across orderbook levels
// as a float, or 0 when no quantity rests on them.
func VWAP(levels []orderbook.Level) float64 {
	var (
		weightedSum float64
		totalQty    core.QuantityNano
	)
	for _, lvl := range levels {
		weightedSum += core.FromPriceMicro(lvl.Price) * core.FromQuantityNano(lvl.Quantity)
		totalQty += lvl.Quantity
	}
	if totalQty <= 0 {
		return 0
	}
	return weightedSum / core.FromQuantityNano(totalQty)
}
