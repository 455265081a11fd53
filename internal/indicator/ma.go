// Package indicator computes technical indicators over a float64 candle
// view (model.CandleF), using standard textbook definitions throughout
// (Wilder-smoothed RSI/ATR, a true EMA-based MACD signal line, a genuine
// moving-average Stochastic %D) rather than fixed-scalar approximations.
package indicator

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// SMA returns the simple moving average of the last period closes.
func SMA(candles []model.CandleF, period int) (float64, error) {
	if len(candles) < period {
		return 0, model.ErrInsufficientData
	}
	sum := 0.0
	for _, c := range candles[len(candles)-period:] {
		sum += c.Close
	}
	return sum / float64(period), nil
}

// smaSeries returns the SMA of values[i-period+1:i+1] for every i where
// enough history exists, aligned 1:1 with values (earlier entries are NaN).
func smaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// emaSeries returns the EMA of values, seeded at index period-1 by the SMA
// of the first period values and carried forward from there. Entries before
// period-1 are NaN. Returning the full series, not just the latest value,
// is what lets MACD build its signal line from the MACD line's own EMA.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || len(values) < period {
		return out
	}
	mult := 2.0 / float64(period+1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)
	out[period-1] = seed
	prev := seed
	for i := period; i < len(values); i++ {
		prev = values[i]*mult + prev*(1-mult)
		out[i] = prev
	}
	return out
}

// EMA returns the single latest exponential moving average value.
func EMA(candles []model.CandleF, period int) (float64, error) {
	if len(candles) < period {
		return 0, model.ErrInsufficientData
	}
	closes := closesOf(candles)
	series := emaSeries(closes, period)
	return series[len(series)-1], nil
}

func closesOf(candles []model.CandleF) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
