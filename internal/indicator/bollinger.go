package indicator

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// BollingerPosition bands where price sits relative to the bands. The near
// bands are a genuine edge zone (the outer 20% of the %B range on either
// side of the middle band), not simply "above/below the midpoint" — only a
// candle actually close to a band edge should count as near it.
type BollingerPosition string

const (
	BollingerAboveUpper BollingerPosition = "ABOVE_UPPER"
	BollingerNearUpper  BollingerPosition = "NEAR_UPPER"
	BollingerMiddle     BollingerPosition = "MIDDLE"
	BollingerNearLower  BollingerPosition = "NEAR_LOWER"
	BollingerBelowLower BollingerPosition = "BELOW_LOWER"
)

// nearBandZone is the fraction of the %B range, measured in from either
// edge, that counts as "near" a band rather than in the middle.
const nearBandZone = 0.2

// BollingerResult is the full Bollinger Bands reading.
type BollingerResult struct {
	Upper      float64
	Middle     float64
	Lower      float64
	PercentB   float64 // (price-lower)/(upper-lower), can exceed [0,1]
	Bandwidth  float64 // (upper-lower)/middle
	Squeeze    bool    // current bandwidth below 0.7x the mean of the last 20 bandwidths
	Position   BollingerPosition
}

// Bollinger computes Bollinger Bands with the given period and standard
// deviation multiplier.
func Bollinger(candles []model.CandleF, period int, mult float64) (*BollingerResult, error) {
	if len(candles) < period {
		return nil, model.ErrInsufficientData
	}
	closes := closesOf(candles)
	middleSeries := smaSeries(closes, period)

	stdDev := func(end int) float64 {
		window := closes[end-period+1 : end+1]
		mean := middleSeries[end]
		sumSq := 0.0
		for _, v := range window {
			d := v - mean
			sumSq += d * d
		}
		return math.Sqrt(sumSq / float64(period-1))
	}

	last := len(closes) - 1
	middle := middleSeries[last]
	sd := stdDev(last)
	upper := middle + mult*sd
	lower := middle - mult*sd

	price := closes[last]
	rng := upper - lower
	percentB := 0.5
	if rng != 0 {
		percentB = (price - lower) / rng
	}
	bandwidth := 0.0
	if middle != 0 {
		bandwidth = rng / middle
	}

	squeeze := false
	lookback := 20
	if last >= period+lookback-1 {
		sum := 0.0
		for i := last - lookback + 1; i <= last; i++ {
			u := middleSeries[i] + mult*stdDev(i)
			l := middleSeries[i] - mult*stdDev(i)
			m := middleSeries[i]
			bw := 0.0
			if m != 0 {
				bw = (u - l) / m
			}
			sum += bw
		}
		meanBW := sum / float64(lookback)
		squeeze = bandwidth < meanBW*0.7
	}

	position := BollingerMiddle
	switch {
	case price > upper:
		position = BollingerAboveUpper
	case price < lower:
		position = BollingerBelowLower
	case percentB <= nearBandZone:
		position = BollingerNearLower
	case percentB >= 1-nearBandZone:
		position = BollingerNearUpper
	}

	return &BollingerResult{
		Upper:     upper,
		Middle:    middle,
		Lower:     lower,
		PercentB:  percentB,
		Bandwidth: bandwidth,
		Squeeze:   squeeze,
		Position:  position,
	}, nil
}
