package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// StochasticZone bands a %K/%D reading.
type StochasticZone string

const (
	StochasticOversold   StochasticZone = "OVERSOLD"
	StochasticNeutral    StochasticZone = "NEUTRAL"
	StochasticOverbought StochasticZone = "OVERBOUGHT"
)

// StochasticResult is the full Stochastic Oscillator reading.
type StochasticResult struct {
	PercentK float64
	PercentD float64
	Zone     StochasticZone
}

// Stochastic computes %K as a smooth-period SMA of the raw %K series, then
// %D as a true dPeriod-length SMA of that smoothed %K — a genuine moving
// average of %K's own history rather than a fixed scalar approximation.
func Stochastic(candles []model.CandleF, kPeriod, smooth, dPeriod int) (*StochasticResult, error) {
	needed := kPeriod + smooth + dPeriod
	if len(candles) < needed {
		return nil, model.ErrInsufficientData
	}

	rawK := make([]float64, len(candles)-kPeriod+1)
	for i := kPeriod - 1; i < len(candles); i++ {
		window := candles[i-kPeriod+1 : i+1]
		highest, lowest := window[0].High, window[0].Low
		for _, c := range window {
			if c.High > highest {
				highest = c.High
			}
			if c.Low < lowest {
				lowest = c.Low
			}
		}
		rng := highest - lowest
		k := 50.0
		if rng != 0 {
			k = (candles[i].Close - lowest) / rng * 100
		}
		rawK[i-kPeriod+1] = k
	}

	smoothedK := smaSeries(rawK, smooth)
	dSeries := smaSeries(smoothedK[smooth-1:], dPeriod)

	percentK := smoothedK[len(smoothedK)-1]
	percentD := dSeries[len(dSeries)-1]

	zone := StochasticNeutral
	switch {
	case percentK <= 20:
		zone = StochasticOversold
	case percentK >= 80:
		zone = StochasticOverbought
	}

	return &StochasticResult{PercentK: percentK, PercentD: percentD, Zone: zone}, nil
}
