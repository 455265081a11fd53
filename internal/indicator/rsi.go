package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// RSIZone bands an RSI value for downstream signal logic.
type RSIZone string

const (
	RSIOversold   RSIZone = "OVERSOLD"
	RSINeutral    RSIZone = "NEUTRAL"
	RSIOverbought RSIZone = "OVERBOUGHT"
)

// RSIResult is the Relative Strength Index over the requested period, with
// the zone bands the Gram Analyzer and divergence managers read directly.
type RSIResult struct {
	Value      float64
	Zone       RSIZone
	Oversold   float64
	Overbought float64
}

// RSI computes a Wilder-smoothed Relative Strength Index: the first period
// gains/losses seed the average arithmetically, then each subsequent bar
// smooths the running average with weight 1/period. oversold/overbought are
// the zone thresholds the caller wants applied (gram-context callers pass
// 40/60, other callers the conventional 30/70).
func RSI(candles []model.CandleF, period int, oversold, overbought float64) (*RSIResult, error) {
	if len(candles) < period+1 {
		return nil, model.ErrInsufficientData
	}
	closes := closesOf(candles)

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	value := 100.0
	if avgLoss != 0 {
		rs := avgGain / avgLoss
		value = 100.0 - 100.0/(1.0+rs)
	}

	zone := RSINeutral
	switch {
	case value <= oversold:
		zone = RSIOversold
	case value >= overbought:
		zone = RSIOverbought
	}

	return &RSIResult{Value: value, Zone: zone, Oversold: oversold, Overbought: overbought}, nil
}
