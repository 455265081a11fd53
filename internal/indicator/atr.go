package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// VolatilityTrend bands how a candle range is behaving relative to its
// recent history.
type VolatilityTrend string

const (
	VolatilityExpanding   VolatilityTrend = "EXPANDING"
	VolatilityContracting VolatilityTrend = "CONTRACTING"
	VolatilityStable      VolatilityTrend = "STABLE"
)

// VolatilityLevel bands ATR-as-percent-of-price into a coarse read, used to
// discount confidence in other signals when the market is too choppy or too
// quiet to trust them.
type VolatilityLevel string

const (
	VolatilityVeryLow VolatilityLevel = "VERY_LOW"
	VolatilityLow     VolatilityLevel = "LOW"
	VolatilityNormal  VolatilityLevel = "NORMAL"
	VolatilityHigh    VolatilityLevel = "HIGH"
	VolatilityExtreme VolatilityLevel = "EXTREME"
)

func volatilityLevel(percent float64) VolatilityLevel {
	switch {
	case percent < 0.5:
		return VolatilityVeryLow
	case percent < 1.0:
		return VolatilityLow
	case percent < 2.0:
		return VolatilityNormal
	case percent < 3.0:
		return VolatilityHigh
	default:
		return VolatilityExtreme
	}
}

// ATRResult is the Average True Range alongside its percent-of-price
// reading, a volatility-level band, and a coarse trend label used for
// stop-distance sizing.
type ATRResult struct {
	Value   float64
	Percent float64
	Level   VolatilityLevel
	Trend   VolatilityTrend
}

func trueRange(cur, prev model.CandleF) float64 {
	highLow := cur.High - cur.Low
	highClose := abs(cur.High - prev.Close)
	lowClose := abs(cur.Low - prev.Close)
	return max3(highLow, highClose, lowClose)
}

// ATR computes a Wilder-smoothed Average True Range: the first period true
// ranges seed the average arithmetically, then each subsequent bar smooths
// with weight 1/period, the same recursion RSI uses for gains and losses.
// The trend label compares the mean of the last 10 smoothed ATR readings
// against the mean of the 10 readings before that, the recent-10-vs-prior-10
// split used to classify volatility as expanding or contracting.
func ATR(candles []model.CandleF, period int) (*ATRResult, error) {
	if len(candles) < period+1 {
		return nil, model.ErrInsufficientData
	}

	trs := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs[i-1] = trueRange(candles[i], candles[i-1])
	}

	if len(trs) < period {
		return nil, model.ErrInsufficientData
	}

	atrValues := make([]float64, 0, len(trs)-period+1)
	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)
	atrValues = append(atrValues, atr)

	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
		atrValues = append(atrValues, atr)
	}

	last := candles[len(candles)-1].Close
	percent := 0.0
	if last != 0 {
		percent = atr / last * 100
	}

	trend := VolatilityStable
	const window = 10
	if len(atrValues) >= window*2 {
		recent := atrValues[len(atrValues)-window:]
		older := atrValues[len(atrValues)-window*2 : len(atrValues)-window]

		recentSum, olderSum := 0.0, 0.0
		for _, v := range recent {
			recentSum += v
		}
		for _, v := range older {
			olderSum += v
		}
		recentAvg := recentSum / float64(window)
		olderAvg := olderSum / float64(window)

		if olderAvg != 0 {
			changePercent := (recentAvg - olderAvg) / olderAvg * 100
			switch {
			case changePercent > 10:
				trend = VolatilityExpanding
			case changePercent < -10:
				trend = VolatilityContracting
			}
		}
	}

	return &ATRResult{Value: atr, Percent: percent, Level: volatilityLevel(percent), Trend: trend}, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
