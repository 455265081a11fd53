package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// MACDCrossover names a zero-line crossing of the histogram between the
// last two bars.
type MACDCrossover string

const (
	MACDCrossBullish MACDCrossover = "BULLISH"
	MACDCrossBearish MACDCrossover = "BEARISH"
	MACDCrossNone    MACDCrossover = "NONE"
)

// MACDDivergence names a price/MACD swing disagreement over the lookback
// window.
type MACDDivergence string

const (
	MACDDivergenceBullish MACDDivergence = "BULLISH"
	MACDDivergenceBearish MACDDivergence = "BEARISH"
	MACDDivergenceNone    MACDDivergence = "NONE"
)

// MACDResult is the full Moving Average Convergence Divergence reading.
type MACDResult struct {
	MACDLine   float64
	SignalLine float64
	Histogram  float64
	Crossover  MACDCrossover
	Divergence MACDDivergence
	Trend      model.TrendDirection
	Strength   float64 // [0,1]
}

// MACD computes the MACD line as fastEMA-slowEMA and its signal line as a
// true signalPeriod-length EMA of the MACD line's own history, seeded the
// same way every other EMA in this package is seeded.
func MACD(candles []model.CandleF, fast, slow, signalPeriod int) (*MACDResult, error) {
	if len(candles) < slow+signalPeriod {
		return nil, model.ErrInsufficientData
	}
	closes := closesOf(candles)

	fastSeries := emaSeries(closes, fast)
	slowSeries := emaSeries(closes, slow)

	macdSeries := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macdSeries = append(macdSeries, fastSeries[i]-slowSeries[i])
	}

	signalSeries := emaSeries(macdSeries, signalPeriod)

	macdLine := macdSeries[len(macdSeries)-1]
	signalLine := signalSeries[len(signalSeries)-1]
	histogram := macdLine - signalLine

	histSeries := make([]float64, len(macdSeries))
	for i := range histSeries {
		histSeries[i] = macdSeries[i] - signalSeries[i]
	}

	crossover := MACDCrossNone
	if n := len(histSeries); n >= 2 {
		prev, last := histSeries[n-2], histSeries[n-1]
		switch {
		case prev <= 0 && last > 0:
			crossover = MACDCrossBullish
		case prev >= 0 && last < 0:
			crossover = MACDCrossBearish
		}
	}

	divergence := macdDivergence(closes, macdSeries, slow-1)

	trend := model.TrendNeutral
	switch {
	case histogram > 0 && macdLine > signalLine && macdLine > 0:
		trend = model.TrendBullish
	case histogram > 0:
		trend = model.TrendBullish
	case histogram < 0 && macdLine < 0:
		trend = model.TrendBearish
	case histogram < 0:
		trend = model.TrendBearish
	}

	denom := abs(macdLine) + abs(signalLine) + 1e-9
	strength := clamp01(abs(histogram) / denom * 2)

	return &MACDResult{
		MACDLine:   macdLine,
		SignalLine: signalLine,
		Histogram:  histogram,
		Crossover:  crossover,
		Divergence: divergence,
		Trend:      trend,
		Strength:   strength,
	}, nil
}

// macdDivergence compares the last two swing highs (bearish check) or the
// last two swing lows (bullish check) of price against the MACD line over
// the last 50 points, offsetSeriesStart maps a price index to its position
// in macdSeries.
func macdDivergence(closes, macdSeries []float64, offsetSeriesStart int) MACDDivergence {
	window := 50
	start := 0
	if len(closes) > window {
		start = len(closes) - window
	}
	if start < offsetSeriesStart {
		start = offsetSeriesStart
	}

	var highs, lows []int
	for i := start + 2; i < len(closes)-2; i++ {
		if closes[i] > closes[i-1] && closes[i] > closes[i-2] && closes[i] > closes[i+1] && closes[i] > closes[i+2] {
			highs = append(highs, i)
		}
		if closes[i] < closes[i-1] && closes[i] < closes[i-2] && closes[i] < closes[i+1] && closes[i] < closes[i+2] {
			lows = append(lows, i)
		}
	}

	if len(highs) >= 2 {
		a, b := highs[len(highs)-2], highs[len(highs)-1]
		ma, mb := macdSeries[a-offsetSeriesStart], macdSeries[b-offsetSeriesStart]
		if closes[b] > closes[a] && mb < ma {
			return MACDDivergenceBearish
		}
	}
	if len(lows) >= 2 {
		a, b := lows[len(lows)-2], lows[len(lows)-1]
		ma, mb := macdSeries[a-offsetSeriesStart], macdSeries[b-offsetSeriesStart]
		if closes[b] < closes[a] && mb > ma {
			return MACDDivergenceBullish
		}
	}
	return MACDDivergenceNone
}
