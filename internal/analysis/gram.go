// Package analysis holds the Gram Analyzer, Global Trend Analyzer, and
// Currency Risk Analyzer: the layer that turns a candle sequence into a
// single-timeframe signal with supporting evidence, one step below the
// Signal Combiner's fusion of multiple analyzers.
package analysis

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// The signal-scoring constants below form a layered filter-scoring
// scheme where each indicator contributes a fixed weight toward a buy/sell
// score, matching the weighted-score constants of the underlying gram gold
// analyzer this package reimplements.
const (
	wRSIExtreme       = 2.0
	wRSIDivergence    = 3.0
	wMACD             = 3.0
	wBollingerExtreme = 2.0
	wBollingerNear    = 1.0
	wStochastic       = 1.0
	wPattern          = 2.0
	wRSIOverbought    = 1.5
	wHistogramNeg     = 1.0
	wNearResistance   = 1.5
	wVolumeSpikeMax   = 2.0
	wTrendConcordance = 1.0

	decisionThreshold = 0.2
	nearLevelPct      = 0.005 // 0.5%
)

// GramAnalyzer produces the Gram Analyzer's output over a gram-local candle
// sequence.
type GramAnalyzer struct{}

// NewGramAnalyzer constructs a GramAnalyzer. It is stateless: every call to
// Analyze is a pure function of the candles passed in.
func NewGramAnalyzer() *GramAnalyzer { return &GramAnalyzer{} }

// Analyze runs the full Gram Analyzer pipeline over gram-local candles,
// oldest-first.
func (g *GramAnalyzer) Analyze(candles []model.Candle) (*model.GramAnalysis, error) {
	if len(candles) < 3 {
		return nil, model.ErrInsufficientData
	}
	floats := model.CandlesToFloat(candles)
	n := len(floats)
	price := floats[n-1].Close

	maPeriod := n / 2
	if maPeriod > 20 {
		maPeriod = 20
	}
	if maPeriod < 1 {
		return nil, model.ErrInsufficientData
	}
	ma, _ := indicator.SMA(floats, maPeriod)

	rsi, rsiErr := indicator.RSI(floats, 14, 30, 70)
	macd, macdErr := indicator.MACD(floats, 12, 26, 9)
	boll, bollErr := indicator.Bollinger(floats, 20, 2.0)
	stoch, stochErr := indicator.Stochastic(floats, 14, 3, 3)
	atrResult, atrErr := indicator.ATR(floats, 14)
	patterns := indicator.DetectPatterns(floats)

	histogram := 0.0
	if macdErr == nil {
		histogram = macd.Histogram
	}

	trend := model.TrendNeutral
	switch {
	case price > ma && histogram > 0:
		trend = model.TrendBullish
	case price < ma && histogram <= 0:
		trend = model.TrendBearish
	}

	strengthPct := 0.0
	if ma != 0 {
		strengthPct = math.Abs(price-ma) / ma * 100
	}
	trendStrength := model.TrendStrengthWeak
	switch {
	case strengthPct >= 3:
		trendStrength = model.TrendStrengthStrong
	case strengthPct >= 1:
		trendStrength = model.TrendStrengthModerate
	}

	supports, resistances := supportResistance(candles)

	buy, sell, total := 0.0, 0.0, 0.0
	add := func(w float64) { total += w }

	if rsiErr == nil {
		add(wRSIExtreme)
		switch rsi.Zone {
		case indicator.RSIOversold:
			buy += wRSIExtreme
		case indicator.RSIOverbought:
			sell += wRSIExtreme
		}
		if rsi.Value > 70 {
			add(wRSIOverbought)
			sell += wRSIOverbought
		}
	}
	if macdErr == nil {
		add(wRSIDivergence)
		switch macd.Divergence {
		case indicator.MACDDivergenceBullish:
			buy += wRSIDivergence * clamp01(macd.Strength)
		case indicator.MACDDivergenceBearish:
			sell += wRSIDivergence * clamp01(macd.Strength)
		}

		add(wMACD)
		switch {
		case macd.Trend == model.TrendBullish:
			buy += wMACD
		case macd.Trend == model.TrendBearish:
			sell += wMACD
		}

		if histogram < 0 {
			add(wHistogramNeg)
			sell += wHistogramNeg
		}
	}
	if bollErr == nil {
		add(wBollingerExtreme)
		switch boll.Position {
		case indicator.BollingerBelowLower:
			buy += wBollingerExtreme
		case indicator.BollingerAboveUpper:
			sell += wBollingerExtreme
		case indicator.BollingerNearLower:
			add(wBollingerNear)
			buy += wBollingerNear
		case indicator.BollingerNearUpper:
			add(wBollingerNear)
			sell += wBollingerNear
		}
	}
	if stochErr == nil {
		add(wStochastic)
		switch stoch.Zone {
		case indicator.StochasticOversold:
			buy += wStochastic
		case indicator.StochasticOverbought:
			sell += wStochastic
		}
	}
	for _, p := range patterns {
		add(wPattern)
		switch p.Direction {
		case indicator.PatternBullish:
			buy += wPattern * p.Confidence
		case indicator.PatternBearish:
			sell += wPattern * p.Confidence
		}
	}
	if nearest, ok := nearestLevel(resistances, price); ok {
		dist := math.Abs(price-nearest) / price
		if dist <= nearLevelPct {
			add(wNearResistance)
			sell += wNearResistance
		}
	}
	if avgVol, spike := volumeSpike(floats); spike {
		add(wVolumeSpikeMax)
		if buy > sell {
			buy += wVolumeSpikeMax
		} else if sell > buy {
			sell += wVolumeSpikeMax
		}
		_ = avgVol
	}
	if trend == model.TrendBullish && buy > sell {
		add(wTrendConcordance)
		buy += wTrendConcordance
	}
	if trend == model.TrendBearish && sell > buy {
		add(wTrendConcordance)
		sell += wTrendConcordance
	}

	signal := model.SignalHold
	confidence := 0.0
	dominant, other := buy, sell
	if total > 0 {
		switch {
		case buy > sell && buy >= decisionThreshold*total:
			signal = model.SignalBuy
			dominant, other = buy, sell
		case sell > buy && sell >= decisionThreshold*total:
			signal = model.SignalSell
			dominant, other = sell, buy
		case buy == sell && buy > 0:
			if rsiErr == nil && rsi.Value < 50 && trend == model.TrendBullish {
				signal = model.SignalBuy
			} else if rsiErr == nil && rsi.Value > 50 && trend == model.TrendBearish {
				signal = model.SignalSell
			}
		}
	}

	switch signal {
	case model.SignalBuy, model.SignalSell:
		confidence = dominant / total
		concordant := (signal == model.SignalBuy && trend == model.TrendBullish) ||
			(signal == model.SignalSell && trend == model.TrendBearish)
		if concordant {
			confidence = clamp01(confidence * 1.2)
		}
		_ = other
	default:
		confidence = holdConfidence(rsi, rsiErr, boll, bollErr, histogram, macdErr, floats, stoch, stochErr, trendStrength, total)
	}

	result := &model.GramAnalysis{
		Price:            decimal.NewFromFloat(price),
		Trend:            trend,
		TrendStrength:    trendStrength,
		Indicators:       indicatorsBlob(rsi, rsiErr, macd, macdErr, boll, bollErr, stoch, stochErr, atrResult, atrErr),
		Patterns:         toPatternMatches(patterns),
		SupportLevels:    supports,
		ResistanceLevels: resistances,
		Signal:           signal,
		Confidence:       confidence,
	}

	if signal != model.SignalHold {
		atr := 10.0
		if atrErr == nil {
			atr = atrResult.Value
		}
		sl, tp := riskLevels(signal, price, supports, resistances, atr, atrResult, atrErr)
		result.StopLoss = decPtr(sl)
		result.TakeProfit = decPtr(tp)
	}

	return result, nil
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
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

func nearestLevel(levels []model.SupportResistanceLevel, price float64) (float64, bool) {
	if len(levels) == 0 {
		return 0, false
	}
	best, _ := levels[0].Level.Float64()
	for _, l := range levels[1:] {
		f, _ := l.Level.Float64()
		if math.Abs(f-price) < math.Abs(best-price) {
			best = f
		}
	}
	return best, true
}

func volumeSpike(candles []model.CandleF) (float64, bool) {
	n := len(candles)
	if n < 21 {
		return 0, false
	}
	sum := 0.0
	for _, c := range candles[n-21 : n-1] {
		sum += c.Volume
	}
	avg := sum / 20
	if avg == 0 {
		return 0, false
	}
	return avg, candles[n-1].Volume/avg >= 1.5
}

func supportResistance(candles []model.Candle) (supports, resistances []model.SupportResistanceLevel) {
	n := len(candles)
	window := n
	if window > 50 {
		window = 50
	}
	recent := candles[n-window:]

	lows := make([]float64, 0, window)
	highs := make([]float64, 0, window)
	for _, c := range recent {
		l, _ := c.Low.Float64()
		h, _ := c.High.Float64()
		lows = append(lows, l)
		highs = append(highs, h)
	}

	lowSet := uniqueSorted(lows, true)
	highSet := uniqueSorted(highs, false)

	if len(lowSet) > 5 {
		lowSet = lowSet[:5]
	}
	if len(highSet) > 5 {
		highSet = highSet[:5]
	}

	for i, lv := range lowSet {
		supports = append(supports, model.SupportResistanceLevel{
			Level:    decimal.NewFromFloat(lv),
			Strength: strengthLabel(i),
			Touches:  countTouches(recent, lv),
		})
	}
	for i, lv := range highSet {
		resistances = append(resistances, model.SupportResistanceLevel{
			Level:    decimal.NewFromFloat(lv),
			Strength: strengthLabel(i),
			Touches:  countTouches(recent, lv),
		})
	}
	return supports, resistances
}

func uniqueSorted(values []float64, ascending bool) []float64 {
	seen := make(map[float64]bool, len(values))
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i] < out[j]
		}
		return out[i] > out[j]
	})
	return out
}

func strengthLabel(index int) string {
	switch {
	case index == 0:
		return "strong"
	case index <= 2:
		return "moderate"
	default:
		return "weak"
	}
}

func countTouches(candles []model.Candle, level float64) int {
	count := 0
	for _, c := range candles {
		h, _ := c.High.Float64()
		l, _ := c.Low.Float64()
		if level == 0 {
			continue
		}
		if math.Abs(h-level)/level <= 0.0001 || math.Abs(l-level)/level <= 0.0001 {
			count++
		}
	}
	return count
}

func toPatternMatches(patterns []indicator.Pattern) []model.PatternMatch {
	out := make([]model.PatternMatch, len(patterns))
	for i, p := range patterns {
		out[i] = model.PatternMatch{
			Name:        p.Name,
			Type:        string(p.Direction),
			Confidence:  p.Confidence,
			Description: p.Description,
		}
	}
	return out
}

func indicatorsBlob(
	rsi *indicator.RSIResult, rsiErr error,
	macd *indicator.MACDResult, macdErr error,
	boll *indicator.BollingerResult, bollErr error,
	stoch *indicator.StochasticResult, stochErr error,
	atrResult *indicator.ATRResult, atrErr error,
) map[string]interface{} {
	blob := map[string]interface{}{}
	if rsiErr == nil {
		blob["rsi"] = rsi
	}
	if macdErr == nil {
		blob["macd"] = macd
	}
	if bollErr == nil {
		blob["bollinger"] = boll
	}
	if stochErr == nil {
		blob["stochastic"] = stoch
	}
	if atrErr == nil {
		blob["atr"] = atrResult
	}
	return blob
}

// holdConfidence blends sub-metric signals into a [0.3, 0.7] confidence band
// for HOLD decisions, so a HOLD still carries a graded conviction rather
// than a flat constant.
func holdConfidence(
	rsi *indicator.RSIResult, rsiErr error,
	boll *indicator.BollingerResult, bollErr error,
	histogram float64, macdErr error,
	candles []model.CandleF,
	stoch *indicator.StochasticResult, stochErr error,
	trendStrength model.TrendStrength,
	availableWeight float64,
) float64 {
	components := make([]float64, 0, 8)

	if rsiErr == nil {
		components = append(components, 1-math.Abs(rsi.Value-50)/50)
	}
	if bollErr == nil {
		components = append(components, clamp01(1-boll.Bandwidth))
	}
	if macdErr == nil {
		components = append(components, clamp01(1-math.Abs(histogram)))
	}
	if n := len(candles); n >= 6 {
		window := candles[n-6:]
		mean := 0.0
		for _, c := range window {
			mean += c.Close
		}
		mean /= float64(len(window))
		variance := 0.0
		for _, c := range window {
			d := c.Close - mean
			variance += d * d
		}
		stdev := math.Sqrt(variance / float64(len(window)))
		volatility := 0.0
		if mean != 0 {
			volatility = stdev / mean
		}
		components = append(components, clamp01(1-volatility*10))
	}
	if stochErr == nil {
		components = append(components, 1-math.Abs(stoch.PercentK-50)/50)
	}
	switch trendStrength {
	case model.TrendStrengthStrong:
		components = append(components, 0.2)
	case model.TrendStrengthModerate:
		components = append(components, 0.5)
	default:
		components = append(components, 0.8)
	}
	if availableWeight > 0 {
		components = append(components, clamp01(availableWeight/10))
	}

	if len(components) == 0 {
		return 0.5
	}
	sum := 0.0
	for _, c := range components {
		sum += c
	}
	avg := sum / float64(len(components))
	if avg < 0.3 {
		avg = 0.3
	}
	if avg > 0.7 {
		avg = 0.7
	}
	return avg
}

func riskLevels(signal model.SignalType, price float64, supports, resistances []model.SupportResistanceLevel, atr float64, atrResult *indicator.ATRResult, atrErr error) (sl, tp float64) {
	volatilityPct := 0.0
	if atrErr == nil && price != 0 {
		volatilityPct = atrResult.Percent
	}
	multiplier := 2.5
	switch {
	case volatilityPct < 0.5:
		multiplier = 2.0
	case volatilityPct > 1.0:
		multiplier = 3.5
	}

	if signal == model.SignalBuy {
		sl = price - 1.5*atr
		if len(supports) > 0 {
			nearest, _ := supports[0].Level.Float64()
			if nearest*0.995 > sl {
				sl = nearest * 0.995
			}
		}
		tp = price + multiplier*atr
		if len(resistances) > 0 {
			nearest, _ := resistances[0].Level.Float64()
			if nearest > 0 && math.Abs(nearest-price)/price <= 0.02 {
				tp = nearest
			}
		}
		risk := price - sl
		if tp-price < 1.5*risk {
			tp = price + 2*risk
		}
		return sl, tp
	}

	// SELL mirrors BUY.
	sl = price + 1.5*atr
	if len(resistances) > 0 {
		nearest, _ := resistances[0].Level.Float64()
		if nearest*1.005 < sl {
			sl = nearest * 1.005
		}
	}
	tp = price - multiplier*atr
	if len(supports) > 0 {
		nearest, _ := supports[0].Level.Float64()
		if nearest > 0 && math.Abs(price-nearest)/price <= 0.02 {
			tp = nearest
		}
	}
	risk := sl - price
	if price-tp < 1.5*risk {
		tp = price - 2*risk
	}
	return sl, tp
}
