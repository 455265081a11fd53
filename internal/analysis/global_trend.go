package analysis

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// GlobalTrendAnalyzer reads the ounce/USD price series (rather than the
// gram-local one the Gram Analyzer reads) and produces a macro trend
// reading that the Signal Combiner weighs most heavily.
type GlobalTrendAnalyzer struct{}

func NewGlobalTrendAnalyzer() *GlobalTrendAnalyzer { return &GlobalTrendAnalyzer{} }

// Analyze runs the Global Trend Analyzer over an ounce/USD candle sequence,
// oldest-first.
func (a *GlobalTrendAnalyzer) Analyze(candles []model.Candle) (*model.GlobalTrendAnalysis, error) {
	if len(candles) < 20 {
		return nil, model.ErrInsufficientData
	}
	floats := model.CandlesToFloat(candles)
	n := len(floats)
	price := floats[n-1].Close

	ma20, _ := indicator.SMA(floats, 20)
	var ma50, ma200 float64
	haveMA50 := len(floats) >= 50
	haveMA200 := len(floats) >= 200
	if haveMA50 {
		ma50, _ = indicator.SMA(floats, 50)
	}
	if haveMA200 {
		ma200, _ = indicator.SMA(floats, 200)
	}

	pctChange20 := 0.0
	if n > 20 && floats[n-21].Close != 0 {
		pctChange20 = (price - floats[n-21].Close) / floats[n-21].Close * 100
	}

	trend := model.TrendNeutral
	switch {
	case haveMA50 && haveMA200 && price > ma50 && ma50 > ma200:
		trend = model.TrendBullish
	case haveMA50 && haveMA200 && price < ma50 && ma50 < ma200:
		trend = model.TrendBearish
	case pctChange20 >= 2:
		trend = model.TrendBullish
	case pctChange20 <= -2:
		trend = model.TrendBearish
	}

	distFromMA50 := 0.0
	if haveMA50 && ma50 != 0 {
		distFromMA50 = math.Abs(price-ma50) / ma50 * 100
	}
	strengthScore := math.Abs(pctChange20) + distFromMA50
	strength := model.TrendStrengthWeak
	switch {
	case strengthScore >= 6:
		strength = model.TrendStrengthStrong
	case strengthScore >= 2:
		strength = model.TrendStrengthModerate
	}

	roc10 := rateOfChange(floats, 10)
	roc20 := rateOfChange(floats, 20)
	avgROC := (roc10 + roc20) / 2
	momentum := "NEUTRAL"
	switch {
	case avgROC >= 5:
		momentum = "STRONG_BULLISH"
	case avgROC >= 2:
		momentum = "BULLISH"
	case avgROC <= -5:
		momentum = "STRONG_BEARISH"
	case avgROC <= -2:
		momentum = "BEARISH"
	}

	stdevReturns := dailyReturnStdev(floats, 20)
	volatility := "LOW"
	switch {
	case stdevReturns >= 3:
		volatility = "HIGH"
	case stdevReturns >= 1.5:
		volatility = "MEDIUM"
	}

	window := floats
	if len(window) > 50 {
		window = window[len(window)-50:]
	}
	keyHigh, keyLow := window[0].High, window[0].Low
	for _, c := range window {
		if c.High > keyHigh {
			keyHigh = c.High
		}
		if c.Low < keyLow {
			keyLow = c.Low
		}
	}
	pivot := (keyHigh + keyLow + price) / 3

	matching, total := 0, 0
	checkMatch := func(indicatorBullish, indicatorBearish bool) {
		total++
		if (trend == model.TrendBullish && indicatorBullish) || (trend == model.TrendBearish && indicatorBearish) {
			matching++
		}
	}

	if rsi, err := indicator.RSI(floats, 14, 30, 70); err == nil {
		checkMatch(rsi.Value < 50, rsi.Value > 50)
	}
	if macd, err := indicator.MACD(floats, 12, 26, 9); err == nil {
		checkMatch(macd.Trend == model.TrendBullish, macd.Trend == model.TrendBearish)
	}
	if boll, err := indicator.Bollinger(floats, 20, 2.0); err == nil {
		checkMatch(boll.Position == indicator.BollingerNearLower || boll.Position == indicator.BollingerBelowLower,
			boll.Position == indicator.BollingerNearUpper || boll.Position == indicator.BollingerAboveUpper)
	}
	if stoch, err := indicator.Stochastic(floats, 14, 3, 3); err == nil {
		checkMatch(stoch.Zone == indicator.StochasticOversold, stoch.Zone == indicator.StochasticOverbought)
	}

	confidence := 0.5
	if total > 0 {
		confidence = float64(matching) / float64(total)
	}

	signal := model.SignalHold
	switch {
	case confidence >= 0.75 && trend == model.TrendBullish:
		signal = model.SignalBuy
	case confidence >= 0.75 && trend == model.TrendBearish:
		signal = model.SignalSell
	}

	return &model.GlobalTrendAnalysis{
		Trend:      trend,
		Strength:   strength,
		Momentum:   momentum,
		Volatility: volatility,
		PivotLevel: decimal.NewFromFloat(pivot),
		KeyHigh:    decimal.NewFromFloat(keyHigh),
		KeyLow:     decimal.NewFromFloat(keyLow),
		Signal:     signal,
		Confidence: confidence,
	}, nil
}

func rateOfChange(candles []model.CandleF, period int) float64 {
	n := len(candles)
	if n <= period || candles[n-1-period].Close == 0 {
		return 0
	}
	return (candles[n-1].Close - candles[n-1-period].Close) / candles[n-1-period].Close * 100
}

func dailyReturnStdev(candles []model.CandleF, period int) float64 {
	n := len(candles)
	if n <= period {
		return 0
	}
	window := candles[n-period:]
	returns := make([]float64, 0, period-1)
	for i := 1; i < len(window); i++ {
		if window[i-1].Close == 0 {
			continue
		}
		returns = append(returns, (window[i].Close-window[i-1].Close)/window[i-1].Close*100)
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(returns)))
}
