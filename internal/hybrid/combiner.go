package hybrid

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// Combiner weights, grounded on original_source/strategies/hybrid/
// signal_combiner.py's exact constants.
const (
	weightGram      = 0.30
	weightGlobal    = 0.40
	weightCurrency  = 0.05
	weightAdvanced  = 0.15
	weightPattern   = 0.10

	globalTrendAlignWeight = 0.6
	globalIndicatorWeight  = 0.4

	dipWeightDivergence = 0.35
	dipWeightOversold   = 0.25
	dipWeightExhaustion = 0.20
	dipWeightSmartMoney = 0.20

	gramOverrideMinConfidence = 0.45
	dipOverrideMinScore       = 0.4

	minVolatilityThreshold = 0.5
	highRiskMinConfidence  = 0.85
	mismatchPenalty        = 0.85
)

var perTimeframeMinConfidence = map[model.Interval]float64{
	model.Interval15m: 0.80,
	model.Interval1h:  0.75,
	model.Interval4h:  0.70,
	model.Interval1d:  0.65,
}

// CombinerInput bundles every analyzer output the Signal Combiner fuses.
type CombinerInput struct {
	Timeframe         model.Interval
	Gram              model.GramAnalysis
	Global            model.GlobalTrendAnalysis
	Currency          model.CurrencyRiskAnalysis
	AdvancedIndicator model.AnalyzerOutput // ounce/USD indicator signal, the 40% slice of Global's contribution
	Pattern           model.AnalyzerOutput
	Divergence        model.AnalyzerOutput
	Momentum          model.AnalyzerOutput
	SmartMoney        model.AnalyzerOutput
	MarketVolatility  float64 // percent
	HighCostMode      bool
}

// CombinerOutput is the fused decision before the orchestrator wraps it
// into a full HybridAnalysisResult.
type CombinerOutput struct {
	Signal     model.SignalType
	Confidence float64
	Strength   model.SignalStrength
	Size       model.PositionSizeSuggestion
	Overridden bool
	Reason     string
}

// Combine fuses every analyzer input into one signal. Overrides (gram, dip)
// bypass the post-filter chain entirely; otherwise post-filters 1-5 apply
// in order.
func Combine(in CombinerInput) CombinerOutput {
	if in.Gram.Signal != model.SignalHold && in.Gram.Confidence >= gramOverrideMinConfidence {
		return finalize(in, in.Gram.Signal, in.Gram.Confidence, true, "gram_override")
	}

	dipScore := 0.0
	if in.Global.Trend == model.TrendBearish {
		dipScore = dipWeightDivergence*in.Divergence.Confidence +
			dipWeightOversold*oversoldComponent(in) +
			dipWeightExhaustion*in.Momentum.Confidence +
			dipWeightSmartMoney*in.SmartMoney.Confidence
	}
	if in.Global.Trend == model.TrendBearish && dipScore >= dipOverrideMinScore {
		conf := dipScore * 1.2
		base := fusedConfidenceFor(in, model.SignalBuy)
		if base > conf {
			conf = base
		}
		return finalize(in, model.SignalBuy, clamp01(conf), true, "dip_override")
	}

	buyScore, sellScore, holdScore := fuse(in)

	signal := model.SignalHold
	confidence := holdScore
	switch {
	case buyScore > sellScore && buyScore > holdScore:
		signal = model.SignalBuy
		confidence = buyScore
	case sellScore > buyScore && sellScore > holdScore:
		signal = model.SignalSell
		confidence = sellScore
	}

	signal, confidence = applyPostFilters(in, signal, confidence, dipScore)

	return finalize(in, signal, confidence, false, "fusion")
}

func oversoldComponent(in CombinerInput) float64 {
	if in.Gram.Signal == model.SignalBuy {
		return in.Gram.Confidence
	}
	return 0
}

func fusedConfidenceFor(in CombinerInput, side model.SignalType) float64 {
	buy, sell, _ := fuse(in)
	if side == model.SignalBuy {
		return buy
	}
	return sell
}

// fuse accumulates weighted per-candidate scores across gram, global trend
// (split 60% trend-alignment / 40% ounce-USD indicator), currency risk
// damping, advanced indicators, and pattern recognition.
func fuse(in CombinerInput) (buy, sell, hold float64) {
	switch in.Gram.Signal {
	case model.SignalBuy:
		buy += weightGram * in.Gram.Confidence
	case model.SignalSell:
		sell += weightGram * in.Gram.Confidence
	default:
		hold += weightGram * in.Gram.Confidence
	}

	trendAlign := 0.0
	if (in.Global.Trend == model.TrendBullish && in.Gram.Signal == model.SignalBuy) ||
		(in.Global.Trend == model.TrendBearish && in.Gram.Signal == model.SignalSell) {
		trendAlign = in.Global.Confidence
	}
	globalContribution := globalTrendAlignWeight*trendAlign + globalIndicatorWeight*in.AdvancedIndicator.Confidence
	switch in.Global.Signal {
	case model.SignalBuy:
		buy += weightGlobal * globalContribution
	case model.SignalSell:
		sell += weightGlobal * globalContribution
	default:
		hold += weightGlobal * globalContribution
	}

	switch in.AdvancedIndicator.Signal {
	case model.SignalBuy:
		buy += weightAdvanced * in.AdvancedIndicator.Confidence
	case model.SignalSell:
		sell += weightAdvanced * in.AdvancedIndicator.Confidence
	default:
		hold += weightAdvanced * in.AdvancedIndicator.Confidence
	}

	switch in.Pattern.Signal {
	case model.SignalBuy:
		buy += weightPattern * in.Pattern.Confidence
	case model.SignalSell:
		sell += weightPattern * in.Pattern.Confidence
	default:
		hold += weightPattern * in.Pattern.Confidence
	}

	if in.Currency.Level == model.RiskHigh || in.Currency.Level == model.RiskExtreme {
		hold += weightCurrency * 0.7
		buy *= 0.7
		sell *= 0.7
	} else {
		hold += weightCurrency * 0.3
	}

	return buy, sell, hold
}

// applyPostFilters applies the five post-combination filters in a fixed
// order, each one potentially converting the signal to HOLD or damping
// confidence.
func applyPostFilters(in CombinerInput, signal model.SignalType, confidence, dipScore float64) (model.SignalType, float64) {
	if signal == model.SignalHold {
		return signal, confidence
	}

	// 1. Volatility floor.
	if in.MarketVolatility < minVolatilityThreshold {
		return model.SignalHold, confidence
	}

	// 2. Per-timeframe minimum confidence.
	minConf := perTimeframeMinConfidence[in.Timeframe]
	if in.HighCostMode {
		minConf *= 1.1
	}
	if confidence < minConf {
		return model.SignalHold, confidence
	}

	// 3. Risk-based confidence floor.
	if (in.Currency.Level == model.RiskHigh || in.Currency.Level == model.RiskExtreme) && confidence < highRiskMinConfidence {
		return model.SignalHold, confidence
	}

	// 4. Trend-alignment requirement. A BUY against a BEARISH global trend
	// is not held outright here: the dip-detection score already decided,
	// earlier in Combine, whether it earns a full override
	// (dipScore >= dipOverrideMinScore) — anything that reaches this point
	// carries a dip score below that bar and is left for filter 5's
	// confidence penalty rather than killed. A BUY against a NEUTRAL trend
	// has no such dip context to fall back on, so it still holds. SELL has
	// no symmetric "top" score, so it keeps the high-confidence exemption.
	if signal == model.SignalBuy && in.Global.Trend == model.TrendNeutral {
		return model.SignalHold, confidence
	}
	if signal == model.SignalSell && in.Global.Trend != model.TrendBearish && confidence < highRiskMinConfidence {
		return model.SignalHold, confidence
	}

	// 5. Global-trend mismatch penalty.
	if signal == model.SignalBuy && in.Global.Trend == model.TrendBearish && dipScore < dipOverrideMinScore {
		confidence *= mismatchPenalty
	}
	if signal == model.SignalSell && in.Global.Trend == model.TrendBullish {
		confidence *= mismatchPenalty
	}

	return signal, confidence
}

func finalize(in CombinerInput, signal model.SignalType, confidence float64, overridden bool, reason string) CombinerOutput {
	confidence = clamp01(confidence)

	strength := model.StrengthWeak
	switch {
	case confidence >= 0.85:
		strength = model.StrengthStrong
	case confidence >= 0.75:
		strength = model.StrengthModerate
	}
	if in.Currency.Level == model.RiskHigh || in.Currency.Level == model.RiskExtreme {
		strength = demote(strength)
	}

	dipScore := 0.0
	if in.Global.Trend == model.TrendBearish {
		dipScore = dipWeightDivergence*in.Divergence.Confidence +
			dipWeightOversold*oversoldComponent(in) +
			dipWeightExhaustion*in.Momentum.Confidence +
			dipWeightSmartMoney*in.SmartMoney.Confidence
	}
	size := positionSize(in.Currency.Level, dipScore)

	return CombinerOutput{
		Signal:     signal,
		Confidence: confidence,
		Strength:   strength,
		Size:       size,
		Overridden: overridden,
		Reason:     reason,
	}
}

func demote(s model.SignalStrength) model.SignalStrength {
	switch s {
	case model.StrengthStrong:
		return model.StrengthModerate
	case model.StrengthModerate:
		return model.StrengthWeak
	default:
		return model.StrengthWeak
	}
}

var riskMultiplier = map[model.RiskLevel]float64{
	model.RiskLow:     1.2,
	model.RiskMedium:  1.0,
	model.RiskHigh:    0.7,
	model.RiskExtreme: 0.5,
}

func positionSize(level model.RiskLevel, dipScore float64) model.PositionSizeSuggestion {
	base := 0.3 + 0.4*clamp01(dipScore)
	multiplier := riskMultiplier[level]
	if multiplier == 0 {
		multiplier = 1.0
	}
	lots := base
	if lots < 0.2 {
		lots = 0.2
	}
	if lots > 0.8 {
		lots = 0.8
	}
	return model.PositionSizeSuggestion{Lots: lots, Multiplier: multiplier}
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
