package simulation

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// minConfidenceFor applies each strategy's confidence multiplier on top of a
// simulation's base MinConfidence. CONSERVATIVE and the HIGH_COST variant
// raise the bar; MOMENTUM and MEAN_REVERSION add their own extra filter
// below instead of a raised threshold, and MAIN uses the base threshold with
// no extra filter.
func minConfidenceFor(cfg model.SimulationConfig) float64 {
	switch cfg.StrategyType {
	case model.StrategyConservative:
		return math.Min(1.0, cfg.MinConfidence*1.5)
	case model.StrategyHighCostMain:
		return math.Min(1.0, cfg.MinConfidence*1.2)
	default:
		return cfg.MinConfidence
	}
}

// strategyFilterPasses implements the per-strategy should_open filter beyond
// the shared confidence and signal checks.
func strategyFilterPasses(cfg model.SimulationConfig, result *model.HybridAnalysisResult) bool {
	switch cfg.StrategyType {
	case model.StrategyMomentum:
		rsi, ok := result.Gram.Indicators["rsi"].(*indicator.RSIResult)
		if !ok {
			return false
		}
		return rsi.Value < 30 || rsi.Value > 70
	case model.StrategyMeanReversion:
		boll, ok := result.Gram.Indicators["bollinger"].(*indicator.BollingerResult)
		if !ok {
			return false
		}
		return boll.Position == indicator.BollingerAboveUpper || boll.Position == indicator.BollingerBelowLower
	default:
		return true
	}
}

// shouldOpen evaluates every should_open condition except the daily-loss
// guard, which the caller checks separately via the breaker since it needs
// the running day's realized PnL rather than just the latest result.
func shouldOpen(cfg model.SimulationConfig, result *model.HybridAnalysisResult) bool {
	if result.Signal != model.SignalBuy && result.Signal != model.SignalSell {
		return false
	}
	if result.Confidence < minConfidenceFor(cfg) {
		return false
	}
	return strategyFilterPasses(cfg, result)
}

const minimumNotionalLocal = 500.0
const positionSizeCapFraction = 0.2

// positionSizeGrams implements the risk-amount/ATR-distance sizing formula,
// capping the result at positionSizeCapFraction of current capital. The
// second return value is false when the sized position's notional value
// falls below minimumNotionalLocal and the trade should be rejected.
func positionSizeGrams(cfg model.SimulationConfig, currentCapital, currentPrice, atr float64) (float64, bool) {
	if currentPrice <= 0 || atr <= 0 {
		return 0, false
	}
	riskAmountGrams := currentCapital * cfg.MaxRiskPerTrade
	stopDistanceRatio := atr * cfg.ATRMultiplierSL / currentPrice
	if stopDistanceRatio <= 0 {
		return 0, false
	}
	size := riskAmountGrams / stopDistanceRatio
	if cap := currentCapital * positionSizeCapFraction; size > cap {
		size = cap
	}
	notional := size * currentPrice
	if notional < minimumNotionalLocal {
		return 0, false
	}
	return size, true
}

// stopLossTakeProfit computes the strategy's own SL/TP levels from the
// current price, its ATR, and the simulation's ATR multiplier / RR ratio —
// independent of whatever stop/target the gram analyzer proposed, since
// those are tuned for a generic signal rather than this position's sizing.
func stopLossTakeProfit(cfg model.SimulationConfig, side model.PositionType, entryPrice, atr float64) (stopLoss, takeProfit float64) {
	distance := atr * cfg.ATRMultiplierSL
	reward := distance * cfg.RiskRewardRatio
	if side == model.PositionLong {
		return entryPrice - distance, entryPrice + reward
	}
	return entryPrice + distance, entryPrice - reward
}
