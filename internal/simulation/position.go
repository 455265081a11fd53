package simulation

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// unrealizedGain is the signed favorable move from entry, in price terms:
// positive for a LONG priced above entry or a SHORT priced below it.
func unrealizedGain(pos *model.SimulationPosition, price float64) float64 {
	entry, _ := pos.EntryPrice.Float64()
	if pos.PositionType == model.PositionLong {
		return price - entry
	}
	return entry - price
}

// armTrailingStop updates MaxProfit and, once the activation threshold is
// crossed, sets or ratchets the trailing stop — strictly favorably, never
// backward — per the activation formula: unrealized gain must reach
// trailing_stop_activation times (take_profit - entry) before a trailing
// stop exists at all, after which it preserves (1 - trailing_stop_distance)
// of the best gain seen so far.
func armTrailingStop(cfg model.SimulationConfig, pos *model.SimulationPosition, price float64) {
	gain := unrealizedGain(pos, price)
	maxProfit, _ := pos.MaxProfit.Float64()
	if gain > maxProfit {
		maxProfit = gain
		pos.MaxProfit = decimal.NewFromFloat(maxProfit)
	}
	if maxProfit <= 0 {
		return
	}

	entry, _ := pos.EntryPrice.Float64()
	takeProfit, _ := pos.TakeProfit.Float64()
	activationDistance := cfg.TrailingStopActivation * (takeProfit - entry)
	if pos.PositionType == model.PositionShort {
		activationDistance = cfg.TrailingStopActivation * (entry - takeProfit)
	}
	if activationDistance <= 0 || maxProfit < activationDistance {
		return
	}

	preserved := (1 - cfg.TrailingStopDistance) * maxProfit
	var candidate float64
	if pos.PositionType == model.PositionLong {
		candidate = entry + preserved
	} else {
		candidate = entry - preserved
	}

	if pos.TrailingStop == nil {
		level := decimal.NewFromFloat(candidate)
		pos.TrailingStop = &level
		return
	}
	current, _ := pos.TrailingStop.Float64()
	if pos.PositionType == model.PositionLong && candidate > current {
		level := decimal.NewFromFloat(candidate)
		pos.TrailingStop = &level
	} else if pos.PositionType == model.PositionShort && candidate < current {
		level := decimal.NewFromFloat(candidate)
		pos.TrailingStop = &level
	}
}

// evaluateExit checks exit conditions in the fixed precedence order and
// returns the first that matches along with the price the close should use:
// stop-loss and take-profit close at their stored level, every other reason
// closes at the current market price.
func evaluateExit(cfg model.SimulationConfig, pos *model.SimulationPosition, result *model.HybridAnalysisResult, price float64, now time.Time) (model.ExitReason, float64, bool) {
	stopLoss, _ := pos.StopLoss.Float64()
	takeProfit, _ := pos.TakeProfit.Float64()

	long := pos.PositionType == model.PositionLong

	if (long && price <= stopLoss) || (!long && price >= stopLoss) {
		return model.ExitStopLoss, stopLoss, true
	}
	if (long && price >= takeProfit) || (!long && price <= takeProfit) {
		return model.ExitTakeProfit, takeProfit, true
	}
	if pos.TrailingStop != nil {
		trail, _ := pos.TrailingStop.Float64()
		if (long && price <= trail) || (!long && price >= trail) {
			return model.ExitTrailingStop, price, true
		}
	}
	if result != nil {
		reverses := (long && result.Signal == model.SignalSell) || (!long && result.Signal == model.SignalBuy)
		if reverses && result.Confidence >= cfg.MinConfidence {
			return model.ExitReverseSignal, price, true
		}
		if result.Confidence < 0.4 {
			return model.ExitConfidenceDrop, price, true
		}
	}
	if limitHours, ok := cfg.TimeLimitsHours[pos.Timeframe]; ok {
		if now.Sub(pos.EntryTime) >= time.Duration(limitHours)*time.Hour {
			return model.ExitTimeLimit, price, true
		}
	}
	return "", 0, false
}

// closePosition fills the exit side of a SimulationPosition and computes the
// exact PnL arithmetic: gross from direction and size, net after all four
// fee legs, grams-denominated net, and percent-of-allocation.
func closePosition(pos *model.SimulationPosition, reason model.ExitReason, exitPrice float64, now time.Time, exitSpread, exitCommission decimal.Decimal, exitIndicators map[string]interface{}) {
	entry, _ := pos.EntryPrice.Float64()
	size, _ := pos.PositionSizeGrams.Float64()

	gross := (exitPrice - entry) * size
	if pos.PositionType == model.PositionShort {
		gross = (entry - exitPrice) * size
	}
	grossPnL := decimal.NewFromFloat(gross)
	netPnL := grossPnL.
		Sub(pos.EntryCommission).
		Sub(pos.EntrySpread).
		Sub(exitCommission).
		Sub(exitSpread)

	allocated, _ := pos.AllocatedCapital.Float64()
	net, _ := netPnL.Float64()
	var pct float64
	if allocated != 0 {
		pct = net / allocated * 100
	}

	t := now
	ep := decimal.NewFromFloat(exitPrice)
	holdingMinutes := int(now.Sub(pos.EntryTime).Minutes())

	pos.Status = model.PositionClosed
	pos.ExitTime = &t
	pos.ExitPrice = &ep
	pos.ExitSpread = &exitSpread
	pos.ExitCommission = &exitCommission
	pos.ExitReason = &reason
	pos.ExitIndicators = exitIndicators
	pos.GrossPnL = &grossPnL
	pos.NetPnL = &netPnL
	pos.PnLPercent = &pct
	pos.HoldingPeriodMinutes = &holdingMinutes
}

// netPnLGrams mirrors closePosition's net_grams derivation for callers that
// need it after the fact (updating the timeframe capital pool).
func netPnLGrams(pos *model.SimulationPosition) decimal.Decimal {
	if pos.NetPnL == nil || pos.ExitPrice == nil {
		return decimal.Zero
	}
	price, _ := pos.ExitPrice.Float64()
	if price == 0 {
		return decimal.Zero
	}
	net, _ := pos.NetPnL.Float64()
	return decimal.NewFromFloat(net / price)
}

func exitIndicatorsFrom(result *model.HybridAnalysisResult) map[string]interface{} {
	if result == nil {
		return nil
	}
	out := make(map[string]interface{}, 2)
	if rsi, ok := result.Gram.Indicators["rsi"].(*indicator.RSIResult); ok {
		out["rsi"] = rsi.Value
	}
	if atr, ok := result.Gram.Indicators["atr"].(*indicator.ATRResult); ok {
		out["atr"] = atr.Value
	}
	return out
}
