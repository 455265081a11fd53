package hybrid

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

const (
	divWeightRSI   = 2.0
	divWeightMACD  = 3.0
	divWeightStoch = 2.0
	divWeightMFI   = 2.0
	divWeightCCI   = 1.0

	divScoreThreshold = 3.0
)

// DivergenceManager scores price/indicator divergences across RSI, MACD,
// Stochastic, MFI (simulated via volatility when volume is absent), and
// CCI, weighting each by how reliable it tends to be.
type DivergenceManager struct{}

func NewDivergenceManager() *DivergenceManager { return &DivergenceManager{} }

func cci(candles []model.CandleF, period int) (float64, bool) {
	if len(candles) < period {
		return 0, false
	}
	window := candles[len(candles)-period:]
	typical := make([]float64, len(window))
	sum := 0.0
	for i, c := range window {
		typical[i] = (c.High + c.Low + c.Close) / 3
		sum += typical[i]
	}
	mean := sum / float64(len(typical))
	meanDev := 0.0
	for _, tp := range typical {
		meanDev += math.Abs(tp - mean)
	}
	meanDev /= float64(len(typical))
	if meanDev == 0 {
		return 0, true
	}
	return (typical[len(typical)-1] - mean) / (0.015 * meanDev), true
}

// Analyze scores five oscillators into a bullish_score and a bearish_score;
// a score at or above the threshold that beats the other emits that
// divergence type. Only MACD contributes through a swing comparison (its
// own price-vs-MACD divergence). RSI, Stochastic, MFI and CCI contribute
// when they sit in their oversold or overbought zone; no swing highs/lows
// are compared for them.
func (d *DivergenceManager) Analyze(candles []model.CandleF) (model.AnalyzerOutput, error) {
	if len(candles) < 30 {
		return model.AnalyzerOutput{}, model.ErrInsufficientData
	}

	bullScore, bearScore := 0.0, 0.0

	if rsi, err := indicator.RSI(candles, 14, 30, 70); err == nil {
		if rsi.Zone == indicator.RSIOversold {
			bullScore += divWeightRSI
		}
		if rsi.Zone == indicator.RSIOverbought {
			bearScore += divWeightRSI
		}
	}
	if macd, err := indicator.MACD(candles, 12, 26, 9); err == nil {
		switch macd.Divergence {
		case indicator.MACDDivergenceBullish:
			bullScore += divWeightMACD
		case indicator.MACDDivergenceBearish:
			bearScore += divWeightMACD
		}
	}
	if stoch, err := indicator.Stochastic(candles, 14, 3, 3); err == nil {
		if stoch.Zone == indicator.StochasticOversold {
			bullScore += divWeightStoch
		}
		if stoch.Zone == indicator.StochasticOverbought {
			bearScore += divWeightStoch
		}
	}
	if mfi, err := indicator.MFI(candles, 14); err == nil {
		if mfi.Value <= 20 {
			bullScore += divWeightMFI
		}
		if mfi.Value >= 80 {
			bearScore += divWeightMFI
		}
	}
	if cciVal, ok := cci(candles, 20); ok {
		if cciVal <= -100 {
			bullScore += divWeightCCI
		}
		if cciVal >= 100 {
			bearScore += divWeightCCI
		}
	}

	direction := model.TrendNeutral
	score := 0.0
	signal := model.SignalHold
	if bullScore >= divScoreThreshold && bullScore > bearScore {
		direction = model.TrendBullish
		score = bullScore
		signal = model.SignalBuy
	} else if bearScore >= divScoreThreshold && bearScore > bullScore {
		direction = model.TrendBearish
		score = bearScore
		signal = model.SignalSell
	}

	strengthBand := "NONE"
	switch {
	case score >= 6:
		strengthBand = "STRONG"
	case score >= 4:
		strengthBand = "MODERATE"
	case score >= 2:
		strengthBand = "WEAK"
	}

	maxPossible := divWeightRSI + divWeightMACD + divWeightStoch + divWeightMFI + divWeightCCI
	confidence := 0.0
	if maxPossible > 0 {
		confidence = score / maxPossible
	}

	return model.AnalyzerOutput{
		Signal:      signal,
		Confidence:  confidence,
		Direction:   direction,
		Strength:    score,
		Description: "price/indicator divergence across RSI, MACD, Stochastic, MFI, CCI",
		Detail: map[string]interface{}{
			"bullish_score":  bullScore,
			"bearish_score":  bearScore,
			"strength_band":  strengthBand,
		},
	}, nil
}
