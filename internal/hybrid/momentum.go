package hybrid

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// MomentumManager detects exhaustion in the current move — a condition the
// combiner reads as an early warning a reversal is due, not a trend signal
// on its own.
type MomentumManager struct{}

func NewMomentumManager() *MomentumManager { return &MomentumManager{} }

func consecutiveDirectional(candles []model.CandleF) (count int, bullish bool) {
	n := len(candles)
	if n == 0 {
		return 0, false
	}
	bullish = candles[n-1].Close > candles[n-1].Open
	for i := n - 1; i >= 0; i-- {
		isBull := candles[i].Close > candles[i].Open
		if isBull != bullish {
			break
		}
		count++
	}
	return count, bullish
}

func averageBody(candles []model.CandleF, period int) float64 {
	if len(candles) < period {
		period = len(candles)
	}
	if period == 0 {
		return 0
	}
	window := candles[len(candles)-period:]
	sum := 0.0
	for _, c := range window {
		sum += math.Abs(c.Close - c.Open)
	}
	return sum / float64(period)
}

// Analyze weighs consecutive-candle exhaustion, volume/body spikes,
// triple-extreme oscillators, and ATR/Bollinger expansion into a momentum
// exhaustion score; exhaustion_type is the reversal direction expected,
// opposite of the momentum currently in force.
func (m *MomentumManager) Analyze(candles []model.CandleF) (model.AnalyzerOutput, error) {
	if len(candles) < 25 {
		return model.AnalyzerOutput{}, model.ErrInsufficientData
	}

	score := 0.0
	total := 0.0
	bullishMomentum := true

	if streak, bullish := consecutiveDirectional(candles); streak >= 5 {
		score += 2
		bullishMomentum = bullish
	}
	total += 2

	last := candles[len(candles)-1]
	avgBody := averageBody(candles[:len(candles)-1], 20)
	lastBody := math.Abs(last.Close - last.Open)
	if avgBody > 0 && lastBody >= avgBody*2 {
		score += 2
		rng := last.High - last.Low
		wickRatio := 0.0
		if rng > 0 {
			wickRatio = 1 - lastBody/rng
		}
		if wickRatio > 0.4 {
			score += 1
		}
	}
	total += 3

	extremeCount := 0
	if rsi, err := indicator.RSI(candles, 14, 30, 70); err == nil {
		if rsi.Zone == indicator.RSIOversold || rsi.Zone == indicator.RSIOverbought {
			extremeCount++
		}
	}
	if stoch, err := indicator.Stochastic(candles, 14, 3, 3); err == nil {
		if stoch.Zone == indicator.StochasticOversold || stoch.Zone == indicator.StochasticOverbought {
			extremeCount++
		}
	}
	macdExtreme := false
	if macd, err := indicator.MACD(candles, 12, 26, 9); err == nil {
		macdExtreme = math.Abs(macd.Histogram) > 0 && macd.Strength >= 0.8
		if macdExtreme {
			extremeCount++
		}
	}
	tripleExtreme := extremeCount >= 3
	if tripleExtreme {
		score += 2
	}
	total += 2

	atrExpanding := false
	bollSqueeze := false
	if atrResult, err := indicator.ATR(candles, 14); err == nil {
		atrExpanding = atrResult.Trend == indicator.VolatilityExpanding
	}
	if boll, err := indicator.Bollinger(candles, 20, 2.0); err == nil {
		bollSqueeze = boll.Squeeze
	}
	if atrExpanding {
		score += 1
	}
	if bollSqueeze {
		score += 1
	}
	total += 2

	confidence := 0.0
	if total > 0 {
		confidence = score / total
	}

	exhaustionType := model.TrendBearish
	if !bullishMomentum {
		exhaustionType = model.TrendBullish
	}

	signal := model.SignalHold
	if confidence >= 0.5 {
		if exhaustionType == model.TrendBullish {
			signal = model.SignalBuy
		} else {
			signal = model.SignalSell
		}
	}

	return model.AnalyzerOutput{
		Signal:      signal,
		Confidence:  confidence,
		Direction:   exhaustionType,
		Strength:    score,
		Description: "momentum exhaustion from consecutive candles, spike bodies, triple-extreme oscillators, and volatility expansion",
		Detail: map[string]interface{}{
			"triple_extreme": tripleExtreme,
			"atr_expanding":  atrExpanding,
			"boll_squeeze":   bollSqueeze,
		},
	}, nil
}
