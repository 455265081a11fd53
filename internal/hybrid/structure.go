// Package hybrid holds the five sub-analyzers (divergence, momentum,
// structure, smart-money, confluence) and the Signal Combiner that fuses
// their AnalyzerOutputs with the Gram, Global Trend, and Currency Risk
// analyzers into one HybridAnalysisResult per timeframe.
package hybrid

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// swingPoint is an internal high/low extremum.
type swingPoint struct {
	price float64
	index int
	high  bool
}

// StructureManager classifies market structure from swing highs/lows
// (HH/HL bullish, LL/LH bearish) with a fixed 5-candle swing window.
type StructureManager struct {
	swingWindow int
}

func NewStructureManager() *StructureManager {
	return &StructureManager{swingWindow: 5}
}

func findSwings(candles []model.CandleF, window int) (highs, lows []swingPoint) {
	for i := window; i < len(candles)-window; i++ {
		isHigh, isLow := true, true
		for j := i - window; j <= i+window; j++ {
			if j == i {
				continue
			}
			if candles[j].High >= candles[i].High {
				isHigh = false
			}
			if candles[j].Low <= candles[i].Low {
				isLow = false
			}
		}
		if isHigh {
			highs = append(highs, swingPoint{price: candles[i].High, index: i, high: true})
		}
		if isLow {
			lows = append(lows, swingPoint{price: candles[i].Low, index: i, high: false})
		}
	}
	return highs, lows
}

// Analyze classifies structure and emits an AnalyzerOutput plus the
// structure-break / pullback-zone detail the combiner can read.
func (s *StructureManager) Analyze(candles []model.CandleF, supports, resistances []float64) (model.AnalyzerOutput, error) {
	if len(candles) < s.swingWindow*2+1 {
		return model.AnalyzerOutput{}, model.ErrInsufficientData
	}

	highs, lows := findSwings(candles, s.swingWindow)

	hh, hl, lh, ll := 0, 0, 0, 0
	for i := 1; i < len(highs); i++ {
		if highs[i].price > highs[i-1].price {
			hh++
		} else if highs[i].price < highs[i-1].price {
			lh++
		}
	}
	for i := 1; i < len(lows); i++ {
		if lows[i].price > lows[i-1].price {
			hl++
		} else if lows[i].price < lows[i-1].price {
			ll++
		}
	}

	direction := model.TrendNeutral
	switch {
	case hh > 0 && hl > 0 && hh >= lh && hl >= ll:
		direction = model.TrendBullish
	case lh > 0 && ll > 0 && lh >= hh && ll >= hl:
		direction = model.TrendBearish
	}

	total := hh + hl + lh + ll
	strength := 0.0
	if total > 0 {
		switch direction {
		case model.TrendBullish:
			strength = float64(hh+hl) / float64(total)
		case model.TrendBearish:
			strength = float64(lh+ll) / float64(total)
		default:
			strength = 0.3
		}
	}

	price := candles[len(candles)-1].Close
	structureBreak := false
	if direction == model.TrendBullish && len(lows) > 0 && price < lows[len(lows)-1].price {
		structureBreak = true
	}
	if direction == model.TrendBearish && len(highs) > 0 && price > highs[len(highs)-1].price {
		structureBreak = true
	}

	pullbackZone := false
	for _, lvl := range append(append([]float64{}, supports...), resistances...) {
		if lvl == 0 {
			continue
		}
		if math.Abs(price-lvl)/lvl <= 0.005 {
			pullbackZone = true
			break
		}
	}

	signal := model.SignalHold
	switch {
	case direction == model.TrendBullish && pullbackZone && !structureBreak:
		signal = model.SignalBuy
	case direction == model.TrendBearish && pullbackZone && !structureBreak:
		signal = model.SignalSell
	}

	return model.AnalyzerOutput{
		Signal:      signal,
		Confidence:  strength,
		Direction:   direction,
		Strength:    strength,
		Description: "structure classified from 5-candle swing highs/lows",
		Detail: map[string]interface{}{
			"hh": hh, "hl": hl, "lh": lh, "ll": ll,
			"structure_break": structureBreak,
			"pullback_zone":   pullbackZone,
		},
	}, nil
}
