package hybrid

import (
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// timeframeWeights is the cross-timeframe hierarchy used to weight each
// timeframe's contribution to the confluence score, adapted from the
// teacher's ConfluenceScorer weighted-accumulation idiom (there applied to
// single-timeframe factors; here applied across timeframes).
var timeframeWeights = map[model.Interval]float64{
	model.Interval15m: 0.20,
	model.Interval1h:  0.30,
	model.Interval4h:  0.35,
	model.Interval1d:  0.15,
}

// parentTimeframe names the timeframe whose agreement confirms a given
// timeframe's signal (15m needs 1h, 1h needs 4h, 4h needs 1d; 1d has no
// parent and is always self-confirming).
var parentTimeframe = map[model.Interval]model.Interval{
	model.Interval15m: model.Interval1h,
	model.Interval1h:  model.Interval4h,
	model.Interval4h:  model.Interval1d,
}

// ConfluenceManager scores how strongly multiple timeframes' latest
// analyses agree, weighted by the hierarchy above.
type ConfluenceManager struct{}

func NewConfluenceManager() *ConfluenceManager { return &ConfluenceManager{} }

// Analyze consumes the latest HybridAnalysisResult per timeframe (as
// provided by the orchestrator's cache) and computes a confluence score in
// [0,100], boosted 1.2x when every non-HOLD timeframe agrees on direction.
func (c *ConfluenceManager) Analyze(latest map[model.Interval]*model.HybridAnalysisResult, target model.Interval) (model.AnalyzerOutput, error) {
	targetResult, ok := latest[target]
	if !ok || targetResult == nil {
		return model.AnalyzerOutput{}, model.ErrInsufficientData
	}

	weightedSum, weightTotal := 0.0, 0.0
	nonHold := 0
	agreeing := 0

	for tf, weight := range timeframeWeights {
		result, ok := latest[tf]
		if !ok || result == nil {
			continue
		}
		weightTotal += weight
		match := 0.0
		if result.Signal == targetResult.Signal {
			match = 1.0
		}
		weightedSum += match * result.Confidence * weight

		if result.Signal != model.SignalHold {
			nonHold++
			if result.Signal == targetResult.Signal {
				agreeing++
			}
		}
	}

	score := 0.0
	if weightTotal > 0 {
		score = weightedSum / weightTotal * 100
	}

	if nonHold > 0 && agreeing == nonHold {
		score *= 1.2
	}
	if score > 100 {
		score = 100
	}

	parentConfirmed := true
	if parent, hasParent := parentTimeframe[target]; hasParent {
		if parentResult, ok := latest[parent]; ok && parentResult != nil {
			parentConfirmed = parentResult.Signal == targetResult.Signal || parentResult.Signal == model.SignalHold
		}
	}
	if !parentConfirmed {
		score *= 0.7
	}

	direction := model.TrendNeutral
	switch targetResult.Signal {
	case model.SignalBuy:
		direction = model.TrendBullish
	case model.SignalSell:
		direction = model.TrendBearish
	}

	return model.AnalyzerOutput{
		Signal:      targetResult.Signal,
		Confidence:  score / 100,
		Direction:   direction,
		Strength:    score,
		Description: "cross-timeframe confluence, hierarchy-weighted",
		Detail: map[string]interface{}{
			"parent_confirmed": parentConfirmed,
			"score":            score,
		},
	}, nil
}
