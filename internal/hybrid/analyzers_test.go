package hybrid

import (
	"testing"
	"time"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

func candlesFromCloses(closes []float64) []model.CandleF {
	out := make([]model.CandleF, len(closes))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		out[i] = model.CandleF{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
		}
	}
	return out
}

func TestDivergenceManagerInsufficientDataBoundary(t *testing.T) {
	closes := make([]float64, 29)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if _, err := NewDivergenceManager().Analyze(candlesFromCloses(closes)); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with 29 candles, got %v", err)
	}

	closes = append(closes, 129)
	if _, err := NewDivergenceManager().Analyze(candlesFromCloses(closes)); err != nil {
		t.Errorf("expected success with 30 candles, got %v", err)
	}
}

// TestDivergenceManagerSustainedDeclineLeansBullish exercises a strictly
// declining 40-candle series: RSI and Stochastic both saturate into their
// oversold zones, which alone clears divScoreThreshold on the bullish side
// with nothing pushing the bearish side, so the manager must report a
// bullish-leaning (never bearish) read.
func TestDivergenceManagerSustainedDeclineLeansBullish(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 200 - float64(i)
	}
	out, err := NewDivergenceManager().Analyze(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Direction == model.TrendBearish || out.Signal == model.SignalSell {
		t.Errorf("expected a sustained decline to never register bearish divergence, got direction=%s signal=%s", out.Direction, out.Signal)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("expected confidence in [0,1], got %f", out.Confidence)
	}
}

func TestDivergenceManagerFlatSeriesHolds(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	out, err := NewDivergenceManager().Analyze(candlesFromCloses(closes))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Signal != model.SignalHold {
		t.Errorf("expected a flat series to hold, got %s", out.Signal)
	}
}

func TestMomentumManagerInsufficientDataBoundary(t *testing.T) {
	closes := make([]float64, 24)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if _, err := NewMomentumManager().Analyze(candlesFromCloses(closes)); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with 24 candles, got %v", err)
	}

	closes = append(closes, 124)
	if _, err := NewMomentumManager().Analyze(candlesFromCloses(closes)); err != nil {
		t.Errorf("expected success with 25 candles, got %v", err)
	}
}

// TestMomentumManagerLongBullishStreakFlagsBearishExhaustion builds a 30-candle
// run that closes above its open every bar, so consecutiveDirectional reports
// a long bullish streak; the expected reversal direction is bearish (the
// opposite of the momentum in force), never bullish.
func TestMomentumManagerLongBullishStreakFlagsBearishExhaustion(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	candles := candlesFromCloses(closes)
	for i := range candles {
		candles[i].Open = closes[i] - 0.3
		candles[i].Close = closes[i]
	}

	out, err := NewMomentumManager().Analyze(candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Direction != model.TrendBearish {
		t.Errorf("expected exhaustion direction BEARISH opposite a bullish streak, got %s", out.Direction)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("expected confidence in [0,1], got %f", out.Confidence)
	}
	if out.Signal == model.SignalSell && out.Confidence < 0.5 {
		t.Errorf("signal should only fire at confidence >= 0.5, got signal=%s confidence=%f", out.Signal, out.Confidence)
	}
}

func TestStructureManagerInsufficientDataBoundary(t *testing.T) {
	closes := make([]float64, 10)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	if _, err := NewStructureManager().Analyze(candlesFromCloses(closes), nil, nil); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with 10 candles (need 11), got %v", err)
	}

	closes = append(closes, 110)
	if _, err := NewStructureManager().Analyze(candlesFromCloses(closes), nil, nil); err != nil {
		t.Errorf("expected success with 11 candles, got %v", err)
	}
}

// TestStructureManagerStairStepUpIsBullish builds a stair-stepping series of
// higher highs and higher lows (each swing high and swing low exceeding the
// one before it), which must classify as a bullish structure.
func TestStructureManagerStairStepUpIsBullish(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []model.CandleF
	level := 100.0
	for step := 0; step < 6; step++ {
		for j := 0; j < 6; j++ {
			offset := 0.0
			if j == 3 {
				offset = 3 // a local peak every 6 bars, each higher than the last
			}
			idx := len(candles)
			candles = append(candles, model.CandleF{
				Timestamp: base.Add(time.Duration(idx) * time.Hour),
				Open:      level + offset,
				Close:     level + offset,
				High:      level + offset + 0.5,
				Low:       level + offset - 0.5,
			})
		}
		level += 2
	}

	out, err := NewStructureManager().Analyze(candles, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Direction == model.TrendBearish {
		t.Errorf("expected a stair-step-up series to never classify as bearish structure, got %s", out.Direction)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("expected confidence in [0,1], got %f", out.Confidence)
	}
}

func TestSmartMoneyManagerInsufficientDataBoundary(t *testing.T) {
	closes := []float64{100, 101, 102, 103}
	if _, err := NewSmartMoneyManager().Analyze(candlesFromCloses(closes), 0, 0); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with 4 candles, got %v", err)
	}

	closes = append(closes, 104)
	if _, err := NewSmartMoneyManager().Analyze(candlesFromCloses(closes), 0, 0); err != nil {
		t.Errorf("expected success with 5 candles, got %v", err)
	}
}

// TestSmartMoneyManagerDetectsBullishFairValueGap builds a 3-candle gap
// between candle 0's high and candle 2's low, unfilled by anything after,
// which DetectFVGs must report as a bullish fair-value gap.
func TestSmartMoneyManagerDetectsBullishFairValueGap(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := []model.CandleF{
		{Timestamp: base, Open: 100, Close: 100, High: 100.2, Low: 99.8},
		// big upper wick keeps this candle's High above candle 3's Low, so it
		// doesn't open a second fair-value gap of its own.
		{Timestamp: base.Add(time.Hour), Open: 101, Close: 101.5, High: 105, Low: 100.5},
		{Timestamp: base.Add(2 * time.Hour), Open: 103, Close: 104, High: 104.5, Low: 103},
		{Timestamp: base.Add(3 * time.Hour), Open: 104, Close: 104.2, High: 104.6, Low: 103.9},
		{Timestamp: base.Add(4 * time.Hour), Open: 104.2, Close: 104.4, High: 104.7, Low: 104},
	}
	mgr := NewSmartMoneyManager()
	gaps := mgr.DetectFVGs(candles)
	if len(gaps) != 1 {
		t.Fatalf("expected exactly one fair-value gap, got %d", len(gaps))
	}
	if gaps[0].Type != FVGBullish {
		t.Errorf("expected a bullish fair-value gap, got %s", gaps[0].Type)
	}
	if gaps[0].Filled {
		t.Errorf("expected the gap to remain unfilled by later candles, got filled")
	}

	out, err := mgr.Analyze(candles, 99, 105)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("expected manipulation score in [0,1], got %f", out.Confidence)
	}
}

func TestConfluenceManagerMissingTargetErrors(t *testing.T) {
	_, err := NewConfluenceManager().Analyze(map[model.Interval]*model.HybridAnalysisResult{}, model.Interval1h)
	if err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData when the target timeframe has no cached result, got %v", err)
	}
}

// TestConfluenceManagerAllTimeframesAgreeingBoosts confirms the 1.2x boost
// fires when every other cached timeframe shares the target's signal, and
// that the resulting confidence stays within [0,1] despite the boost.
func TestConfluenceManagerAllTimeframesAgreeingBoosts(t *testing.T) {
	agree := func(conf float64) *model.HybridAnalysisResult {
		return &model.HybridAnalysisResult{Signal: model.SignalBuy, Confidence: conf}
	}
	latest := map[model.Interval]*model.HybridAnalysisResult{
		model.Interval15m: agree(0.9),
		model.Interval1h:  agree(0.9),
		model.Interval4h:  agree(0.9),
		model.Interval1d:  agree(0.9),
	}

	out, err := NewConfluenceManager().Analyze(latest, model.Interval1h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Signal != model.SignalBuy {
		t.Errorf("expected confluence signal to mirror the target's BUY, got %s", out.Signal)
	}
	if out.Confidence <= 0.9 {
		t.Errorf("expected the all-agree boost to push confidence above the unweighted 0.9, got %f", out.Confidence)
	}
	if out.Confidence > 1 {
		t.Errorf("expected confidence clamped to at most 1, got %f", out.Confidence)
	}
}

// TestConfluenceManagerParentDisagreementPenalizes confirms a 4h target
// whose 1d parent disagrees gets the 0.7x penalty applied.
func TestConfluenceManagerParentDisagreementPenalizes(t *testing.T) {
	latest := map[model.Interval]*model.HybridAnalysisResult{
		model.Interval4h: {Signal: model.SignalBuy, Confidence: 0.8},
		model.Interval1d: {Signal: model.SignalSell, Confidence: 0.8},
	}
	withParent, err := NewConfluenceManager().Analyze(latest, model.Interval4h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agreeing := map[model.Interval]*model.HybridAnalysisResult{
		model.Interval4h: {Signal: model.SignalBuy, Confidence: 0.8},
		model.Interval1d: {Signal: model.SignalBuy, Confidence: 0.8},
	}
	withAgreeingParent, err := NewConfluenceManager().Analyze(agreeing, model.Interval4h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if withParent.Confidence >= withAgreeingParent.Confidence {
		t.Errorf("expected a disagreeing parent timeframe to score lower than an agreeing one, got %f vs %f", withParent.Confidence, withAgreeingParent.Confidence)
	}
}
