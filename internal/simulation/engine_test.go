package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

// fakeAnalyses lets a test script exactly which HybridAnalysisResult the
// engine sees per timeframe on a given cycle.
type fakeAnalyses struct {
	results map[model.Interval]*model.HybridAnalysisResult
}

func (f *fakeAnalyses) Latest(_ context.Context, t model.Interval) (*model.HybridAnalysisResult, bool) {
	r, ok := f.results[t]
	return r, ok
}

func baseConfig() model.SimulationConfig {
	return model.SimulationConfig{
		Name:                   "test",
		StrategyType:           model.StrategyMain,
		InitialCapitalGrams:    decimal.NewFromInt(1000),
		MinConfidence:          0.6,
		MaxRiskPerTrade:        0.02,
		MaxDailyRisk:           0.02,
		SpreadLocal:            decimal.NewFromFloat(5),
		CommissionRate:         0.001,
		TradingHoursEnforced:   false,
		ATRMultiplierSL:        1.5,
		RiskRewardRatio:        2.0,
		TrailingStopActivation: 0.5,
		TrailingStopDistance:   0.3,
		TimeLimitsHours:        map[model.Interval]int{model.Interval1h: 24},
	}
}

func newSimulation(cfg model.SimulationConfig) *model.Simulation {
	capital := cfg.InitialCapitalGrams
	return &model.Simulation{
		ID:             "sim-1",
		Config:         cfg,
		Status:         model.SimulationActive,
		CurrentCapital: capital,
		TimeframeCapitals: map[model.Interval]*model.TimeframeCapital{
			model.Interval1h: {
				Timeframe:        model.Interval1h,
				AllocatedCapital: capital,
				CurrentCapital:   capital,
			},
		},
	}
}

func buyResult(confidence float64, rsiValue float64, atrValue float64) *model.HybridAnalysisResult {
	return &model.HybridAnalysisResult{
		Timeframe:  model.Interval1h,
		Signal:     model.SignalBuy,
		Confidence: confidence,
		Gram: model.GramAnalysis{
			Indicators: map[string]interface{}{
				"rsi": &indicator.RSIResult{Value: rsiValue, Zone: indicator.RSINeutral},
				"atr": &indicator.ATRResult{Value: atrValue},
			},
		},
	}
}

func TestEngineOpensPositionOnBuySignal(t *testing.T) {
	store := tickstore.New()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Append(model.Tick{
		Timestamp: now,
		OnsUSD:    decimal.NewFromFloat(2000),
		USDLocal:  decimal.NewFromFloat(32.5),
		OnsLocal:  decimal.NewFromFloat(65000),
		GramLocal: decimal.NewFromFloat(2090),
		Source:    model.SourceDemo,
	}); err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}

	analyses := &fakeAnalyses{results: map[model.Interval]*model.HybridAnalysisResult{
		model.Interval1h: buyResult(0.75, 50, 8),
	}}

	sim := newSimulation(baseConfig())
	e := New(store, analyses, nil, nil)
	e.Register(sim)

	e.RunCycle(context.Background(), now)

	tc := sim.TimeframeCapitals[model.Interval1h]
	if !tc.InPosition {
		t.Fatal("expected a position to have opened on a qualifying BUY signal")
	}
	positions := e.OpenPositions(sim.ID)
	if len(positions) != 1 {
		t.Fatalf("expected exactly one open position, got %d", len(positions))
	}
	pos := positions[0]
	if pos.PositionType != model.PositionLong {
		t.Errorf("expected a LONG position for a BUY signal, got %s", pos.PositionType)
	}
	size, _ := pos.PositionSizeGrams.Float64()
	if size <= 0 {
		t.Errorf("expected a positive position size, got %v", size)
	}
	entry, _ := pos.EntryPrice.Float64()
	if entry != 2090 {
		t.Errorf("expected entry price 2090, got %v", entry)
	}
}

func TestEngineSkipsOpenBelowConfidenceThreshold(t *testing.T) {
	store := tickstore.New()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	store.Append(model.Tick{
		Timestamp: now, OnsUSD: decimal.NewFromFloat(2000), USDLocal: decimal.NewFromFloat(32.5),
		OnsLocal: decimal.NewFromFloat(65000), GramLocal: decimal.NewFromFloat(2090), Source: model.SourceDemo,
	})

	analyses := &fakeAnalyses{results: map[model.Interval]*model.HybridAnalysisResult{
		model.Interval1h: buyResult(0.4, 50, 8), // below MinConfidence
	}}

	sim := newSimulation(baseConfig())
	e := New(store, analyses, nil, nil)
	e.Register(sim)
	e.RunCycle(context.Background(), now)

	if sim.TimeframeCapitals[model.Interval1h].InPosition {
		t.Fatal("expected no position to open below the confidence threshold")
	}
}

func TestEngineClosesPositionOnStopLossTouch(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	store.Append(model.Tick{
		Timestamp: start, OnsUSD: decimal.NewFromFloat(2000), USDLocal: decimal.NewFromFloat(32.5),
		OnsLocal: decimal.NewFromFloat(65000), GramLocal: decimal.NewFromFloat(2090), Source: model.SourceDemo,
	})

	analyses := &fakeAnalyses{results: map[model.Interval]*model.HybridAnalysisResult{
		model.Interval1h: buyResult(0.75, 50, 8),
	}}

	sim := newSimulation(baseConfig())
	e := New(store, analyses, nil, nil)
	e.Register(sim)
	e.RunCycle(context.Background(), start)

	positions := e.OpenPositions(sim.ID)
	if len(positions) != 1 {
		t.Fatalf("expected a position to have opened, got %d", len(positions))
	}
	stopLoss, _ := positions[0].StopLoss.Float64()

	// A later tick dropping below the stop-loss level should close it on
	// the next cycle.
	later := start.Add(5 * time.Minute)
	store.Append(model.Tick{
		Timestamp: later, OnsUSD: decimal.NewFromFloat(1900), USDLocal: decimal.NewFromFloat(32.5),
		OnsLocal: decimal.NewFromFloat(61750), GramLocal: decimal.NewFromFloat(stopLoss - 1), Source: model.SourceDemo,
	})

	e.RunCycle(context.Background(), later)

	tc := sim.TimeframeCapitals[model.Interval1h]
	if tc.InPosition {
		t.Fatal("expected the position to have closed on a stop-loss touch")
	}
	if len(e.OpenPositions(sim.ID)) != 0 {
		t.Fatal("expected no open positions remaining")
	}
}

func TestEvaluateExitPrecedenceStopLossBeforeTakeProfit(t *testing.T) {
	cfg := baseConfig()
	pos := &model.SimulationPosition{
		PositionType: model.PositionLong,
		Timeframe:    model.Interval1h,
		EntryTime:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		StopLoss:     decimal.NewFromFloat(100),
		TakeProfit:   decimal.NewFromFloat(120),
	}
	// price below both the stop-loss and (hypothetically) anything else:
	// stop-loss must win precedence.
	reason, exitPrice, matched := evaluateExit(cfg, pos, nil, 99, pos.EntryTime.Add(time.Minute))
	if !matched {
		t.Fatal("expected a match when price is below stop-loss")
	}
	if reason != model.ExitStopLoss {
		t.Errorf("expected ExitStopLoss, got %s", reason)
	}
	if exitPrice != 100 {
		t.Errorf("expected exit at the stop-loss level 100, got %v", exitPrice)
	}
}

func TestEvaluateExitTimeLimit(t *testing.T) {
	cfg := baseConfig()
	entry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	pos := &model.SimulationPosition{
		PositionType: model.PositionLong,
		Timeframe:    model.Interval1h,
		EntryTime:    entry,
		StopLoss:     decimal.NewFromFloat(90),
		TakeProfit:   decimal.NewFromFloat(130),
	}
	reason, _, matched := evaluateExit(cfg, pos, nil, 105, entry.Add(25*time.Hour))
	if !matched || reason != model.ExitTimeLimit {
		t.Fatalf("expected ExitTimeLimit after the configured holding period, got %v matched=%v", reason, matched)
	}
}

func TestArmTrailingStopRatchetsOnlyFavorably(t *testing.T) {
	cfg := baseConfig()
	pos := &model.SimulationPosition{
		PositionType: model.PositionLong,
		EntryPrice:   decimal.NewFromFloat(100),
		TakeProfit:   decimal.NewFromFloat(120), // gain of 20 at TP
		MaxProfit:    decimal.Zero,
	}

	// Below activation (0.5 * 20 = 10 gain needed): no trailing stop yet.
	armTrailingStop(cfg, pos, 105)
	if pos.TrailingStop != nil {
		t.Fatal("expected no trailing stop before the activation threshold")
	}

	// At gain 12 (>= 10), trailing stop should arm.
	armTrailingStop(cfg, pos, 112)
	if pos.TrailingStop == nil {
		t.Fatal("expected the trailing stop to arm once gain reached the activation threshold")
	}
	firstLevel, _ := pos.TrailingStop.Float64()

	// Price retreats: trailing stop must not move backward.
	armTrailingStop(cfg, pos, 108)
	afterRetreat, _ := pos.TrailingStop.Float64()
	if afterRetreat != firstLevel {
		t.Errorf("expected the trailing stop to hold at %v on a retreat, got %v", firstLevel, afterRetreat)
	}

	// New high: trailing stop should ratchet up.
	armTrailingStop(cfg, pos, 118)
	afterNewHigh, _ := pos.TrailingStop.Float64()
	if afterNewHigh <= firstLevel {
		t.Errorf("expected the trailing stop to ratchet up past %v, got %v", firstLevel, afterNewHigh)
	}
}

func TestDailyLossBreakerTripsAndResetsNextDay(t *testing.T) {
	breaker := newDailyLossBreaker(0.02)
	day1 := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	capital := decimal.NewFromInt(1000)

	if !breaker.Check(day1, decimal.Zero, capital) {
		t.Fatal("expected trading to be allowed before any daily loss")
	}
	if !breaker.Check(day1, decimal.NewFromInt(-15), capital) {
		t.Fatal("expected a 1.5% daily loss to stay under a 2% guard")
	}

	if breaker.Check(day1, decimal.NewFromInt(-25), capital) {
		t.Fatal("expected the breaker to trip once daily loss breaches 2% of capital")
	}
	if tripped, _ := breaker.Tripped(); !tripped {
		t.Fatal("expected Tripped() to report true after a trip")
	}

	day2 := day1.Add(24 * time.Hour)
	if !breaker.Check(day2, decimal.Zero, capital) {
		t.Fatal("expected the breaker to reset automatically on the next UTC day")
	}
}
