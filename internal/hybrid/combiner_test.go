package hybrid

import (
	"testing"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

func baseCombinerInput() CombinerInput {
	return CombinerInput{
		Timeframe:        model.Interval1d,
		MarketVolatility: 1.0,
		Global:           model.GlobalTrendAnalysis{Trend: model.TrendBearish},
		Currency:         model.CurrencyRiskAnalysis{Level: model.RiskLow},
	}
}

func TestApplyPostFiltersSellExtremeRiskBelowConfidenceHolds(t *testing.T) {
	in := baseCombinerInput()
	in.Global.Trend = model.TrendBearish
	in.Currency.Level = model.RiskExtreme

	signal, confidence := applyPostFilters(in, model.SignalSell, 0.80, 0)
	if signal != model.SignalHold {
		t.Fatalf("expected a SELL below 0.85 confidence in EXTREME risk to become HOLD, got %s (conf=%.3f)", signal, confidence)
	}
}

func TestApplyPostFiltersSellExtremeRiskAtConfidenceSurvives(t *testing.T) {
	in := baseCombinerInput()
	in.Global.Trend = model.TrendBearish
	in.Currency.Level = model.RiskExtreme

	signal, _ := applyPostFilters(in, model.SignalSell, 0.85, 0)
	if signal != model.SignalSell {
		t.Fatalf("expected a SELL at exactly 0.85 confidence in EXTREME risk to survive, got %s", signal)
	}
}

// TestApplyPostFiltersBuyBearishLowDipScoreGetsPenaltyNotHold pins the
// dip_score=0.39 boundary: a BUY against a BEARISH global trend with a dip
// score below the override threshold must still come through as a BUY with
// the global-trend mismatch penalty applied, not be converted to HOLD by
// the trend-alignment filter before the penalty filter ever runs.
func TestApplyPostFiltersBuyBearishLowDipScoreGetsPenaltyNotHold(t *testing.T) {
	in := baseCombinerInput()
	in.Global.Trend = model.TrendBearish

	const confidence = 0.9
	const dipScore = 0.39

	signal, got := applyPostFilters(in, model.SignalBuy, confidence, dipScore)
	if signal != model.SignalBuy {
		t.Fatalf("expected BUY with a below-threshold dip score to survive as BUY with a penalty, got %s", signal)
	}
	want := confidence * mismatchPenalty
	if got != want {
		t.Errorf("expected mismatch penalty to scale confidence to %.4f, got %.4f", want, got)
	}
}

// TestApplyPostFiltersBuyNeutralTrendHolds confirms a BUY against a
// NEUTRAL global trend (no dip-detection context to fall back on) is still
// held outright by the trend-alignment filter.
func TestApplyPostFiltersBuyNeutralTrendHolds(t *testing.T) {
	in := baseCombinerInput()
	in.Global.Trend = model.TrendNeutral

	signal, _ := applyPostFilters(in, model.SignalBuy, 0.9, 0)
	if signal != model.SignalHold {
		t.Fatalf("expected BUY against a NEUTRAL trend with no dip score to become HOLD, got %s", signal)
	}
}

// TestCombineDipScoreBoundaryTriggersOverrideAtPointFour pins the other
// half of the dip_score=0.39/0.40 boundary: 0.40 must fire the dip override
// (bypassing the post-filter chain entirely), while just below it must not.
func TestCombineDipScoreBoundaryTriggersOverrideAtPointFour(t *testing.T) {
	makeInput := func(dipComponent float64) CombinerInput {
		return CombinerInput{
			Timeframe:        model.Interval1d,
			MarketVolatility: 1.0,
			Gram:             model.GramAnalysis{Signal: model.SignalHold, Confidence: 0},
			Global:           model.GlobalTrendAnalysis{Trend: model.TrendBearish, Signal: model.SignalHold},
			Currency:         model.CurrencyRiskAnalysis{Level: model.RiskLow},
			Momentum:         model.AnalyzerOutput{Confidence: dipComponent},
			SmartMoney:       model.AnalyzerOutput{Confidence: dipComponent},
		}
	}

	below := Combine(makeInput(0.975)) // dipScore = 0.20*0.975*2 = 0.39
	if below.Overridden || below.Reason == "dip_override" {
		t.Errorf("expected dip_score=0.39 to not trigger the override, got overridden=%v reason=%s", below.Overridden, below.Reason)
	}

	at := Combine(makeInput(1.0)) // dipScore = 0.20*1.0*2 = 0.40
	if !at.Overridden || at.Reason != "dip_override" || at.Signal != model.SignalBuy {
		t.Errorf("expected dip_score=0.40 to trigger a dip_override BUY, got signal=%s overridden=%v reason=%s", at.Signal, at.Overridden, at.Reason)
	}
}

func TestCombineGramOverrideBypassesFilters(t *testing.T) {
	in := CombinerInput{
		Timeframe:        model.Interval15m,
		MarketVolatility: 0.01, // would fail the volatility floor if filters ran
		Gram:             model.GramAnalysis{Signal: model.SignalBuy, Confidence: 0.9},
		Global:           model.GlobalTrendAnalysis{Trend: model.TrendBearish},
		Currency:         model.CurrencyRiskAnalysis{Level: model.RiskLow},
	}
	out := Combine(in)
	if !out.Overridden || out.Reason != "gram_override" || out.Signal != model.SignalBuy {
		t.Errorf("expected a high-confidence gram signal to override regardless of filters, got %+v", out)
	}
	if out.Confidence != 0.9 {
		t.Errorf("expected gram override confidence to pass through unchanged, got %.3f", out.Confidence)
	}
}

func TestPositionSizeClampedToBounds(t *testing.T) {
	size := positionSize(model.RiskExtreme, 0)
	if size.Lots < 0.2 || size.Lots > 0.8 {
		t.Errorf("expected lots within [0.2, 0.8], got %.3f", size.Lots)
	}
	if size.Multiplier != 0.5 {
		t.Errorf("expected EXTREME risk multiplier 0.5, got %.3f", size.Multiplier)
	}
}
