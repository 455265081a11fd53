package indicator

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

func TestRSIMonotonicIncreaseSaturatesAtHundred(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	result, err := RSI(candlesFromCloses(closes), 14, 30, 70)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Value != 100 {
		t.Errorf("expected RSI 100 on a strictly increasing series, got %f", result.Value)
	}
}

func TestRSIInsufficientDataBoundary(t *testing.T) {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	if _, err := RSI(candlesFromCloses(closes), 14, 30, 70); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with exactly period points, got %v", err)
	}

	closes = append(closes, 15)
	if _, err := RSI(candlesFromCloses(closes), 14, 30, 70); err != nil {
		t.Errorf("expected success with period+1 points, got %v", err)
	}
}

func TestMACDHistogramPositiveAfterSharpRecovery(t *testing.T) {
	// Build a series that dips then sharply recovers so the MACD
	// histogram is positive by the final bar.
	closes := make([]float64, 0, 60)
	for i := 0; i < 40; i++ {
		closes = append(closes, 100-float64(i)*0.5)
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, closes[len(closes)-1]+float64(i)*1.5)
	}

	result, err := MACD(candlesFromCloses(closes), 12, 26, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Histogram <= 0 {
		t.Errorf("expected a positive histogram after the sharp recovery, got %f", result.Histogram)
	}
}

func TestATRInsufficientDataBoundary(t *testing.T) {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = 100
	}
	if _, err := ATR(candlesFromCloses(closes), 14); err != model.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData with exactly period points, got %v", err)
	}
}

func TestStochasticFlatSeriesMidpoint(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	result, err := Stochastic(candlesFromCloses(closes), 14, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PercentK != 50 {
		t.Errorf("expected %%K at the midpoint 50 for a flat series, got %f", result.PercentK)
	}
}

func TestDetectPatternsHammerOnSharpLowerWick(t *testing.T) {
	candles := []model.CandleF{
		{Open: 100, High: 101, Low: 99, Close: 100.5},
		{Open: 99, High: 99.05, Low: 95, Close: 98.8},
	}
	patterns := DetectPatterns(candles)
	found := false
	for _, p := range patterns {
		if p.Name == "hammer" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a hammer pattern on a long-lower-wick candle, got %+v", patterns)
	}
}
