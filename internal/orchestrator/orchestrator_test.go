package orchestrator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

func seedTicks(t *testing.T, store *tickstore.Store, start time.Time, n int, stepSeconds int) {
	t.Helper()
	base := 2000.0
	for i := 0; i < n; i++ {
		// a gentle uptrend with small oscillation, enough to give every
		// indicator a non-degenerate series to work with.
		price := base + float64(i)*0.6 + math.Sin(float64(i)/3.0)*4
		tick := model.Tick{
			Timestamp: start.Add(time.Duration(i*stepSeconds) * time.Second),
			OnsUSD:    decimal.NewFromFloat(price),
			USDLocal:  decimal.NewFromFloat(32.5 + math.Sin(float64(i)/7.0)*0.2),
			OnsLocal:  decimal.NewFromFloat(price * 32.5),
			GramLocal: decimal.NewFromFloat(price * 32.5 / 31.1035),
			Source:    model.SourceDemo,
		}
		if err := store.Append(tick); err != nil {
			t.Fatalf("unexpected append error at tick %d: %v", i, err)
		}
	}
}

func TestAnalyzeSkipsTimeframeWithInsufficientCandles(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTicks(t, store, start, 10, 60) // far fewer than any timeframe's 60%-of-required floor

	o := New(store, nil, nil, false, nil)
	o.Analyze(context.Background(), start.Add(10*time.Minute))

	if _, ok := o.Latest(context.Background(), model.Interval15m); ok {
		t.Fatal("expected no result for 15m with only 10 one-minute ticks")
	}
}

func TestAnalyzeProducesResultOnceEnoughCandlesExist(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	// 15m needs 35 candles * 15 buckets = enough one-minute ticks to fill
	// at least ceil(35*0.6)=21 buckets; generate comfortably more.
	seedTicks(t, store, start, 40*15, 60)

	o := New(store, nil, nil, false, nil)
	now := start.Add(time.Duration(40*15) * time.Minute)
	o.Analyze(context.Background(), now)

	result, ok := o.Latest(context.Background(), model.Interval15m)
	if !ok {
		t.Fatal("expected a 15m result once enough candles exist")
	}
	if result.Timeframe != model.Interval15m {
		t.Errorf("expected timeframe 15m, got %s", result.Timeframe)
	}
	switch result.Signal {
	case model.SignalBuy, model.SignalSell, model.SignalHold:
	default:
		t.Errorf("unexpected signal value %q", result.Signal)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence out of [0,1]: %v", result.Confidence)
	}
}

func TestAnalyzeDoesNotRescheduleBeforeIntervalElapses(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTicks(t, store, start, 40*15, 60)

	o := New(store, nil, nil, false, nil)
	now := start.Add(time.Duration(40*15) * time.Minute)
	o.Analyze(context.Background(), now)

	first, ok := o.Latest(context.Background(), model.Interval15m)
	if !ok {
		t.Fatal("expected an initial 15m result")
	}

	// Re-running a second later should not touch 15m's last_analysis_time
	// again since the 15m interval has not elapsed.
	o.Analyze(context.Background(), now.Add(1*time.Second))
	second, ok := o.Latest(context.Background(), model.Interval15m)
	if !ok {
		t.Fatal("expected the 15m result to still be present")
	}
	if !second.Timestamp.Equal(first.Timestamp) {
		t.Errorf("expected analyze to skip a not-yet-due timeframe, got new timestamp %v vs %v", second.Timestamp, first.Timestamp)
	}
}

func TestDispatchReturnsImmediatelyAndEventuallyProducesAResult(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTicks(t, store, start, 40*15, 60)

	o := New(store, nil, nil, false, nil)
	now := start.Add(time.Duration(40*15) * time.Minute)

	dispatchStart := time.Now()
	o.Dispatch(context.Background(), now)
	if elapsed := time.Since(dispatchStart); elapsed > 50*time.Millisecond {
		t.Fatalf("expected Dispatch to return promptly, took %v", elapsed)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := o.Latest(context.Background(), model.Interval15m); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected a 15m result to eventually appear after Dispatch")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDispatchSkipsTimeframeAlreadyRunning(t *testing.T) {
	store := tickstore.New()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedTicks(t, store, start, 40*15, 60)

	o := New(store, nil, nil, false, nil)
	now := start.Add(time.Duration(40*15) * time.Minute)

	if !o.tryStart(model.Interval15m) {
		t.Fatal("expected tryStart to succeed the first time")
	}
	o.Dispatch(context.Background(), now)
	time.Sleep(200 * time.Millisecond)
	if _, ok := o.Latest(context.Background(), model.Interval15m); ok {
		t.Fatal("expected Dispatch to skip 15m while a cycle for it is already in flight")
	}
	if o.tryStart(model.Interval15m) {
		t.Fatal("expected a second tryStart to be refused while the timeframe is in flight")
	}
	o.finish(model.Interval15m)
	if !o.tryStart(model.Interval15m) {
		t.Fatal("expected tryStart to succeed again after finish")
	}
}

func TestMemoryCacheExpiresAfterTTL(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	ctx := context.Background()
	result := &model.HybridAnalysisResult{Timeframe: model.Interval1h, Signal: model.SignalHold}

	cache.Set(ctx, model.Interval1h, result)
	if _, ok := cache.Get(ctx, model.Interval1h); !ok {
		t.Fatal("expected a cache hit immediately after Set")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := cache.Get(ctx, model.Interval1h); ok {
		t.Fatal("expected the cache entry to have expired")
	}
}
