// Package orchestrator schedules the Gram, Global Trend, and Currency Risk
// Analyzers together with the hybrid sub-analyzers, once per timeframe,
// fusing their output through the Signal Combiner into a single persisted
// HybridAnalysisResult, dispatching one goroutine per due timeframe with
// bounded in-flight concurrency rather than a shared worker queue.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/analysis"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/hybrid"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

// defaultRequiredCandles is the minimum gram-candle count analyze_one needs
// per timeframe before it runs the full pipeline, used whenever New is given
// a nil override; acceptMinFraction relaxes that to "at least 60% of
// required" rather than demanding the exact minimum.
var defaultRequiredCandles = map[model.Interval]int{
	model.Interval15m: 35,
	model.Interval1h:  26,
	model.Interval4h:  20,
	model.Interval1d:  20,
}

const acceptMinFraction = 0.6

// ResultStore persists a HybridAnalysisResult durably. Implemented by
// internal/store; kept as a narrow interface here so the orchestrator does
// not import the storage layer directly.
type ResultStore interface {
	SaveHybridAnalysis(ctx context.Context, result *model.HybridAnalysisResult) error
}

// Orchestrator runs one independent analysis schedule per timeframe over a
// shared tick store, never letting one timeframe's failure affect another's.
type Orchestrator struct {
	ticks *tickstore.Store
	store ResultStore
	cache ResultCache
	log   *logging.Logger

	gram     *analysis.GramAnalyzer
	global   *analysis.GlobalTrendAnalyzer
	currency *analysis.CurrencyRiskAnalyzer

	divergence *hybrid.DivergenceManager
	momentum   *hybrid.MomentumManager
	structure  *hybrid.StructureManager
	smartMoney *hybrid.SmartMoneyManager
	confluence *hybrid.ConfluenceManager

	highCostMode    bool
	requiredCandles map[model.Interval]int

	mu               sync.Mutex
	lastAnalysisTime map[model.Interval]time.Time
	latest           map[model.Interval]*model.HybridAnalysisResult
	running          map[model.Interval]bool
}

// New wires an Orchestrator over the given tick store and result store. A
// nil cache is replaced with a 30s-TTL in-memory fallback. A nil
// candleRequirements uses defaultRequiredCandles; passing one lets the
// candle_requirements configuration input override the per-timeframe floor.
func New(ticks *tickstore.Store, store ResultStore, cache ResultCache, highCostMode bool, candleRequirements map[model.Interval]int) *Orchestrator {
	if cache == nil {
		cache = NewMemoryCache(30 * time.Second)
	}
	if candleRequirements == nil {
		candleRequirements = defaultRequiredCandles
	}
	return &Orchestrator{
		ticks:            ticks,
		store:            store,
		cache:            cache,
		log:              logging.WithComponent("orchestrator"),
		gram:             analysis.NewGramAnalyzer(),
		global:           analysis.NewGlobalTrendAnalyzer(),
		currency:         analysis.NewCurrencyRiskAnalyzer(),
		divergence:       hybrid.NewDivergenceManager(),
		momentum:         hybrid.NewMomentumManager(),
		structure:        hybrid.NewStructureManager(),
		smartMoney:       hybrid.NewSmartMoneyManager(),
		confluence:       hybrid.NewConfluenceManager(),
		highCostMode:     highCostMode,
		requiredCandles:  candleRequirements,
		lastAnalysisTime: make(map[model.Interval]time.Time, len(model.AllIntervals)),
		latest:           make(map[model.Interval]*model.HybridAnalysisResult, len(model.AllIntervals)),
		running:          make(map[model.Interval]bool, len(model.AllIntervals)),
	}
}

// Dispatch is the feed-facing entry point: a bounded worker pool keyed by
// timeframe, at most one in-flight analyzeOne per timeframe. It launches a
// goroutine for every due-and-not-already-running timeframe and returns
// immediately, so the tick feed's callback never blocks on analysis. A
// timeframe whose previous cycle is still running is skipped rather than
// queued, the same skip-not-queue policy due() already applies to timing.
func (o *Orchestrator) Dispatch(ctx context.Context, now time.Time) {
	for _, t := range model.AllIntervals {
		if !o.due(t, now) || !o.tryStart(t) {
			continue
		}
		t := t
		go func() {
			defer o.finish(t)
			defer func() {
				if r := recover(); r != nil {
					o.log.Warn("analyze_one panicked, recovering", "timeframe", t, "panic", r)
				}
			}()
			o.analyzeOne(ctx, t, now)
		}()
	}
}

func (o *Orchestrator) tryStart(t model.Interval) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[t] {
		return false
	}
	o.running[t] = true
	return true
}

func (o *Orchestrator) finish(t model.Interval) {
	o.mu.Lock()
	o.running[t] = false
	o.mu.Unlock()
}

// Analyze runs analyze_one(T) for every due timeframe and blocks until all of
// them finish; useful for tests and one-shot tooling that want a completed
// result before continuing. The feed's tick callback uses Dispatch instead,
// which returns immediately.
func (o *Orchestrator) Analyze(ctx context.Context, now time.Time) {
	var wg sync.WaitGroup
	for _, t := range model.AllIntervals {
		if !o.due(t, now) {
			continue
		}
		t := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					o.log.Warn("analyze_one panicked, recovering", "timeframe", t, "panic", r)
				}
			}()
			o.analyzeOne(ctx, t, now)
		}()
	}
	wg.Wait()
}

func (o *Orchestrator) due(t model.Interval, now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	last, ok := o.lastAnalysisTime[t]
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(t.Minutes())*time.Minute
}

func (o *Orchestrator) markRun(t model.Interval, now time.Time) {
	o.mu.Lock()
	o.lastAnalysisTime[t] = now
	o.mu.Unlock()
}

// analyzeOne runs the full gram/global/currency/hybrid analysis pipeline for a single timeframe.
// Analyzer failures (typically model.ErrInsufficientData) are logged at WARN
// and abort this cycle only; they never propagate to the feed callback.
func (o *Orchestrator) analyzeOne(ctx context.Context, t model.Interval, now time.Time) {
	o.markRun(t, now)

	need := o.requiredCandles[t]
	minAccept := int(float64(need) * acceptMinFraction)

	gramCandles := o.ticks.GramCandles(t.Minutes(), need)
	if len(gramCandles) < minAccept {
		o.log.Warn("insufficient gram candles, skipping cycle", "timeframe", t, "have", len(gramCandles), "need", minAccept)
		return
	}
	ounceCandles := o.ticks.Candles(t.Minutes(), need)
	if len(ounceCandles) < minAccept {
		o.log.Warn("insufficient ounce candles, skipping cycle", "timeframe", t, "have", len(ounceCandles), "need", minAccept)
		return
	}
	currencyCandles := o.ticks.CurrencyCandles(t.Minutes(), need)

	gramResult, err := o.gram.Analyze(gramCandles)
	if err != nil {
		o.log.Warn("gram analyzer failed", "timeframe", t, "error", err)
		return
	}
	globalResult, err := o.global.Analyze(ounceCandles)
	if err != nil {
		o.log.Warn("global trend analyzer failed", "timeframe", t, "error", err)
		return
	}

	currencyResult := &model.CurrencyRiskAnalysis{Level: model.RiskLow}
	if closes := closesOf(currencyCandles); len(closes) >= 21 {
		if res, err := o.currency.Analyze(closes); err == nil {
			currencyResult = res
		} else {
			o.log.Warn("currency risk analyzer failed, defaulting to LOW", "timeframe", t, "error", err)
		}
	}

	ounceFloats := model.CandlesToFloat(ounceCandles)
	gramFloats := model.CandlesToFloat(gramCandles)

	advanced := advancedIndicatorSignal(ounceFloats)
	pattern := patternSignal(gramFloats)

	divergenceOut, err := o.divergence.Analyze(gramFloats)
	if err != nil {
		o.log.Warn("divergence manager failed", "timeframe", t, "error", err)
		divergenceOut = model.AnalyzerOutput{Signal: model.SignalHold}
	}
	momentumOut, err := o.momentum.Analyze(gramFloats)
	if err != nil {
		o.log.Warn("momentum manager failed", "timeframe", t, "error", err)
		momentumOut = model.AnalyzerOutput{Signal: model.SignalHold}
	}
	nearestSupport, nearestResistance := nearestLevels(gramResult, gramFloats[len(gramFloats)-1].Close)
	smartMoneyOut, err := o.smartMoney.Analyze(gramFloats, nearestSupport, nearestResistance)
	if err != nil {
		o.log.Warn("smart money manager failed", "timeframe", t, "error", err)
		smartMoneyOut = model.AnalyzerOutput{Signal: model.SignalHold}
	}

	supportLevels, resistanceLevels := levelsOf(gramResult)
	structureOut, err := o.structure.Analyze(gramFloats, supportLevels, resistanceLevels)
	if err != nil {
		o.log.Warn("structure manager failed", "timeframe", t, "error", err)
		structureOut = model.AnalyzerOutput{Signal: model.SignalHold}
	}

	confluenceOut, err := o.confluence.Analyze(o.LatestAll(), t)
	if err != nil {
		confluenceOut = model.AnalyzerOutput{Signal: model.SignalHold, Description: "confluence unavailable this cycle"}
	}

	marketVolatility := volatilityPercent(globalResult)

	combinerOutput := hybrid.Combine(hybrid.CombinerInput{
		Timeframe:         t,
		Gram:              *gramResult,
		Global:            *globalResult,
		Currency:          *currencyResult,
		AdvancedIndicator: advanced,
		Pattern:           pattern,
		Divergence:        divergenceOut,
		Momentum:          momentumOut,
		SmartMoney:        smartMoneyOut,
		MarketVolatility:  marketVolatility,
		HighCostMode:      o.highCostMode,
	})

	result := &model.HybridAnalysisResult{
		Timestamp:            now,
		Timeframe:            t,
		GramPrice:            gramResult.Price,
		Signal:               combinerOutput.Signal,
		SignalStrength:       combinerOutput.Strength,
		Confidence:           combinerOutput.Confidence,
		PositionSize:         combinerOutput.Size,
		StopLoss:             gramResult.StopLoss,
		TakeProfit:           gramResult.TakeProfit,
		GlobalTrendDirection: globalResult.Trend,
		GlobalTrendStrength:  globalResult.Strength,
		CurrencyRiskLevel:    currencyResult.Level,
		Recommendations:      recommendationsFor(combinerOutput, gramResult, globalResult),
		Summary:              summaryFor(t, combinerOutput, gramResult, globalResult),
		Gram:                 *gramResult,
		Global:               *globalResult,
		Currency:             *currencyResult,
		Advanced: map[string]interface{}{
			"signal":            advanced.Signal,
			"confidence":        advanced.Confidence,
			"description":       advanced.Description,
			"structure":         structureOut.Detail,
			"confluence_score":  confluenceOut.Strength,
			"confluence_signal": confluenceOut.Signal,
		},
		Patterns: gramResult.Patterns,
	}
	if rr := riskRewardRatio(gramResult); rr != nil {
		result.RiskRewardRatio = rr
	}
	result.Recommendations = append(result.Recommendations, recommendationsFromStructure(structureOut)...)

	logging.SignalContext(string(t), string(result.Signal), result.Confidence).Info("analysis cycle complete")

	if o.store != nil {
		if err := o.store.SaveHybridAnalysis(ctx, result); err != nil {
			o.log.Warn("failed to persist hybrid analysis, keeping in-memory latest only", "timeframe", t, "error", err)
		}
	}

	o.mu.Lock()
	o.latest[t] = result
	o.mu.Unlock()
	o.cache.Set(ctx, t, result)
}

// Latest returns the most recent HybridAnalysisResult for a timeframe, or
// false if no cycle has completed yet. The cache is checked first so a
// caller reading through the orchestrator sees the same TTL'd view as any
// other cache client.
func (o *Orchestrator) Latest(ctx context.Context, t model.Interval) (*model.HybridAnalysisResult, bool) {
	if result, ok := o.cache.Get(ctx, t); ok {
		return result, true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	result, ok := o.latest[t]
	return result, ok
}

// LatestAll is used by the ConfluenceManager, which needs every timeframe's
// most recent result at once rather than one at a time.
func (o *Orchestrator) LatestAll() map[model.Interval]*model.HybridAnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[model.Interval]*model.HybridAnalysisResult, len(o.latest))
	for k, v := range o.latest {
		out[k] = v
	}
	return out
}

func closesOf(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		f, _ := c.Close.Float64()
		out[i] = f
	}
	return out
}

// advancedIndicatorSignal runs RSI/MACD/Bollinger/Stochastic over the
// ounce/USD series and reduces them to a majority-vote AnalyzerOutput, the
// "ounce/USD indicator signal" the Global Trend contribution is split 40%
// toward inside the combiner.
func advancedIndicatorSignal(candles []model.CandleF) model.AnalyzerOutput {
	bullish, bearish, total := 0, 0, 0

	if rsi, err := indicator.RSI(candles, 14, 30, 70); err == nil {
		total++
		switch {
		case rsi.Zone == indicator.RSIOversold:
			bullish++
		case rsi.Zone == indicator.RSIOverbought:
			bearish++
		}
	}
	if macd, err := indicator.MACD(candles, 12, 26, 9); err == nil {
		total++
		switch macd.Trend {
		case model.TrendBullish:
			bullish++
		case model.TrendBearish:
			bearish++
		}
	}
	if boll, err := indicator.Bollinger(candles, 20, 2.0); err == nil {
		total++
		switch boll.Position {
		case indicator.BollingerBelowLower, indicator.BollingerNearLower:
			bullish++
		case indicator.BollingerAboveUpper, indicator.BollingerNearUpper:
			bearish++
		}
	}
	if stoch, err := indicator.Stochastic(candles, 14, 3, 3); err == nil {
		total++
		switch stoch.Zone {
		case indicator.StochasticOversold:
			bullish++
		case indicator.StochasticOverbought:
			bearish++
		}
	}

	if total == 0 {
		return model.AnalyzerOutput{Signal: model.SignalHold, Direction: model.TrendNeutral, Description: "insufficient data for advanced indicators"}
	}

	switch {
	case bullish > bearish && float64(bullish)/float64(total) >= 0.5:
		return model.AnalyzerOutput{
			Signal:      model.SignalBuy,
			Confidence:  float64(bullish) / float64(total),
			Direction:   model.TrendBullish,
			Description: "majority of ounce/USD oscillators bullish",
		}
	case bearish > bullish && float64(bearish)/float64(total) >= 0.5:
		return model.AnalyzerOutput{
			Signal:      model.SignalSell,
			Confidence:  float64(bearish) / float64(total),
			Direction:   model.TrendBearish,
			Description: "majority of ounce/USD oscillators bearish",
		}
	default:
		return model.AnalyzerOutput{Signal: model.SignalHold, Direction: model.TrendNeutral, Confidence: 0.5, Description: "ounce/USD oscillators split"}
	}
}

// patternSignal reduces the strongest detected candlestick pattern on the
// gram-local series to an AnalyzerOutput for the combiner's pattern slice.
func patternSignal(candles []model.CandleF) model.AnalyzerOutput {
	patterns := indicator.DetectPatterns(candles)
	if len(patterns) == 0 {
		return model.AnalyzerOutput{Signal: model.SignalHold, Direction: model.TrendNeutral, Description: "no pattern detected"}
	}
	best := patterns[0]
	for _, p := range patterns[1:] {
		if p.Confidence > best.Confidence {
			best = p
		}
	}
	signal := model.SignalHold
	switch best.Direction {
	case indicator.PatternBullish:
		signal = model.SignalBuy
	case indicator.PatternBearish:
		signal = model.SignalSell
	}
	return model.AnalyzerOutput{
		Signal:      signal,
		Confidence:  best.Confidence,
		Direction:   model.TrendDirection(best.Direction),
		Description: best.Description,
		Detail:      map[string]interface{}{"pattern": best.Name},
	}
}

func nearestLevels(gram *model.GramAnalysis, price float64) (support, resistance float64) {
	for _, lvl := range gram.SupportLevels {
		f, _ := lvl.Level.Float64()
		if f <= price && f > support {
			support = f
		}
	}
	resistance = price * 1.05
	for _, lvl := range gram.ResistanceLevels {
		f, _ := lvl.Level.Float64()
		if f >= price && (resistance == price*1.05 || f < resistance) {
			resistance = f
		}
	}
	return support, resistance
}

func levelsOf(gram *model.GramAnalysis) (supports, resistances []float64) {
	for _, lvl := range gram.SupportLevels {
		f, _ := lvl.Level.Float64()
		supports = append(supports, f)
	}
	for _, lvl := range gram.ResistanceLevels {
		f, _ := lvl.Level.Float64()
		resistances = append(resistances, f)
	}
	return supports, resistances
}

func recommendationsFromStructure(out model.AnalyzerOutput) []string {
	var recs []string
	if broke, _ := out.Detail["structure_break"].(bool); broke {
		recs = append(recs, "Market structure just broke; treat existing structural bias cautiously.")
	}
	if pullback, _ := out.Detail["pullback_zone"].(bool); pullback {
		recs = append(recs, "Price is in a pullback zone near a key level; favors entries aligned with "+string(out.Direction)+" structure.")
	}
	return recs
}

func volatilityPercent(global *model.GlobalTrendAnalysis) float64 {
	switch global.Volatility {
	case "HIGH":
		return 3.5
	case "MEDIUM":
		return 2.0
	default:
		return 1.0
	}
}

func riskRewardRatio(gram *model.GramAnalysis) *float64 {
	if gram.StopLoss == nil || gram.TakeProfit == nil {
		return nil
	}
	price, _ := gram.Price.Float64()
	sl, _ := gram.StopLoss.Float64()
	tp, _ := gram.TakeProfit.Float64()
	risk := price - sl
	reward := tp - price
	if gram.Signal == model.SignalSell {
		risk = sl - price
		reward = price - tp
	}
	if risk <= 0 {
		return nil
	}
	rr := reward / risk
	return &rr
}

func recommendationsFor(out hybrid.CombinerOutput, gram *model.GramAnalysis, global *model.GlobalTrendAnalysis) []string {
	var recs []string
	if out.Overridden {
		recs = append(recs, "Signal driven by an override ("+out.Reason+"); post-filters were bypassed.")
	}
	if gram.Trend != global.Trend && gram.Trend != model.TrendNeutral && global.Trend != model.TrendNeutral {
		recs = append(recs, "Gram and global trend disagree; treat confidence as reduced.")
	}
	if out.Signal == model.SignalHold {
		recs = append(recs, "No actionable edge this cycle; hold existing positions.")
	}
	return recs
}

func summaryFor(t model.Interval, out hybrid.CombinerOutput, gram *model.GramAnalysis, global *model.GlobalTrendAnalysis) string {
	return string(t) + " " + string(out.Signal) + " (" + string(out.Strength) + "), gram=" + string(gram.Trend) + " global=" + string(global.Trend)
}
