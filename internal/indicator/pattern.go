package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// PatternDirection is which side of the market a candlestick pattern
// favors.
type PatternDirection string

const (
	PatternBullish PatternDirection = "BULLISH"
	PatternBearish PatternDirection = "BEARISH"
	PatternNeutral PatternDirection = "NEUTRAL"
)

// Pattern is one detected candlestick formation ending at the most recent
// candle in the window passed to DetectPatterns.
type Pattern struct {
	Name        string
	Direction   PatternDirection
	Confidence  float64 // [0,1]
	Description string
}

func body(c model.CandleF) float64   { return abs(c.Close - c.Open) }
func rng(c model.CandleF) float64    { return c.High - c.Low }
func upperWick(c model.CandleF) float64 {
	if c.Close > c.Open {
		return c.High - c.Close
	}
	return c.High - c.Open
}
func lowerWick(c model.CandleF) float64 {
	if c.Close > c.Open {
		return c.Open - c.Low
	}
	return c.Close - c.Low
}
func isBullish(c model.CandleF) bool { return c.Close > c.Open }
func isBearish(c model.CandleF) bool { return c.Close < c.Open }

// DetectPatterns runs every single-, multi-candle, and chart-geometry
// recognizer against candles and resolves conflicts: when both a bullish and
// a bearish pattern fire on the same close, the side with lower aggregate
// confidence has its confidence scaled by 0.8 rather than being discarded,
// so a dominant signal still shows through without hiding the conflicting
// read. Candlestick recognizers look only at the most recent one to three
// candles; chart-geometry recognizers (double top/bottom, triangles, flags,
// breakouts, traps) need a longer tail and silently no-op until it's
// available.
func DetectPatterns(candles []model.CandleF) []Pattern {
	if len(candles) < 2 {
		return nil
	}
	n := len(candles)
	last := candles[n-1]
	prev := candles[n-2]

	var found []Pattern

	if p, ok := detectHammer(last); ok {
		found = append(found, p)
	}
	if p, ok := detectShootingStar(last); ok {
		found = append(found, p)
	}
	if p, ok := detectDoji(last); ok {
		found = append(found, p)
	}
	if p, ok := detectEngulfing(prev, last); ok {
		found = append(found, p)
	}
	if p, ok := detectHarami(prev, last); ok {
		found = append(found, p)
	}
	if n >= 3 {
		first := candles[n-3]
		if p, ok := detectStar(first, prev, last); ok {
			found = append(found, p)
		}
		if p, ok := detectThreePattern(first, prev, last); ok {
			found = append(found, p)
		}
	}
	if p, ok := detectDoublePattern(candles); ok {
		found = append(found, p)
	}
	if p, ok := detectTriangle(candles); ok {
		found = append(found, p)
	}
	if p, ok := detectFlag(candles); ok {
		found = append(found, p)
	}
	if p, ok := detectBreakout(candles); ok {
		found = append(found, p)
	}
	if p, ok := detectTrap(candles); ok {
		found = append(found, p)
	}

	return resolveConflicts(found)
}

func resolveConflicts(patterns []Pattern) []Pattern {
	bullSum, bearSum := 0.0, 0.0
	for _, p := range patterns {
		switch p.Direction {
		case PatternBullish:
			bullSum += p.Confidence
		case PatternBearish:
			bearSum += p.Confidence
		}
	}
	if bullSum == 0 || bearSum == 0 {
		return patterns
	}
	losing := PatternBullish
	if bullSum > bearSum {
		losing = PatternBearish
	}
	out := make([]Pattern, len(patterns))
	for i, p := range patterns {
		if p.Direction == losing {
			p.Confidence *= 0.8
		}
		out[i] = p
	}
	return out
}

func detectHammer(c model.CandleF) (Pattern, bool) {
	r := rng(c)
	if r == 0 {
		return Pattern{}, false
	}
	b := body(c)
	lw := lowerWick(c)
	uw := upperWick(c)
	if lw >= b*2 && uw <= b*0.5 && b/r <= 0.4 {
		conf := clamp01(lw / r)
		return Pattern{Name: "hammer", Direction: PatternBullish, Confidence: conf, Description: "long lower wick rejection at the close"}, true
	}
	return Pattern{}, false
}

func detectShootingStar(c model.CandleF) (Pattern, bool) {
	r := rng(c)
	if r == 0 {
		return Pattern{}, false
	}
	b := body(c)
	lw := lowerWick(c)
	uw := upperWick(c)
	if uw >= b*2 && lw <= b*0.5 && b/r <= 0.4 {
		conf := clamp01(uw / r)
		return Pattern{Name: "shooting_star", Direction: PatternBearish, Confidence: conf, Description: "long upper wick rejection at the close"}, true
	}
	return Pattern{}, false
}

func detectDoji(c model.CandleF) (Pattern, bool) {
	r := rng(c)
	if r == 0 {
		return Pattern{}, false
	}
	if body(c)/r <= 0.1 {
		return Pattern{Name: "doji", Direction: PatternNeutral, Confidence: clamp01(1 - body(c)/r), Description: "open and close nearly equal, indecision"}, true
	}
	return Pattern{}, false
}

func detectEngulfing(prev, last model.CandleF) (Pattern, bool) {
	prevBody := body(prev)
	lastBody := body(last)
	if prevBody == 0 || lastBody <= prevBody {
		return Pattern{}, false
	}
	conf := clamp01(lastBody / (prevBody + lastBody))
	if isBearish(prev) && isBullish(last) && last.Close >= prev.Open && last.Open <= prev.Close {
		return Pattern{Name: "bullish_engulfing", Direction: PatternBullish, Confidence: conf, Description: "bullish body fully engulfs the prior bearish body"}, true
	}
	if isBullish(prev) && isBearish(last) && last.Open >= prev.Close && last.Close <= prev.Open {
		return Pattern{Name: "bearish_engulfing", Direction: PatternBearish, Confidence: conf, Description: "bearish body fully engulfs the prior bullish body"}, true
	}
	return Pattern{}, false
}

func detectHarami(prev, last model.CandleF) (Pattern, bool) {
	prevBody := body(prev)
	lastBody := body(last)
	if prevBody == 0 || lastBody >= prevBody*0.6 {
		return Pattern{}, false
	}
	within := last.Open <= maxF(prev.Open, prev.Close) && last.Open >= minF(prev.Open, prev.Close) &&
		last.Close <= maxF(prev.Open, prev.Close) && last.Close >= minF(prev.Open, prev.Close)
	if !within {
		return Pattern{}, false
	}
	conf := clamp01(1 - lastBody/prevBody)
	if isBearish(prev) && isBullish(last) {
		return Pattern{Name: "bullish_harami", Direction: PatternBullish, Confidence: conf, Description: "small bullish body contained within the prior bearish body"}, true
	}
	if isBullish(prev) && isBearish(last) {
		return Pattern{Name: "bearish_harami", Direction: PatternBearish, Confidence: conf, Description: "small bearish body contained within the prior bullish body"}, true
	}
	return Pattern{}, false
}

// detectStar recognizes morning star (bullish reversal: bearish, small-body
// gap-down, strong bullish closing into the first candle's body) and
// evening star (the mirror bearish reversal).
func detectStar(first, middle, last model.CandleF) (Pattern, bool) {
	firstBody := body(first)
	middleBody := body(middle)
	lastBody := body(last)
	if firstBody == 0 || middleBody >= firstBody*0.3 {
		return Pattern{}, false
	}
	midpoint := first.Open + (first.Close-first.Open)/2

	if isBearish(first) && isBullish(last) && last.Close > midpoint && lastBody >= firstBody*0.5 {
		return Pattern{Name: "morning_star", Direction: PatternBullish, Confidence: clamp01(lastBody / firstBody), Description: "small-body pause followed by a strong bullish reversal"}, true
	}
	if isBullish(first) && isBearish(last) && last.Close < midpoint && lastBody >= firstBody*0.5 {
		return Pattern{Name: "evening_star", Direction: PatternBearish, Confidence: clamp01(lastBody / firstBody), Description: "small-body pause followed by a strong bearish reversal"}, true
	}
	return Pattern{}, false
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
