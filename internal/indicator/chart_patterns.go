package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// detectThreePattern recognizes Three White Soldiers (three consecutive
// bullish candles, each closing higher than the last, each body at least
// half the three-candle average) and its bearish mirror, Three Black Crows.
func detectThreePattern(a, b, c model.CandleF) (Pattern, bool) {
	bodies := [3]float64{body(a), body(b), body(c)}
	avgBody := (bodies[0] + bodies[1] + bodies[2]) / 3

	if isBullish(a) && isBullish(b) && isBullish(c) &&
		b.Close > a.Close && c.Close > b.Close &&
		bodies[0] > avgBody*0.5 && bodies[1] > avgBody*0.5 && bodies[2] > avgBody*0.5 {
		return Pattern{Name: "three_white_soldiers", Direction: PatternBullish, Confidence: 0.85, Description: "three consecutive rising bullish closes"}, true
	}
	if isBearish(a) && isBearish(b) && isBearish(c) &&
		b.Close < a.Close && c.Close < b.Close &&
		bodies[0] > avgBody*0.5 && bodies[1] > avgBody*0.5 && bodies[2] > avgBody*0.5 {
		return Pattern{Name: "three_black_crows", Direction: PatternBearish, Confidence: 0.85, Description: "three consecutive falling bearish closes"}, true
	}
	return Pattern{}, false
}

// detectDoublePattern scans the tail window for a repeated local high (Double
// Top) or local low (Double Bottom) within 2% of each other, the most recent
// pair found taking precedence over any earlier one.
func detectDoublePattern(candles []model.CandleF) (Pattern, bool) {
	if len(candles) < 20 {
		return Pattern{}, false
	}
	window := candles[len(candles)-20:]

	var highIdx, lowIdx []int
	for i := 1; i < len(window)-1; i++ {
		if window[i].High > window[i-1].High && window[i].High > window[i+1].High {
			highIdx = append(highIdx, i)
		}
		if window[i].Low < window[i-1].Low && window[i].Low < window[i+1].Low {
			lowIdx = append(lowIdx, i)
		}
	}

	if len(highIdx) >= 2 {
		h1, h2 := window[highIdx[len(highIdx)-2]].High, window[highIdx[len(highIdx)-1]].High
		if h1 != 0 && abs(h1-h2)/h1 < 0.02 {
			return Pattern{Name: "double_top", Direction: PatternBearish, Confidence: 0.7, Description: "two comparable local highs, reversal risk"}, true
		}
	}
	if len(lowIdx) >= 2 {
		l1, l2 := window[lowIdx[len(lowIdx)-2]].Low, window[lowIdx[len(lowIdx)-1]].Low
		if l1 != 0 && abs(l1-l2)/l1 < 0.02 {
			return Pattern{Name: "double_bottom", Direction: PatternBullish, Confidence: 0.7, Description: "two comparable local lows, reversal potential"}, true
		}
	}
	return Pattern{}, false
}

// detectTriangle fits a flat/rising/falling slope to the highs and lows of
// the last 10 candles: flat highs with rising lows is an ascending triangle,
// falling highs with flat lows a descending triangle, and falling highs with
// rising lows a symmetrical triangle awaiting a breakout.
func detectTriangle(candles []model.CandleF) (Pattern, bool) {
	if len(candles) < 10 {
		return Pattern{}, false
	}
	window := candles[len(candles)-10:]
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	for i, c := range window {
		highs[i] = c.High
		lows[i] = c.Low
	}
	highSlope := (highs[len(highs)-1] - highs[0]) / float64(len(highs))
	lowSlope := (lows[len(lows)-1] - lows[0]) / float64(len(lows))

	switch {
	case abs(highSlope) < 0.001 && lowSlope > 0:
		return Pattern{Name: "ascending_triangle", Direction: PatternBullish, Confidence: 0.65, Description: "flat resistance, rising support"}, true
	case highSlope < 0 && abs(lowSlope) < 0.001:
		return Pattern{Name: "descending_triangle", Direction: PatternBearish, Confidence: 0.65, Description: "falling resistance, flat support"}, true
	case highSlope < -0.001 && lowSlope > 0.001:
		return Pattern{Name: "symmetrical_triangle", Direction: PatternNeutral, Confidence: 0.6, Description: "converging highs and lows, breakout pending"}, true
	}
	return Pattern{}, false
}

// detectFlag looks for a 10-candle pole (a strong directional move, at least
// 60% of candles agreeing with its direction) followed by a 5-candle flag
// whose range consolidates to under half the pole's height. The direction
// of the flag candles themselves is not checked.
func detectFlag(candles []model.CandleF) (Pattern, bool) {
	if len(candles) < 15 {
		return Pattern{}, false
	}
	pole := candles[len(candles)-15 : len(candles)-5]
	flag := candles[len(candles)-5:]

	poleMove := pole[len(pole)-1].Close - pole[0].Open
	poleRange := abs(poleMove)
	if poleRange == 0 {
		return Pattern{}, false
	}

	flagHigh, flagLow := flag[0].High, flag[0].Low
	for _, c := range flag[1:] {
		if c.High > flagHigh {
			flagHigh = c.High
		}
		if c.Low < flagLow {
			flagLow = c.Low
		}
	}
	flagRange := flagHigh - flagLow
	if flagRange >= poleRange*0.5 {
		return Pattern{}, false
	}

	if poleMove > 0 {
		bullCount := 0
		for _, c := range pole {
			if isBullish(c) {
				bullCount++
			}
		}
		if float64(bullCount)/float64(len(pole)) < 0.6 {
			return Pattern{}, false
		}
		return Pattern{Name: "bull_flag", Direction: PatternBullish, Confidence: 0.7, Description: "tight consolidation after a strong rally"}, true
	}

	bearCount := 0
	for _, c := range pole {
		if isBearish(c) {
			bearCount++
		}
	}
	if float64(bearCount)/float64(len(pole)) < 0.6 {
		return Pattern{}, false
	}
	return Pattern{Name: "bear_flag", Direction: PatternBearish, Confidence: 0.7, Description: "tight consolidation after a strong decline"}, true
}

// detectBreakout compares the current close against the high/low range of
// the preceding 19 candles, firing when the close clears either edge.
func detectBreakout(candles []model.CandleF) (Pattern, bool) {
	if len(candles) < 20 {
		return Pattern{}, false
	}
	prior := candles[len(candles)-20 : len(candles)-1]
	current := candles[len(candles)-1]

	recentHigh, recentLow := prior[0].High, prior[0].Low
	for _, c := range prior[1:] {
		if c.High > recentHigh {
			recentHigh = c.High
		}
		if c.Low < recentLow {
			recentLow = c.Low
		}
	}

	if current.Close > recentHigh {
		return Pattern{Name: "resistance_breakout", Direction: PatternBullish, Confidence: 0.75, Description: "close clears the prior 19-candle high"}, true
	}
	if current.Close < recentLow {
		return Pattern{Name: "support_breakdown", Direction: PatternBearish, Confidence: 0.75, Description: "close clears the prior 19-candle low"}, true
	}
	return Pattern{}, false
}

// detectTrap scans the last 5 candles for a false breakout against the
// high/low range of the 15 candles before them: a bar that pokes past the
// prior range followed within the window by a close back inside it.
func detectTrap(candles []model.CandleF) (Pattern, bool) {
	if len(candles) < 20 {
		return Pattern{}, false
	}
	prior := candles[len(candles)-20 : len(candles)-5]
	recent := candles[len(candles)-5:]

	priorHigh, priorLow := prior[0].High, prior[0].Low
	for _, c := range prior[1:] {
		if c.High > priorHigh {
			priorHigh = c.High
		}
		if c.Low < priorLow {
			priorLow = c.Low
		}
	}

	for i := 0; i < len(recent)-1; i++ {
		if recent[i].High > priorHigh && recent[i+1].Close < priorHigh {
			return Pattern{Name: "bull_trap", Direction: PatternBearish, Confidence: 0.8, Description: "breakout above resistance failed and reversed"}, true
		}
	}
	for i := 0; i < len(recent)-1; i++ {
		if recent[i].Low < priorLow && recent[i+1].Close > priorLow {
			return Pattern{Name: "bear_trap", Direction: PatternBullish, Confidence: 0.8, Description: "breakdown below support failed and reversed"}, true
		}
	}
	return Pattern{}, false
}
