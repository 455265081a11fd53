package indicator

import "github.com/sezginpak/gold-price-analyzer-sub001/internal/model"

// MFIResult is the Money Flow Index reading used only as a divergence
// input. When candles carry no volume (spot gold ticks have none), Value is
// a volatility-based proxy derived from ATR rather than true money flow,
// and Proxied is set so callers can discount it accordingly.
type MFIResult struct {
	Value   float64
	Proxied bool
}

// MFI computes a true Money Flow Index when candle volume is non-zero,
// falling back to an ATR-normalized proxy (scaled into the same [0,100]
// range as true MFI) when it is not.
func MFI(candles []model.CandleF, period int) (*MFIResult, error) {
	if len(candles) < period+1 {
		return nil, model.ErrInsufficientData
	}

	hasVolume := false
	for _, c := range candles {
		if c.Volume != 0 {
			hasVolume = true
			break
		}
	}

	if hasVolume {
		return mfiTrue(candles, period)
	}
	return mfiProxy(candles, period)
}

func typicalPrice(c model.CandleF) float64 {
	return (c.High + c.Low + c.Close) / 3
}

func mfiTrue(candles []model.CandleF, period int) (*MFIResult, error) {
	start := len(candles) - period - 1
	positiveFlow, negativeFlow := 0.0, 0.0
	for i := start + 1; i <= len(candles)-1; i++ {
		tpCur := typicalPrice(candles[i])
		tpPrev := typicalPrice(candles[i-1])
		flow := tpCur * candles[i].Volume
		if tpCur > tpPrev {
			positiveFlow += flow
		} else if tpCur < tpPrev {
			negativeFlow += flow
		}
	}
	if negativeFlow == 0 {
		return &MFIResult{Value: 100, Proxied: false}, nil
	}
	ratio := positiveFlow / negativeFlow
	value := 100 - 100/(1+ratio)
	return &MFIResult{Value: value, Proxied: false}, nil
}

func mfiProxy(candles []model.CandleF, period int) (*MFIResult, error) {
	atrResult, err := ATR(candles, period)
	if err != nil {
		return nil, err
	}
	rsiResult, err := RSI(candles, period, 30, 70)
	if err != nil {
		return nil, err
	}
	// Blend volatility expansion with directional bias so the proxy still
	// moves with over-bought/over-sold pressure rather than pure range.
	bias := rsiResult.Value
	volatilityPush := clamp01(atrResult.Percent/2) * 20
	value := clamp01((bias+volatilityPush)/120) * 100
	return &MFIResult{Value: value, Proxied: true}, nil
}
