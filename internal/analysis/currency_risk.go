package analysis

import (
	"math"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// CurrencyRiskAnalyzer bands the USD/local exchange-rate volatility the
// Signal Combiner uses to damp confidence and force HOLD under stress.
type CurrencyRiskAnalyzer struct{}

func NewCurrencyRiskAnalyzer() *CurrencyRiskAnalyzer { return &CurrencyRiskAnalyzer{} }

// Analyze computes volatility from the last 20 local-currency closes
// (USD/local, not ounce/USD) and bands it into a risk level.
func (a *CurrencyRiskAnalyzer) Analyze(usdLocalCloses []float64) (*model.CurrencyRiskAnalysis, error) {
	if len(usdLocalCloses) < 2 {
		return nil, model.ErrInsufficientData
	}
	window := usdLocalCloses
	if len(window) > 20 {
		window = window[len(window)-20:]
	}

	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns = append(returns, (window[i]-window[i-1])/window[i-1]*100)
	}
	if len(returns) == 0 {
		return &model.CurrencyRiskAnalysis{Level: model.RiskLow, Volatility: 0}, nil
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	stdev := math.Sqrt(variance / float64(len(returns)))

	level := model.RiskLow
	switch {
	case stdev >= 3:
		level = model.RiskExtreme
	case stdev >= 1.5:
		level = model.RiskHigh
	case stdev >= 0.5:
		level = model.RiskMedium
	}

	return &model.CurrencyRiskAnalysis{Level: level, Volatility: stdev}, nil
}
