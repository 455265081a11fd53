package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// fakeHybridRow stands in for a pgx.Row/pgx.Rows over a hybrid_analysis
// record, letting scanHybridAnalysis's JSON-unmarshal logic be exercised
// without a live database connection.
type fakeHybridRow struct {
	timestamp            time.Time
	timeframe            model.Interval
	gramPrice            decimal.Decimal
	signal               model.SignalType
	signalStrength       model.SignalStrength
	confidence           float64
	positionSizeJSON     []byte
	stopLoss             *decimal.Decimal
	takeProfit           *decimal.Decimal
	riskRewardRatio      *float64
	globalTrend          model.TrendDirection
	globalTrendStrength  model.TrendStrength
	currencyRiskLevel    model.RiskLevel
	recommendationsJSON  []byte
	summary              string
	gramJSON             []byte
	globalJSON           []byte
	currencyJSON         []byte
	advancedJSON         []byte
	patternJSON          []byte
}

func (f *fakeHybridRow) Scan(dest ...interface{}) error {
	*dest[0].(*time.Time) = f.timestamp
	*dest[1].(*model.Interval) = f.timeframe
	*dest[2].(*decimal.Decimal) = f.gramPrice
	*dest[3].(*model.SignalType) = f.signal
	*dest[4].(*model.SignalStrength) = f.signalStrength
	*dest[5].(*float64) = f.confidence
	*dest[6].(*[]byte) = f.positionSizeJSON
	*dest[7].(**decimal.Decimal) = f.stopLoss
	*dest[8].(**decimal.Decimal) = f.takeProfit
	*dest[9].(**float64) = f.riskRewardRatio
	*dest[10].(*model.TrendDirection) = f.globalTrend
	*dest[11].(*model.TrendStrength) = f.globalTrendStrength
	*dest[12].(*model.RiskLevel) = f.currencyRiskLevel
	*dest[13].(*[]byte) = f.recommendationsJSON
	*dest[14].(*string) = f.summary
	*dest[15].(*[]byte) = f.gramJSON
	*dest[16].(*[]byte) = f.globalJSON
	*dest[17].(*[]byte) = f.currencyJSON
	*dest[18].(*[]byte) = f.advancedJSON
	*dest[19].(*[]byte) = f.patternJSON
	return nil
}

func newFakeHybridRow(t *testing.T) *fakeHybridRow {
	t.Helper()
	marshal := func(v interface{}) []byte {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal fixture: %v", err)
		}
		return b
	}
	stopLoss := decimal.NewFromFloat(1999.5)
	takeProfit := decimal.NewFromFloat(2050)
	rr := 2.1
	return &fakeHybridRow{
		timestamp:           time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		timeframe:           model.Interval1h,
		gramPrice:           decimal.NewFromFloat(2090.25),
		signal:              model.SignalBuy,
		signalStrength:      model.StrengthStrong,
		confidence:          0.82,
		positionSizeJSON:    marshal(model.PositionSizeSuggestion{}),
		stopLoss:            &stopLoss,
		takeProfit:          &takeProfit,
		riskRewardRatio:     &rr,
		globalTrend:         model.TrendBullish,
		globalTrendStrength: model.TrendStrengthModerate,
		currencyRiskLevel:   model.RiskLow,
		recommendationsJSON: marshal([]string{"hold existing positions"}),
		summary:             "1h BUY (STRONG), gram=BULLISH global=BULLISH",
		gramJSON:            marshal(model.GramAnalysis{}),
		globalJSON:          marshal(model.GlobalTrendAnalysis{}),
		currencyJSON:        marshal(model.CurrencyRiskAnalysis{}),
		advancedJSON:        marshal(map[string]interface{}{"signal": "BUY"}),
		patternJSON:         marshal([]model.PatternMatch{}),
	}
}

func TestScanHybridAnalysisRoundTripsAllFields(t *testing.T) {
	row := newFakeHybridRow(t)
	result, err := scanHybridAnalysis(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Timeframe != model.Interval1h {
		t.Errorf("expected timeframe 1h, got %s", result.Timeframe)
	}
	if result.Signal != model.SignalBuy {
		t.Errorf("expected signal BUY, got %s", result.Signal)
	}
	if result.StopLoss == nil || !result.StopLoss.Equal(row.stopLoss.Truncate(8)) {
		t.Errorf("expected stop loss to round-trip, got %v", result.StopLoss)
	}
	if result.RiskRewardRatio == nil || *result.RiskRewardRatio != 2.1 {
		t.Errorf("expected risk reward ratio 2.1, got %v", result.RiskRewardRatio)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != "hold existing positions" {
		t.Errorf("expected one recommendation to round-trip, got %v", result.Recommendations)
	}
}

func TestScanHybridAnalysisHandlesNilStopLossAndTakeProfit(t *testing.T) {
	row := newFakeHybridRow(t)
	row.stopLoss = nil
	row.takeProfit = nil
	row.riskRewardRatio = nil

	result, err := scanHybridAnalysis(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.StopLoss != nil {
		t.Errorf("expected nil stop loss, got %v", result.StopLoss)
	}
	if result.TakeProfit != nil {
		t.Errorf("expected nil take profit, got %v", result.TakeProfit)
	}
	if result.RiskRewardRatio != nil {
		t.Errorf("expected nil risk reward ratio, got %v", result.RiskRewardRatio)
	}
}

func TestScanHybridAnalysisPropagatesUnmarshalErrors(t *testing.T) {
	row := newFakeHybridRow(t)
	row.positionSizeJSON = []byte(`{not valid json`)

	if _, err := scanHybridAnalysis(row); err == nil {
		t.Fatal("expected an error for malformed position size JSON")
	}
}

func TestNullableDecimalReturnsNilForNilPointer(t *testing.T) {
	if got := nullableDecimal(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestNullableDecimalDereferencesNonNilPointer(t *testing.T) {
	d := decimal.NewFromFloat(42.5)
	got := nullableDecimal(&d)
	dec, ok := got.(decimal.Decimal)
	if !ok {
		t.Fatalf("expected a decimal.Decimal, got %T", got)
	}
	if !dec.Equal(d) {
		t.Errorf("expected %v, got %v", d, dec)
	}
}
