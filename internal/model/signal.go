package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalType is the directional decision a signal carries.
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
	SignalHold SignalType = "HOLD"
)

// SignalStrength bands a signal's conviction.
type SignalStrength string

const (
	StrengthWeak     SignalStrength = "WEAK"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthStrong   SignalStrength = "STRONG"
)

// TrendDirection is the qualitative direction an analyzer assigns a series.
type TrendDirection string

const (
	TrendBullish TrendDirection = "BULLISH"
	TrendBearish TrendDirection = "BEARISH"
	TrendNeutral TrendDirection = "NEUTRAL"
)

// TrendStrength bands how pronounced a trend is.
type TrendStrength string

const (
	TrendStrengthWeak     TrendStrength = "WEAK"
	TrendStrengthModerate TrendStrength = "MODERATE"
	TrendStrengthStrong   TrendStrength = "STRONG"
)

// RiskLevel bands currency volatility risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// AnalyzerOutput is the closed, uniform record every analyzer family
// (gram, global trend, currency risk, divergence, momentum, structure,
// smart-money, confluence) reduces its findings to before the combiner
// fuses them. There is no open polymorphism here — just one variant shape
// with the fields a given analyzer leaves zero-valued when not applicable.
type AnalyzerOutput struct {
	Signal      SignalType
	Confidence  float64 // [0,1]
	Direction   TrendDirection
	Strength    float64 // analyzer-specific magnitude, e.g. divergence score
	Description string
	Detail      map[string]interface{}
}

// GramAnalysis is the Gram Analyzer's full output.
type GramAnalysis struct {
	Price               decimal.Decimal
	Trend               TrendDirection
	TrendStrength       TrendStrength
	Indicators          map[string]interface{}
	Patterns            []PatternMatch
	SupportLevels       []SupportResistanceLevel
	ResistanceLevels    []SupportResistanceLevel
	Signal              SignalType
	Confidence          float64
	StopLoss            *decimal.Decimal
	TakeProfit          *decimal.Decimal
}

// PatternMatch is one candlestick pattern hit.
type PatternMatch struct {
	Name        string
	Type        string // BULLISH, BEARISH, NEUTRAL
	Confidence  float64
	Description string
}

// GlobalTrendAnalysis is the Global Trend Analyzer's output.
type GlobalTrendAnalysis struct {
	Trend        TrendDirection
	Strength     TrendStrength
	Momentum     string // STRONG_BULLISH..STRONG_BEARISH
	Volatility   string // LOW, MEDIUM, HIGH
	PivotLevel   decimal.Decimal
	KeyHigh      decimal.Decimal
	KeyLow       decimal.Decimal
	Signal       SignalType
	Confidence   float64
}

// CurrencyRiskAnalysis is the (externally-detailed) Currency Risk Analyzer
// output — a risk-level band derived from USD/local volatility.
type CurrencyRiskAnalysis struct {
	Level      RiskLevel
	Volatility float64
}

// HybridAnalysisResult is the single record written once per (timeframe,
// analysis-tick) by the orchestrator, consumed by the simulator and the
// read API. Invariant: if Signal is BUY or SELL, StopLoss and TakeProfit
// are present and on the correct side of GramPrice.
type HybridAnalysisResult struct {
	Timestamp            time.Time
	Timeframe            Interval
	GramPrice            decimal.Decimal
	Signal               SignalType
	SignalStrength       SignalStrength
	Confidence           float64
	PositionSize         PositionSizeSuggestion
	StopLoss             *decimal.Decimal
	TakeProfit           *decimal.Decimal
	RiskRewardRatio       *float64
	GlobalTrendDirection TrendDirection
	GlobalTrendStrength  TrendStrength
	CurrencyRiskLevel    RiskLevel
	Recommendations      []string
	Summary              string

	Gram      GramAnalysis
	Global    GlobalTrendAnalysis
	Currency  CurrencyRiskAnalysis
	Advanced  map[string]interface{}
	Patterns  []PatternMatch
}

// PositionSizeSuggestion is persisted as a nested object rather than a bare
// scalar, so a sizing policy can be reasoned about independently of a risk
// multiplier layered on top; read models project Scalar() for display.
type PositionSizeSuggestion struct {
	Lots       float64 `json:"lots"`       // fraction of allocatable capital, [0,1]
	Multiplier float64 `json:"multiplier"` // risk multiplier applied on top of Lots
}

// Scalar projects the nested size suggestion down to a single [0,1] figure.
func (p PositionSizeSuggestion) Scalar() float64 {
	return p.Lots * p.Multiplier
}
