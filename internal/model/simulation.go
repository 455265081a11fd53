package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StrategyType selects which filter/threshold profile a Simulation runs.
type StrategyType string

const (
	StrategyMain          StrategyType = "MAIN"
	StrategyConservative  StrategyType = "CONSERVATIVE"
	StrategyMomentum      StrategyType = "MOMENTUM"
	StrategyMeanReversion StrategyType = "MEAN_REVERSION"
	StrategyHighCostMain  StrategyType = "HIGH_COST_MAIN"
)

// SimulationStatus is the Simulation aggregate's lifecycle state.
type SimulationStatus string

const (
	SimulationActive    SimulationStatus = "ACTIVE"
	SimulationPaused    SimulationStatus = "PAUSED"
	SimulationCompleted SimulationStatus = "COMPLETED"
	SimulationFailed    SimulationStatus = "FAILED"
)

// PositionType is the directional side of a SimulationPosition.
type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
)

// PositionStatus is the SimulationPosition state machine's current state.
// OPEN -> CLOSED or CANCELLED; once CLOSED or CANCELLED, no further
// transitions occur.
type PositionStatus string

const (
	PositionOpen      PositionStatus = "OPEN"
	PositionClosed    PositionStatus = "CLOSED"
	PositionCancelled PositionStatus = "CANCELLED"
)

// ExitReason names why a position was closed. Evaluated in this precedence
// order at each simulation cycle: StopLoss, TakeProfit, TrailingStop,
// ReverseSignal, ConfidenceDrop, TimeLimit — the first match wins.
type ExitReason string

const (
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitTakeProfit       ExitReason = "TAKE_PROFIT"
	ExitTrailingStop     ExitReason = "TRAILING_STOP"
	ExitReverseSignal    ExitReason = "REVERSE_SIGNAL"
	ExitTimeLimit        ExitReason = "TIME_LIMIT"
	ExitConfidenceDrop   ExitReason = "CONFIDENCE_DROP"
	ExitVolatilitySpike  ExitReason = "VOLATILITY_SPIKE"
	ExitDailyLimit       ExitReason = "DAILY_LIMIT"
	ExitEndOfDay         ExitReason = "END_OF_DAY"
	ExitManual           ExitReason = "MANUAL"
)

// SimulationConfig is immutable after creation.
type SimulationConfig struct {
	Name                    string
	StrategyType            StrategyType
	InitialCapitalGrams     decimal.Decimal
	MinConfidence           float64
	MaxRiskPerTrade         float64
	MaxDailyRisk            float64
	SpreadLocal             decimal.Decimal
	CommissionRate          float64
	CapitalDistribution     map[Interval]decimal.Decimal
	TradingHoursStart       int // local hour, inclusive
	TradingHoursEnd         int // local hour, exclusive
	TradingHoursEnforced    bool
	ATRMultiplierSL         float64
	RiskRewardRatio         float64
	TrailingStopActivation  float64
	TrailingStopDistance    float64
	TimeLimitsHours         map[Interval]int
}

// TimeframeCapital is owned by a simulation; mutated atomically at position
// open and close.
type TimeframeCapital struct {
	Timeframe       Interval
	AllocatedCapital decimal.Decimal
	CurrentCapital   decimal.Decimal
	InPosition       bool
	OpenPositionID   *string
	LastTradeTime    *time.Time
}

// AvailableCapital returns zero while a position is open on this timeframe,
// since the pool's capital is fully committed to that position.
func (t TimeframeCapital) AvailableCapital() decimal.Decimal {
	if t.InPosition {
		return decimal.Zero
	}
	return t.CurrentCapital
}

// SimulationPosition is a position-lifecycle state machine instance.
type SimulationPosition struct {
	ID             string
	SimulationID   string
	Timeframe      Interval
	PositionType   PositionType
	Status         PositionStatus

	EntryTime       time.Time
	EntryPrice      decimal.Decimal
	EntrySpread     decimal.Decimal
	EntryCommission decimal.Decimal

	PositionSizeGrams decimal.Decimal
	AllocatedCapital  decimal.Decimal
	RiskAmount        decimal.Decimal

	StopLoss      decimal.Decimal
	TakeProfit    decimal.Decimal
	TrailingStop  *decimal.Decimal
	MaxProfit     decimal.Decimal

	EntryConfidence  float64
	EntryIndicators  map[string]interface{}

	ExitTime       *time.Time
	ExitPrice      *decimal.Decimal
	ExitSpread     *decimal.Decimal
	ExitCommission *decimal.Decimal
	ExitReason     *ExitReason
	ExitIndicators map[string]interface{}

	GrossPnL              *decimal.Decimal
	NetPnL                *decimal.Decimal
	PnLPercent            *float64
	HoldingPeriodMinutes  *int
}

// Simulation is the top-level aggregate: a config, a status, current
// capital, per-timeframe pools, and cumulative statistics.
type Simulation struct {
	ID                string
	Config            SimulationConfig
	Status            SimulationStatus
	CurrentCapital    decimal.Decimal
	TimeframeCapitals map[Interval]*TimeframeCapital
	Stats             SimulationStats
	StartDate         time.Time
	LastUpdate        time.Time
}

// SimulationStats is the cumulative and daily statistics block, carrying
// both the percentage-based fields and a rolling Sharpe ratio plus
// currency-valued drawdown for reporting alongside them.
type SimulationStats struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	ProfitFactor    float64
	SharpeRatio     float64
	MaxDrawdownPct  float64
	MaxDrawdownAbs  decimal.Decimal
	AvgWin          decimal.Decimal
	AvgLoss         decimal.Decimal
	AvgWinLossRatio float64

	DailyPnL        decimal.Decimal
	DailyPnLPct     float64
	DailyTrades     int
	DailyRiskUsed   float64
	DailyDate       time.Time
}

// DailyPerformance is one row of the per-simulation, per-day rollup.
type DailyPerformance struct {
	SimulationID     string
	Date             time.Time
	StartingCapital  decimal.Decimal
	EndingCapital    decimal.Decimal
	DailyPnL         decimal.Decimal
	DailyPnLPct      float64
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	PerTimeframe     map[Interval]TimeframeDailyStats
}

// TimeframeDailyStats is the per-timeframe slice of a DailyPerformance row.
type TimeframeDailyStats struct {
	Trades int
	PnL    decimal.Decimal
}
