package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Interval is one of the fixed candle widths analyses are scheduled over.
type Interval string

const (
	Interval15m Interval = "15m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
)

// Minutes returns the bucket width of the interval in minutes.
func (i Interval) Minutes() int {
	switch i {
	case Interval15m:
		return 15
	case Interval1h:
		return 60
	case Interval4h:
		return 240
	case Interval1d:
		return 1440
	default:
		return 0
	}
}

// AllIntervals lists every timeframe the orchestrator schedules independently.
var AllIntervals = []Interval{Interval15m, Interval1h, Interval4h, Interval1d}

// Candle is a deterministic OHLC aggregation of ticks falling in
// [bucket_start, bucket_start+interval). It is materialized lazily from the
// tick store; there is no independent write path for it.
type Candle struct {
	Timestamp time.Time       `json:"timestamp"` // bucket start, UTC
	Interval  Interval        `json:"interval"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	TickCount int             `json:"tick_count"`
}

// CandleF is the float64 view of a Candle used inside indicator math, where
// binary floating point is acceptable for intermediate computation as long
// as results round-trip to fixed-point decimal at the component boundary.
type CandleF struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TickCount int
}

// ToFloat projects a Candle down to the float64 view indicator functions
// operate on.
func (c Candle) ToFloat() CandleF {
	open, _ := c.Open.Float64()
	high, _ := c.High.Float64()
	low, _ := c.Low.Float64()
	closeP, _ := c.Close.Float64()
	return CandleF{
		Timestamp: c.Timestamp,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		TickCount: c.TickCount,
	}
}

// CandlesToFloat projects a slice of Candles to their float64 views,
// oldest-first, preserving order.
func CandlesToFloat(candles []Candle) []CandleF {
	out := make([]CandleF, len(candles))
	for i, c := range candles {
		out[i] = c.ToFloat()
	}
	return out
}

// SupportResistanceLevel is an ephemeral, recomputed-each-analysis price
// level derived from candle history.
type SupportResistanceLevel struct {
	Level    decimal.Decimal `json:"level"`
	Strength string          `json:"strength"` // weak, moderate, strong
	Touches  int             `json:"touches"`
}
