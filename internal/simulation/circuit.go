package simulation

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// breakerState is a plain CLOSED/OPEN state, scoped per-Simulation
// per-UTC-day: a daily-loss guard, not a multi-signal trading-wide breaker.
type breakerState string

const (
	breakerClosed breakerState = "closed"
	breakerOpen   breakerState = "open"
)

// dailyLossBreaker trips a single simulation's trading for the remainder of
// a UTC day once realized PnL drops to or below the configured fraction of
// capital, resetting automatically at the next day boundary. There is no
// multi-window (hourly/per-minute) rate limiting here, just the one daily
// threshold.
type dailyLossBreaker struct {
	mu           sync.Mutex
	state        breakerState
	maxDailyLoss float64 // fraction, e.g. 0.02 for 2%
	day          time.Time
	tripReason   string
}

func newDailyLossBreaker(maxDailyLoss float64) *dailyLossBreaker {
	return &dailyLossBreaker{
		state:        breakerClosed,
		maxDailyLoss: maxDailyLoss,
		day:          time.Time{},
	}
}

// Check resets the breaker at a new UTC day boundary, evaluates today's
// realized PnL against the guard, and returns whether trading may proceed.
func (b *dailyLossBreaker) Check(now time.Time, dailyPnL, startingCapital decimal.Decimal) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	today := now.UTC().Truncate(24 * time.Hour)
	if !today.Equal(b.day) {
		b.day = today
		b.state = breakerClosed
		b.tripReason = ""
	}

	if b.state == breakerOpen {
		return false
	}

	if startingCapital.IsZero() {
		return true
	}
	lossFraction, _ := dailyPnL.Div(startingCapital).Float64()
	if lossFraction <= -b.maxDailyLoss {
		b.state = breakerOpen
		b.tripReason = "daily realized loss breached the guard"
		return false
	}
	return true
}

func (b *dailyLossBreaker) Tripped() (bool, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == breakerOpen, b.tripReason
}
