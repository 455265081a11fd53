package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GramsPerTroyOunce converts ounce-denominated prices to gram-denominated ones.
const GramsPerTroyOunce = "31.1035"

// TickSource identifies which upstream feed produced a Tick.
type TickSource string

const (
	SourceLive TickSource = "live"
	SourceDemo TickSource = "demo"
)

// Tick is one atomic, immutable price observation. Written once by the feed,
// never mutated after append.
type Tick struct {
	Timestamp time.Time       `json:"timestamp"`
	OnsUSD    decimal.Decimal `json:"ons_usd"`
	USDLocal  decimal.Decimal `json:"usd_local"`
	OnsLocal  decimal.Decimal `json:"ons_local"`
	GramLocal decimal.Decimal `json:"gram_local"`
	Source    TickSource      `json:"source"`
}

// Validate checks that all four prices of a Tick are strictly positive
// before it may be appended to the store. It does not check cross-price
// consistency (ons_local against ons_usd*usd_local, gram_local against
// ons_local/31.1035). It does not mutate t.
func (t Tick) Validate() error {
	if t.OnsUSD.LessThanOrEqual(decimal.Zero) ||
		t.USDLocal.LessThanOrEqual(decimal.Zero) ||
		t.OnsLocal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTick
	}
	if t.GramLocal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidTick
	}
	return nil
}

// WithDerivedGramLocal returns a copy of t with GramLocal filled in from
// OnsLocal when it was left zero, per the missing-data fallback rule:
// gram_local = ons_local / 31.1035.
func (t Tick) WithDerivedGramLocal() Tick {
	if t.GramLocal.IsZero() && !t.OnsLocal.IsZero() {
		gramsPerOunce, _ := decimal.NewFromString(GramsPerTroyOunce)
		t.GramLocal = t.OnsLocal.Div(gramsPerOunce)
	}
	return t
}
