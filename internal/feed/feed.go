// Package feed supplies Tick observations to the tick store. A Source is a
// single producer invoking a callback per tick; the callback must return
// promptly, since the producer never buffers more than one in-flight tick.
package feed

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// Source produces Tick observations until ctx is cancelled or Stop is
// called, invoking onTick once per observation.
type Source interface {
	Run(ctx context.Context, onTick func(model.Tick)) error
	Stop()
}

// DemoSource generates a synthetic ons/USD and USD/local feed with a small
// random walk, for running the analyzer without a real upstream.
type DemoSource struct {
	interval time.Duration
	log      *logging.Logger

	stopCh chan struct{}
}

// NewDemoSource builds a DemoSource ticking every interval; interval <= 0
// falls back to one second.
func NewDemoSource(interval time.Duration) *DemoSource {
	if interval <= 0 {
		interval = time.Second
	}
	return &DemoSource{interval: interval, log: logging.WithComponent("feed.demo"), stopCh: make(chan struct{})}
}

// Run drives the synthetic feed until ctx is cancelled or Stop is called.
func (d *DemoSource) Run(ctx context.Context, onTick func(model.Tick)) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	onsUSD := 2000.0
	usdLocal := 32.5

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.stopCh:
			return nil
		case now := <-ticker.C:
			onsUSD = walk(rng, onsUSD, 0.001)
			usdLocal = walk(rng, usdLocal, 0.0005)
			onsLocal := onsUSD * usdLocal
			gramsPerOunce, _ := decimal.NewFromString(model.GramsPerTroyOunce)
			gramLocal, _ := decimal.NewFromFloat(onsLocal).Div(gramsPerOunce).Float64()

			tick := model.Tick{
				Timestamp: now,
				OnsUSD:    decimal.NewFromFloat(onsUSD),
				USDLocal:  decimal.NewFromFloat(usdLocal),
				OnsLocal:  decimal.NewFromFloat(onsLocal),
				GramLocal: decimal.NewFromFloat(gramLocal),
				Source:    model.SourceDemo,
			}
			onTick(tick)
		}
	}
}

// Stop ends the synthetic feed's Run loop.
func (d *DemoSource) Stop() {
	close(d.stopCh)
}

// walk nudges v by a gaussian step scaled by volatility, clamped above zero.
func walk(rng *rand.Rand, v, volatility float64) float64 {
	step := rng.NormFloat64() * v * volatility
	next := v + step
	if next <= 0 {
		return v
	}
	return math.Abs(next)
}
