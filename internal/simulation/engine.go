// Package simulation runs the cooperative 60-second loop that drives every
// ACTIVE Simulation's position lifecycle off the orchestrator's latest
// HybridAnalysisResult per timeframe: sizing, entry, trailing-stop and
// take-profit management, and PnL/statistics bookkeeping, running
// continuously against live analyzer output rather than over a finished
// historical trade slice.
package simulation

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/indicator"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

const cycleInterval = 60 * time.Second

// defaultMaxDailyLoss is the daily-loss guard fraction applied when a
// simulation's config leaves MaxDailyRisk unset.
const defaultMaxDailyLoss = 0.02

// Store persists simulations, their positions, and daily-performance rows.
// Implemented by internal/store; kept narrow here the same way the
// orchestrator's ResultStore is.
type Store interface {
	LoadActive(ctx context.Context) ([]*model.Simulation, error)
	SaveSimulation(ctx context.Context, sim *model.Simulation) error
	SavePosition(ctx context.Context, pos *model.SimulationPosition) error
	SaveDailyPerformance(ctx context.Context, perf *model.DailyPerformance) error
}

// Analyses is the read side of the orchestrator the engine depends on.
type Analyses interface {
	Latest(ctx context.Context, t model.Interval) (*model.HybridAnalysisResult, bool)
}

// managedSimulation is the engine's in-memory working set for one
// Simulation: open positions keyed by ID (mirroring TimeframeCapital's
// OpenPositionID pointer), the per-day loss breaker, and the rolling trade
// ledger that feeds Sharpe ratio and drawdown.
type managedSimulation struct {
	mu        sync.Mutex
	sim       *model.Simulation
	positions map[string]*model.SimulationPosition
	breaker   *dailyLossBreaker
	history   *tradeHistory
}

// Engine owns the cooperative simulation loop.
type Engine struct {
	ticks    *tickstore.Store
	analyses Analyses
	store    Store
	log      *logging.Logger
	posLog   zerolog.Logger
	location *time.Location

	mu      sync.Mutex
	managed map[string]*managedSimulation

	stopCh chan struct{}
	doneCh chan struct{}
}

// New wires an Engine. location governs trading-hours evaluation; a nil
// location falls back to UTC.
func New(ticks *tickstore.Store, analyses Analyses, store Store, location *time.Location) *Engine {
	if location == nil {
		location = time.UTC
	}
	return &Engine{
		ticks:    ticks,
		analyses: analyses,
		store:    store,
		log:      logging.WithComponent("simulation"),
		posLog:   zerolog.New(os.Stdout).With().Timestamp().Str("component", "position_tracker").Logger(),
		location: location,
		managed:  make(map[string]*managedSimulation),
	}
}

// Start loads every ACTIVE simulation from the store and begins the
// cooperative 60-second loop on its own goroutine.
func (e *Engine) Start(ctx context.Context) error {
	if e.store != nil {
		sims, err := e.store.LoadActive(ctx)
		if err != nil {
			return err
		}
		for _, sim := range sims {
			e.Register(sim)
		}
	}

	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.loop(ctx)
	return nil
}

// Register adds a Simulation to the engine's working set outside of
// Start's bulk load, used by tests and by an API-driven "create simulation"
// operation.
func (e *Engine) Register(sim *model.Simulation) {
	capital, _ := sim.CurrentCapital.Float64()
	maxDailyLoss := sim.Config.MaxDailyRisk
	if maxDailyLoss <= 0 {
		maxDailyLoss = defaultMaxDailyLoss
	}
	ms := &managedSimulation{
		sim:       sim,
		positions: make(map[string]*model.SimulationPosition),
		breaker:   newDailyLossBreaker(maxDailyLoss),
		history:   newTradeHistory(capital),
	}
	e.mu.Lock()
	e.managed[sim.ID] = ms
	e.mu.Unlock()
}

// Stop signals the loop to exit and waits for it to finish, then persists
// final state for every managed simulation.
func (e *Engine) Stop(ctx context.Context) {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh

	if e.store == nil {
		return
	}
	e.mu.Lock()
	sims := make([]*model.Simulation, 0, len(e.managed))
	for _, ms := range e.managed {
		sims = append(sims, ms.sim)
	}
	e.mu.Unlock()
	for _, sim := range sims {
		if err := e.store.SaveSimulation(ctx, sim); err != nil {
			e.log.Warn("failed to persist simulation on shutdown", "simulation", sim.ID, "error", err)
		}
	}
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.doneCh)
	ticker := time.NewTicker(cycleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopCh:
			return
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.RunCycle(ctx, now)
		}
	}
}

// RunCycle processes every managed simulation sequentially, per the
// serialized-per-simulation concurrency contract; it is exported so tests
// can drive deterministic cycles without waiting on the real clock.
func (e *Engine) RunCycle(ctx context.Context, now time.Time) {
	e.mu.Lock()
	all := make([]*managedSimulation, 0, len(e.managed))
	for _, ms := range e.managed {
		all = append(all, ms)
	}
	e.mu.Unlock()

	for _, ms := range all {
		func() {
			defer func() {
				if r := recover(); r != nil {
					e.log.Warn("simulation cycle panicked, recovering", "simulation", ms.sim.ID, "panic", r)
				}
			}()
			e.processSimulation(ctx, ms, now)
		}()
	}
}

func (e *Engine) processSimulation(ctx context.Context, ms *managedSimulation, now time.Time) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.sim.Status != model.SimulationActive {
		return
	}

	tick, ok := e.ticks.Latest()
	if !ok {
		return
	}
	price, _ := tick.GramLocal.Float64()

	tradingOpen := !ms.sim.Config.TradingHoursEnforced || withinTradingHours(ms.sim.Config, now, e.location)

	for _, t := range model.AllIntervals {
		tc, ok := ms.sim.TimeframeCapitals[t]
		if !ok {
			continue
		}
		result, haveResult := e.analyses.Latest(ctx, t)

		if tc.InPosition {
			e.evaluateOpenPosition(ctx, ms, tc, result, price, now)
			continue
		}
		if !tradingOpen || !haveResult {
			continue
		}
		if !ms.breaker.Check(now, ms.sim.Stats.DailyPnL, ms.sim.CurrentCapital) {
			continue
		}
		if !shouldOpen(ms.sim.Config, result) {
			continue
		}
		e.openPosition(ctx, ms, tc, result, price, now)
	}

	ms.sim.LastUpdate = now
	if e.store != nil {
		if err := e.store.SaveSimulation(ctx, ms.sim); err != nil {
			e.log.Warn("failed to persist simulation", "simulation", ms.sim.ID, "error", err)
		}
	}
}

func withinTradingHours(cfg model.SimulationConfig, now time.Time, loc *time.Location) bool {
	hour := now.In(loc).Hour()
	return hour >= cfg.TradingHoursStart && hour < cfg.TradingHoursEnd
}

func (e *Engine) evaluateOpenPosition(ctx context.Context, ms *managedSimulation, tc *model.TimeframeCapital, result *model.HybridAnalysisResult, price float64, now time.Time) {
	if tc.OpenPositionID == nil {
		tc.InPosition = false
		return
	}
	pos := ms.positions[*tc.OpenPositionID]
	if pos == nil {
		tc.InPosition = false
		tc.OpenPositionID = nil
		return
	}

	cfg := ms.sim.Config
	armTrailingStop(cfg, pos, price)
	reason, exitPrice, matched := evaluateExit(cfg, pos, result, price, now)
	if !matched {
		return
	}

	size, _ := pos.PositionSizeGrams.Float64()
	exitValue := exitPrice * size
	exitCommission := decimal.NewFromFloat(cfg.CommissionRate * exitValue)

	closePosition(pos, reason, exitPrice, now, cfg.SpreadLocal, exitCommission, exitIndicatorsFrom(result))

	netGrams := netPnLGrams(pos)
	tc.CurrentCapital = tc.CurrentCapital.Add(netGrams)
	tc.InPosition = false
	tc.OpenPositionID = nil
	closeTime := now
	tc.LastTradeTime = &closeTime

	ms.sim.CurrentCapital = ms.sim.CurrentCapital.Add(netGrams)
	if pos.NetPnL != nil {
		ms.sim.Stats.DailyPnL = ms.sim.Stats.DailyPnL.Add(*pos.NetPnL)
	}
	ms.sim.Stats.DailyTrades++
	ms.history.recordClose(&ms.sim.Stats, pos)

	delete(ms.positions, pos.ID)

	netPnL := 0.0
	if pos.NetPnL != nil {
		netPnL, _ = pos.NetPnL.Float64()
	}
	e.posLog.Info().
		Str("position_id", pos.ID).
		Str("simulation_id", ms.sim.ID).
		Str("timeframe", string(pos.Timeframe)).
		Str("exit_reason", string(reason)).
		Float64("exit_price", exitPrice).
		Float64("net_pnl_grams", netPnL).
		Msg("position closed")

	if e.store != nil {
		if err := e.store.SavePosition(ctx, pos); err != nil {
			e.log.Warn("failed to persist closed position", "position", pos.ID, "error", err)
		}
	}
}

func (e *Engine) openPosition(ctx context.Context, ms *managedSimulation, tc *model.TimeframeCapital, result *model.HybridAnalysisResult, price float64, now time.Time) {
	atrResult, ok := result.Gram.Indicators["atr"].(*indicator.ATRResult)
	if !ok {
		return
	}
	available, _ := tc.AvailableCapital().Float64()
	if available <= 0 {
		return
	}

	cfg := ms.sim.Config
	size, ok := positionSizeGrams(cfg, available, price, atrResult.Value)
	if !ok {
		return
	}

	side := model.PositionLong
	if result.Signal == model.SignalSell {
		side = model.PositionShort
	}
	stopLoss, takeProfit := stopLossTakeProfit(cfg, side, price, atrResult.Value)

	positionValue := size * price
	entryCommission := decimal.NewFromFloat(cfg.CommissionRate * positionValue)

	pos := &model.SimulationPosition{
		ID:                uuid.New().String(),
		SimulationID:      ms.sim.ID,
		Timeframe:         tc.Timeframe,
		PositionType:      side,
		Status:            model.PositionOpen,
		EntryTime:         now,
		EntryPrice:        decimal.NewFromFloat(price),
		EntrySpread:       cfg.SpreadLocal,
		EntryCommission:   entryCommission,
		PositionSizeGrams: decimal.NewFromFloat(size),
		AllocatedCapital:  decimal.NewFromFloat(available),
		RiskAmount:        decimal.NewFromFloat(available * cfg.MaxRiskPerTrade),
		StopLoss:          decimal.NewFromFloat(stopLoss),
		TakeProfit:        decimal.NewFromFloat(takeProfit),
		MaxProfit:         decimal.Zero,
		EntryConfidence:   result.Confidence,
		EntryIndicators:   result.Gram.Indicators,
	}

	tc.InPosition = true
	id := pos.ID
	tc.OpenPositionID = &id
	openTime := now
	tc.LastTradeTime = &openTime
	ms.positions[pos.ID] = pos

	e.posLog.Info().
		Str("position_id", pos.ID).
		Str("simulation_id", ms.sim.ID).
		Str("timeframe", string(pos.Timeframe)).
		Str("side", string(side)).
		Float64("entry_price", price).
		Float64("size_grams", size).
		Msg("position opened")
	logging.PositionContext(ms.sim.ID, string(pos.Timeframe), string(side), price, size).Debug("position opened")

	if e.store != nil {
		if err := e.store.SavePosition(ctx, pos); err != nil {
			e.log.Warn("failed to persist opened position", "position", pos.ID, "error", err)
		}
	}
}

// OpenPositions returns the currently open positions for a simulation, used
// by the read API.
func (e *Engine) OpenPositions(simulationID string) []*model.SimulationPosition {
	e.mu.Lock()
	ms, ok := e.managed[simulationID]
	e.mu.Unlock()
	if !ok {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]*model.SimulationPosition, 0, len(ms.positions))
	for _, p := range ms.positions {
		out = append(out, p)
	}
	return out
}

// Status returns the current Simulation aggregate (status, capital, stats)
// for the read API, or false if no simulation with that ID is managed.
func (e *Engine) Status(simulationID string) (*model.Simulation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ms, ok := e.managed[simulationID]
	if !ok {
		return nil, false
	}
	return ms.sim, true
}
