package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// LoadActive reconstructs every ACTIVE simulation and its per-timeframe
// capital pools; open positions are not loaded. Implements simulation.Store.
func (s *Store) LoadActive(ctx context.Context) ([]*model.Simulation, error) {
	query := `
		SELECT id, name, strategy_type, status, initial_capital, current_capital,
			total_trades, winning_trades, losing_trades, win_rate, profit_factor, max_drawdown,
			start_date, last_update, config_json
		FROM simulations
		WHERE status = $1
	`
	rows, err := s.pool.Query(ctx, query, model.SimulationActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active simulations: %w", err)
	}
	defer rows.Close()

	var sims []*model.Simulation
	for rows.Next() {
		sim := &model.Simulation{}
		var configJSON []byte
		if err := rows.Scan(
			&sim.ID, &sim.Config.Name, &sim.Config.StrategyType, &sim.Status,
			&sim.Config.InitialCapitalGrams, &sim.CurrentCapital,
			&sim.Stats.TotalTrades, &sim.Stats.WinningTrades, &sim.Stats.LosingTrades,
			&sim.Stats.WinRate, &sim.Stats.ProfitFactor, &sim.Stats.MaxDrawdownPct,
			&sim.StartDate, &sim.LastUpdate, &configJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan simulation row: %w", err)
		}
		if err := json.Unmarshal(configJSON, &sim.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal simulation config: %w", err)
		}
		sims = append(sims, sim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, sim := range sims {
		capitals, err := s.loadTimeframeCapitals(ctx, sim.ID)
		if err != nil {
			return nil, err
		}
		sim.TimeframeCapitals = capitals
	}
	return sims, nil
}

func (s *Store) loadTimeframeCapitals(ctx context.Context, simulationID string) (map[model.Interval]*model.TimeframeCapital, error) {
	query := `
		SELECT timeframe, allocated_capital, current_capital, in_position, open_position_id, last_trade_time
		FROM sim_timeframe_capital
		WHERE simulation_id = $1
	`
	rows, err := s.pool.Query(ctx, query, simulationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeframe capital: %w", err)
	}
	defer rows.Close()

	out := make(map[model.Interval]*model.TimeframeCapital)
	for rows.Next() {
		tc := &model.TimeframeCapital{}
		if err := rows.Scan(&tc.Timeframe, &tc.AllocatedCapital, &tc.CurrentCapital, &tc.InPosition, &tc.OpenPositionID, &tc.LastTradeTime); err != nil {
			return nil, fmt.Errorf("failed to scan timeframe capital row: %w", err)
		}
		out[tc.Timeframe] = tc
	}
	return out, rows.Err()
}

// SaveSimulation upserts the Simulation aggregate row and its per-timeframe
// capital rows. Implements simulation.Store.
func (s *Store) SaveSimulation(ctx context.Context, sim *model.Simulation) error {
	configJSON, err := json.Marshal(sim.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal simulation config: %w", err)
	}

	query := `
		INSERT INTO simulations (
			id, name, strategy_type, status, initial_capital, current_capital,
			total_trades, winning_trades, losing_trades, win_rate, profit_factor, max_drawdown,
			start_date, last_update, config_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_capital = EXCLUDED.current_capital,
			total_trades = EXCLUDED.total_trades,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			win_rate = EXCLUDED.win_rate,
			profit_factor = EXCLUDED.profit_factor,
			max_drawdown = EXCLUDED.max_drawdown,
			last_update = EXCLUDED.last_update
	`
	_, err = s.pool.Exec(ctx, query,
		sim.ID, sim.Config.Name, sim.Config.StrategyType, sim.Status,
		sim.Config.InitialCapitalGrams, sim.CurrentCapital,
		sim.Stats.TotalTrades, sim.Stats.WinningTrades, sim.Stats.LosingTrades,
		sim.Stats.WinRate, sim.Stats.ProfitFactor, sim.Stats.MaxDrawdownPct,
		sim.StartDate, sim.LastUpdate, configJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert simulation: %w", err)
	}

	for _, tc := range sim.TimeframeCapitals {
		if err := s.saveTimeframeCapital(ctx, sim.ID, tc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) saveTimeframeCapital(ctx context.Context, simulationID string, tc *model.TimeframeCapital) error {
	query := `
		INSERT INTO sim_timeframe_capital (simulation_id, timeframe, allocated_capital, current_capital, in_position, open_position_id, last_trade_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (simulation_id, timeframe) DO UPDATE SET
			current_capital = EXCLUDED.current_capital,
			in_position = EXCLUDED.in_position,
			open_position_id = EXCLUDED.open_position_id,
			last_trade_time = EXCLUDED.last_trade_time
	`
	_, err := s.pool.Exec(ctx, query, simulationID, tc.Timeframe, tc.AllocatedCapital, tc.CurrentCapital, tc.InPosition, tc.OpenPositionID, tc.LastTradeTime)
	if err != nil {
		return fmt.Errorf("failed to upsert timeframe capital: %w", err)
	}
	return nil
}

// SavePosition upserts a SimulationPosition row, covering both the open and
// closed shapes since Status and the nullable Exit* fields tell them apart.
// Implements simulation.Store.
func (s *Store) SavePosition(ctx context.Context, pos *model.SimulationPosition) error {
	entryIndicatorsJSON, err := json.Marshal(pos.EntryIndicators)
	if err != nil {
		return fmt.Errorf("failed to marshal entry indicators: %w", err)
	}
	exitIndicatorsJSON, err := json.Marshal(pos.ExitIndicators)
	if err != nil {
		return fmt.Errorf("failed to marshal exit indicators: %w", err)
	}

	query := `
		INSERT INTO sim_positions (
			id, simulation_id, timeframe, position_type, status,
			entry_time, entry_price, entry_spread, entry_commission,
			position_size, allocated_capital, risk_amount,
			stop_loss, take_profit, trailing_stop, max_profit,
			entry_confidence, entry_indicators_json,
			exit_time, exit_price, exit_spread, exit_commission, exit_reason, exit_indicators_json,
			gross_pnl, net_pnl, pnl_pct, holding_period_minutes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23, $24, $25, $26, $27, $28
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			trailing_stop = EXCLUDED.trailing_stop,
			max_profit = EXCLUDED.max_profit,
			exit_time = EXCLUDED.exit_time,
			exit_price = EXCLUDED.exit_price,
			exit_spread = EXCLUDED.exit_spread,
			exit_commission = EXCLUDED.exit_commission,
			exit_reason = EXCLUDED.exit_reason,
			exit_indicators_json = EXCLUDED.exit_indicators_json,
			gross_pnl = EXCLUDED.gross_pnl,
			net_pnl = EXCLUDED.net_pnl,
			pnl_pct = EXCLUDED.pnl_pct,
			holding_period_minutes = EXCLUDED.holding_period_minutes
	`
	_, err = s.pool.Exec(ctx, query,
		pos.ID, pos.SimulationID, pos.Timeframe, pos.PositionType, pos.Status,
		pos.EntryTime, pos.EntryPrice, pos.EntrySpread, pos.EntryCommission,
		pos.PositionSizeGrams, pos.AllocatedCapital, pos.RiskAmount,
		pos.StopLoss, pos.TakeProfit, nullableDecimalPtr(pos.TrailingStop), pos.MaxProfit,
		pos.EntryConfidence, entryIndicatorsJSON,
		pos.ExitTime, nullableDecimalPtr(pos.ExitPrice), nullableDecimalPtr(pos.ExitSpread), nullableDecimalPtr(pos.ExitCommission), pos.ExitReason, exitIndicatorsJSON,
		nullableDecimalPtr(pos.GrossPnL), nullableDecimalPtr(pos.NetPnL), pos.PnLPercent, pos.HoldingPeriodMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert simulation position: %w", err)
	}
	return nil
}

// OpenPositions returns the still-open rows for a simulation.
func (s *Store) OpenPositions(ctx context.Context, simulationID string) ([]*model.SimulationPosition, error) {
	query := `
		SELECT id, simulation_id, timeframe, position_type, status,
			entry_time, entry_price, entry_spread, entry_commission,
			position_size, allocated_capital, risk_amount,
			stop_loss, take_profit, trailing_stop, max_profit,
			entry_confidence, entry_indicators_json
		FROM sim_positions
		WHERE simulation_id = $1 AND status = $2
		ORDER BY entry_time DESC
	`
	rows, err := s.pool.Query(ctx, query, simulationID, model.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to query open positions: %w", err)
	}
	defer rows.Close()

	var out []*model.SimulationPosition
	for rows.Next() {
		pos := &model.SimulationPosition{}
		var entryIndicatorsJSON []byte
		if err := rows.Scan(
			&pos.ID, &pos.SimulationID, &pos.Timeframe, &pos.PositionType, &pos.Status,
			&pos.EntryTime, &pos.EntryPrice, &pos.EntrySpread, &pos.EntryCommission,
			&pos.PositionSizeGrams, &pos.AllocatedCapital, &pos.RiskAmount,
			&pos.StopLoss, &pos.TakeProfit, &pos.TrailingStop, &pos.MaxProfit,
			&pos.EntryConfidence, &entryIndicatorsJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan open position row: %w", err)
		}
		if len(entryIndicatorsJSON) > 0 {
			_ = json.Unmarshal(entryIndicatorsJSON, &pos.EntryIndicators)
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// ClosedPositions returns up to limit closed rows for a simulation, newest
// exit first, used by the read API's closed_positions operation.
func (s *Store) ClosedPositions(ctx context.Context, simulationID string, limit int) ([]*model.SimulationPosition, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, simulation_id, timeframe, position_type, status,
			entry_time, entry_price, entry_spread, entry_commission,
			position_size, allocated_capital, risk_amount,
			stop_loss, take_profit, trailing_stop, max_profit,
			entry_confidence, entry_indicators_json,
			exit_time, exit_price, exit_spread, exit_commission, exit_reason, exit_indicators_json,
			gross_pnl, net_pnl, pnl_pct, holding_period_minutes
		FROM sim_positions
		WHERE simulation_id = $1 AND status = $2
		ORDER BY exit_time DESC
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, query, simulationID, model.PositionClosed, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed positions: %w", err)
	}
	defer rows.Close()

	var out []*model.SimulationPosition
	for rows.Next() {
		pos := &model.SimulationPosition{}
		var entryIndicatorsJSON, exitIndicatorsJSON []byte
		if err := rows.Scan(
			&pos.ID, &pos.SimulationID, &pos.Timeframe, &pos.PositionType, &pos.Status,
			&pos.EntryTime, &pos.EntryPrice, &pos.EntrySpread, &pos.EntryCommission,
			&pos.PositionSizeGrams, &pos.AllocatedCapital, &pos.RiskAmount,
			&pos.StopLoss, &pos.TakeProfit, &pos.TrailingStop, &pos.MaxProfit,
			&pos.EntryConfidence, &entryIndicatorsJSON,
			&pos.ExitTime, &pos.ExitPrice, &pos.ExitSpread, &pos.ExitCommission, &pos.ExitReason, &exitIndicatorsJSON,
			&pos.GrossPnL, &pos.NetPnL, &pos.PnLPercent, &pos.HoldingPeriodMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan closed position row: %w", err)
		}
		if len(entryIndicatorsJSON) > 0 {
			_ = json.Unmarshal(entryIndicatorsJSON, &pos.EntryIndicators)
		}
		if len(exitIndicatorsJSON) > 0 {
			_ = json.Unmarshal(exitIndicatorsJSON, &pos.ExitIndicators)
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}

// SaveDailyPerformance upserts one simulation-day rollup row. Implements
// simulation.Store.
func (s *Store) SaveDailyPerformance(ctx context.Context, perf *model.DailyPerformance) error {
	perTimeframeJSON, err := json.Marshal(perf.PerTimeframe)
	if err != nil {
		return fmt.Errorf("failed to marshal per-timeframe stats: %w", err)
	}
	query := `
		INSERT INTO sim_daily_performance (
			simulation_id, date, starting_capital, ending_capital, daily_pnl, daily_pnl_pct,
			total_trades, winning_trades, losing_trades, per_timeframe_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (simulation_id, date) DO UPDATE SET
			ending_capital = EXCLUDED.ending_capital,
			daily_pnl = EXCLUDED.daily_pnl,
			daily_pnl_pct = EXCLUDED.daily_pnl_pct,
			total_trades = EXCLUDED.total_trades,
			winning_trades = EXCLUDED.winning_trades,
			losing_trades = EXCLUDED.losing_trades,
			per_timeframe_json = EXCLUDED.per_timeframe_json
	`
	_, err = s.pool.Exec(ctx, query,
		perf.SimulationID, perf.Date, perf.StartingCapital, perf.EndingCapital, perf.DailyPnL, perf.DailyPnLPct,
		perf.TotalTrades, perf.WinningTrades, perf.LosingTrades, perTimeframeJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert daily performance: %w", err)
	}
	return nil
}

func nullableDecimalPtr(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
