// Package store is the durable persistence layer: a pgx/v5 pool wrapping
// the six tables the orchestrator and simulation engine write through.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
)

// Config configures the pool. DSN is a full libpq connection string, since
// the generated config file already assembles one.
type Config struct {
	DSN                string
	MaxConns           int32
	MinConns           int32
	MaxConnLifetimeMin int
}

// Store wraps a connection pool and exposes the repository methods the
// orchestrator's ResultStore and the simulation engine's Store interfaces
// require.
type Store struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

// New parses cfg, opens a pool, and verifies connectivity with a ping
// before handing back a ready Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	minConns := cfg.MinConns
	if minConns <= 0 {
		minConns = 2
	}
	lifetime := time.Duration(cfg.MaxConnLifetimeMin) * time.Minute
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = lifetime
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return &Store{pool: pool, log: logging.WithComponent("store")}, nil
}

// Close releases the pool's connections.
func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations creates the six tables if they do not already exist. Each
// statement runs independently so a partially-migrated database can be
// re-run safely.
func (s *Store) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS price_data (
			timestamp TIMESTAMPTZ UNIQUE NOT NULL,
			ons_usd NUMERIC NOT NULL,
			usd_local NUMERIC NOT NULL,
			ons_local NUMERIC NOT NULL,
			gram_local NUMERIC,
			source VARCHAR(16) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_data_timestamp ON price_data (timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS hybrid_analysis (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			timeframe VARCHAR(8) NOT NULL,
			gram_price NUMERIC NOT NULL,
			signal VARCHAR(8) NOT NULL,
			signal_strength VARCHAR(16) NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			position_size_json JSONB NOT NULL,
			stop_loss NUMERIC,
			take_profit NUMERIC,
			risk_reward_ratio DOUBLE PRECISION,
			global_trend VARCHAR(16) NOT NULL,
			global_trend_strength VARCHAR(16) NOT NULL,
			currency_risk_level VARCHAR(16) NOT NULL,
			recommendations_json JSONB,
			summary TEXT,
			gram_json JSONB,
			global_json JSONB,
			currency_json JSONB,
			advanced_indicators_json JSONB,
			pattern_json JSONB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_hybrid_analysis_timeframe_ts ON hybrid_analysis (timeframe, timestamp DESC)`,

		`CREATE TABLE IF NOT EXISTS simulations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			strategy_type VARCHAR(24) NOT NULL,
			status VARCHAR(16) NOT NULL,
			initial_capital NUMERIC NOT NULL,
			current_capital NUMERIC NOT NULL,
			total_trades INT NOT NULL DEFAULT 0,
			winning_trades INT NOT NULL DEFAULT 0,
			losing_trades INT NOT NULL DEFAULT 0,
			win_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			profit_factor DOUBLE PRECISION NOT NULL DEFAULT 0,
			max_drawdown DOUBLE PRECISION NOT NULL DEFAULT 0,
			start_date TIMESTAMPTZ NOT NULL,
			last_update TIMESTAMPTZ NOT NULL,
			config_json JSONB NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sim_timeframe_capital (
			simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
			timeframe VARCHAR(8) NOT NULL,
			allocated_capital NUMERIC NOT NULL,
			current_capital NUMERIC NOT NULL,
			in_position BOOLEAN NOT NULL DEFAULT FALSE,
			open_position_id TEXT,
			last_trade_time TIMESTAMPTZ,
			UNIQUE (simulation_id, timeframe)
		)`,

		`CREATE TABLE IF NOT EXISTS sim_positions (
			id TEXT PRIMARY KEY,
			simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
			timeframe VARCHAR(8) NOT NULL,
			position_type VARCHAR(8) NOT NULL,
			status VARCHAR(16) NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			entry_price NUMERIC NOT NULL,
			entry_spread NUMERIC NOT NULL,
			entry_commission NUMERIC NOT NULL,
			position_size NUMERIC NOT NULL,
			allocated_capital NUMERIC NOT NULL,
			risk_amount NUMERIC NOT NULL,
			stop_loss NUMERIC NOT NULL,
			take_profit NUMERIC NOT NULL,
			trailing_stop NUMERIC,
			max_profit NUMERIC NOT NULL DEFAULT 0,
			entry_confidence DOUBLE PRECISION NOT NULL,
			entry_indicators_json JSONB,
			exit_time TIMESTAMPTZ,
			exit_price NUMERIC,
			exit_spread NUMERIC,
			exit_commission NUMERIC,
			exit_reason VARCHAR(24),
			exit_indicators_json JSONB,
			gross_pnl NUMERIC,
			net_pnl NUMERIC,
			pnl_pct DOUBLE PRECISION,
			holding_period_minutes INT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sim_positions_simulation ON sim_positions (simulation_id, entry_time DESC)`,

		`CREATE TABLE IF NOT EXISTS sim_daily_performance (
			simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			starting_capital NUMERIC NOT NULL,
			ending_capital NUMERIC NOT NULL,
			daily_pnl NUMERIC NOT NULL,
			daily_pnl_pct DOUBLE PRECISION NOT NULL,
			total_trades INT NOT NULL DEFAULT 0,
			winning_trades INT NOT NULL DEFAULT 0,
			losing_trades INT NOT NULL DEFAULT 0,
			per_timeframe_json JSONB,
			UNIQUE (simulation_id, date)
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
