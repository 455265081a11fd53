package store

import (
	"context"
	"fmt"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// SaveTick appends one price observation. ON CONFLICT DO NOTHING mirrors the
// in-memory tick store's append-is-idempotent-by-timestamp rule.
func (s *Store) SaveTick(ctx context.Context, t model.Tick) error {
	logging.DatabaseContext("insert", "price_data").Debug("persisting tick", "timestamp", t.Timestamp)
	query := `
		INSERT INTO price_data (timestamp, ons_usd, usd_local, ons_local, gram_local, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (timestamp) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, query, t.Timestamp, t.OnsUSD, t.USDLocal, t.OnsLocal, t.GramLocal, t.Source)
	if err != nil {
		return fmt.Errorf("failed to insert price tick: %w", err)
	}
	return nil
}

// LatestTicks returns the most recent n ticks, oldest first, used both to
// warm the in-memory tick store on startup and to serve the read API's
// latest_ticks(n) operation.
func (s *Store) LatestTicks(ctx context.Context, n int) ([]model.Tick, error) {
	query := `
		SELECT timestamp, ons_usd, usd_local, ons_local, gram_local, source
		FROM price_data
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest ticks: %w", err)
	}
	defer rows.Close()

	var out []model.Tick
	for rows.Next() {
		var t model.Tick
		if err := rows.Scan(&t.Timestamp, &t.OnsUSD, &t.USDLocal, &t.OnsLocal, &t.GramLocal, &t.Source); err != nil {
			return nil, fmt.Errorf("failed to scan price tick: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
