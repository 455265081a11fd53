package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// SaveHybridAnalysis appends one HybridAnalysisResult row. Implements
// orchestrator.ResultStore.
func (s *Store) SaveHybridAnalysis(ctx context.Context, result *model.HybridAnalysisResult) error {
	positionSizeJSON, err := json.Marshal(result.PositionSize)
	if err != nil {
		return fmt.Errorf("failed to marshal position size: %w", err)
	}
	recommendationsJSON, err := json.Marshal(result.Recommendations)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	gramJSON, err := json.Marshal(result.Gram)
	if err != nil {
		return fmt.Errorf("failed to marshal gram analysis: %w", err)
	}
	globalJSON, err := json.Marshal(result.Global)
	if err != nil {
		return fmt.Errorf("failed to marshal global trend analysis: %w", err)
	}
	currencyJSON, err := json.Marshal(result.Currency)
	if err != nil {
		return fmt.Errorf("failed to marshal currency risk analysis: %w", err)
	}
	advancedJSON, err := json.Marshal(result.Advanced)
	if err != nil {
		return fmt.Errorf("failed to marshal advanced indicators: %w", err)
	}
	patternJSON, err := json.Marshal(result.Patterns)
	if err != nil {
		return fmt.Errorf("failed to marshal patterns: %w", err)
	}

	query := `
		INSERT INTO hybrid_analysis (
			timestamp, timeframe, gram_price, signal, signal_strength, confidence,
			position_size_json, stop_loss, take_profit, risk_reward_ratio,
			global_trend, global_trend_strength, currency_risk_level,
			recommendations_json, summary, gram_json, global_json, currency_json,
			advanced_indicators_json, pattern_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`
	_, err = s.pool.Exec(ctx, query,
		result.Timestamp, result.Timeframe, result.GramPrice, result.Signal, result.SignalStrength, result.Confidence,
		positionSizeJSON, nullableDecimal(result.StopLoss), nullableDecimal(result.TakeProfit), result.RiskRewardRatio,
		result.GlobalTrendDirection, result.GlobalTrendStrength, result.CurrencyRiskLevel,
		recommendationsJSON, result.Summary, gramJSON, globalJSON, currencyJSON,
		advancedJSON, patternJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert hybrid analysis: %w", err)
	}
	return nil
}

// LatestHybridAnalysis returns the most recent row for a timeframe, used by
// the read API's latest_hybrid_analysis operation.
func (s *Store) LatestHybridAnalysis(ctx context.Context, timeframe model.Interval) (*model.HybridAnalysisResult, error) {
	query := `
		SELECT timestamp, timeframe, gram_price, signal, signal_strength, confidence,
			position_size_json, stop_loss, take_profit, risk_reward_ratio,
			global_trend, global_trend_strength, currency_risk_level,
			recommendations_json, summary, gram_json, global_json, currency_json,
			advanced_indicators_json, pattern_json
		FROM hybrid_analysis
		WHERE timeframe = $1
		ORDER BY timestamp DESC
		LIMIT 1
	`
	row := s.pool.QueryRow(ctx, query, timeframe)
	return scanHybridAnalysis(row)
}

// HybridAnalysisHistory returns a page of past rows for a timeframe, newest
// first, used by the read API's hybrid_analysis_history operation.
func (s *Store) HybridAnalysisHistory(ctx context.Context, timeframe model.Interval, page, perPage int) ([]*model.HybridAnalysisResult, error) {
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	query := `
		SELECT timestamp, timeframe, gram_price, signal, signal_strength, confidence,
			position_size_json, stop_loss, take_profit, risk_reward_ratio,
			global_trend, global_trend_strength, currency_risk_level,
			recommendations_json, summary, gram_json, global_json, currency_json,
			advanced_indicators_json, pattern_json
		FROM hybrid_analysis
		WHERE timeframe = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := s.pool.Query(ctx, query, timeframe, perPage, (page-1)*perPage)
	if err != nil {
		return nil, fmt.Errorf("failed to query hybrid analysis history: %w", err)
	}
	defer rows.Close()

	var out []*model.HybridAnalysisResult
	for rows.Next() {
		result, err := scanHybridAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHybridAnalysis(row rowScanner) (*model.HybridAnalysisResult, error) {
	var result model.HybridAnalysisResult
	var positionSizeJSON, recommendationsJSON, gramJSON, globalJSON, currencyJSON, advancedJSON, patternJSON []byte
	var stopLoss, takeProfit *decimal.Decimal

	err := row.Scan(
		&result.Timestamp, &result.Timeframe, &result.GramPrice, &result.Signal, &result.SignalStrength, &result.Confidence,
		&positionSizeJSON, &stopLoss, &takeProfit, &result.RiskRewardRatio,
		&result.GlobalTrendDirection, &result.GlobalTrendStrength, &result.CurrencyRiskLevel,
		&recommendationsJSON, &result.Summary, &gramJSON, &globalJSON, &currencyJSON,
		&advancedJSON, &patternJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan hybrid analysis row: %w", err)
	}
	result.StopLoss = stopLoss
	result.TakeProfit = takeProfit

	if err := json.Unmarshal(positionSizeJSON, &result.PositionSize); err != nil {
		return nil, fmt.Errorf("failed to unmarshal position size: %w", err)
	}
	if len(recommendationsJSON) > 0 {
		if err := json.Unmarshal(recommendationsJSON, &result.Recommendations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
		}
	}
	if len(gramJSON) > 0 {
		if err := json.Unmarshal(gramJSON, &result.Gram); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gram analysis: %w", err)
		}
	}
	if len(globalJSON) > 0 {
		if err := json.Unmarshal(globalJSON, &result.Global); err != nil {
			return nil, fmt.Errorf("failed to unmarshal global trend analysis: %w", err)
		}
	}
	if len(currencyJSON) > 0 {
		if err := json.Unmarshal(currencyJSON, &result.Currency); err != nil {
			return nil, fmt.Errorf("failed to unmarshal currency risk analysis: %w", err)
		}
	}
	if len(advancedJSON) > 0 {
		if err := json.Unmarshal(advancedJSON, &result.Advanced); err != nil {
			return nil, fmt.Errorf("failed to unmarshal advanced indicators: %w", err)
		}
	}
	if len(patternJSON) > 0 {
		if err := json.Unmarshal(patternJSON, &result.Patterns); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patterns: %w", err)
		}
	}
	return &result, nil
}

func nullableDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}
