package tickstore

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

type priceField int

const (
	priceFieldOnsUSD priceField = iota
	priceFieldGramLocal
	priceFieldUSDLocal
)

func price(t model.Tick, field priceField) decimal.Decimal {
	switch field {
	case priceFieldGramLocal:
		return t.GramLocal
	case priceFieldUSDLocal:
		return t.USDLocal
	default:
		return t.OnsUSD
	}
}

// materialize implements the candle materialization algorithm: bucket key
// = floor(timestamp_epoch_seconds / (intervalMinutes*60)) * (intervalMinutes*60).
// For each non-empty bucket, open is the earliest tick's price, close the
// latest, high/low the max/min across the bucket. Empty buckets are
// skipped, not synthesized with the prior close, so the returned sequence
// may have gaps. The function is pure: the same ticks always yield the
// same candles (the caller is responsible for not treating the final,
// still-filling bucket as frozen, since it may still be accumulating ticks).
func materialize(ticks []model.Tick, intervalMinutes int, limit int, field priceField) []model.Candle {
	if intervalMinutes <= 0 || len(ticks) == 0 {
		return nil
	}
	bucketWidth := int64(intervalMinutes * 60)

	var candles []model.Candle
	var cur *model.Candle
	var curKey int64 = -1

	for _, t := range ticks {
		epoch := t.Timestamp.Unix()
		key := (epoch / bucketWidth) * bucketWidth
		p := price(t, field)

		if key != curKey {
			if cur != nil {
				candles = append(candles, *cur)
			}
			cur = &model.Candle{
				Timestamp: time.Unix(key, 0).UTC(),
				Interval:  intervalFromMinutes(intervalMinutes),
				Open:      p,
				High:      p,
				Low:       p,
				Close:     p,
				TickCount: 1,
			}
			curKey = key
			continue
		}

		cur.Close = p
		if p.GreaterThan(cur.High) {
			cur.High = p
		}
		if p.LessThan(cur.Low) {
			cur.Low = p
		}
		cur.TickCount++
	}
	if cur != nil {
		candles = append(candles, *cur)
	}

	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles
}

func intervalFromMinutes(m int) model.Interval {
	switch m {
	case 15:
		return model.Interval15m
	case 60:
		return model.Interval1h
	case 240:
		return model.Interval4h
	case 1440:
		return model.Interval1d
	default:
		return model.Interval(strconv.Itoa(m) + "m")
	}
}
