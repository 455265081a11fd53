// Package tickstore holds the append-only raw tick history and derives
// OHLC candles from it on read, as an immutable record keyed by bucket
// start. The store itself is the in-process source of truth; internal/store
// handles durable persistence of the same ticks.
package tickstore

import (
	"sort"
	"sync"
	"time"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// Store is a many-reader/single-writer append-only tick history. Append is
// the only mutator and is expected to be called from a single goroutine
// (the feed dispatcher); reads take a shared lock.
type Store struct {
	mu    sync.RWMutex
	ticks []model.Tick // strictly increasing by Timestamp
	index map[int64]int
	log   *logging.Logger
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		ticks: make([]model.Tick, 0, 1024),
		index: make(map[int64]int),
		log:   logging.WithComponent("tickstore"),
	}
}

// Append validates and appends a tick. It is idempotent by timestamp: a
// tick whose timestamp already exists is a no-op, not an error. Ticks must
// arrive in non-decreasing timestamp order; an out-of-order tick is
// rejected the same way an invalid one is.
func (s *Store) Append(t model.Tick) error {
	t = t.WithDerivedGramLocal()
	if err := t.Validate(); err != nil {
		s.log.Warn("rejected invalid tick", "error", err, "timestamp", t.Timestamp)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := t.Timestamp.UnixNano()
	if _, exists := s.index[key]; exists {
		return nil
	}
	if n := len(s.ticks); n > 0 && t.Timestamp.Before(s.ticks[n-1].Timestamp) {
		s.log.Warn("rejected out-of-order tick", "timestamp", t.Timestamp, "latest", s.ticks[n-1].Timestamp)
		return model.ErrInvalidTick
	}

	s.index[key] = len(s.ticks)
	s.ticks = append(s.ticks, t)
	return nil
}

// Latest returns the most recently appended tick, or false if the store is
// empty.
func (s *Store) Latest() (model.Tick, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.ticks) == 0 {
		return model.Tick{}, false
	}
	return s.ticks[len(s.ticks)-1], true
}

// LatestN returns up to n most recent ticks, oldest-first.
func (s *Store) LatestN(n int) []model.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.ticks) == 0 {
		return nil
	}
	if n > len(s.ticks) {
		n = len(s.ticks)
	}
	out := make([]model.Tick, n)
	copy(out, s.ticks[len(s.ticks)-n:])
	return out
}

// Range returns every tick with Timestamp in [from, to], oldest-first.
func (s *Store) Range(from, to time.Time) []model.Tick {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := sort.Search(len(s.ticks), func(i int) bool {
		return !s.ticks[i].Timestamp.Before(from)
	})
	hi := sort.Search(len(s.ticks), func(i int) bool {
		return s.ticks[i].Timestamp.After(to)
	})
	if lo >= hi {
		return nil
	}
	out := make([]model.Tick, hi-lo)
	copy(out, s.ticks[lo:hi])
	return out
}

// Len returns the number of ticks currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ticks)
}

// Candles materializes OHLC candles over the ounce/USD series at the given
// interval, oldest-first, limited to the last `limit` non-empty buckets.
// The most recent bucket is "live": it changes as new ticks arrive, so
// callers must not cache it by value across calls.
func (s *Store) Candles(intervalMinutes int, limit int) []model.Candle {
	s.mu.RLock()
	ticks := make([]model.Tick, len(s.ticks))
	copy(ticks, s.ticks)
	s.mu.RUnlock()

	return materialize(ticks, intervalMinutes, limit, priceFieldOnsUSD)
}

// GramCandles materializes OHLC candles over the gram-local series.
func (s *Store) GramCandles(intervalMinutes int, limit int) []model.Candle {
	s.mu.RLock()
	ticks := make([]model.Tick, len(s.ticks))
	copy(ticks, s.ticks)
	s.mu.RUnlock()

	return materialize(ticks, intervalMinutes, limit, priceFieldGramLocal)
}

// CurrencyCandles materializes OHLC candles over the USD/local exchange
// rate series, used only by the Currency Risk Analyzer.
func (s *Store) CurrencyCandles(intervalMinutes int, limit int) []model.Candle {
	s.mu.RLock()
	ticks := make([]model.Tick, len(s.ticks))
	copy(ticks, s.ticks)
	s.mu.RUnlock()

	return materialize(ticks, intervalMinutes, limit, priceFieldUSDLocal)
}
