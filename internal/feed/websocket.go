package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/logging"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// quoteEnvelope mirrors the upstream price provider's wire shape: a flat
// object keyed by instrument name, each carrying at least a "satis" (ask)
// field as a JSON string.
type quoteEnvelope struct {
	Gold     quote `json:"ALTIN"`
	USDLocal quote `json:"USDTRY"`
	OnsUSD   quote `json:"ONS"`
}

type quote struct {
	Satis string `json:"satis"`
}

// WebsocketSource streams ticks from a narrow upstream price feed, framed
// one JSON quoteEnvelope per message, reconnecting with a fixed backoff on
// any read or dial failure.
type WebsocketSource struct {
	url         string
	readTimeout time.Duration
	log         *logging.Logger

	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
}

// NewWebsocketSource builds a WebsocketSource against url; readTimeout <= 0
// falls back to 30 seconds.
func NewWebsocketSource(url string, readTimeout time.Duration) *WebsocketSource {
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	return &WebsocketSource{url: url, readTimeout: readTimeout, log: logging.WithComponent("feed.websocket")}
}

// Run dials the upstream feed and reconnects on every disconnect until ctx
// is cancelled or Stop is called.
func (w *WebsocketSource) Run(ctx context.Context, onTick func(model.Tick)) error {
	w.mu.Lock()
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	for {
		if !w.isRunning() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
		if err != nil {
			w.log.Warn("feed connection failed, retrying", "url", w.url, "error", err)
			if !w.sleepOrStop(ctx, 5*time.Second) {
				return nil
			}
			continue
		}

		w.log.Info("feed connected", "url", w.url)
		w.readLoop(ctx, conn, onTick)
		conn.Close()

		if !w.isRunning() {
			return nil
		}
		w.log.Warn("feed connection lost, reconnecting", "url", w.url)
		if !w.sleepOrStop(ctx, 3*time.Second) {
			return nil
		}
	}
}

func (w *WebsocketSource) readLoop(ctx context.Context, conn *websocket.Conn, onTick func(model.Tick)) {
	for {
		conn.SetReadDeadline(time.Now().Add(w.readTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.log.Warn("feed read error", "error", err)
			}
			return
		}
		tick, err := parseQuote(message)
		if err != nil {
			w.log.Warn("feed message discarded", "error", err)
			continue
		}
		onTick(tick)
	}
}

func parseQuote(message []byte) (model.Tick, error) {
	var env quoteEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		return model.Tick{}, fmt.Errorf("failed to parse quote envelope: %w", err)
	}

	onsUSD, err := decimal.NewFromString(env.OnsUSD.Satis)
	if err != nil {
		return model.Tick{}, fmt.Errorf("failed to parse ons/usd quote: %w", err)
	}
	usdLocal, err := decimal.NewFromString(env.USDLocal.Satis)
	if err != nil {
		return model.Tick{}, fmt.Errorf("failed to parse usd/local quote: %w", err)
	}
	gramLocal, err := decimal.NewFromString(env.Gold.Satis)
	if err != nil {
		return model.Tick{}, fmt.Errorf("failed to parse gram/local quote: %w", err)
	}

	tick := model.Tick{
		Timestamp: time.Now(),
		OnsUSD:    onsUSD,
		USDLocal:  usdLocal,
		OnsLocal:  onsUSD.Mul(usdLocal),
		GramLocal: gramLocal,
		Source:    model.SourceLive,
	}
	if err := tick.Validate(); err != nil {
		return model.Tick{}, err
	}
	return tick, nil
}

func (w *WebsocketSource) isRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *WebsocketSource) sleepOrStop(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-w.stopCh:
		return false
	case <-time.After(d):
		return true
	}
}

// Stop ends the feed's reconnect loop.
func (w *WebsocketSource) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
}
