package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

func TestDemoSourceProducesValidTicks(t *testing.T) {
	src := NewDemoSource(5 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var mu sync.Mutex
	var ticks []model.Tick
	err := src.Run(ctx, func(tick model.Tick) {
		mu.Lock()
		ticks = append(ticks, tick)
		mu.Unlock()
	})
	if err != context.DeadlineExceeded {
		t.Fatalf("expected context deadline exceeded, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ticks) == 0 {
		t.Fatal("expected at least one tick before the deadline")
	}
	for _, tick := range ticks {
		if err := tick.Validate(); err != nil {
			t.Errorf("expected a valid tick, got validation error: %v", err)
		}
		if tick.Source != model.SourceDemo {
			t.Errorf("expected source demo, got %s", tick.Source)
		}
	}
}

func TestDemoSourceStopEndsRunPromptly(t *testing.T) {
	src := NewDemoSource(5 * time.Millisecond)
	done := make(chan error, 1)
	go func() {
		done <- src.Run(context.Background(), func(model.Tick) {})
	}()

	time.Sleep(20 * time.Millisecond)
	src.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a nil error on explicit stop, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Run to return promptly after Stop")
	}
}
