package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/tickstore"
)

type fakeAnalyses struct {
	results map[model.Interval]*model.HybridAnalysisResult
}

func (f *fakeAnalyses) Latest(_ context.Context, t model.Interval) (*model.HybridAnalysisResult, bool) {
	r, ok := f.results[t]
	return r, ok
}

type fakeSimulations struct {
	sims map[string]*model.Simulation
}

func (f *fakeSimulations) Status(id string) (*model.Simulation, bool) {
	s, ok := f.sims[id]
	return s, ok
}

func (f *fakeSimulations) OpenPositions(id string) []*model.SimulationPosition {
	if f.sims[id] == nil {
		return nil
	}
	return []*model.SimulationPosition{{ID: "pos-1", SimulationID: id}}
}

func newTestServer() *Server {
	ticks := tickstore.New()
	ticks.Append(model.Tick{
		Timestamp: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC),
		OnsUSD:    decimal.NewFromFloat(2000),
		USDLocal:  decimal.NewFromFloat(32.5),
		OnsLocal:  decimal.NewFromFloat(65000),
		GramLocal: decimal.NewFromFloat(2090),
		Source:    model.SourceDemo,
	})

	analyses := &fakeAnalyses{results: map[model.Interval]*model.HybridAnalysisResult{
		model.Interval1h: {Timeframe: model.Interval1h, Signal: model.SignalBuy, Confidence: 0.8},
	}}
	sims := &fakeSimulations{sims: map[string]*model.Simulation{
		"sim-1": {ID: "sim-1", Status: model.SimulationActive},
	}}

	return NewServer(Config{Port: 0, Host: "127.0.0.1"}, ticks, analyses, nil, sims, nil)
}

func TestHealthEndpointReportsHealthy(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLatestTickEndpointReturnsMostRecentObservation(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/price/latest", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Success bool      `json:"success"`
		Data    model.Tick `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !body.Success {
		t.Fatal("expected a successful response")
	}
	price, _ := body.Data.GramLocal.Float64()
	if price != 2090 {
		t.Errorf("expected gram local 2090, got %v", price)
	}
}

func TestLatestHybridAnalysisDefaultsToHourlyTimeframe(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/latest", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestLatestHybridAnalysisMissingTimeframeReturns404(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/analysis/latest?timeframe=1d", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a timeframe with no analysis yet, got %d", w.Code)
	}
}

func TestSimulationStatusUnknownIDReturns404(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/does-not-exist/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSimulationStatusKnownIDReturns200(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/sim-1/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestOpenPositionsForKnownSimulation(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/simulations/sim-1/positions/open", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data []model.SimulationPosition `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected one open position, got %d", len(body.Data))
	}
}

func TestCandlesRejectsUnknownInterval(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/price/candles?interval=3m", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown interval, got %d", w.Code)
	}
}
