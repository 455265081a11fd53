package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// handleLatestTick implements the latest_tick read operation.
func (s *Server) handleLatestTick(c *gin.Context) {
	tick, ok := s.ticks.Latest()
	if !ok {
		errorResponse(c, http.StatusNotFound, "no ticks observed yet")
		return
	}
	successResponse(c, tick)
}

// handleLatestTicks implements the latest_ticks(n) read operation.
func (s *Server) handleLatestTicks(c *gin.Context) {
	n := queryInt(c, "n", 100)
	successResponse(c, s.ticks.LatestN(n))
}

// handleCandles implements the candles(interval, n) read operation over the
// ounce/USD series.
func (s *Server) handleCandles(c *gin.Context) {
	interval, ok := parseInterval(c)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unknown interval")
		return
	}
	n := queryInt(c, "n", 100)
	successResponse(c, s.ticks.Candles(interval.Minutes(), n))
}

// handleGramCandles implements the gram_candles(interval, n) read operation.
func (s *Server) handleGramCandles(c *gin.Context) {
	interval, ok := parseInterval(c)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unknown interval")
		return
	}
	n := queryInt(c, "n", 100)
	successResponse(c, s.ticks.GramCandles(interval.Minutes(), n))
}

// handleLatestHybridAnalysis implements latest_hybrid_analysis(timeframe?).
// A missing timeframe query parameter defaults to the hourly schedule.
func (s *Server) handleLatestHybridAnalysis(c *gin.Context) {
	interval, ok := parseIntervalOrDefault(c, model.Interval1h)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unknown interval")
		return
	}
	result, ok := s.analyses.Latest(c.Request.Context(), interval)
	if !ok {
		errorResponse(c, http.StatusNotFound, "no analysis produced yet for this timeframe")
		return
	}
	successResponse(c, result)
}

// handleHybridAnalysisHistory implements hybrid_analysis_history(timeframe?,
// page, per_page); date_range and signal_type filtering is left to the
// dashboard client since the history rows already carry timestamp and
// signal fields to filter on client-side.
func (s *Server) handleHybridAnalysisHistory(c *gin.Context) {
	interval, ok := parseIntervalOrDefault(c, model.Interval1h)
	if !ok {
		errorResponse(c, http.StatusBadRequest, "unknown interval")
		return
	}
	if s.history == nil {
		successResponse(c, []*model.HybridAnalysisResult{})
		return
	}
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 50)
	rows, err := s.history.HybridAnalysisHistory(c.Request.Context(), interval, page, perPage)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load analysis history")
		return
	}
	successResponse(c, rows)
}

// handleSimulationStatus implements simulation_status(id).
func (s *Server) handleSimulationStatus(c *gin.Context) {
	sim, ok := s.simulations.Status(c.Param("id"))
	if !ok {
		errorResponse(c, http.StatusNotFound, "unknown simulation")
		return
	}
	successResponse(c, sim)
}

// handleOpenPositions implements open_positions(simulation_id).
func (s *Server) handleOpenPositions(c *gin.Context) {
	successResponse(c, s.simulations.OpenPositions(c.Param("id")))
}

// handleClosedPositions implements closed_positions(simulation_id, limit).
func (s *Server) handleClosedPositions(c *gin.Context) {
	if s.closed == nil {
		successResponse(c, []*model.SimulationPosition{})
		return
	}
	limit := queryInt(c, "limit", 50)
	rows, err := s.closed.ClosedPositions(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load closed positions")
		return
	}
	successResponse(c, rows)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseInterval(c *gin.Context) (model.Interval, bool) {
	return parseIntervalOrDefault(c, "")
}

func parseIntervalOrDefault(c *gin.Context, fallback model.Interval) (model.Interval, bool) {
	raw := c.Query("interval")
	if raw == "" {
		raw = c.Query("timeframe")
	}
	if raw == "" {
		if fallback == "" {
			return "", false
		}
		return fallback, true
	}
	candidate := model.Interval(raw)
	for _, known := range model.AllIntervals {
		if known == candidate {
			return candidate, true
		}
	}
	return "", false
}
