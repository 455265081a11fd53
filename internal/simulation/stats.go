package simulation

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/sezginpak/gold-price-analyzer-sub001/internal/model"
)

// tradeHistory is the in-memory ledger of closed-trade PnL percentages a
// managedSimulation keeps to roll Sharpe ratio and drawdown forward; it is
// not part of the persisted Simulation aggregate, which only carries the
// rolled-up SimulationStats.
type tradeHistory struct {
	pnlPercents []float64
	peakCapital float64
	capital     float64
}

func newTradeHistory(startingCapital float64) *tradeHistory {
	return &tradeHistory{peakCapital: startingCapital, capital: startingCapital}
}

// recordClose folds one closed position into the running win-rate,
// profit-factor, and drawdown statistics, driven incrementally one trade
// at a time rather than recomputed over a finished trade slice.
func (h *tradeHistory) recordClose(stats *model.SimulationStats, pos *model.SimulationPosition) {
	stats.TotalTrades++
	netPnL, _ := pos.NetPnL.Float64()
	pct := 0.0
	if pos.PnLPercent != nil {
		pct = *pos.PnLPercent
	}
	h.pnlPercents = append(h.pnlPercents, pct)
	h.capital += netPnL
	if h.capital > h.peakCapital {
		h.peakCapital = h.capital
	}

	if netPnL > 0 {
		stats.WinningTrades++
	} else if netPnL < 0 {
		stats.LosingTrades++
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	}

	var sumWins, sumLosses, grossWinAmt, grossLossAmt float64
	var winCount, lossCount int
	for _, p := range h.pnlPercents {
		if p > 0 {
			sumWins += p
			winCount++
		} else if p < 0 {
			sumLosses += -p
			lossCount++
		}
	}
	if winCount > 0 {
		stats.AvgWin = decimal.NewFromFloat(sumWins / float64(winCount))
		grossWinAmt = sumWins
	}
	if lossCount > 0 {
		stats.AvgLoss = decimal.NewFromFloat(sumLosses / float64(lossCount))
		grossLossAmt = sumLosses
	}
	if grossLossAmt > 0 {
		stats.ProfitFactor = grossWinAmt / grossLossAmt
	} else if grossWinAmt > 0 {
		stats.ProfitFactor = math.Inf(1)
	}
	avgWin, _ := stats.AvgWin.Float64()
	avgLoss, _ := stats.AvgLoss.Float64()
	if avgLoss != 0 {
		stats.AvgWinLossRatio = avgWin / avgLoss
	}

	if h.peakCapital > 0 {
		drawdownPct := (h.peakCapital - h.capital) / h.peakCapital * 100
		if drawdownPct > stats.MaxDrawdownPct {
			stats.MaxDrawdownPct = drawdownPct
			stats.MaxDrawdownAbs = decimal.NewFromFloat(h.peakCapital - h.capital)
		}
	}

	stats.SharpeRatio = sharpeRatio(h.pnlPercents)
}

// sharpeRatio computes a dimensionless ratio of mean to stdev over the
// per-trade percent returns, 0 when there are fewer than two trades or the
// series has no variance.
func sharpeRatio(pnlPercents []float64) float64 {
	n := len(pnlPercents)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, p := range pnlPercents {
		sum += p
	}
	mean := sum / float64(n)

	var variance float64
	for _, p := range pnlPercents {
		variance += (p - mean) * (p - mean)
	}
	variance /= float64(n - 1)
	stdev := math.Sqrt(variance)
	if stdev == 0 {
		return 0
	}
	return mean / stdev
}
