package backtesting

import (
	"math"

	"github.com/quantix/backtest/models"
)

// Metrics holds calculated performance statistics for a backtest run.
type Metrics struct {
	TotalReturn      float64
	TotalReturnAbs   float64
	AnnualizedReturn float64
	SharpeRatio      float64
	MaxDrawdown      float64
	MaxDrawdownAbs   float64
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	WinRate          float64
	AverageWin       float64
	AverageLoss      float64
	ProfitFactor     float64
	Volatility       float64
	FinalEquity      float64
}

// CalculateMetrics computes performance metrics from a completed run's
// trade list and equity curve.
func CalculateMetrics(trades []models.TradeRecord, equityCurve []EquityPoint, initialCash float64) Metrics {
	m := Metrics{}

	realized := realizedPnLs(trades)
	m.TotalTrades = len(realized)

	if len(equityCurve) == 0 {
		return m
	}

	m.FinalEquity = equityCurve[len(equityCurve)-1].Equity
	m.TotalReturnAbs = m.FinalEquity - initialCash
	if initialCash > 0 {
		m.TotalReturn = m.TotalReturnAbs / initialCash * 100
	}

	peak := initialCash
	for _, ep := range equityCurve {
		if ep.Equity > peak {
			peak = ep.Equity
		}
		ddAbs := peak - ep.Equity
		ddPct := 0.0
		if peak > 0 {
			ddPct = ddAbs / peak * 100
		}
		if ddPct > m.MaxDrawdown {
			m.MaxDrawdown = ddPct
			m.MaxDrawdownAbs = ddAbs
		}
	}

	grossProfit, grossLoss, wins, losses := 0.0, 0.0, 0.0, 0.0
	for _, pnl := range realized {
		if pnl > 0 {
			m.WinningTrades++
			wins += pnl
			grossProfit += pnl
		} else if pnl < 0 {
			m.LosingTrades++
			losses += -pnl
			grossLoss += -pnl
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	if m.WinningTrades > 0 {
		m.AverageWin = wins / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = losses / float64(m.LosingTrades)
	}
	if grossLoss > 0 {
		m.ProfitFactor = grossProfit / grossLoss
	}

	if len(equityCurve) > 1 {
		returns := make([]float64, len(equityCurve)-1)
		for i := 1; i < len(equityCurve); i++ {
			if equityCurve[i-1].Equity > 0 {
				returns[i-1] = (equityCurve[i].Equity - equityCurve[i-1].Equity) / equityCurve[i-1].Equity
			}
		}

		mean := 0.0
		for _, r := range returns {
			mean += r
		}
		mean /= float64(len(returns))

		variance := 0.0
		for _, r := range returns {
			variance += (r - mean) * (r - mean)
		}
		variance /= float64(len(returns))
		stdDev := math.Sqrt(variance)
		m.Volatility = stdDev * 100

		if stdDev > 0 {
			m.SharpeRatio = mean / stdDev * math.Sqrt(252)
		}

		bars := len(equityCurve)
		years := float64(bars) / 252.0
		if years > 0 && m.FinalEquity > 0 && initialCash > 0 {
			m.AnnualizedReturn = (math.Pow(m.FinalEquity/initialCash, 1/years) - 1) * 100
		}
	}

	return m
}

// realizedPnLs walks the trade list with a weighted-average-cost basis
// tracked independently for the long and short sides, since one system
// may run both concurrently, and returns the realized profit or loss of
// every closing fill.
func realizedPnLs(trades []models.TradeRecord) []float64 {
	var pnls []float64
	var longQty, longCost float64
	var shortQty, shortCost float64

	for _, t := range trades {
		switch t.Business {
		case models.BusinessBuy:
			total := longCost*longQty + t.Price*t.Number
			longQty += t.Number
			if longQty > 0 {
				longCost = total / longQty
			}
		case models.BusinessSell:
			qty := math.Min(t.Number, longQty)
			pnl := (t.Price-longCost)*qty - t.Cost.Total
			pnls = append(pnls, pnl)
			longQty -= qty
			if longQty <= 0 {
				longQty, longCost = 0, 0
			}
		case models.BusinessSellShort:
			total := shortCost*shortQty + t.Price*t.Number
			shortQty += t.Number
			if shortQty > 0 {
				shortCost = total / shortQty
			}
		case models.BusinessBuyShort:
			qty := math.Min(t.Number, shortQty)
			pnl := (shortCost-t.Price)*qty - t.Cost.Total
			pnls = append(pnls, pnl)
			shortQty -= qty
			if shortQty <= 0 {
				shortQty, shortCost = 0, 0
			}
		}
	}
	return pnls
}
