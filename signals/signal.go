// Package signals provides reference plugin implementations for the
// trading system: Signal, Environment, Condition, Stoploss, TakeProfit,
// ProfitGoal, MoneyManager and Slippage, built from the same indicator
// math and risk-sizing approach used elsewhere in this module, adapted
// to the trading system's per-bar, pull-based plugin contracts rather
// than the batch OnData(history) shape those came from.
package signals

import (
	"time"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// intervalDuration maps the handful of interval strings the rest of this
// module uses to their wall-clock span, so an indicator-driven plugin
// can size its lookback window in bars without tracking a rolling
// buffer itself.
func intervalDuration(interval string) time.Duration {
	switch interval {
	case "1m":
		return time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "1h":
		return time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// lookbackCloses pulls up to n bars of closing price ending at dt
// (inclusive), so indicator-driven plugins can compute on demand rather
// than maintaining their own rolling history. A small buffer beyond n
// bars is requested to tolerate gaps (weekends, holidays) in the
// underlying series.
func lookbackCloses(ds plugin.DataSource, stock models.Stock, dt models.Datetime, n int, interval string) ([]float64, error) {
	span := intervalDuration(interval) * time.Duration(n*2+5)
	start := dt.Add(models.NewTimeDelta(-span))
	bars, err := ds.GetKRecords(stock, start, dt, interval)
	if err != nil {
		return nil, err
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes, nil
}
