package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// TradingDayEnvironment is valid only on market session days, as
// reported by a DataSource's calendar. It has no internal state of its
// own to reset.
type TradingDayEnvironment struct {
	ds plugin.DataSource
}

func NewTradingDayEnvironment(ds plugin.DataSource) *TradingDayEnvironment {
	return &TradingDayEnvironment{ds: ds}
}

func (t *TradingDayEnvironment) Reset() {}

func (t *TradingDayEnvironment) Clone() plugin.Environment {
	return NewTradingDayEnvironment(t.ds)
}

func (t *TradingDayEnvironment) IsValid(dt models.Datetime) bool {
	return t.ds.IsTradingDay(dt)
}

// TrendFilterEnvironment is valid only while the close is above its own
// simple moving average - a coarse regime filter that keeps trend-
// following signals from trading directly against the prevailing trend.
type TrendFilterEnvironment struct {
	ds       plugin.DataSource
	stock    models.Stock
	interval string
	period   int
}

func NewTrendFilterEnvironment(ds plugin.DataSource, stock models.Stock, interval string, period int) *TrendFilterEnvironment {
	return &TrendFilterEnvironment{ds: ds, stock: stock, interval: interval, period: period}
}

func (t *TrendFilterEnvironment) Reset() {}

func (t *TrendFilterEnvironment) Clone() plugin.Environment {
	return NewTrendFilterEnvironment(t.ds, t.stock, t.interval, t.period)
}

func (t *TrendFilterEnvironment) IsValid(dt models.Datetime) bool {
	closes, err := lookbackCloses(t.ds, t.stock, dt, t.period, t.interval)
	if err != nil || len(closes) < t.period {
		return true
	}
	var sum float64
	for _, c := range closes {
		sum += c
	}
	avg := sum / float64(len(closes))
	return closes[len(closes)-1] >= avg
}
