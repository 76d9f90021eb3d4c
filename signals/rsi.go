package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/utils/indicators"
)

// RSISignal buys when RSI falls below an oversold threshold and sells
// when it rises above an overbought one.
type RSISignal struct {
	ds       plugin.DataSource
	stock    models.Stock
	interval string

	period     int
	oversold   float64
	overbought float64
}

// NewRSISignal builds an RSISignal. oversold must be less than overbought.
func NewRSISignal(ds plugin.DataSource, stock models.Stock, interval string, period int, oversold, overbought float64) *RSISignal {
	return &RSISignal{
		ds:         ds,
		stock:      stock,
		interval:   interval,
		period:     period,
		oversold:   oversold,
		overbought: overbought,
	}
}

func (r *RSISignal) Reset() {}

func (r *RSISignal) Clone() plugin.Signal {
	return NewRSISignal(r.ds, r.stock, r.interval, r.period, r.oversold, r.overbought)
}

func (r *RSISignal) latest(dt models.Datetime) (float64, bool) {
	closes, err := lookbackCloses(r.ds, r.stock, dt, r.period+1, r.interval)
	if err != nil || len(closes) < r.period+1 {
		return 0, false
	}
	rsi := indicators.RSI(closes, r.period)
	return rsi[len(rsi)-1], true
}

func (r *RSISignal) ShouldBuy(dt models.Datetime) bool {
	v, ok := r.latest(dt)
	return ok && v < r.oversold
}

func (r *RSISignal) ShouldSell(dt models.Datetime) bool {
	v, ok := r.latest(dt)
	return ok && v > r.overbought
}
