package signals

import (
	"math"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/utils/indicators"
)

// BollingerMeanReversion buys when price touches or falls below the
// lower band and sells when it touches or rises above the upper band.
type BollingerMeanReversion struct {
	ds       plugin.DataSource
	stock    models.Stock
	interval string

	period     int
	multiplier float64
}

func NewBollingerMeanReversion(ds plugin.DataSource, stock models.Stock, interval string, period int, multiplier float64) *BollingerMeanReversion {
	return &BollingerMeanReversion{ds: ds, stock: stock, interval: interval, period: period, multiplier: multiplier}
}

func (b *BollingerMeanReversion) Reset() {}

func (b *BollingerMeanReversion) Clone() plugin.Signal {
	return NewBollingerMeanReversion(b.ds, b.stock, b.interval, b.period, b.multiplier)
}

func (b *BollingerMeanReversion) bands(dt models.Datetime) (price, upper, lower float64, ok bool) {
	closes, err := lookbackCloses(b.ds, b.stock, dt, b.period, b.interval)
	if err != nil || len(closes) < b.period {
		return 0, 0, 0, false
	}
	up, _, lo := indicators.BollingerBands(closes, b.period, b.multiplier)
	n := len(closes)
	if math.IsNaN(up[n-1]) || math.IsNaN(lo[n-1]) {
		return 0, 0, 0, false
	}
	return closes[n-1], up[n-1], lo[n-1], true
}

func (b *BollingerMeanReversion) ShouldBuy(dt models.Datetime) bool {
	price, _, lower, ok := b.bands(dt)
	return ok && price <= lower
}

func (b *BollingerMeanReversion) ShouldSell(dt models.Datetime) bool {
	price, upper, _, ok := b.bands(dt)
	return ok && price >= upper
}
