package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/utils/indicators"
)

// MACrossover is a Signal that buys when a short-period simple moving
// average crosses above a long-period one, and sells on the opposite
// crossover. Unlike a batch strategy fed a full history up front, it
// pulls its own lookback window from a DataSource on every call.
type MACrossover struct {
	ds          plugin.DataSource
	stock       models.Stock
	interval    string
	shortPeriod int
	longPeriod  int
}

// NewMACrossover builds a MACrossover signal reading stock's bars from ds
// at the given interval.
func NewMACrossover(ds plugin.DataSource, stock models.Stock, interval string, shortPeriod, longPeriod int) *MACrossover {
	return &MACrossover{
		ds:          ds,
		stock:       stock,
		interval:    interval,
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}
}

func (m *MACrossover) Reset() {}

func (m *MACrossover) Clone() plugin.Signal {
	return NewMACrossover(m.ds, m.stock, m.interval, m.shortPeriod, m.longPeriod)
}

// crossover returns (short SMA crossed above long, short SMA crossed
// below long) as of dt's latest two bars.
func (m *MACrossover) crossover(dt models.Datetime) (bull, bear bool) {
	closes, err := lookbackCloses(m.ds, m.stock, dt, m.longPeriod+1, m.interval)
	if err != nil || len(closes) < m.longPeriod+1 {
		return false, false
	}

	shortMA := indicators.SMA(closes, m.shortPeriod)
	longMA := indicators.SMA(closes, m.longPeriod)
	n := len(closes)

	curShort, curLong := shortMA[n-1], longMA[n-1]
	prevShort, prevLong := shortMA[n-2], longMA[n-2]

	bull = prevShort <= prevLong && curShort > curLong
	bear = prevShort >= prevLong && curShort < curLong
	return bull, bear
}

func (m *MACrossover) ShouldBuy(dt models.Datetime) bool {
	bull, _ := m.crossover(dt)
	return bull
}

func (m *MACrossover) ShouldSell(dt models.Datetime) bool {
	_, bear := m.crossover(dt)
	return bear
}
