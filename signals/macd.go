package signals

import (
	"math"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/utils/indicators"
)

// MACDCrossover buys on a bullish MACD/signal-line crossover and sells
// on a bearish one.
type MACDCrossover struct {
	ds       plugin.DataSource
	stock    models.Stock
	interval string

	fast, slow, signal int
}

func NewMACDCrossover(ds plugin.DataSource, stock models.Stock, interval string, fast, slow, signalPeriod int) *MACDCrossover {
	return &MACDCrossover{ds: ds, stock: stock, interval: interval, fast: fast, slow: slow, signal: signalPeriod}
}

func (m *MACDCrossover) Reset() {}

func (m *MACDCrossover) Clone() plugin.Signal {
	return NewMACDCrossover(m.ds, m.stock, m.interval, m.fast, m.slow, m.signal)
}

func (m *MACDCrossover) crossover(dt models.Datetime) (bull, bear bool) {
	need := m.slow + m.signal + 2
	closes, err := lookbackCloses(m.ds, m.stock, dt, need, m.interval)
	if err != nil || len(closes) < need {
		return false, false
	}

	macdLine, signalLine, _ := indicators.MACD(closes, m.fast, m.slow, m.signal)
	n := len(closes)
	curM, curS := macdLine[n-1], signalLine[n-1]
	prevM, prevS := macdLine[n-2], signalLine[n-2]

	if math.IsNaN(curM) || math.IsNaN(curS) || math.IsNaN(prevM) || math.IsNaN(prevS) {
		return false, false
	}

	bull = prevM <= prevS && curM > curS
	bear = prevM >= prevS && curM < curS
	return bull, bear
}

func (m *MACDCrossover) ShouldBuy(dt models.Datetime) bool {
	bull, _ := m.crossover(dt)
	return bull
}

func (m *MACDCrossover) ShouldSell(dt models.Datetime) bool {
	_, bear := m.crossover(dt)
	return bear
}
