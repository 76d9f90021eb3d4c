package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/utils/indicators"
)

// PercentStoploss places the stop a fixed percentage below (long) or
// above (short) the reference price; the sign convention is the trading
// system's own concern via its long/short mirroring, so this
// implementation always computes price*(1-pct) and leaves short-side
// inversion to the caller.
type PercentStoploss struct {
	pct float64
}

func NewPercentStoploss(pct float64) *PercentStoploss { return &PercentStoploss{pct: pct} }

func (p *PercentStoploss) Reset() {}
func (p *PercentStoploss) Clone() plugin.Stoploss { return NewPercentStoploss(p.pct) }
func (p *PercentStoploss) Get(_ models.Datetime, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return price * (1 - p.pct)
}

// PercentTakeProfit returns a trailing take-profit bound a fixed
// percentage below the reference price; the trading system applies the
// monotonic ratchet itself (tp_monotonic), so this implementation need
// only report the naive bound for the current price.
type PercentTakeProfit struct {
	pct float64
}

func NewPercentTakeProfit(pct float64) *PercentTakeProfit { return &PercentTakeProfit{pct: pct} }

func (p *PercentTakeProfit) Reset() {}
func (p *PercentTakeProfit) Clone() plugin.TakeProfit { return NewPercentTakeProfit(p.pct) }
func (p *PercentTakeProfit) Get(_ models.Datetime, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return price * (1 - p.pct)
}

// PercentProfitGoal targets a fixed percentage gain above the reference
// price.
type PercentProfitGoal struct {
	pct float64
}

func NewPercentProfitGoal(pct float64) *PercentProfitGoal { return &PercentProfitGoal{pct: pct} }

func (p *PercentProfitGoal) Reset() {}
func (p *PercentProfitGoal) Clone() plugin.ProfitGoal { return NewPercentProfitGoal(p.pct) }
func (p *PercentProfitGoal) Get(_ models.Datetime, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return price * (1 + p.pct)
}

// VolatilityStoploss places the stop a multiple of the rolling standard
// deviation of closes below the reference price - a proxy for an
// average-true-range stop, built from the only dispersion measure this
// module's indicator library provides.
type VolatilityStoploss struct {
	ds         plugin.DataSource
	stock      models.Stock
	interval   string
	period     int
	multiplier float64
}

func NewVolatilityStoploss(ds plugin.DataSource, stock models.Stock, interval string, period int, multiplier float64) *VolatilityStoploss {
	return &VolatilityStoploss{ds: ds, stock: stock, interval: interval, period: period, multiplier: multiplier}
}

func (v *VolatilityStoploss) Reset() {}

func (v *VolatilityStoploss) Clone() plugin.Stoploss {
	return NewVolatilityStoploss(v.ds, v.stock, v.interval, v.period, v.multiplier)
}

func (v *VolatilityStoploss) Get(dt models.Datetime, price float64) float64 {
	if price <= 0 {
		return 0
	}
	closes, err := lookbackCloses(v.ds, v.stock, dt, v.period, v.interval)
	if err != nil || len(closes) < v.period {
		return 0
	}
	dev := indicators.StdDev(closes, v.period)
	sigma := dev[len(dev)-1]
	return price - sigma*v.multiplier
}
