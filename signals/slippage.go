package signals

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// FixedBpsSlippage adjusts a planned fill price by a constant number of
// basis points against the trader: buys fill higher, sells fill lower.
type FixedBpsSlippage struct {
	bps float64
}

// NewFixedBpsSlippage builds a FixedBpsSlippage for the given basis
// points (e.g. 5 for 0.05%).
func NewFixedBpsSlippage(bps float64) *FixedBpsSlippage { return &FixedBpsSlippage{bps: bps} }

func (f *FixedBpsSlippage) Reset() {}

func (f *FixedBpsSlippage) Clone() plugin.Slippage { return NewFixedBpsSlippage(f.bps) }

func (f *FixedBpsSlippage) GetRealBuyPrice(_ models.Datetime, plan float64) float64 {
	return plan * (1 + f.bps/10000)
}

func (f *FixedBpsSlippage) GetRealSellPrice(_ models.Datetime, plan float64) float64 {
	return plan * (1 - f.bps/10000)
}
