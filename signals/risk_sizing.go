package signals

import (
	"sync"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// FixedFractionMoneyManager sizes every entry so that risk - the
// distance between entry price and the protective stop - consumes a
// fixed fraction of current equity, capped by a maximum position value.
// Equity is tracked from the cash balance reported on each fill.
type FixedFractionMoneyManager struct {
	mu sync.Mutex

	riskPerTrade   float64
	maxPositionVal float64
	equity         float64
	initialEquity  float64
}

// NewFixedFractionMoneyManager builds a FixedFractionMoneyManager
// starting from initialEquity, risking riskPerTrade (e.g. 0.02 for 2%)
// of current equity per trade, capped at maxPositionVal per position.
func NewFixedFractionMoneyManager(initialEquity, riskPerTrade, maxPositionVal float64) *FixedFractionMoneyManager {
	return &FixedFractionMoneyManager{
		equity:         initialEquity,
		initialEquity:  initialEquity,
		riskPerTrade:   riskPerTrade,
		maxPositionVal: maxPositionVal,
	}
}

func (f *FixedFractionMoneyManager) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.equity = f.initialEquity
}

func (f *FixedFractionMoneyManager) Clone() plugin.MoneyManager {
	f.mu.Lock()
	defer f.mu.Unlock()
	return NewFixedFractionMoneyManager(f.equity, f.riskPerTrade, f.maxPositionVal)
}

func (f *FixedFractionMoneyManager) size(price, risk float64) float64 {
	f.mu.Lock()
	equity := f.equity
	f.mu.Unlock()

	if price <= 0 || risk <= 0 || equity <= 0 {
		return 0
	}

	maxRisk := equity * f.riskPerTrade
	size := maxRisk / risk

	maxUnits := f.maxPositionVal / price
	if size > maxUnits {
		size = maxUnits
	}
	if size < 0 {
		return 0
	}
	return size
}

func (f *FixedFractionMoneyManager) GetBuyNum(_ models.Datetime, _ models.Stock, price, risk float64, _ models.Part) float64 {
	return f.size(price, risk)
}

func (f *FixedFractionMoneyManager) GetBuyShortNum(_ models.Datetime, _ models.Stock, price, risk float64, _ models.Part) float64 {
	return f.size(price, risk)
}

// GetSellNum and GetSellShortNum return the full size request, relying
// on the trading system to clamp to the actual held quantity.
func (f *FixedFractionMoneyManager) GetSellNum(_ models.Datetime, _ models.Stock, price, risk float64, _ models.Part) float64 {
	return f.size(price, risk)
}

func (f *FixedFractionMoneyManager) GetSellShortNum(_ models.Datetime, _ models.Stock, price, risk float64, _ models.Part) float64 {
	return f.size(price, risk)
}

func (f *FixedFractionMoneyManager) BuyNotify(rec models.TradeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.equity = rec.Cash + rec.Position*rec.Price
}

func (f *FixedFractionMoneyManager) SellNotify(rec models.TradeRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.equity = rec.Cash + rec.Position*rec.Price
}
