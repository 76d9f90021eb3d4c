package models

// PositionRecord tracks a held position in one stock, long or short.
// Number == 0 means flat. Carries the stoploss/goal/risk fields the
// trading system needs to persist between bars.
type PositionRecord struct {
	Stock          Stock
	EntryTime      Datetime
	Number         float64
	AverageCost    float64
	Stoploss       float64
	GoalPrice      float64
	TotalRisk      float64
	LastTakeProfit float64
}

// IsFlat reports whether the position holds no quantity.
func (p PositionRecord) IsFlat() bool { return p.Number == 0 }

// IsLong reports whether the position is a long holding.
func (p PositionRecord) IsLong() bool { return p.Number > 0 }

// IsShort reports whether the position is a short holding.
func (p PositionRecord) IsShort() bool { return p.Number < 0 }
