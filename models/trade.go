package models

// Business identifies the direction and kind of a trade, or the absence
// of one. NONE is a first-class value: the trading system represents "no
// trade happened" as a Business of NONE rather than a nil TradeRecord or
// an error.
type Business string

const (
	BusinessInit      Business = "init"
	BusinessBuy       Business = "buy"
	BusinessSell      Business = "sell"
	BusinessBuyShort  Business = "buy_short"
	BusinessSellShort Business = "sell_short"
	BusinessNone      Business = "none"
)

// IsBuy reports whether b is a buy-side fill: a long entry (BUY) or a
// short cover (BUY_SHORT).
func (b Business) IsBuy() bool {
	return b == BusinessBuy || b == BusinessBuyShort
}

// IsSell reports whether b is a sell-side fill: a long exit (SELL) or a
// short entry (SELL_SHORT).
func (b Business) IsSell() bool {
	return b == BusinessSell || b == BusinessSellShort
}

// Part tags which subsystem originated a trade.
type Part string

const (
	PartBuySignal     Part = "buy_signal"
	PartSellSignal    Part = "sell_signal"
	PartStoploss      Part = "stoploss"
	PartTakeProfit    Part = "takeprofit"
	PartProfitGoal    Part = "profitgoal"
	PartEnvironment   Part = "environment"
	PartCondition     Part = "condition"
	PartPortfolio     Part = "portfolio"
	PartAllocateFunds Part = "allocatefunds"
	PartOther         Part = "other"
)

// CostRecord breaks down the transaction cost of a trade. Total must equal
// the sum of the other four fields — CostModel implementations are
// responsible for that invariant.
type CostRecord struct {
	Commission  float64
	StampTax    float64
	TransferFee float64
	Other       float64
	Total       float64
}

// IsConsistent reports whether Total equals the sum of the components,
// within a small epsilon to tolerate floating point accumulation.
func (c CostRecord) IsConsistent() bool {
	sum := c.Commission + c.StampTax + c.TransferFee + c.Other
	diff := sum - c.Total
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// TradeRecord is one append-only entry in the trading system's trade
// list. Records are produced in strictly increasing Datetime order and
// are never mutated or removed once appended.
type TradeRecord struct {
	Datetime   Datetime
	Stock      Stock
	Business   Business
	Price      float64
	Number     float64
	Cost       CostRecord
	PlanPrice  float64
	Stoploss   float64
	GoalPrice  float64
	RealPrice  float64
	Part       Part
	Cash       float64
	Position   float64
}

// IsNoTrade reports whether r represents "no trade occurred".
func (r TradeRecord) IsNoTrade() bool {
	return r.Business == BusinessNone
}
