// Package plugin defines the contracts the trading system consumes from
// its strategy building blocks and bookkeeping collaborators. It is
// deliberately interface-only: implementations live in sibling packages
// (signals, storage, marketdata) or in a host application. One method
// set per external collaborator, each consumed through its interface
// rather than a concrete type so the trading system can be driven by
// fakes in tests and by real adapters in production.
package plugin

import "github.com/quantix/backtest/models"

// Resettable is embedded by every plugin contract. Reset returns the
// plugin to the state it was in before any bar was processed.
type Resettable interface {
	Reset()
}

// Environment answers whether the broader market regime currently
// permits trading.
type Environment interface {
	Resettable
	Clone() Environment

	// IsValid reports whether the environment condition holds at dt.
	IsValid(dt models.Datetime) bool
}

// Condition answers a strategy-specific pre-trade gate. Unlike
// Environment it may depend on trade history or signal state, so it is
// wired to a TradeManager and a Signal before use.
type Condition interface {
	Resettable
	Clone() Condition

	IsValid(dt models.Datetime) bool

	// SetTradeManager wires the bookkeeping collaborator the condition
	// may consult (e.g. days since last trade).
	SetTradeManager(tm TradeManager)

	// SetSignal wires the signal collaborator the condition may consult.
	SetSignal(sg Signal)
}

// Signal decides whether to enter or exit a long position on a given
// bar. ShouldBuy and ShouldSell are not mutually exclusive; when both
// are true the trading system's documented, arbitrary tie-break is that
// buy wins.
type Signal interface {
	Resettable
	Clone() Signal

	ShouldBuy(dt models.Datetime) bool
	ShouldSell(dt models.Datetime) bool
}

// Stoploss computes the stop-loss price for an entry or an in-flight
// position. A return of 0 means "no such bound".
type Stoploss interface {
	Resettable
	Clone() Stoploss

	Get(dt models.Datetime, price float64) float64
}

// TakeProfit computes the trailing take-profit price. A return of 0
// means "no such bound". The trading system, not the plugin, owns the
// monotonic-ratchet behaviour controlled by tp_monotonic.
type TakeProfit interface {
	Resettable
	Clone() TakeProfit

	Get(dt models.Datetime, price float64) float64
}

// ProfitGoal computes the profit-taking target price. A return of 0
// means "no such bound".
type ProfitGoal interface {
	Resettable
	Clone() ProfitGoal

	Get(dt models.Datetime, price float64) float64
}

// MoneyManager sizes orders and is notified of fills so it can adapt
// future sizing (e.g. to account equity or open risk).
type MoneyManager interface {
	Resettable
	Clone() MoneyManager

	// GetBuyNum returns the quantity to buy, before lot rounding. risk is
	// price - stoploss (or its short-side mirror) and may be used for
	// risk-based position sizing. A return of 0 means "skip this trade".
	GetBuyNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64

	// GetSellNum is the sell-side analogue of GetBuyNum. Implementations
	// are not responsible for the stoploss override to full holding —
	// that is the trading system's own responsibility.
	GetSellNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64

	GetSellShortNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64
	GetBuyShortNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64

	// BuyNotify and SellNotify are invoked after a fill so the money
	// manager can update any internal equity/risk tracking.
	BuyNotify(rec models.TradeRecord)
	SellNotify(rec models.TradeRecord)
}

// Slippage adjusts a planned price to a realistic fill price.
type Slippage interface {
	Resettable
	Clone() Slippage

	GetRealBuyPrice(dt models.Datetime, plan float64) float64
	GetRealSellPrice(dt models.Datetime, plan float64) float64
}

// TradeManager is the bookkeeping ledger of cash, positions, and
// realised costs. Its internal accounting is not specified here — only
// the contract is; package storage provides one reference
// implementation.
//
// Rejections are represented, not returned as errors: a call that the
// ledger refuses (insufficient cash, a rule violation) returns a
// TradeRecord with Business == models.BusinessNone rather than an error.
type TradeManager interface {
	// Buy, Sell, BuyShort and SellShort submit a fill at price/number. The
	// ledger computes its own transaction cost via its CostModel and
	// returns a TradeRecord with Business == models.BusinessNone (no
	// bookkeeping mutation) if the fill is refused.
	Buy(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord
	Sell(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord
	BuyShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord
	SellShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord

	GetPosition(stock models.Stock) models.PositionRecord
	GetShortPosition(stock models.Stock) models.PositionRecord
	Have(stock models.Stock) bool
	GetHoldNumber(dt models.Datetime, stock models.Stock) float64

	InitDatetime() models.Datetime

	// SetParam configures boolean ledger-wide options. Known keys are
	// "support_borrow_cash" and "support_borrow_stock"; an unknown key is
	// a configuration error.
	SetParam(name string, value bool) error
}

// CostModel computes transaction costs, consumed by a TradeManager
// implementation rather than by the trading system directly. It is
// specified here by contract only; no internal arithmetic is implied.
type CostModel interface {
	GetBuyCost(dt models.Datetime, stock models.Stock, price, num float64) models.CostRecord
	GetSellCost(dt models.Datetime, stock models.Stock, price, num float64) models.CostRecord

	// GetBorrowCashCost and GetReturnCashCost price a margin loan used to
	// fund a leveraged long entry (support_borrow_cash). Default
	// implementations return zero cost.
	GetBorrowCashCost(dt models.Datetime, cash float64) models.CostRecord
	GetReturnCashCost(dt models.Datetime, borrowed, returned, cash float64) models.CostRecord

	// GetBorrowStockCost and GetReturnStockCost price borrowing shares to
	// sell short (support_borrow_stock). Default implementations return
	// zero cost.
	GetBorrowStockCost(dt models.Datetime, stock models.Stock, price, num float64) models.CostRecord
	GetReturnStockCost(dt models.Datetime, stock models.Stock, price, num float64) models.CostRecord
}

// DataSource is the data-access collaborator the core's host process
// depends on to drive a System: instrument metadata, candle series, and
// the market calendar, all kept out of the trading system itself.
type DataSource interface {
	// GetKRecords returns bars for stock between start and end (inclusive),
	// oldest first, at the given interval (e.g. "1d", "1h").
	GetKRecords(stock models.Stock, start, end models.Datetime, interval string) ([]models.KRecord, error)

	// GetStock resolves trading metadata for a code.
	GetStock(code string) (models.Stock, error)

	// IsTradingDay reports whether dt falls on a market session.
	IsTradingDay(dt models.Datetime) bool
}
