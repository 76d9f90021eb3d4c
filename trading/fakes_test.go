package trading

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// fakeSignal drives ShouldBuy/ShouldSell from two plain predicates so
// each test can script exactly the bars it cares about.
type fakeSignal struct {
	buy, sell func(dt models.Datetime) bool
}

func (f *fakeSignal) Reset()                           {}
func (f *fakeSignal) Clone() plugin.Signal              { c := *f; return &c }
func (f *fakeSignal) ShouldBuy(dt models.Datetime) bool { return f.buy != nil && f.buy(dt) }
func (f *fakeSignal) ShouldSell(dt models.Datetime) bool { return f.sell != nil && f.sell(dt) }

// fakeLevel is a shared Stoploss/TakeProfit/ProfitGoal fake returning a
// scripted level (0 means "no such bound").
type fakeLevel struct {
	level func(dt models.Datetime, price float64) float64
}

func (f *fakeLevel) Reset() {}
func (f *fakeLevel) Get(dt models.Datetime, price float64) float64 {
	if f.level == nil {
		return 0
	}
	return f.level(dt, price)
}

type fakeStoploss struct{ fakeLevel }

func (f *fakeStoploss) Clone() plugin.Stoploss { c := *f; return &c }

type fakeTakeProfit struct{ fakeLevel }

func (f *fakeTakeProfit) Clone() plugin.TakeProfit { c := *f; return &c }

type fakeProfitGoal struct{ fakeLevel }

func (f *fakeProfitGoal) Clone() plugin.ProfitGoal { c := *f; return &c }

// fakeSlippage passes prices through unchanged.
type fakeSlippage struct{}

func (fakeSlippage) Reset()                  {}
func (fakeSlippage) Clone() plugin.Slippage  { return fakeSlippage{} }
func (fakeSlippage) GetRealBuyPrice(dt models.Datetime, plan float64) float64  { return plan }
func (fakeSlippage) GetRealSellPrice(dt models.Datetime, plan float64) float64 { return plan }

// fakeGate is a shared Environment/Condition fake whose validity is
// scripted per bar.
type fakeGate struct {
	valid func(dt models.Datetime) bool
}

func (f *fakeGate) Reset() {}
func (f *fakeGate) IsValid(dt models.Datetime) bool {
	if f.valid == nil {
		return true
	}
	return f.valid(dt)
}

type fakeEnvironment struct{ fakeGate }

func (f *fakeEnvironment) Clone() plugin.Environment { c := *f; return &c }

type fakeCondition struct {
	fakeGate
	tm plugin.TradeManager
	sg plugin.Signal
}

func (f *fakeCondition) Clone() plugin.Condition                { c := *f; return &c }
func (f *fakeCondition) SetTradeManager(tm plugin.TradeManager) { f.tm = tm }
func (f *fakeCondition) SetSignal(sg plugin.Signal)             { f.sg = sg }

// fakeLedger is a minimal in-memory TradeManager: one long slot, one
// short slot, no rejection logic, zero cost. Good enough to exercise
// the trading system's own decision logic without a storage backend.
type fakeLedger struct {
	init models.Datetime

	long  models.PositionRecord
	short models.PositionRecord

	supportBorrowCash  bool
	supportBorrowStock bool

	buys, sells, shortSells, shortCovers []models.TradeRecord
}

func newFakeLedger(init models.Datetime) *fakeLedger {
	return &fakeLedger{init: init}
}

func (l *fakeLedger) InitDatetime() models.Datetime { return l.init }

func (l *fakeLedger) Buy(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	if number <= 0 {
		return models.TradeRecord{Business: models.BusinessNone}
	}
	total := l.long.Number + number
	l.long.AverageCost = (l.long.AverageCost*l.long.Number + price*number) / total
	l.long.Number = total
	l.long.Stock = stock
	l.long.Stoploss = stoploss
	l.long.GoalPrice = goal
	if l.long.EntryTime.IsZero() {
		l.long.EntryTime = dt
	}
	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessBuy,
		Price: price, Number: number, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Position: l.long.Number,
	}
	l.buys = append(l.buys, rec)
	return rec
}

func (l *fakeLedger) Sell(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	if number <= 0 || number > l.long.Number {
		return models.TradeRecord{Business: models.BusinessNone}
	}
	l.long.Number -= number
	if l.long.Number == 0 {
		l.long = models.PositionRecord{}
	}
	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessSell,
		Price: price, Number: number, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Position: l.long.Number,
	}
	l.sells = append(l.sells, rec)
	return rec
}

func (l *fakeLedger) BuyShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	held := -l.short.Number
	if number <= 0 || number > held {
		return models.TradeRecord{Business: models.BusinessNone}
	}
	l.short.Number += number
	if l.short.Number == 0 {
		l.short = models.PositionRecord{}
	}
	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessBuyShort,
		Price: price, Number: number, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Position: l.short.Number,
	}
	l.shortCovers = append(l.shortCovers, rec)
	return rec
}

func (l *fakeLedger) SellShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	if number <= 0 || !l.supportBorrowStock {
		return models.TradeRecord{Business: models.BusinessNone}
	}
	l.short.Number -= number
	l.short.Stock = stock
	l.short.Stoploss = stoploss
	l.short.GoalPrice = goal
	if l.short.EntryTime.IsZero() {
		l.short.EntryTime = dt
	}
	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessSellShort,
		Price: price, Number: number, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Position: l.short.Number,
	}
	l.shortSells = append(l.shortSells, rec)
	return rec
}

func (l *fakeLedger) GetPosition(stock models.Stock) models.PositionRecord      { return l.long }
func (l *fakeLedger) GetShortPosition(stock models.Stock) models.PositionRecord { return l.short }
func (l *fakeLedger) Have(stock models.Stock) bool                             { return l.long.Number != 0 || l.short.Number != 0 }

func (l *fakeLedger) GetHoldNumber(dt models.Datetime, stock models.Stock) float64 {
	if l.long.Number != 0 {
		return l.long.Number
	}
	return l.short.Number
}

func (l *fakeLedger) SetParam(name string, value bool) error {
	switch name {
	case "support_borrow_cash":
		l.supportBorrowCash = value
	case "support_borrow_stock":
		l.supportBorrowStock = value
	default:
		return ErrUnknownParam
	}
	return nil
}

// fakeMoneyManager sizes every entry and exit by a fixed, test-supplied
// quantity so assertions can check exact fill sizes without a real
// sizing model.
type fakeMoneyManager struct {
	buyQty, sellQty float64
}

func (m *fakeMoneyManager) Reset()                     {}
func (m *fakeMoneyManager) Clone() plugin.MoneyManager { c := *m; return &c }
func (m *fakeMoneyManager) GetBuyNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64 {
	return m.buyQty
}
func (m *fakeMoneyManager) GetSellNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64 {
	return m.sellQty
}
func (m *fakeMoneyManager) GetSellShortNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64 {
	return m.buyQty
}
func (m *fakeMoneyManager) GetBuyShortNum(dt models.Datetime, stock models.Stock, price, risk float64, from models.Part) float64 {
	return m.sellQty
}
func (m *fakeMoneyManager) BuyNotify(rec models.TradeRecord)  {}
func (m *fakeMoneyManager) SellNotify(rec models.TradeRecord) {}
