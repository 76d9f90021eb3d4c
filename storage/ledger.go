package storage

import (
	"sync"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/rs/zerolog/log"
)

// Ledger is a reference TradeManager: an in-memory cash and position
// book that, when given a database, appends a trade_blotter row for
// every accepted fill. Cash and positions live in memory only and are
// not restored from the database. One Ledger may track several stocks at
// once, keyed by stock code, the same map-of-symbol shape the paper
// broker this is grounded on uses for its own position book.
type Ledger struct {
	mu sync.Mutex

	db   *DB
	cost plugin.CostModel
	init models.Datetime

	cash float64

	longs  map[string]*models.PositionRecord
	shorts map[string]*models.PositionRecord

	supportBorrowCash  bool
	supportBorrowStock bool
}

// NewLedger builds a Ledger starting with initialCash, persisting
// through db, pricing transactions through cost. db may be nil to run
// purely in memory (e.g. in tests).
func NewLedger(db *DB, cost plugin.CostModel, initialCash float64, init models.Datetime) *Ledger {
	return &Ledger{
		db:     db,
		cost:   cost,
		init:   init,
		cash:   initialCash,
		longs:  make(map[string]*models.PositionRecord),
		shorts: make(map[string]*models.PositionRecord),
	}
}

var _ plugin.TradeManager = (*Ledger)(nil)

func (l *Ledger) InitDatetime() models.Datetime { return l.init }

func (l *Ledger) SetParam(name string, value bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
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

func (l *Ledger) longOf(stock models.Stock) *models.PositionRecord {
	p, ok := l.longs[stock.Code]
	if !ok {
		p = &models.PositionRecord{Stock: stock}
		l.longs[stock.Code] = p
	}
	return p
}

func (l *Ledger) shortOf(stock models.Stock) *models.PositionRecord {
	p, ok := l.shorts[stock.Code]
	if !ok {
		p = &models.PositionRecord{Stock: stock}
		l.shorts[stock.Code] = p
	}
	return p
}

func reject() models.TradeRecord { return models.TradeRecord{Business: models.BusinessNone} }

func (l *Ledger) Buy(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if number <= 0 {
		return reject()
	}
	costRec := l.cost.GetBuyCost(dt, stock, price, number)
	total := price*number + costRec.Total
	if total > l.cash {
		return reject()
	}

	pos := l.longOf(stock)
	newTotal := pos.Number + number
	pos.AverageCost = (pos.AverageCost*pos.Number + price*number) / newTotal
	pos.Number = newTotal
	pos.Stoploss = stoploss
	pos.GoalPrice = goal
	if pos.EntryTime.IsZero() {
		pos.EntryTime = dt
	}

	l.cash -= total

	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessBuy,
		Price: price, Number: number, Cost: costRec, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Cash: l.cash, Position: pos.Number,
	}
	l.persist(rec)
	return rec
}

func (l *Ledger) Sell(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.longOf(stock)
	if number <= 0 || number > pos.Number {
		return reject()
	}
	costRec := l.cost.GetSellCost(dt, stock, price, number)
	proceeds := price*number - costRec.Total

	pos.Number -= number
	if pos.Number == 0 {
		*pos = models.PositionRecord{Stock: stock}
	}
	l.cash += proceeds

	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessSell,
		Price: price, Number: number, Cost: costRec, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Cash: l.cash, Position: pos.Number,
	}
	l.persist(rec)
	return rec
}

func (l *Ledger) SellShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if number <= 0 || !l.supportBorrowStock {
		return reject()
	}
	costRec := l.cost.GetSellCost(dt, stock, price, number)
	proceeds := price*number - costRec.Total

	pos := l.shortOf(stock)
	held := -pos.Number
	newTotal := held + number
	pos.AverageCost = (pos.AverageCost*held + price*number) / newTotal
	pos.Number = -newTotal
	pos.Stoploss = stoploss
	pos.GoalPrice = goal
	if pos.EntryTime.IsZero() {
		pos.EntryTime = dt
	}

	l.cash += proceeds

	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessSellShort,
		Price: price, Number: number, Cost: costRec, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Cash: l.cash, Position: pos.Number,
	}
	l.persist(rec)
	return rec
}

func (l *Ledger) BuyShort(dt models.Datetime, stock models.Stock, price, number, planPrice, stoploss, goal float64, from models.Part) models.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos := l.shortOf(stock)
	held := -pos.Number
	if number <= 0 || number > held {
		return reject()
	}
	costRec := l.cost.GetBuyCost(dt, stock, price, number)
	total := price*number + costRec.Total
	if total > l.cash {
		return reject()
	}

	pos.Number += number
	if pos.Number == 0 {
		*pos = models.PositionRecord{Stock: stock}
	}
	l.cash -= total

	rec := models.TradeRecord{
		Datetime: dt, Stock: stock, Business: models.BusinessBuyShort,
		Price: price, Number: number, Cost: costRec, PlanPrice: planPrice,
		Stoploss: stoploss, GoalPrice: goal, RealPrice: price, Part: from,
		Cash: l.cash, Position: pos.Number,
	}
	l.persist(rec)
	return rec
}

func (l *Ledger) GetPosition(stock models.Stock) models.PositionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.longs[stock.Code]; ok {
		return *p
	}
	return models.PositionRecord{Stock: stock}
}

func (l *Ledger) GetShortPosition(stock models.Stock) models.PositionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.shorts[stock.Code]; ok {
		return *p
	}
	return models.PositionRecord{Stock: stock}
}

func (l *Ledger) Have(stock models.Stock) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	long, haveLong := l.longs[stock.Code]
	short, haveShort := l.shorts[stock.Code]
	return (haveLong && long.Number != 0) || (haveShort && short.Number != 0)
}

func (l *Ledger) GetHoldNumber(_ models.Datetime, stock models.Stock) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.longs[stock.Code]; ok && p.Number != 0 {
		return p.Number
	}
	if p, ok := l.shorts[stock.Code]; ok {
		return p.Number
	}
	return 0
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// persist mirrors rec to the database if one is wired. Failures are
// logged, not returned: a persistence hiccup must not unwind an
// already-committed in-memory fill.
func (l *Ledger) persist(rec models.TradeRecord) {
	if l.db == nil {
		return
	}
	_, err := l.db.Exec(
		`INSERT INTO trade_blotter (
			datetime, stock_code, business, price, number, plan_price,
			stoploss, goal_price, real_price, part, cash, position,
			commission, stamp_tax, transfer_fee, cost_other, cost_total
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Datetime.String(), rec.Stock.Code, string(rec.Business), rec.Price, rec.Number,
		rec.PlanPrice, rec.Stoploss, rec.GoalPrice, rec.RealPrice, string(rec.Part),
		rec.Cash, rec.Position,
		rec.Cost.Commission, rec.Cost.StampTax, rec.Cost.TransferFee, rec.Cost.Other, rec.Cost.Total,
	)
	if err != nil {
		log.Error().Err(err).Str("stock", rec.Stock.Code).Msg("storage: failed to persist trade")
	}
}
