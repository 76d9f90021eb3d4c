package trading

import (
	"math"

	"github.com/quantix/backtest/models"
)

// submit writes req into the buffer for slot, coalescing with whatever
// request is already pending there: the previous request's retry Count
// carries forward so that a fresh decision replacing an unfilled one
// does not reset the delay-overflow clock. Count itself is only ever
// advanced by executeDelayedOrders on a degenerate bar (see that
// function's doc comment) — submission and coalescing never touch it.
func (s *System) submit(slot models.OrderSlot, req models.OrderRequest) {
	cur := &s.buffers[slot]
	if cur.Valid {
		req.Count = cur.Count
	}
	*cur = req
	cur.Valid = true
}

// decide routes a freshly made decision either into the delayed-order
// buffer (cfg.Delay) or straight to fillOrder for same-bar execution.
func (s *System) decide(k models.KRecord, slot models.OrderSlot, req models.OrderRequest) (models.TradeRecord, bool) {
	if s.cfg.Delay {
		s.submit(slot, req)
		return models.TradeRecord{}, false
	}
	return s.fillOrder(k, slot, &req, false)
}

// slotOrder is the fixed scan order executeDelayedOrders uses: exits
// before entries, so that a pending close is never starved by a pending
// open competing for the bar's single trade slot.
var slotOrder = [models.NumOrderSlots]models.OrderSlot{
	models.SlotLongSell,
	models.SlotShortBuy,
	models.SlotLongBuy,
	models.SlotShortSell,
}

// executeDelayedOrders advances every pending buffered request by one
// bar. On a degenerate bar no request may fill: each
// pending request's Count is bumped instead, and any request whose
// Count exceeds max_delay_count is discarded. This is the only place
// Count changes. On a non-degenerate bar each pending request attempts
// to fill in slotOrder; a request whose guard fails (the setup the
// decision relied on no longer holds) is discarded rather than retried,
// since "delay" models next-bar execution of a decision, not a resting
// order that waits indefinitely for a price level.
func (s *System) executeDelayedOrders(k models.KRecord, degenerate bool) (models.TradeRecord, bool) {
	if degenerate {
		for i := range s.buffers {
			req := &s.buffers[i]
			if !req.Valid {
				continue
			}
			req.Count++
			if req.Count > s.cfg.MaxDelayCount {
				req.Clear()
			}
		}
		return models.TradeRecord{}, false
	}

	for _, slot := range slotOrder {
		req := &s.buffers[slot]
		if !req.Valid {
			continue
		}
		rec, filled := s.fillOrder(k, slot, req, true)
		req.Clear()
		if filled {
			return rec, true
		}
	}
	return models.TradeRecord{}, false
}

// fillOrder executes one OrderRequest, dispatching to the entry or exit
// path by slot. delayed selects the execution bar's price basis: a
// same-bar immediate fill (delayed=false) prices off the bar's close,
// while a fill deferred from a prior bar's decision (delayed=true)
// prices off this bar's open, per the "execute on next bar, use open as
// planPrice" rule.
func (s *System) fillOrder(k models.KRecord, slot models.OrderSlot, req *models.OrderRequest, delayed bool) (models.TradeRecord, bool) {
	switch slot {
	case models.SlotLongBuy:
		return s.tryEntry(k, req, 1, delayed)
	case models.SlotShortSell:
		return s.tryEntry(k, req, -1, delayed)
	case models.SlotLongSell:
		return s.tryExit(k, req, 1, delayed)
	case models.SlotShortBuy:
		return s.tryExit(k, req, -1, delayed)
	default:
		return models.TradeRecord{}, false
	}
}

// tryEntry fills an opening request: sign +1 is a long buy, -1 a short
// sell. When delay_use_current_price is set, stoploss/goal/number are
// recomputed from the execution bar rather than the stale decision-bar
// values. A stoploss that the execution price has already crossed
// cancels the entry outright rather than filling into an
// immediately-stopped-out position.
func (s *System) tryEntry(k models.KRecord, req *models.OrderRequest, sign float64, delayed bool) (models.TradeRecord, bool) {
	dt := k.Datetime
	price := k.Close
	if delayed {
		price = k.Open
	}

	stoploss := req.Stoploss
	goal := req.Goal
	number := req.Number

	if s.cfg.DelayUseCurrentPrice {
		if s.stoploss != nil {
			stoploss = s.stoploss.Get(dt, price)
		}
		if s.profitGoal != nil {
			goal = s.profitGoal.Get(dt, price)
		}
		risk := (price - stoploss) * sign
		if s.moneyManager != nil {
			if sign > 0 {
				number = s.moneyManager.GetBuyNum(dt, s.stock, price, risk, req.From)
			} else {
				number = s.moneyManager.GetSellShortNum(dt, s.stock, price, risk, req.From)
			}
		}
	}

	number = s.stock.RoundLot(number)
	if number <= 0 {
		return models.TradeRecord{}, false
	}
	if stoploss != 0 {
		if sign > 0 && price <= stoploss {
			return models.TradeRecord{}, false
		}
		if sign < 0 && price >= stoploss {
			return models.TradeRecord{}, false
		}
	}

	realPrice := price
	if s.slippage != nil {
		realPrice = s.slippage.GetRealBuyPrice(dt, price)
	}

	var rec models.TradeRecord
	if sign > 0 {
		rec = s.tm.Buy(dt, s.stock, realPrice, number, price, stoploss, goal, req.From)
	} else {
		rec = s.tm.SellShort(dt, s.stock, realPrice, number, price, stoploss, goal, req.From)
	}
	if rec.IsNoTrade() {
		return models.TradeRecord{}, false
	}
	if s.moneyManager != nil {
		s.moneyManager.BuyNotify(rec)
	}
	if sign > 0 {
		s.barsSinceEntry, s.lastTakeProfit = 0, 0
	} else {
		s.barsSinceEntryShort, s.lastTakeProfitShort = 0, 0
	}
	return rec, true
}

// tryExit fills a closing request: sign +1 closes a long, -1 covers a
// short. A request originating from the stoploss part, or from a forced
// environment/condition flush, always liquidates the full current
// holding at execution time regardless of what was buffered at decision
// time — none of those three are ever a partial exit.
func (s *System) tryExit(k models.KRecord, req *models.OrderRequest, sign float64, delayed bool) (models.TradeRecord, bool) {
	dt := k.Datetime
	price := k.Close
	if delayed {
		price = k.Open
	}

	number := req.Number
	switch {
	case req.From == models.PartStoploss || req.From == models.PartEnvironment || req.From == models.PartCondition:
		number = math.Abs(s.tm.GetHoldNumber(dt, s.stock))
	case s.cfg.DelayUseCurrentPrice && s.moneyManager != nil:
		if sign > 0 {
			number = s.moneyManager.GetSellNum(dt, s.stock, price, 0, req.From)
		} else {
			number = s.moneyManager.GetBuyShortNum(dt, s.stock, price, 0, req.From)
		}
	}

	number = s.stock.RoundLot(math.Abs(number))
	if number <= 0 {
		return models.TradeRecord{}, false
	}

	realPrice := price
	if s.slippage != nil {
		realPrice = s.slippage.GetRealSellPrice(dt, price)
	}

	var rec models.TradeRecord
	if sign > 0 {
		rec = s.tm.Sell(dt, s.stock, realPrice, number, price, req.Stoploss, req.Goal, req.From)
	} else {
		rec = s.tm.BuyShort(dt, s.stock, realPrice, number, price, req.Stoploss, req.Goal, req.From)
	}
	if rec.IsNoTrade() {
		return models.TradeRecord{}, false
	}
	if s.moneyManager != nil {
		s.moneyManager.SellNotify(rec)
	}
	return rec, true
}
