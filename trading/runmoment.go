package trading

import "github.com/quantix/backtest/models"

// RunMoment steps the System through one bar. It is not reentrant:
// callers must not invoke RunMoment concurrently on the same System.
//
// Order of evaluation for a single bar:
//  1. Any delayed order already pending is advanced (executed,
//     resubmitted, or discarded) before anything else this bar.
//  2. A degenerate bar (high == low, or close outside [low, high])
//     hard-stops here: no new decision is made on a bar with no usable
//     price action, once its pending orders have been advanced.
//  3. Environment: an invalid environment forces any open position
//     closed and blocks new decisions for the bar; nothing else runs.
//  4. Condition: an invalid condition forces any open position closed
//     and blocks new entries for the bar.
//  5. Signal and position management drive entries/exits for the long
//     side, then (if enabled) the short side, each phase stopping at its
//     first produced trade, since RunMoment returns at most one trade
//     per bar.
func (s *System) RunMoment(k models.KRecord) (models.TradeRecord, error) {
	if err := s.ReadyForRun(); err != nil {
		return models.TradeRecord{}, err
	}

	degenerate := k.IsDegenerate() && !s.cfg.CanTradeWhenHighEqLow

	if rec, ok := s.executeDelayedOrders(k, degenerate); ok {
		s.appendTrade(rec)
		s.advanceBarCounters()
		return rec, nil
	}
	if degenerate {
		s.advanceBarCounters()
		return models.TradeRecord{Business: models.BusinessNone}, nil
	}

	envValid := true
	if s.env != nil {
		envValid = s.env.IsValid(k.Datetime)
	}
	envRevalidated := s.haveEvValid && !s.preEvValid && envValid
	s.preEvValid, s.haveEvValid = envValid, true

	if !envValid {
		if rec, ok := s.forceFlush(k, models.PartEnvironment); ok {
			s.appendTrade(rec)
			s.advanceBarCounters()
			return rec, nil
		}
		s.advanceBarCounters()
		return models.TradeRecord{Business: models.BusinessNone}, nil
	}

	condValid := true
	if s.cond != nil {
		condValid = s.cond.IsValid(k.Datetime)
	}
	condRevalidated := s.haveCnValid && !s.preCnValid && condValid
	s.preCnValid, s.haveCnValid = condValid, true

	if !condValid {
		if rec, ok := s.forceFlush(k, models.PartCondition); ok {
			s.appendTrade(rec)
			s.advanceBarCounters()
			return rec, nil
		}
	}

	entriesAllowed := condValid
	if envRevalidated && !s.cfg.EvOpenPosition {
		entriesAllowed = false
	}
	if condRevalidated && !s.cfg.CnOpenPosition {
		entriesAllowed = false
	}

	if rec, ok := s.manageLong(k, entriesAllowed); ok {
		s.appendTrade(rec)
		s.advanceBarCounters()
		return rec, nil
	}
	if s.shortEnabled() {
		if rec, ok := s.manageShort(k, entriesAllowed); ok {
			s.appendTrade(rec)
			s.advanceBarCounters()
			return rec, nil
		}
	}

	s.advanceBarCounters()
	return models.TradeRecord{Business: models.BusinessNone}, nil
}

// Run drives RunMoment across a bar series in order, starting at the
// first bar at or after the TradeManager's InitDatetime (bars before
// the ledger's inception are not evaluated). It returns every trade
// produced, in the same chronological order they were appended to the
// System's trade list.
func (s *System) Run(krecords []models.KRecord) ([]models.TradeRecord, error) {
	if err := s.ReadyForRun(); err != nil {
		return nil, err
	}
	if len(krecords) == 0 {
		return nil, ErrNoData
	}

	init := s.tm.InitDatetime()
	var produced []models.TradeRecord
	for _, k := range krecords {
		if k.Datetime.Before(init) {
			continue
		}
		rec, err := s.RunMoment(k)
		if err != nil {
			return produced, err
		}
		if !rec.IsNoTrade() {
			produced = append(produced, rec)
		}
	}
	return produced, nil
}

func (s *System) shortEnabled() bool { return s.cfg.SupportBorrowStock }

func (s *System) appendTrade(rec models.TradeRecord) {
	s.tradeList = append(s.tradeList, rec)
}

func (s *System) advanceBarCounters() {
	s.barsSinceEntry++
	s.barsSinceEntryShort++
}

// forceFlush liquidates any open position (long first, then short) at
// market, tagged with part. Used when the environment or condition gate
// is invalid.
func (s *System) forceFlush(k models.KRecord, part models.Part) (models.TradeRecord, bool) {
	if pos := s.tm.GetPosition(s.stock); pos.IsLong() {
		req := models.OrderRequest{
			Valid: true, Business: models.BusinessSell, From: part,
			Datetime: k.Datetime, PlanPrice: k.Close,
			Stoploss: pos.Stoploss, Goal: pos.GoalPrice, Number: pos.Number,
		}
		if rec, ok := s.decide(k, models.SlotLongSell, req); ok {
			return rec, true
		}
	}
	if s.shortEnabled() {
		if pos := s.tm.GetShortPosition(s.stock); pos.IsShort() {
			req := models.OrderRequest{
				Valid: true, Business: models.BusinessBuyShort, From: part,
				Datetime: k.Datetime, PlanPrice: k.Close,
				Stoploss: pos.Stoploss, Goal: pos.GoalPrice, Number: -pos.Number,
			}
			return s.decide(k, models.SlotShortBuy, req)
		}
	}
	return models.TradeRecord{}, false
}

// sellQuantity asks the money manager how much of an open position a
// non-stoploss exit (signal, take-profit, profit-goal) should close.
func (s *System) sellQuantity(k models.KRecord, sign float64, part models.Part) float64 {
	if s.moneyManager == nil {
		return 0
	}
	if sign > 0 {
		return s.moneyManager.GetSellNum(k.Datetime, s.stock, k.Close, 0, part)
	}
	return s.moneyManager.GetBuyShortNum(k.Datetime, s.stock, k.Close, 0, part)
}

// manageLong runs the long side's exit-then-entry decision tree for one
// non-degenerate bar: signal exit, stoploss, profit-goal, then trailing
// take-profit take priority in that order while a long position is
// open. Stoploss and profit-goal breach on the close crossing the
// level; the trailing take-profit exits once price falls back through
// the ratcheted trail (close <= tp), not on an upside breach. A flat
// book considers a fresh entry only when entriesAllowed.
func (s *System) manageLong(k models.KRecord, entriesAllowed bool) (models.TradeRecord, bool) {
	pos := s.tm.GetPosition(s.stock)
	if pos.IsLong() {
		if !s.cfg.IgnoreSellSG && s.signal != nil && s.signal.ShouldSell(k.Datetime) {
			req := models.OrderRequest{
				Valid: true, Business: models.BusinessSell, From: models.PartSellSignal,
				Datetime: k.Datetime, PlanPrice: k.Close,
				Stoploss: pos.Stoploss, Goal: pos.GoalPrice,
				Number: s.sellQuantity(k, 1, models.PartSellSignal),
			}
			return s.decide(k, models.SlotLongSell, req)
		}

		if s.stoploss != nil {
			if sl := s.stoploss.Get(k.Datetime, k.Close); sl != 0 && k.Close <= sl {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessSell, From: models.PartStoploss,
					Datetime: k.Datetime, PlanPrice: sl,
					Stoploss: sl, Goal: pos.GoalPrice, Number: pos.Number,
				}
				return s.decide(k, models.SlotLongSell, req)
			}
		}

		if s.profitGoal != nil {
			if goal := s.profitGoal.Get(k.Datetime, k.Close); goal != 0 && k.Close >= goal {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessSell, From: models.PartProfitGoal,
					Datetime: k.Datetime, PlanPrice: goal,
					Stoploss: pos.Stoploss, Goal: goal,
					Number: s.sellQuantity(k, 1, models.PartProfitGoal),
				}
				return s.decide(k, models.SlotLongSell, req)
			}
		}

		if s.takeProfit != nil && s.barsSinceEntry >= s.cfg.TPDelayN {
			if tp := s.trailingTakeProfit(k.Datetime, k.Close, 1); tp != 0 && k.Close <= tp {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessSell, From: models.PartTakeProfit,
					Datetime: k.Datetime, PlanPrice: tp,
					Stoploss: pos.Stoploss, Goal: pos.GoalPrice,
					Number: s.sellQuantity(k, 1, models.PartTakeProfit),
				}
				return s.decide(k, models.SlotLongSell, req)
			}
		}
		return models.TradeRecord{}, false
	}

	if !entriesAllowed || s.signal == nil || !s.signal.ShouldBuy(k.Datetime) {
		return models.TradeRecord{}, false
	}

	price := k.Close
	var sl, goal float64
	if s.stoploss != nil {
		sl = s.stoploss.Get(k.Datetime, price)
	}
	if s.profitGoal != nil {
		goal = s.profitGoal.Get(k.Datetime, price)
	}
	var number float64
	if s.moneyManager != nil {
		number = s.moneyManager.GetBuyNum(k.Datetime, s.stock, price, price-sl, models.PartBuySignal)
	}
	number = s.stock.RoundLot(number)
	if number <= 0 {
		return models.TradeRecord{}, false
	}
	req := models.OrderRequest{
		Valid: true, Business: models.BusinessBuy, From: models.PartBuySignal,
		Datetime: k.Datetime, PlanPrice: price,
		Stoploss: sl, Goal: goal, Number: number,
	}
	return s.decide(k, models.SlotLongBuy, req)
}

// manageShort is the short-side mirror of manageLong: stoploss,
// profit-goal, and take-profit all breach on the close crossing the
// level the same way the long side does, just in the opposite
// direction (stoploss above, profit-goal and the take-profit trail
// below), and the trailing take-profit ratchet floors rather than
// ceilings.
func (s *System) manageShort(k models.KRecord, entriesAllowed bool) (models.TradeRecord, bool) {
	pos := s.tm.GetShortPosition(s.stock)
	if pos.IsShort() {
		held := -pos.Number

		if !s.cfg.IgnoreSellSG && s.signal != nil && s.signal.ShouldBuy(k.Datetime) {
			req := models.OrderRequest{
				Valid: true, Business: models.BusinessBuyShort, From: models.PartSellSignal,
				Datetime: k.Datetime, PlanPrice: k.Close,
				Stoploss: pos.Stoploss, Goal: pos.GoalPrice,
				Number: s.sellQuantity(k, -1, models.PartSellSignal),
			}
			return s.decide(k, models.SlotShortBuy, req)
		}

		if s.stoploss != nil {
			if sl := s.stoploss.Get(k.Datetime, k.Close); sl != 0 && k.Close >= sl {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessBuyShort, From: models.PartStoploss,
					Datetime: k.Datetime, PlanPrice: sl,
					Stoploss: sl, Goal: pos.GoalPrice, Number: held,
				}
				return s.decide(k, models.SlotShortBuy, req)
			}
		}

		if s.profitGoal != nil {
			if goal := s.profitGoal.Get(k.Datetime, k.Close); goal != 0 && k.Close <= goal {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessBuyShort, From: models.PartProfitGoal,
					Datetime: k.Datetime, PlanPrice: goal,
					Stoploss: pos.Stoploss, Goal: goal,
					Number: s.sellQuantity(k, -1, models.PartProfitGoal),
				}
				return s.decide(k, models.SlotShortBuy, req)
			}
		}

		if s.takeProfit != nil && s.barsSinceEntryShort >= s.cfg.TPDelayN {
			if tp := s.trailingTakeProfit(k.Datetime, k.Close, -1); tp != 0 && k.Close >= tp {
				req := models.OrderRequest{
					Valid: true, Business: models.BusinessBuyShort, From: models.PartTakeProfit,
					Datetime: k.Datetime, PlanPrice: tp,
					Stoploss: pos.Stoploss, Goal: pos.GoalPrice,
					Number: s.sellQuantity(k, -1, models.PartTakeProfit),
				}
				return s.decide(k, models.SlotShortBuy, req)
			}
		}
		return models.TradeRecord{}, false
	}

	if !entriesAllowed || s.signal == nil || !s.signal.ShouldSell(k.Datetime) {
		return models.TradeRecord{}, false
	}

	price := k.Close
	var sl, goal float64
	if s.stoploss != nil {
		sl = s.stoploss.Get(k.Datetime, price)
	}
	if s.profitGoal != nil {
		goal = s.profitGoal.Get(k.Datetime, price)
	}
	var number float64
	if s.moneyManager != nil {
		number = s.moneyManager.GetSellShortNum(k.Datetime, s.stock, price, sl-price, models.PartSellSignal)
	}
	number = s.stock.RoundLot(number)
	if number <= 0 {
		return models.TradeRecord{}, false
	}
	req := models.OrderRequest{
		Valid: true, Business: models.BusinessSellShort, From: models.PartSellSignal,
		Datetime: k.Datetime, PlanPrice: price,
		Stoploss: sl, Goal: goal, Number: number,
	}
	return s.decide(k, models.SlotShortSell, req)
}

// trailingTakeProfit applies the tp_monotonic ratchet on top of the
// TakeProfit plugin's raw level: for a long (sign +1) the effective
// level never decreases; for a short (sign -1) it never increases. The
// ratchet is the trading system's responsibility, not the plugin's.
func (s *System) trailingTakeProfit(dt models.Datetime, price float64, sign float64) float64 {
	tp := s.takeProfit.Get(dt, price)
	if tp == 0 {
		return 0
	}
	if !s.cfg.TPMonotonic {
		if sign > 0 {
			s.lastTakeProfit = tp
		} else {
			s.lastTakeProfitShort = tp
		}
		return tp
	}
	if sign > 0 {
		if s.lastTakeProfit != 0 && tp < s.lastTakeProfit {
			tp = s.lastTakeProfit
		}
		s.lastTakeProfit = tp
	} else {
		if s.lastTakeProfitShort != 0 && tp > s.lastTakeProfitShort {
			tp = s.lastTakeProfitShort
		}
		s.lastTakeProfitShort = tp
	}
	return tp
}
