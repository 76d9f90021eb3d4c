package trading

import (
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// System is the per-bar trading system state machine. One instance is
// bound to one instrument at a time; it is single-threaded and
// RunMoment is not reentrant. Parallel backtests run sibling instances
// produced by Clone.
type System struct {
	stock models.Stock
	cfg   Config

	env          plugin.Environment
	cond         plugin.Condition
	signal       plugin.Signal
	stoploss     plugin.Stoploss
	takeProfit   plugin.TakeProfit
	profitGoal   plugin.ProfitGoal
	moneyManager plugin.MoneyManager
	slippage     plugin.Slippage
	tm           plugin.TradeManager

	buffers [models.NumOrderSlots]models.OrderRequest

	preEvValid  bool
	haveEvValid bool
	preCnValid  bool
	haveCnValid bool

	lastTakeProfit      float64
	lastTakeProfitShort float64
	barsSinceEntry      int
	barsSinceEntryShort int

	tradeList []models.TradeRecord
}

// New builds a System configured with cfg and bound to stock. Plugins are
// wired with the With* setters before the first call to Run or
// RunMoment; ReadyForRun reports whether the minimum required set has
// been provided.
func New(stock models.Stock, cfg Config) *System {
	return &System{
		stock: stock,
		cfg:   cfg,
	}
}

// WithEnvironment wires the Environment plugin.
func (s *System) WithEnvironment(e plugin.Environment) *System { s.env = e; return s }

// WithCondition wires the Condition plugin, connecting it to the
// TradeManager and Signal already wired.
func (s *System) WithCondition(c plugin.Condition) *System {
	s.cond = c
	if s.cond != nil {
		if s.tm != nil {
			s.cond.SetTradeManager(s.tm)
		}
		if s.signal != nil {
			s.cond.SetSignal(s.signal)
		}
	}
	return s
}

// WithSignal wires the Signal plugin.
func (s *System) WithSignal(sg plugin.Signal) *System { s.signal = sg; return s }

// WithStoploss wires the Stoploss plugin.
func (s *System) WithStoploss(sl plugin.Stoploss) *System { s.stoploss = sl; return s }

// WithTakeProfit wires the TakeProfit plugin.
func (s *System) WithTakeProfit(tp plugin.TakeProfit) *System { s.takeProfit = tp; return s }

// WithProfitGoal wires the ProfitGoal plugin.
func (s *System) WithProfitGoal(pg plugin.ProfitGoal) *System { s.profitGoal = pg; return s }

// WithMoneyManager wires the MoneyManager plugin.
func (s *System) WithMoneyManager(mm plugin.MoneyManager) *System { s.moneyManager = mm; return s }

// WithSlippage wires the Slippage plugin.
func (s *System) WithSlippage(sl plugin.Slippage) *System { s.slippage = sl; return s }

// WithTradeManager wires the TradeManager plugin.
func (s *System) WithTradeManager(tm plugin.TradeManager) *System {
	s.tm = tm
	if s.cond != nil {
		s.cond.SetTradeManager(tm)
	}
	return s
}

// ReadyForRun reports whether the minimum required plugin set
// (TradeManager, MoneyManager, Signal) has been wired.
func (s *System) ReadyForRun() error {
	if s.tm == nil {
		return ErrMissingTradeManager
	}
	if s.moneyManager == nil {
		return ErrMissingMoneyManager
	}
	if s.signal == nil {
		return ErrMissingSignal
	}
	return nil
}

// Stock returns the instrument this System is bound to.
func (s *System) Stock() models.Stock { return s.stock }

// Config returns a copy of the current configuration.
func (s *System) Config() Config { return s.cfg }

// SetConfig replaces the current configuration wholesale.
func (s *System) SetConfig(cfg Config) { s.cfg = cfg }

// GetParam reads a single configuration option by name.
func (s *System) GetParam(name string) (interface{}, error) { return s.cfg.GetParam(name) }

// SetParam writes a single configuration option by name; an
// unrecognised key is a hard error.
func (s *System) SetParam(name string, value interface{}) error {
	return s.cfg.SetParam(name, value)
}

// TradeList returns the append-only, chronologically ordered trades
// produced so far. The returned slice is a copy; callers may not mutate
// the System's internal history through it.
func (s *System) TradeList() []models.TradeRecord {
	out := make([]models.TradeRecord, len(s.tradeList))
	copy(out, s.tradeList)
	return out
}

// Reset returns the System to pristine state: the trade list and order
// buffers are cleared, trailing state is zeroed, and every wired
// plugin's own Reset() is invoked. The bound stock and plugin wiring are
// preserved. Calling Reset twice is equivalent to calling it once.
func (s *System) Reset() {
	s.tradeList = nil
	s.buffers = [models.NumOrderSlots]models.OrderRequest{}
	s.preEvValid, s.haveEvValid = false, false
	s.preCnValid, s.haveCnValid = false, false
	s.lastTakeProfit, s.lastTakeProfitShort = 0, 0
	s.barsSinceEntry, s.barsSinceEntryShort = 0, 0

	for _, r := range []plugin.Resettable{s.env, s.cond, s.signal, s.stoploss, s.takeProfit, s.profitGoal, s.moneyManager, s.slippage} {
		if r != nil {
			r.Reset()
		}
	}
}

// Clone produces an independent deep copy of the System: every wired
// plugin is cloned via its own Clone(), so that the original and the
// clone may run on separate goroutines with no shared mutable state.
// The clone starts with an empty trade list, empty order buffers and
// zeroed trailing state; each cloned plugin keeps whatever state its own
// Clone() copies, since Reset() is not called on them.
func (s *System) Clone() *System {
	clone := &System{
		stock: s.stock,
		cfg:   s.cfg,
	}
	if s.env != nil {
		clone.env = s.env.Clone()
	}
	if s.signal != nil {
		clone.signal = s.signal.Clone()
	}
	if s.cond != nil {
		clone.cond = s.cond.Clone()
	}
	if s.stoploss != nil {
		clone.stoploss = s.stoploss.Clone()
	}
	if s.takeProfit != nil {
		clone.takeProfit = s.takeProfit.Clone()
	}
	if s.profitGoal != nil {
		clone.profitGoal = s.profitGoal.Clone()
	}
	if s.moneyManager != nil {
		clone.moneyManager = s.moneyManager.Clone()
	}
	if s.slippage != nil {
		clone.slippage = s.slippage.Clone()
	}
	// TradeManager is not part of the cloneable plugin tree: it is the
	// ledger the host process supplies per run, so the caller re-wires it
	// via WithTradeManager on the clone.
	if s.cond != nil {
		if s.signal != nil {
			clone.cond.SetSignal(clone.signal)
		}
	}
	return clone
}
