// Package trading implements the per-bar trading system state machine: a
// deterministic procedure that steps a bound instrument's bar series
// through environment, condition, signal, and position-management
// phases, producing an ordered TradeRecord list through an order-delay
// protocol. The collaborator-holding struct with a guarded run loop is
// reworked here from a live polling loop into a synchronous,
// non-reentrant per-bar step function.
package trading

import "fmt"

// Config holds every tunable the trading system reads on each bar, each
// with its documented default. A plain struct plus a constructor that
// returns the defaults, rather than reflection-driven defaulting.
type Config struct {
	// MaxDelayCount bounds how many bars an unfilled delayed order may
	// re-submit before being discarded.
	MaxDelayCount int
	// Delay, if true, executes decisions on the next bar; if false,
	// executes on the decision bar at its close.
	Delay bool
	// DelayUseCurrentPrice recomputes stoploss/quantity/goal from the
	// execution bar rather than reusing decision-bar values.
	DelayUseCurrentPrice bool
	// TPMonotonic keeps the trailing take-profit price non-decreasing.
	TPMonotonic bool
	// TPDelayN defers take-profit evaluation this many bars after entry.
	TPDelayN int
	// IgnoreSellSG suppresses the sell-side signal while long.
	IgnoreSellSG bool
	// CanTradeWhenHighEqLow allows execution on degenerate bars.
	CanTradeWhenHighEqLow bool
	// EvOpenPosition lets the bar on which the environment turns valid
	// again take a signal-driven entry; when false, entries resume on the
	// following bar. It does not open a position by itself.
	EvOpenPosition bool
	// CnOpenPosition is the same switch for the condition gate.
	CnOpenPosition bool
	// SupportBorrowCash is kept in the parameter table only: the System
	// does not read it and does not pass it to the TradeManager.
	SupportBorrowCash bool
	// SupportBorrowStock enables the short side.
	SupportBorrowStock bool
}

// DefaultConfig returns the trading system's configuration defaults.
func DefaultConfig() Config {
	return Config{
		MaxDelayCount:         3,
		Delay:                 true,
		DelayUseCurrentPrice:  true,
		TPMonotonic:           true,
		TPDelayN:              3,
		IgnoreSellSG:          false,
		CanTradeWhenHighEqLow: false,
		EvOpenPosition:        false,
		CnOpenPosition:        false,
		SupportBorrowCash:     false,
		SupportBorrowStock:    false,
	}
}

// paramNames is the fixed parameter surface for GetParam/SetParam: an
// unrecognised key is a hard error on Set, matching the fixed key/type
// table rather than accepting arbitrary reflection-driven keys.
var paramNames = map[string]bool{
	"max_delay_count":            true,
	"delay":                      true,
	"delay_use_current_price":    true,
	"tp_monotonic":               true,
	"tp_delay_n":                 true,
	"ignore_sell_sg":             true,
	"can_trade_when_high_eq_low": true,
	"ev_open_position":           true,
	"cn_open_position":           true,
	"support_borrow_cash":        true,
	"support_borrow_stock":       true,
}

// GetParam returns the current value of a named configuration option.
func (c Config) GetParam(name string) (interface{}, error) {
	switch name {
	case "max_delay_count":
		return c.MaxDelayCount, nil
	case "delay":
		return c.Delay, nil
	case "delay_use_current_price":
		return c.DelayUseCurrentPrice, nil
	case "tp_monotonic":
		return c.TPMonotonic, nil
	case "tp_delay_n":
		return c.TPDelayN, nil
	case "ignore_sell_sg":
		return c.IgnoreSellSG, nil
	case "can_trade_when_high_eq_low":
		return c.CanTradeWhenHighEqLow, nil
	case "ev_open_position":
		return c.EvOpenPosition, nil
	case "cn_open_position":
		return c.CnOpenPosition, nil
	case "support_borrow_cash":
		return c.SupportBorrowCash, nil
	case "support_borrow_stock":
		return c.SupportBorrowStock, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
}

// SetParam updates a named configuration option in place. An
// unrecognised key, or a value of the wrong type for the key, is a hard
// error.
func (c *Config) SetParam(name string, value interface{}) error {
	if !paramNames[name] {
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}

	switch name {
	case "max_delay_count":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", ErrInvalidParamType, name)
		}
		c.MaxDelayCount = v
	case "tp_delay_n":
		v, ok := value.(int)
		if !ok {
			return fmt.Errorf("%w: %s expects int", ErrInvalidParamType, name)
		}
		c.TPDelayN = v
	default:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("%w: %s expects bool", ErrInvalidParamType, name)
		}
		switch name {
		case "delay":
			c.Delay = v
		case "delay_use_current_price":
			c.DelayUseCurrentPrice = v
		case "tp_monotonic":
			c.TPMonotonic = v
		case "ignore_sell_sg":
			c.IgnoreSellSG = v
		case "can_trade_when_high_eq_low":
			c.CanTradeWhenHighEqLow = v
		case "ev_open_position":
			c.EvOpenPosition = v
		case "cn_open_position":
			c.CnOpenPosition = v
		case "support_borrow_cash":
			c.SupportBorrowCash = v
		case "support_borrow_stock":
			c.SupportBorrowStock = v
		}
	}
	return nil
}
