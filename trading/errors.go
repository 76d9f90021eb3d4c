package trading

import "errors"

// Configuration errors are surfaced to the caller, aborting the
// operation rather than being swallowed.
var (
	ErrMissingTradeManager = errors.New("trading: TradeManager plugin is required")
	ErrMissingMoneyManager = errors.New("trading: MoneyManager plugin is required")
	ErrMissingSignal       = errors.New("trading: Signal plugin is required")
	ErrUnknownParam        = errors.New("trading: unknown parameter")
	ErrInvalidParamType    = errors.New("trading: invalid parameter type")
	ErrNoData              = errors.New("trading: no bar data supplied")
)
