package models

// KRecord is a single OHLCV bar for one instrument at one timestamp.
type KRecord struct {
	Datetime Datetime
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Amount   float64
}

// IsValid reports whether the bar satisfies the domain shape rule: high
// is the maximum of the four prices, low is the minimum, and volume is
// non-negative. It does not enforce high != low — that degenerate-bar
// gate is the trading system's own concern, not a validity rule of the
// bar itself.
func (k KRecord) IsValid() bool {
	if k.Volume < 0 {
		return false
	}
	if k.High < k.Open || k.High < k.Close || k.High < k.Low {
		return false
	}
	if k.Low > k.Open || k.Low > k.Close {
		return false
	}
	return true
}

// IsDegenerate reports whether the bar's high equals its low, or the
// close lies outside [low, high] — the condition that gates order
// execution for the bar.
func (k KRecord) IsDegenerate() bool {
	if k.High == k.Low {
		return true
	}
	return k.Close < k.Low || k.Close > k.High
}

// Stock is an opaque instrument identifier plus the trading metadata the
// trading system needs to round order quantities: minimum and maximum
// tradeable lot counts, tick size, and contract multiplier.
type Stock struct {
	Code           string
	Name           string
	TickSize       float64
	Multiplier     float64
	minTradeNumber float64
	maxTradeNumber float64
}

// NewStock builds a Stock with the given trading bounds. minTradeNumber
// doubles as the lot size: valid quantities are integer multiples of it.
func NewStock(code, name string, tickSize, multiplier, minTradeNumber, maxTradeNumber float64) Stock {
	return Stock{
		Code:           code,
		Name:           name,
		TickSize:       tickSize,
		Multiplier:     multiplier,
		minTradeNumber: minTradeNumber,
		maxTradeNumber: maxTradeNumber,
	}
}

// MinTradeNumber returns the smallest tradeable quantity, and the lot
// size every order quantity must be a multiple of.
func (s Stock) MinTradeNumber() float64 { return s.minTradeNumber }

// MaxTradeNumber returns the largest tradeable quantity in one order.
func (s Stock) MaxTradeNumber() float64 { return s.maxTradeNumber }

// RoundLot rounds number down to the nearest multiple of MinTradeNumber,
// clamped to [MinTradeNumber, MaxTradeNumber]. A result that rounds to
// zero signals "no trade".
func (s Stock) RoundLot(number float64) float64 {
	lot := s.minTradeNumber
	if lot <= 0 {
		return 0
	}
	if number < lot {
		return 0
	}
	units := float64(int64(number / lot))
	rounded := units * lot
	if s.maxTradeNumber > 0 && rounded > s.maxTradeNumber {
		rounded = float64(int64(s.maxTradeNumber/lot)) * lot
	}
	return rounded
}
