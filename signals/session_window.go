package signals

import (
	"time"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// SessionWindow is a Signal with no data dependency at all: it buys at
// one fixed time of day and sells at another, both expressed in a given
// time zone, skipping weekends entirely. It is the fixed-schedule
// counterpart to the indicator-driven signals in this package — useful
// for strategies that hold a position across a session close/open gap
// rather than react to price.
type SessionWindow struct {
	loc       *time.Location
	buyHour   int
	buyMinute int
	sellHour  int
	sellMin   int
}

// NewSessionWindow builds a SessionWindow. loc is typically
// "America/New_York"; buy/sell hour and minute are in that zone's local
// time.
func NewSessionWindow(loc *time.Location, buyHour, buyMinute, sellHour, sellMinute int) *SessionWindow {
	return &SessionWindow{loc: loc, buyHour: buyHour, buyMinute: buyMinute, sellHour: sellHour, sellMin: sellMinute}
}

func (s *SessionWindow) Reset() {}

func (s *SessionWindow) Clone() plugin.Signal {
	return NewSessionWindow(s.loc, s.buyHour, s.buyMinute, s.sellHour, s.sellMin)
}

func (s *SessionWindow) local(dt models.Datetime) (weekday time.Weekday, hour, minute int) {
	t := dt.Time().In(s.loc)
	return t.Weekday(), t.Hour(), t.Minute()
}

func (s *SessionWindow) isWeekend(wd time.Weekday) bool {
	return wd == time.Saturday || wd == time.Sunday
}

func (s *SessionWindow) ShouldBuy(dt models.Datetime) bool {
	wd, h, m := s.local(dt)
	return !s.isWeekend(wd) && h == s.buyHour && m == s.buyMinute
}

func (s *SessionWindow) ShouldSell(dt models.Datetime) bool {
	wd, h, m := s.local(dt)
	return !s.isWeekend(wd) && h == s.sellHour && m == s.sellMin
}
