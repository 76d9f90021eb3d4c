// Package models provides the shared value types for the quantix backtest
// core: bar data, trade/position records, and the order-delay buffer.
// These types are used across every other package for consistent data
// representation.
package models

import (
	"fmt"
	"time"
)

// Datetime is an absolute instant at microsecond resolution.
// It wraps time.Time rather than replacing it so that callers can still
// reach for the stdlib's formatting and arithmetic where convenient, while
// the backtest core gets the two sentinel instants and the bounded
// TimeDelta arithmetic it specifically needs.
type Datetime struct {
	t time.Time
}

// MinDatetime (the Unix epoch) and MaxDatetime (the last microsecond of
// year 9999) are the earliest and latest sentinel instants. They are
// used as open-ended sentinels (e.g. "no end date").
var (
	MinDatetime = Datetime{t: time.Unix(0, 0).UTC()}
	MaxDatetime = Datetime{t: time.Date(9999, 12, 31, 23, 59, 59, 999999000, time.UTC)}
)

// NewDatetime builds a Datetime from a standard library time.Time,
// truncated to microsecond resolution.
func NewDatetime(t time.Time) Datetime {
	return Datetime{t: t.Truncate(time.Microsecond)}
}

// Time returns the underlying time.Time value.
func (d Datetime) Time() time.Time { return d.t }

// IsZero reports whether d is the zero Datetime.
func (d Datetime) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o.
func (d Datetime) Before(o Datetime) bool { return d.t.Before(o.t) }

// After reports whether d is strictly later than o.
func (d Datetime) After(o Datetime) bool { return d.t.After(o.t) }

// Equal reports whether d and o name the same instant.
func (d Datetime) Equal(o Datetime) bool { return d.t.Equal(o.t) }

// Add returns d shifted by td.
func (d Datetime) Add(td TimeDelta) Datetime {
	return Datetime{t: d.t.Add(td.Duration())}
}

// Sub returns the signed TimeDelta between d and o (d - o).
func (d Datetime) Sub(o Datetime) TimeDelta {
	return TimeDelta(d.t.Sub(o.t))
}

// StartOfDay returns the Datetime at midnight of the same calendar day.
func (d Datetime) StartOfDay() Datetime {
	y, m, day := d.t.Date()
	return Datetime{t: time.Date(y, m, day, 0, 0, 0, 0, d.t.Location())}
}

// TimeOfDay returns the TimeDelta elapsed since the start of d's day.
func (d Datetime) TimeOfDay() TimeDelta {
	return d.Sub(d.StartOfDay())
}

func (d Datetime) String() string {
	return d.t.Format("2006-01-02 15:04:05.000000")
}

// TimeDelta is a signed duration measured in microsecond ticks.
// When used to represent a time-of-day it is expected (but not enforced
// by the type itself) to lie within [0, 24h); callers that need that
// guarantee should validate at the boundary.
type TimeDelta time.Duration

// Ticks returns the TimeDelta as an integer count of microseconds.
func (td TimeDelta) Ticks() int64 {
	return int64(time.Duration(td) / time.Microsecond)
}

// Duration returns td as a standard library Duration.
func (td TimeDelta) Duration() time.Duration { return time.Duration(td) }

// NewTimeDelta builds a TimeDelta from a standard library Duration.
func NewTimeDelta(d time.Duration) TimeDelta { return TimeDelta(d) }

// ClampTimeOfDay reports whether td lies in the half-open day range
// [0, 24h), the domain timer specs and daily windows require.
func (td TimeDelta) ClampTimeOfDay() bool {
	return td >= 0 && td < TimeDelta(24*time.Hour)
}

func (td TimeDelta) String() string {
	return fmt.Sprintf("%dus", td.Ticks())
}
