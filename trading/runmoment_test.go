package trading

import (
	"testing"
	"time"

	"github.com/quantix/backtest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(day int, o, h, l, c float64) models.KRecord {
	return models.KRecord{
		Datetime: dt(2024, time.January, day),
		Open:     o, High: h, Low: l, Close: c,
		Volume: 1000,
	}
}

// Buy-and-hold smoke test: a signal that only ever says buy should open
// exactly one long position and never trade again.
func TestRunMoment_BuyAndHoldSmoke(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = false
	ledger := newFakeLedger(dt(2024, 1, 1))

	s := New(testStock(), cfg).
		WithSignal(&fakeSignal{buy: func(models.Datetime) bool { return true }}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 10}).
		WithTradeManager(ledger)

	bars := []models.KRecord{
		bar(2, 10, 11, 9, 10),
		bar(3, 10, 11, 9, 10),
		bar(4, 10, 11, 9, 10),
	}
	trades, err := s.Run(bars)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, models.BusinessBuy, trades[0].Business)
	assert.Equal(t, models.PartBuySignal, trades[0].Part)
	assert.Equal(t, 10.0, trades[0].Number)
}

// Immediate mode (delay=false) fills the entry on the decision bar
// itself, at that bar's close.
func TestRunMoment_ImmediateModeFillsSameBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = false
	ledger := newFakeLedger(dt(2024, 1, 1))

	s := New(testStock(), cfg).
		WithSignal(&fakeSignal{buy: func(models.Datetime) bool { return true }}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 5}).
		WithTradeManager(ledger)

	b := bar(2, 10, 11, 9, 10.5)
	rec, err := s.RunMoment(b)
	require.NoError(t, err)
	require.False(t, rec.IsNoTrade())
	assert.Equal(t, b.Datetime, rec.Datetime)
	assert.Equal(t, 10.5, rec.Price)
}

// Delayed mode: the entry decided on bar N fills on bar N+1, not on the
// decision bar.
func TestRunMoment_DelayedModeFillsNextBar(t *testing.T) {
	cfg := DefaultConfig() // Delay: true by default
	ledger := newFakeLedger(dt(2024, 1, 1))

	s := New(testStock(), cfg).
		WithSignal(&fakeSignal{buy: func(dt models.Datetime) bool { return dt.Equal(bar(2, 0, 0, 0, 0).Datetime) }}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 5}).
		WithTradeManager(ledger)

	rec, err := s.RunMoment(bar(2, 10, 11, 9, 10))
	require.NoError(t, err)
	assert.True(t, rec.IsNoTrade(), "decision bar should not fill")

	rec, err = s.RunMoment(bar(3, 10, 11, 9, 10.2))
	require.NoError(t, err)
	require.False(t, rec.IsNoTrade())
	assert.Equal(t, models.BusinessBuy, rec.Business)
	assert.Equal(t, 10.0, rec.Price, "a delayed fill prices off the execution bar's open, not its close")
}

// A stoploss breach always liquidates the full current holding,
// regardless of what the money manager would otherwise size a plain
// exit at.
func TestRunMoment_StoplossExitUsesFullHolding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = false
	ledger := newFakeLedger(dt(2024, 1, 1))

	s := New(testStock(), cfg).
		WithSignal(&fakeSignal{buy: func(models.Datetime) bool { return true }}).
		WithStoploss(&fakeStoploss{fakeLevel{level: func(models.Datetime, float64) float64 { return 9.0 }}}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 20, sellQty: 1}). // sellQty deliberately wrong
		WithTradeManager(ledger)

	_, err := s.RunMoment(bar(2, 10, 11, 9.5, 10))
	require.NoError(t, err)
	require.Equal(t, 20.0, ledger.long.Number)

	s.signal.(*fakeSignal).buy = func(models.Datetime) bool { return false }

	rec, err := s.RunMoment(bar(3, 9.4, 9.6, 8.8, 9.0))
	require.NoError(t, err)
	require.False(t, rec.IsNoTrade())
	assert.Equal(t, models.PartStoploss, rec.Part)
	assert.Equal(t, 20.0, rec.Number, "stoploss exit must liquidate the full position")
}

// A delayed order that keeps meeting degenerate bars is discarded after
// exactly max_delay_count retries.
func TestRunMoment_DelayOverflowDiscardsAfterMaxRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDelayCount = 3
	ledger := newFakeLedger(dt(2024, 1, 1))

	s := New(testStock(), cfg).
		WithSignal(&fakeSignal{buy: func(models.Datetime) bool { return true }}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 10}).
		WithTradeManager(ledger)

	// Bar 2: decision bar, submits the buffered buy.
	rec, err := s.RunMoment(bar(2, 10, 11, 9, 10))
	require.NoError(t, err)
	assert.True(t, rec.IsNoTrade())

	// Bars 3-6: four consecutive degenerate bars (high == low). The
	// buffered order's count is bumped on each one; after the third bump
	// the count equals max_delay_count and the order is still pending,
	// and the fourth bump takes it past max_delay_count and discards it.
	for day := 3; day <= 6; day++ {
		rec, err = s.RunMoment(bar(day, 10, 10, 10, 10))
		require.NoError(t, err)
		assert.True(t, rec.IsNoTrade())
	}
	assert.False(t, s.buffers[models.SlotLongBuy].Valid, "order must be discarded by the fourth degenerate bar")
	assert.Equal(t, 0.0, ledger.long.Number, "no fill should ever have occurred")
}

// When the environment turns invalid, any open long position is forced
// closed at market on that same bar ("environment flush").
func TestRunMoment_EnvironmentFlushClosesOpenPosition(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Delay = false
	ledger := newFakeLedger(dt(2024, 1, 1))
	envValid := true

	s := New(testStock(), cfg).
		WithEnvironment(&fakeEnvironment{fakeGate{valid: func(models.Datetime) bool { return envValid }}}).
		WithSignal(&fakeSignal{buy: func(models.Datetime) bool { return true }}).
		WithMoneyManager(&fakeMoneyManager{buyQty: 10}).
		WithTradeManager(ledger)

	_, err := s.RunMoment(bar(2, 10, 11, 9, 10))
	require.NoError(t, err)
	require.Equal(t, 10.0, ledger.long.Number)

	envValid = false
	rec, err := s.RunMoment(bar(3, 10, 11, 9, 10))
	require.NoError(t, err)
	require.False(t, rec.IsNoTrade())
	assert.Equal(t, models.PartEnvironment, rec.Part)
	assert.Equal(t, 10.0, rec.Number)
	assert.Equal(t, 0.0, ledger.long.Number)
}
