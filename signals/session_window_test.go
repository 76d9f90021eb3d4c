package signals

import (
	"testing"
	"time"

	"github.com/quantix/backtest/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWindow_FiresAtConfiguredTimesOnWeekdays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	sw := NewSessionWindow(loc, 16, 0, 8, 30)

	// Wednesday 2024-01-03.
	buyAt := models.NewDatetime(time.Date(2024, 1, 3, 16, 0, 0, 0, loc))
	sellAt := models.NewDatetime(time.Date(2024, 1, 3, 8, 30, 0, 0, loc))
	other := models.NewDatetime(time.Date(2024, 1, 3, 12, 0, 0, 0, loc))

	assert.True(t, sw.ShouldBuy(buyAt))
	assert.False(t, sw.ShouldSell(buyAt))
	assert.True(t, sw.ShouldSell(sellAt))
	assert.False(t, sw.ShouldBuy(other))
	assert.False(t, sw.ShouldSell(other))
}

func TestSessionWindow_SkipsWeekends(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sw := NewSessionWindow(loc, 16, 0, 8, 30)

	// Saturday 2024-01-06.
	saturday := models.NewDatetime(time.Date(2024, 1, 6, 16, 0, 0, 0, loc))
	assert.False(t, sw.ShouldBuy(saturday))
}
