package signals

import (
	"testing"
	"time"

	"github.com/quantix/backtest/models"
	"github.com/stretchr/testify/assert"
)

func TestRSISignal_BuysWhenOversold(t *testing.T) {
	stock := models.NewStock("TEST", "Test", 0.01, 1, 1, 1e9)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Steady decline drives RSI toward zero.
	closes := make([]float64, 20)
	price := 100.0
	for i := range closes {
		price -= 2
		closes[i] = price
	}
	ds := newFakeDataSource(stock, closes, start)
	sig := NewRSISignal(ds, stock, "1d", 14, 30, 70)

	last := models.NewDatetime(start.AddDate(0, 0, len(closes)-1))
	assert.True(t, sig.ShouldBuy(last))
	assert.False(t, sig.ShouldSell(last))
}

func TestRSISignal_SellsWhenOverbought(t *testing.T) {
	stock := models.NewStock("TEST", "Test", 0.01, 1, 1, 1e9)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	closes := make([]float64, 20)
	price := 100.0
	for i := range closes {
		price += 2
		closes[i] = price
	}
	ds := newFakeDataSource(stock, closes, start)
	sig := NewRSISignal(ds, stock, "1d", 14, 30, 70)

	last := models.NewDatetime(start.AddDate(0, 0, len(closes)-1))
	assert.True(t, sig.ShouldSell(last))
	assert.False(t, sig.ShouldBuy(last))
}

func TestRSISignal_InsufficientHistoryIsNeutral(t *testing.T) {
	stock := models.NewStock("TEST", "Test", 0.01, 1, 1, 1e9)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds := newFakeDataSource(stock, []float64{10, 11, 12}, start)
	sig := NewRSISignal(ds, stock, "1d", 14, 30, 70)

	last := models.NewDatetime(start.AddDate(0, 0, 2))
	assert.False(t, sig.ShouldBuy(last))
	assert.False(t, sig.ShouldSell(last))
}
