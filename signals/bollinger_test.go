package signals

import (
	"testing"
	"time"

	"github.com/quantix/backtest/models"
	"github.com/stretchr/testify/assert"
)

func TestBollingerMeanReversion_BuysAtLowerBand(t *testing.T) {
	stock := models.NewStock("TEST", "Test", 0.01, 1, 1, 1e9)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	closes := []float64{100, 101, 99, 100, 101, 99, 100, 101, 99, 100, 60}
	ds := newFakeDataSource(stock, closes, start)
	sig := NewBollingerMeanReversion(ds, stock, "1d", 10, 2)

	last := models.NewDatetime(start.AddDate(0, 0, len(closes)-1))
	assert.True(t, sig.ShouldBuy(last))
	assert.False(t, sig.ShouldSell(last))
}

func TestBollingerMeanReversion_SellsAtUpperBand(t *testing.T) {
	stock := models.NewStock("TEST", "Test", 0.01, 1, 1, 1e9)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	closes := []float64{100, 101, 99, 100, 101, 99, 100, 101, 99, 100, 160}
	ds := newFakeDataSource(stock, closes, start)
	sig := NewBollingerMeanReversion(ds, stock, "1d", 10, 2)

	last := models.NewDatetime(start.AddDate(0, 0, len(closes)-1))
	assert.True(t, sig.ShouldSell(last))
	assert.False(t, sig.ShouldBuy(last))
}
