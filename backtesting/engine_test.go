package backtesting

import (
	"testing"
	"time"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/storage"
	"github.com/quantix/backtest/trading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSignal buys on buyAt and sells on sellAt, by exact bar timestamp.
type fakeSignal struct {
	buyAt, sellAt models.Datetime
}

func (f *fakeSignal) Reset()                            {}
func (f *fakeSignal) Clone() plugin.Signal               { c := *f; return &c }
func (f *fakeSignal) ShouldBuy(dt models.Datetime) bool  { return dt == f.buyAt }
func (f *fakeSignal) ShouldSell(dt models.Datetime) bool { return dt == f.sellAt }

// fakeMoneyManager returns a fixed quantity for every sizing call.
type fakeMoneyManager struct {
	qty float64
}

func (m *fakeMoneyManager) Reset()                     {}
func (m *fakeMoneyManager) Clone() plugin.MoneyManager { c := *m; return &c }
func (m *fakeMoneyManager) GetBuyNum(models.Datetime, models.Stock, float64, float64, models.Part) float64 {
	return m.qty
}
func (m *fakeMoneyManager) GetSellNum(models.Datetime, models.Stock, float64, float64, models.Part) float64 {
	return m.qty
}
func (m *fakeMoneyManager) GetSellShortNum(models.Datetime, models.Stock, float64, float64, models.Part) float64 {
	return m.qty
}
func (m *fakeMoneyManager) GetBuyShortNum(models.Datetime, models.Stock, float64, float64, models.Part) float64 {
	return m.qty
}
func (m *fakeMoneyManager) BuyNotify(models.TradeRecord)  {}
func (m *fakeMoneyManager) SellNotify(models.TradeRecord) {}

func dailyBars(start time.Time, closes []float64) []models.KRecord {
	bars := make([]models.KRecord, len(closes))
	for i, c := range closes {
		bars[i] = models.KRecord{
			Datetime: models.NewDatetime(start.AddDate(0, 0, i)),
			Open:     c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return bars
}

func TestEngine_Run_ExecutesSignalDrivenTrades(t *testing.T) {
	stock := models.NewStock("TEST", "Test Co", 0.01, 1, 1, 1000000)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := dailyBars(start, []float64{10, 11, 12, 11, 11})

	sig := &fakeSignal{buyAt: bars[0].Datetime, sellAt: bars[4].Datetime}
	mm := &fakeMoneyManager{qty: 100}

	tm := storage.NewLedger(nil, storage.NewPercentCostModel(0, 0, 0, 0), 10000, bars[0].Datetime)

	cfg := trading.DefaultConfig()
	cfg.Delay = false

	system := trading.New(stock, cfg).
		WithSignal(sig).
		WithMoneyManager(mm).
		WithTradeManager(tm)

	engine := NewEngine()
	result, err := engine.Run(system, tm, bars, RunConfig{InitialCash: 10000})
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, models.BusinessBuy, result.Trades[0].Business)
	assert.Equal(t, models.BusinessSell, result.Trades[1].Business)
	assert.Len(t, result.EquityCurve, len(bars))
	assert.Equal(t, 1, result.Metrics.TotalTrades)
	assert.Equal(t, 1, result.Metrics.WinningTrades)
	assert.InDelta(t, 100.0, result.Metrics.FinalEquity-10000, 1e-9)
}

func TestEngine_Run_RejectsEmptyBarSeries(t *testing.T) {
	stock := models.NewStock("TEST", "Test Co", 0.01, 1, 1, 1000000)
	tm := storage.NewLedger(nil, storage.NewPercentCostModel(0, 0, 0, 0), 10000, models.NewDatetime(time.Now()))
	cfg := trading.DefaultConfig()
	system := trading.New(stock, cfg).
		WithSignal(&fakeSignal{}).
		WithMoneyManager(&fakeMoneyManager{qty: 100}).
		WithTradeManager(tm)

	engine := NewEngine()
	_, err := engine.Run(system, tm, nil, RunConfig{InitialCash: 10000})
	assert.Error(t, err)
}

func TestEngine_Run_SkipsBarsBeforeLedgerInception(t *testing.T) {
	stock := models.NewStock("TEST", "Test Co", 0.01, 1, 1, 1000000)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := dailyBars(start, []float64{10, 11, 12})

	// The ledger only begins on the second bar; the first bar's buy
	// signal must not fire.
	init := bars[1].Datetime
	sig := &fakeSignal{buyAt: bars[0].Datetime}
	mm := &fakeMoneyManager{qty: 100}
	tm := storage.NewLedger(nil, storage.NewPercentCostModel(0, 0, 0, 0), 10000, init)

	cfg := trading.DefaultConfig()
	cfg.Delay = false
	system := trading.New(stock, cfg).WithSignal(sig).WithMoneyManager(mm).WithTradeManager(tm)

	engine := NewEngine()
	result, err := engine.Run(system, tm, bars, RunConfig{InitialCash: 10000})
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Len(t, result.EquityCurve, 2)
}

func TestEngine_Run_AssignsDistinctIDAcrossRuns(t *testing.T) {
	stock := models.NewStock("TEST", "Test Co", 0.01, 1, 1, 1000000)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := dailyBars(start, []float64{10, 11})

	tm := storage.NewLedger(nil, storage.NewPercentCostModel(0, 0, 0, 0), 10000, bars[0].Datetime)
	cfg := trading.DefaultConfig()
	system := trading.New(stock, cfg).
		WithSignal(&fakeSignal{}).
		WithMoneyManager(&fakeMoneyManager{qty: 100}).
		WithTradeManager(tm)

	engine := NewEngine()
	r1, err := engine.Run(system, tm, bars, RunConfig{InitialCash: 10000})
	require.NoError(t, err)
	r2, err := engine.Run(system, tm, bars, RunConfig{InitialCash: 10000})
	require.NoError(t, err)

	assert.NotEqual(t, r1.ID, r2.ID)
}
