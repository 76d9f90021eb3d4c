package signals

import (
	"time"

	"github.com/quantix/backtest/models"
)

// fakeDataSource serves a fixed, in-memory daily bar series for one
// stock so indicator-driven signals can be exercised without a real
// market-data backend.
type fakeDataSource struct {
	stock models.Stock
	bars  []models.KRecord
}

func newFakeDataSource(stock models.Stock, closes []float64, start time.Time) *fakeDataSource {
	bars := make([]models.KRecord, len(closes))
	for i, c := range closes {
		dt := models.NewDatetime(start.AddDate(0, 0, i))
		bars[i] = models.KRecord{Datetime: dt, Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return &fakeDataSource{stock: stock, bars: bars}
}

func (f *fakeDataSource) GetKRecords(stock models.Stock, start, end models.Datetime, interval string) ([]models.KRecord, error) {
	var out []models.KRecord
	for _, b := range f.bars {
		if (b.Datetime.Equal(start) || b.Datetime.After(start)) && (b.Datetime.Equal(end) || b.Datetime.Before(end)) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeDataSource) GetStock(code string) (models.Stock, error) { return f.stock, nil }

func (f *fakeDataSource) IsTradingDay(dt models.Datetime) bool {
	wd := dt.Time().Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// fakeTradeManager tracks only whether a position is currently open, via
// a settable held flag, for exercising Cooldown in isolation.
type fakeTradeManager struct {
	held bool
}

func (f *fakeTradeManager) Buy(models.Datetime, models.Stock, float64, float64, float64, float64, float64, models.Part) models.TradeRecord {
	return models.TradeRecord{}
}
func (f *fakeTradeManager) Sell(models.Datetime, models.Stock, float64, float64, float64, float64, float64, models.Part) models.TradeRecord {
	return models.TradeRecord{}
}
func (f *fakeTradeManager) BuyShort(models.Datetime, models.Stock, float64, float64, float64, float64, float64, models.Part) models.TradeRecord {
	return models.TradeRecord{}
}
func (f *fakeTradeManager) SellShort(models.Datetime, models.Stock, float64, float64, float64, float64, float64, models.Part) models.TradeRecord {
	return models.TradeRecord{}
}
func (f *fakeTradeManager) GetPosition(models.Stock) models.PositionRecord      { return models.PositionRecord{} }
func (f *fakeTradeManager) GetShortPosition(models.Stock) models.PositionRecord { return models.PositionRecord{} }
func (f *fakeTradeManager) Have(models.Stock) bool                             { return f.held }
func (f *fakeTradeManager) GetHoldNumber(models.Datetime, models.Stock) float64 { return 0 }
func (f *fakeTradeManager) InitDatetime() models.Datetime                      { return models.Datetime{} }
func (f *fakeTradeManager) SetParam(name string, value bool) error             { return nil }
