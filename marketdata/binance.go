// Package marketdata provides a reference plugin.DataSource backed by
// the Binance exchange, plus a small in-memory stock registry so
// instruments can be resolved by code without a separate lookup
// service.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
)

// API is the subset of the Binance client this package calls, narrowed
// so tests can substitute a fake instead of hitting the network.
type API interface {
	GetKlines(symbol, interval string, startMillis, endMillis int64, limit int) ([]*binance.Kline, error)
}

type defaultAPI struct {
	client *binance.Client
}

func (a *defaultAPI) GetKlines(symbol, interval string, startMillis, endMillis int64, limit int) ([]*binance.Kline, error) {
	svc := a.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit)
	if startMillis > 0 {
		svc = svc.StartTime(startMillis)
	}
	if endMillis > 0 {
		svc = svc.EndTime(endMillis)
	}
	return svc.Do(context.Background())
}

var _ plugin.DataSource = (*BinanceDataSource)(nil)

// BinanceDataSource is a plugin.DataSource over the Binance exchange.
// Crypto markets trade continuously, so IsTradingDay reports true for
// every instant and every stock; RegisterStock carries no trading
// calendar.
type BinanceDataSource struct {
	api API

	mu          sync.Mutex
	rateLimiter time.Time
	minInterval time.Duration

	registryMu sync.RWMutex
	registry   map[string]models.Stock
}

// NewBinanceDataSource builds a data source against Binance.com. apiKey
// and apiSecret may be empty for public, unauthenticated endpoints.
func NewBinanceDataSource(apiKey, apiSecret string) *BinanceDataSource {
	client := binance.NewClient(apiKey, apiSecret)
	return newBinanceDataSource(&defaultAPI{client: client})
}

func newBinanceDataSource(api API) *BinanceDataSource {
	return &BinanceDataSource{
		api:         api,
		minInterval: 100 * time.Millisecond,
		registry:    make(map[string]models.Stock),
	}
}

// RegisterStock makes stock resolvable by its code through GetStock.
func (d *BinanceDataSource) RegisterStock(stock models.Stock) {
	d.registryMu.Lock()
	defer d.registryMu.Unlock()
	d.registry[stock.Code] = stock
}

func (d *BinanceDataSource) GetStock(code string) (models.Stock, error) {
	d.registryMu.RLock()
	defer d.registryMu.RUnlock()
	stock, ok := d.registry[code]
	if !ok {
		return models.Stock{}, fmt.Errorf("marketdata: stock %q not registered", code)
	}
	return stock, nil
}

// IsTradingDay always reports true: Binance markets never close.
func (d *BinanceDataSource) IsTradingDay(_ models.Datetime) bool { return true }

func (d *BinanceDataSource) rateLimit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.rateLimiter.IsZero() {
		if elapsed := time.Since(d.rateLimiter); elapsed < d.minInterval {
			time.Sleep(d.minInterval - elapsed)
		}
	}
	d.rateLimiter = time.Now()
}

// GetKRecords fetches bars for stock between start and end, paginating
// through Binance's 1000-candle-per-request limit.
func (d *BinanceDataSource) GetKRecords(stock models.Stock, start, end models.Datetime, interval string) ([]models.KRecord, error) {
	symbol := convertSymbol(stock.Code)
	binanceInterval, err := mapInterval(interval)
	if err != nil {
		return nil, err
	}

	var bars []models.KRecord
	cursor := start.Time()
	endMillis := end.Time().UnixMilli()

	for cursor.Before(end.Time()) || cursor.Equal(end.Time()) {
		d.rateLimit()

		klines, err := d.api.GetKlines(symbol, binanceInterval, cursor.UnixMilli(), endMillis, 1000)
		if err != nil {
			return nil, fmt.Errorf("marketdata: fetch klines for %s: %w", symbol, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bar, err := toKRecord(k)
			if err != nil {
				return nil, fmt.Errorf("marketdata: parse kline for %s: %w", symbol, err)
			}
			bars = append(bars, bar)
		}

		last := klines[len(klines)-1]
		cursor = time.UnixMilli(last.CloseTime + 1)

		if len(klines) < 1000 {
			break
		}
	}

	return bars, nil
}

func toKRecord(k *binance.Kline) (models.KRecord, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return models.KRecord{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return models.KRecord{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return models.KRecord{}, err
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return models.KRecord{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return models.KRecord{}, err
	}
	quoteVolume, _ := strconv.ParseFloat(k.QuoteAssetVolume, 64)

	return models.KRecord{
		Datetime: models.NewDatetime(time.UnixMilli(k.OpenTime)),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		Amount:   quoteVolume,
	}, nil
}

// convertSymbol converts a standard "BTC/USDT" style code into the
// concatenated form Binance expects.
func convertSymbol(code string) string {
	code = strings.ToUpper(code)
	code = strings.ReplaceAll(code, "/", "")
	if strings.HasSuffix(code, "USD") && !strings.HasSuffix(code, "USDT") {
		code += "T"
	}
	return code
}

func mapInterval(interval string) (string, error) {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d":
		return interval, nil
	case "1w", "1wk":
		return "1w", nil
	case "1M", "1mo":
		return "1M", nil
	default:
		return "", fmt.Errorf("marketdata: unsupported interval %q", interval)
	}
}
