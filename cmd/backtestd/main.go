// Command backtestd runs a single backtest of the moving-average
// crossover signal over a Binance-sourced bar series and prints a
// performance report.
package main

import (
	"os"

	"github.com/quantix/backtest/backtesting"
	"github.com/quantix/backtest/config"
	"github.com/quantix/backtest/marketdata"
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/signals"
	"github.com/quantix/backtest/storage"
	"github.com/quantix/backtest/trading"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("symbol", cfg.Symbol).
		Time("start", cfg.Start).
		Time("end", cfg.End).
		Msg("starting backtest run")

	stock := models.NewStock(cfg.Symbol, cfg.Symbol, 0.01, 1, 0.0001, 1e9)

	ds := marketdata.NewBinanceDataSource(cfg.BinanceAPIKey, cfg.BinanceAPISecret)
	ds.RegisterStock(stock)

	bars, err := ds.GetKRecords(stock, models.NewDatetime(cfg.Start), models.NewDatetime(cfg.End), cfg.Interval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch bars")
	}
	if len(bars) == 0 {
		log.Fatal().Msg("data source returned no bars for the requested window")
	}
	log.Info().Int("bars", len(bars)).Msg("fetched bar series")

	db, err := storage.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open ledger database")
	}
	defer db.Close()

	cost := storage.NewPercentCostModel(cfg.CommissionRate, cfg.StampTaxRate, cfg.TransferRate, cfg.CommissionMin)
	ledger := storage.NewLedger(db, cost, cfg.InitialCash, bars[0].Datetime)
	if err := ledger.SetParam("support_borrow_cash", cfg.SupportBorrowCash); err != nil {
		log.Fatal().Err(err).Msg("failed to configure ledger")
	}
	if err := ledger.SetParam("support_borrow_stock", cfg.SupportBorrowStock); err != nil {
		log.Fatal().Err(err).Msg("failed to configure ledger")
	}

	signal := signals.NewMACrossover(ds, stock, cfg.Interval, 10, 30)
	moneyManager := signals.NewFixedFractionMoneyManager(cfg.InitialCash, 0.1, cfg.InitialCash*0.5)

	system := trading.New(stock, trading.DefaultConfig()).
		WithSignal(signal).
		WithMoneyManager(moneyManager).
		WithStoploss(signals.NewPercentStoploss(0.05)).
		WithTakeProfit(signals.NewPercentTakeProfit(0.15)).
		WithSlippage(signals.NewFixedBpsSlippage(5)).
		WithTradeManager(ledger)

	engine := backtesting.NewEngine()
	result, err := engine.Run(system, ledger, bars, backtesting.RunConfig{InitialCash: cfg.InitialCash})
	if err != nil {
		log.Fatal().Err(err).Msg("backtest run failed")
	}

	report := backtesting.NewReport(result)
	os.Stdout.WriteString(report.Summary())
	os.Stdout.WriteString("\n")
	os.Stdout.WriteString(report.TradeList())
}
