// Package backtesting drives a trading.System across a bar series and
// reports the resulting trades, equity curve, and performance metrics.
package backtesting

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantix/backtest/models"
	"github.com/quantix/backtest/plugin"
	"github.com/quantix/backtest/trading"
	"github.com/rs/zerolog/log"
)

// RunConfig holds per-run parameters that do not belong to the trading
// system itself.
type RunConfig struct {
	// InitialCash is the ledger's starting cash balance, used as the
	// baseline for return and drawdown metrics.
	InitialCash float64
}

// Result holds the outcome of one backtest run.
type Result struct {
	ID          string
	Trades      []models.TradeRecord
	EquityCurve []EquityPoint
	Metrics     Metrics
	StartedAt   time.Time
	CompletedAt time.Time
}

// EquityPoint is mark-to-market equity at one bar.
type EquityPoint struct {
	Datetime models.Datetime
	Equity   float64
}

// Engine drives trading.System instances across historical bar series.
type Engine struct{}

// NewEngine builds a backtest Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Run steps system through bars in order via RunMoment, tracking
// mark-to-market equity every bar and the trades the system produces.
// tm is the same TradeManager system was wired with: the engine reads
// its InitDatetime to skip bars before the ledger's inception, the same
// skip trading.System.Run itself applies.
func (e *Engine) Run(system *trading.System, tm plugin.TradeManager, bars []models.KRecord, cfg RunConfig) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("backtesting: no bars provided")
	}
	if err := system.ReadyForRun(); err != nil {
		return nil, err
	}

	result := &Result{
		ID:        "bt-" + uuid.NewString(),
		StartedAt: time.Now(),
	}

	log.Info().
		Str("id", result.ID).
		Int("bars", len(bars)).
		Msg("backtesting: starting run")

	init := tm.InitDatetime()
	cash := cfg.InitialCash
	position := 0.0

	for _, k := range bars {
		if k.Datetime.Before(init) {
			continue
		}

		rec, err := system.RunMoment(k)
		if err != nil {
			result.CompletedAt = time.Now()
			return result, err
		}
		if !rec.IsNoTrade() {
			result.Trades = append(result.Trades, rec)
			cash = rec.Cash
			position = rec.Position

			log.Debug().
				Str("id", result.ID).
				Str("business", string(rec.Business)).
				Float64("price", rec.Price).
				Float64("number", rec.Number).
				Msg("backtesting: trade executed")
		}

		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Datetime: k.Datetime,
			Equity:   cash + position*k.Close,
		})
	}

	result.Metrics = CalculateMetrics(result.Trades, result.EquityCurve, cfg.InitialCash)
	result.CompletedAt = time.Now()

	log.Info().
		Str("id", result.ID).
		Float64("total_return", result.Metrics.TotalReturn).
		Int("total_trades", result.Metrics.TotalTrades).
		Float64("win_rate", result.Metrics.WinRate).
		Msg("backtesting: run complete")

	return result, nil
}
