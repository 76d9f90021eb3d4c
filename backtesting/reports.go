package backtesting

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Report generates human-readable and machine-readable output from a
// Result.
type Report struct {
	Result *Result
}

// NewReport builds a Report over result.
func NewReport(result *Result) *Report {
	return &Report{Result: result}
}

// Summary returns a formatted text summary of the run.
func (r *Report) Summary() string {
	if r.Result == nil {
		return "No backtest results available."
	}

	m := r.Result.Metrics

	var sb strings.Builder

	sb.WriteString("═══════════════════════════════════════════════════════════════\n")
	sb.WriteString(fmt.Sprintf("                    BACKTEST REPORT: %s\n", r.Result.ID))
	sb.WriteString("═══════════════════════════════════════════════════════════════\n\n")

	sb.WriteString("PERFORMANCE METRICS\n")
	sb.WriteString("───────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Total Return:      %+.2f%% ($%+.2f)\n", m.TotalReturn, m.TotalReturnAbs))
	sb.WriteString(fmt.Sprintf("  Final Equity:      $%.2f\n", m.FinalEquity))
	sb.WriteString(fmt.Sprintf("  Annualized Return: %+.2f%%\n", m.AnnualizedReturn))
	sb.WriteString(fmt.Sprintf("  Sharpe Ratio:      %.2f\n", m.SharpeRatio))
	sb.WriteString(fmt.Sprintf("  Max Drawdown:      -%.2f%% ($%.2f)\n", m.MaxDrawdown, m.MaxDrawdownAbs))
	sb.WriteString(fmt.Sprintf("  Volatility:        %.2f%%\n", m.Volatility))
	sb.WriteString("\n")

	sb.WriteString("TRADE STATISTICS\n")
	sb.WriteString("───────────────────────────────────────────────────────────────\n")
	sb.WriteString(fmt.Sprintf("  Total Trades:    %d\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("  Winning Trades:  %d (%.1f%%)\n", m.WinningTrades, m.WinRate))
	sb.WriteString(fmt.Sprintf("  Losing Trades:   %d\n", m.LosingTrades))
	sb.WriteString(fmt.Sprintf("  Average Win:     $%.2f\n", m.AverageWin))
	sb.WriteString(fmt.Sprintf("  Average Loss:    $%.2f\n", m.AverageLoss))
	sb.WriteString(fmt.Sprintf("  Profit Factor:   %.2f\n", m.ProfitFactor))
	sb.WriteString("\n")

	sb.WriteString("═══════════════════════════════════════════════════════════════\n")
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString("═══════════════════════════════════════════════════════════════\n")

	return sb.String()
}

// TradeList returns a formatted table of every trade the run produced.
func (r *Report) TradeList() string {
	if r.Result == nil || len(r.Result.Trades) == 0 {
		return "No trades executed."
	}

	var sb strings.Builder
	sb.WriteString("TRADE LIST\n")
	sb.WriteString("───────────────────────────────────────────────────────────────\n")
	sb.WriteString("  #   Datetime             Business    Price      Number    Cash\n")
	sb.WriteString("───────────────────────────────────────────────────────────────\n")

	for i, t := range r.Result.Trades {
		sb.WriteString(fmt.Sprintf(" %3d  %s  %-10s  $%8.2f  %8.2f  $%.2f\n",
			i+1,
			t.Datetime.Time().Format("2006-01-02 15:04:05"),
			t.Business,
			t.Price,
			t.Number,
			t.Cash,
		))
	}

	return sb.String()
}

// JSON returns the full result as JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Result, "", "  ")
}

// MetricsJSON returns just the metrics as JSON.
func (r *Report) MetricsJSON() ([]byte, error) {
	if r.Result == nil {
		return []byte("{}"), nil
	}
	return json.MarshalIndent(r.Result.Metrics, "", "  ")
}
