// Package reporting renders backtest results to the console, CSV files
// and Excel workbooks. It only reads the result object; nothing flows
// back into the analysis core.
package reporting

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantfarm/regime-trader/internal/backtest"
)

// ConsoleReporter prints a results summary and the trade ledger.
type ConsoleReporter struct {
	ShowTrades bool
}

// NewConsoleReporter creates a console reporter.
func NewConsoleReporter(showTrades bool) *ConsoleReporter {
	return &ConsoleReporter{ShowTrades: showTrades}
}

// OutputResults renders the run summary and, optionally, every round trip.
func (r *ConsoleReporter) OutputResults(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("📊 BACKTEST RESULTS")
	t.AppendRows([]table.Row{
		{"Initial Balance", fmt.Sprintf("$%.2f", results.InitialBalance)},
		{"Final Balance", fmt.Sprintf("$%.2f", results.FinalBalance)},
		{"Profit", fmt.Sprintf("$%.2f", results.Profit)},
		{"Total Return", fmt.Sprintf("%.2f%%", results.TotalReturn()*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
		{"Round Trips", len(results.RoundTrips)},
		{"Winning Trades", results.WinningTrades},
		{"Losing Trades", results.LosingTrades},
		{"Win Rate", fmt.Sprintf("%.1f%%", results.WinRate()*100)},
	})
	if results.BreakerTripped {
		t.AppendRow(table.Row{"Circuit Breaker", "TRIPPED"})
	}
	if results.OpenPosition > 0 {
		t.AppendRow(table.Row{"Open Position", fmt.Sprintf("%.6f units", results.OpenPosition)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	t.Render()

	if r.ShowTrades && len(results.RoundTrips) > 0 {
		r.printTrades(results)
	}
}

func (r *ConsoleReporter) printTrades(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("🔄 TRADE HISTORY")
	t.AppendHeader(table.Row{"#", "Entry Time", "Entry", "Exit Time", "Exit", "Stop", "Target", "PnL"})
	for i, rt := range results.RoundTrips {
		t.AppendRow(table.Row{
			i + 1,
			rt.EntryTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", rt.EntryPrice),
			rt.ExitTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%.2f", rt.ExitPrice),
			fmt.Sprintf("%.2f", rt.StopLoss),
			fmt.Sprintf("%.2f", rt.TakeProfit),
			fmt.Sprintf("%+.2f", rt.PnL),
		})
	}
	t.Render()
}
