package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantfarm/regime-trader/internal/backtest"
)

// WriteTradesCSV writes the round-trip history to a CSV file. An .xlsx
// path is delegated to the Excel writer.
func WriteTradesCSV(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteTradesXLSX(results, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Trip",
		"Entry_Time",
		"Entry_Price",
		"Exit_Time",
		"Exit_Price",
		"Planned_Size",
		"Stop_Loss",
		"Take_Profit",
		"PnL_$",
		"Win_Loss",
	}); err != nil {
		return err
	}

	for i, rt := range results.RoundTrips {
		outcome := "LOSS"
		if rt.PnL > 0 {
			outcome = "WIN"
		}
		record := []string{
			fmt.Sprintf("%d", i+1),
			rt.EntryTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.4f", rt.EntryPrice),
			rt.ExitTime.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.4f", rt.ExitPrice),
			fmt.Sprintf("%.6f", rt.PlannedSize),
			fmt.Sprintf("%.4f", rt.StopLoss),
			fmt.Sprintf("%.4f", rt.TakeProfit),
			fmt.Sprintf("%.2f", rt.PnL),
			outcome,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
