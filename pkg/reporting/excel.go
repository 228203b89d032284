package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantfarm/regime-trader/internal/backtest"
)

// WriteTradesXLSX writes the results summary and round-trip history as an
// Excel workbook with one sheet for each.
func WriteTradesXLSX(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	const summarySheet = "Summary"
	if err := fx.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"Initial Balance", results.InitialBalance},
		{"Final Balance", results.FinalBalance},
		{"Profit", results.Profit},
		{"Total Return %", results.TotalReturn() * 100},
		{"Max Drawdown %", results.MaxDrawdown * 100},
		{"Round Trips", len(results.RoundTrips)},
		{"Winning Trades", results.WinningTrades},
		{"Losing Trades", results.LosingTrades},
		{"Win Rate %", results.WinRate() * 100},
		{"Circuit Breaker Tripped", results.BreakerTripped},
	}
	for i, row := range summary {
		cell := fmt.Sprintf("A%d", i+1)
		if err := fx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	const tradesSheet = "Trades"
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}
	header := []interface{}{"Trip", "Entry Time", "Entry Price", "Exit Time", "Exit Price", "Planned Size", "Stop Loss", "Take Profit", "PnL"}
	if err := fx.SetSheetRow(tradesSheet, "A1", &header); err != nil {
		return err
	}
	if err := fx.SetCellStyle(tradesSheet, "A1", "I1", headerStyle); err != nil {
		return err
	}
	for i, rt := range results.RoundTrips {
		row := []interface{}{
			i + 1,
			rt.EntryTime.Format("2006-01-02 15:04:05"),
			rt.EntryPrice,
			rt.ExitTime.Format("2006-01-02 15:04:05"),
			rt.ExitPrice,
			rt.PlannedSize,
			rt.StopLoss,
			rt.TakeProfit,
			rt.PnL,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := fx.SetSheetRow(tradesSheet, cell, &row); err != nil {
			return err
		}
	}

	return fx.SaveAs(path)
}
