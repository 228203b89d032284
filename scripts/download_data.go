// Command download_data fetches historical klines from Bybit and writes
// them as CSV files compatible with the backtest CSV provider.
//
// Usage:
//
//	go run scripts/download_data.go -symbol BTCUSDT -interval 1h -start 2024-01-01 -end 2024-06-30
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quantfarm/regime-trader/pkg/data"
	"github.com/quantfarm/regime-trader/pkg/types"
)

func main() {
	var (
		symbols  = flag.String("symbols", "BTCUSDT", "Comma-separated trading symbols")
		interval = flag.String("interval", "1h", "Kline interval (5m, 15m, 1h, 4h, 1d)")
		category = flag.String("category", "spot", "Market category (spot, linear, inverse)")
		start    = flag.String("start", "", "Start date (YYYY-MM-DD)")
		end      = flag.String("end", "", "End date (YYYY-MM-DD, default today)")
		outDir   = flag.String("outdir", "data", "Directory to write CSV files")
		envFile  = flag.String("env", ".env", "Environment file for API credentials")
	)
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", *envFile, err)
	}

	startTime, endTime, err := parseRange(*start, *end)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	provider := data.NewBybitProvider(
		os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"), *category)

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("❌ Could not create %s: %v", *outDir, err)
	}

	for _, symbol := range strings.Split(*symbols, ",") {
		symbol = strings.TrimSpace(strings.ToUpper(symbol))
		if symbol == "" {
			continue
		}
		bars, err := provider.Fetch(context.Background(), symbol, startTime, endTime, *interval)
		if err != nil {
			log.Printf("❌ %s: %v", symbol, err)
			continue
		}

		path := filepath.Join(*outDir, fmt.Sprintf("%s_%s.csv", strings.ToLower(symbol), *interval))
		if err := writeCSV(path, bars); err != nil {
			log.Printf("❌ %s: %v", symbol, err)
			continue
		}
		log.Printf("✅ %s: %d bars → %s", symbol, len(bars), path)
	}
}

func parseRange(startStr, endStr string) (start, end time.Time, err error) {
	end = time.Now()
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date %q: %w", endStr, err)
		}
	}
	if startStr == "" {
		start = end.AddDate(0, -6, 0)
		return start, end, nil
	}
	start, err = time.Parse("2006-01-02", startStr)
	if err != nil {
		return start, end, fmt.Errorf("invalid start date %q: %w", startStr, err)
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

func writeCSV(path string, bars []types.OHLCV) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		record := []string{
			b.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
