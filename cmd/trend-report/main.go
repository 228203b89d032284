package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/quantfarm/regime-trader/internal/analysis"
	"github.com/quantfarm/regime-trader/pkg/data"
)

const (
	AppName    = "Trend Report"
	AppVersion = "1.0.0"
)

func main() {
	dataFile := flag.String("data", "", "Path to historical data CSV file")
	symbol := flag.String("symbol", "BTCUSDT", "Trading symbol")
	interval := flag.String("interval", "1d", "Kline interval (1h, 4h, 1d)")
	period := flag.String("period", "365d", "Trailing period to analyze (7d, 30d, 180d, 365d)")
	envFile := flag.String("env", ".env", "Environment file for exchange credentials")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	trailing, ok := data.ParseTrailingPeriod(*period)
	if !ok {
		log.Fatalf("❌ Invalid period format: %s (use 7d, 30d, 180d, 365d)", *period)
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", *envFile, err)
	}

	var provider data.Provider
	if *dataFile != "" {
		provider = data.NewCSVProvider(*dataFile)
	} else {
		provider = data.NewBybitProvider(
			os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"), "spot")
	}

	end := time.Now()
	start := end.Add(-trailing)
	bars, err := provider.Fetch(context.Background(), *symbol, start, end, *interval)
	if err != nil {
		log.Fatalf("❌ Could not load bars: %v", err)
	}
	if err := data.ValidateBars(bars); err != nil {
		log.Fatalf("❌ Bad data: %v", err)
	}

	report, err := analysis.Analyze(bars)
	if err != nil {
		log.Fatalf("❌ Analysis failed: %v", err)
	}

	fmt.Printf("📈 %s %s trend report (%d bars, %s)\n\n", *symbol, *interval, len(bars), *period)
	fmt.Println(report.Render())
}
