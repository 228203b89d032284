package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/quantfarm/regime-trader/internal/strategy"
	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/data"
	"github.com/quantfarm/regime-trader/pkg/orchestrator"
	"github.com/quantfarm/regime-trader/pkg/reporting"
)

const (
	AppName    = "Regime Backtest"
	AppVersion = "1.0.0"

	// Default values
	DefaultInitialBalance = 1000.0
	DefaultNumStates      = 6
	DefaultMaxIter        = 2000
	DefaultSeed           = 42

	dateOnlyLayout = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

func main() {
	flags := NewBacktestFlags()
	flag.Parse()

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}
	if *flags.ShowHelp {
		printUsageHelp()
		return
	}

	if err := ValidateBacktestFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	start, end, err := parseDateRange(*flags.Start, *flags.End)
	if err != nil {
		log.Fatalf("❌ Date range error: %v", err)
	}

	provider, err := selectProvider(cfg)
	if err != nil {
		log.Fatalf("❌ Data source error: %v", err)
	}
	log.Printf("📥 loading %s %s bars from %s", cfg.Symbol, cfg.Interval, provider.Name())

	runner := orchestrator.NewRunner(cfg)
	outcome, err := runner.Execute(context.Background(), provider, start, end)
	if err != nil {
		log.Fatalf("❌ Run failed: %v", err)
	}

	if *flags.Period != "" {
		// Period trimming happens on bars before the run; re-running on a
		// trimmed window keeps the model fit consistent with the ledger.
		period, ok := data.ParseTrailingPeriod(*flags.Period)
		if !ok {
			log.Fatalf("❌ Invalid period format: %s (use 7d, 30d, 180d, 365d)", *flags.Period)
		}
		trimmed := data.FilterByPeriod(outcome.Bars, period)
		if len(trimmed) < len(outcome.Bars) {
			outcome, err = runner.ExecuteWithBars(trimmed)
			if err != nil {
				log.Fatalf("❌ Run failed on trailing period: %v", err)
			}
		}
	}

	reporter := reporting.NewConsoleReporter(*flags.ShowTrades)
	reporter.OutputResults(outcome.Results)

	if !*flags.ConsoleOnly {
		writeFileReports(flags, outcome)
	}
}

func printHeader() {
	fmt.Printf("🎯 %s v%s\n", strings.ToUpper(AppName), AppVersion)
	fmt.Printf("%s\n\n", strings.Repeat("=", 50))
}

func printUsageHelp() {
	fmt.Printf("%s v%s - Regime-based strategy backtesting\n\n", AppName, AppVersion)
	fmt.Printf("USAGE:\n  %s [OPTIONS]\n\n", filepath.Base(flag.CommandLine.Name()))
	PrintUsageExamples()
	flag.PrintDefaults()
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("⚠️  Could not load %s (%v)", envFile, err)
		log.Println("💡 Using system environment variables")
	} else {
		log.Printf("✅ Environment loaded from %s", envFile)
	}
}

// loadConfiguration builds the run config from file (if given), then
// layers explicitly passed flags on top. Only flags the user actually set
// override file values.
func loadConfiguration(flags *BacktestFlags) (config.RunConfig, error) {
	var cfg config.RunConfig
	var err error

	if *flags.ConfigFile != "" {
		cfg, err = config.LoadRunConfig(*flags.ConfigFile)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.DefaultRunConfig(*flags.Symbol, *flags.Interval)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["data"] {
		cfg.DataFile = *flags.DataFile
	}
	if set["symbol"] {
		cfg.Symbol = *flags.Symbol
	}
	if set["interval"] {
		cfg.Interval = *flags.Interval
	}
	if set["balance"] || cfg.InitialBalance == 0 {
		cfg.InitialBalance = *flags.InitialBalance
	}
	if set["states"] {
		cfg.Model.NumStates = *flags.NumStates
	}
	if set["max-iter"] {
		cfg.Model.MaxIter = *flags.MaxIter
	}
	if set["seed"] {
		cfg.Model.Seed = *flags.Seed
	}
	if set["profile"] {
		profile, err := strategy.ParseRiskProfile(*flags.RiskProfile)
		if err != nil {
			return cfg, err
		}
		cfg.RiskProfile = profile
	}
	if set["max-trades"] {
		cfg.Strategy.MaxTradesPerDay = *flags.MaxTradesPerDay
	}
	if set["max-loss"] {
		cfg.Strategy.MaxLossPct = *flags.MaxLossPct
	}
	if set["tp"] {
		cfg.Strategy.TakeProfitPct = *flags.TakeProfitPct
	}
	if set["risk"] {
		cfg.Strategy.RiskPerTrade = *flags.RiskPerTrade
	}

	return cfg, cfg.Validate()
}

// selectProvider picks CSV when a data file is configured, otherwise the
// Bybit REST API with credentials from the environment.
func selectProvider(cfg config.RunConfig) (data.Provider, error) {
	if cfg.DataFile != "" {
		if _, err := os.Stat(cfg.DataFile); err != nil {
			return nil, fmt.Errorf("data file %s: %w", cfg.DataFile, err)
		}
		return data.NewCSVProvider(cfg.DataFile), nil
	}
	apiKey := os.Getenv("BYBIT_API_KEY")
	apiSecret := os.Getenv("BYBIT_API_SECRET")
	return data.NewCachedProvider(data.NewBybitProvider(apiKey, apiSecret, "spot")), nil
}

func parseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		start, err = parseDate(startStr)
		if err != nil {
			return start, end, fmt.Errorf("start: %w", err)
		}
	}
	if endStr != "" {
		end, err = parseDate(endStr)
		if err != nil {
			return start, end, fmt.Errorf("end: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("end %s is before start %s", endStr, startStr)
	}
	return start, end, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateTimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(dateOnlyLayout, value)
}

func writeFileReports(flags *BacktestFlags, outcome *orchestrator.Outcome) {
	if *flags.OutputCSV != "" {
		if err := reporting.WriteTradesCSV(outcome.Results, *flags.OutputCSV); err != nil {
			log.Printf("⚠️  CSV report failed: %v", err)
		} else {
			log.Printf("💾 Trade ledger written to %s", *flags.OutputCSV)
		}
	}
	if *flags.OutputXLSX != "" {
		if err := reporting.WriteTradesXLSX(outcome.Results, *flags.OutputXLSX); err != nil {
			log.Printf("⚠️  Excel report failed: %v", err)
		} else {
			log.Printf("💾 Results workbook written to %s", *flags.OutputXLSX)
		}
	}
}
