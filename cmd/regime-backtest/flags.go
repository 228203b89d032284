package main

import (
	"flag"
	"fmt"
)

// BacktestFlags holds all command line flags for the backtest command
type BacktestFlags struct {
	// Configuration
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	Interval   *string

	// Account settings
	InitialBalance *float64

	// Model parameters
	NumStates *int
	MaxIter   *int
	Seed      *int64

	// Strategy parameters
	RiskProfile     *string
	MaxTradesPerDay *int
	MaxLossPct      *float64
	TakeProfitPct   *float64
	RiskPerTrade    *float64

	// Data selection
	Start  *string
	End    *string
	Period *string

	// Output options
	ShowTrades  *bool
	OutputCSV   *string
	OutputXLSX  *string
	ConsoleOnly *bool
	EnvFile     *string

	// Help and version
	ShowVersion *bool
	ShowHelp    *bool
}

// NewBacktestFlags creates and registers all backtest command line flags
func NewBacktestFlags() *BacktestFlags {
	return &BacktestFlags{
		// Configuration
		ConfigFile: flag.String("config", "", "Path to run configuration file"),
		DataFile:   flag.String("data", "", "Path to historical data CSV file"),
		Symbol:     flag.String("symbol", "BTCUSDT", "Trading symbol"),
		Interval:   flag.String("interval", "1h", "Data interval (5m, 15m, 1h, 4h, 1d)"),

		// Account settings
		InitialBalance: flag.Float64("balance", DefaultInitialBalance, "Initial balance"),

		// Model parameters
		NumStates: flag.Int("states", DefaultNumStates, "Number of hidden regimes"),
		MaxIter:   flag.Int("max-iter", DefaultMaxIter, "Maximum EM iterations"),
		Seed:      flag.Int64("seed", DefaultSeed, "Random seed for model initialization"),

		// Strategy parameters
		RiskProfile:     flag.String("profile", "moderate", "Risk profile (conservative, moderate, aggressive)"),
		MaxTradesPerDay: flag.Int("max-trades", 1000, "Max trades per day"),
		MaxLossPct:      flag.Float64("max-loss", 0.05, "Drawdown circuit breaker fraction"),
		TakeProfitPct:   flag.Float64("tp", 0.03, "Take profit fraction"),
		RiskPerTrade:    flag.Float64("risk", 0.02, "Risk per trade fraction"),

		// Data selection
		Start:  flag.String("start", "", "Start date (2024-01-02 or 2024-01-02 15:04:05)"),
		End:    flag.String("end", "", "End date (inclusive bound on bar timestamps)"),
		Period: flag.String("period", "", "Trailing period filter (7d, 30d, 180d, 365d)"),

		// Output options
		ShowTrades:  flag.Bool("trades", false, "Print the full trade history table"),
		OutputCSV:   flag.String("csv", "", "Write round trips to a CSV file"),
		OutputXLSX:  flag.String("xlsx", "", "Write results workbook to an XLSX file"),
		ConsoleOnly: flag.Bool("console-only", false, "Console output only, skip file reports"),
		EnvFile:     flag.String("env", ".env", "Environment file for exchange credentials"),

		// Help and version
		ShowVersion: flag.Bool("version", false, "Show version information"),
		ShowHelp:    flag.Bool("help", false, "Show detailed help"),
	}
}

// ValidateBacktestFlags checks flag combinations before the run starts
func ValidateBacktestFlags(flags *BacktestFlags) error {
	if *flags.InitialBalance <= 0 {
		return fmt.Errorf("balance must be positive, got %.2f", *flags.InitialBalance)
	}
	if *flags.NumStates < 2 {
		return fmt.Errorf("states must be at least 2, got %d", *flags.NumStates)
	}
	if *flags.MaxTradesPerDay < 0 {
		return fmt.Errorf("max-trades cannot be negative")
	}
	if *flags.Period != "" && (*flags.Start != "" || *flags.End != "") {
		return fmt.Errorf("period cannot be combined with start/end")
	}
	return nil
}

// PrintUsageExamples prints common invocations for the help screen
func PrintUsageExamples() {
	fmt.Println("EXAMPLES:")
	fmt.Println("  regime-backtest -data data/btc_1h.csv -profile conservative -trades")
	fmt.Println("  regime-backtest -symbol ETHUSDT -interval 4h -period 180d")
	fmt.Println("  regime-backtest -config configs/btc_run.json -xlsx results/btc.xlsx")
	fmt.Println("  regime-backtest -data data/btc_1h.csv -states 4 -seed 7 -csv trades.csv")
	fmt.Println()
}
