package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/quantfarm/regime-trader/internal/monitoring"
	"github.com/quantfarm/regime-trader/internal/strategy"
	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/data"
	"github.com/quantfarm/regime-trader/pkg/orchestrator"
	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/rs/zerolog"
)

const (
	AppName    = "Live Regime Analyzer"
	AppVersion = "1.0.0"
)

type analyzerFlags struct {
	symbol       *string
	interval     *string
	profile      *string
	numStates    *int
	seed         *int64
	pollInterval *time.Duration
	lookback     *time.Duration
	httpAddr     *string
	envFile      *string
	logLevel     *string
}

func main() {
	flags := &analyzerFlags{
		symbol:       flag.String("symbol", "BTCUSDT", "Trading symbol"),
		interval:     flag.String("interval", "1h", "Kline interval (5m, 15m, 1h, 4h, 1d)"),
		profile:      flag.String("profile", "moderate", "Risk profile (conservative, moderate, aggressive)"),
		numStates:    flag.Int("states", 6, "Number of hidden regimes"),
		seed:         flag.Int64("seed", 42, "Random seed for model initialization"),
		pollInterval: flag.Duration("poll", 5*time.Minute, "How often to refresh the analysis"),
		lookback:     flag.Duration("lookback", 60*24*time.Hour, "History window fetched per analysis"),
		httpAddr:     flag.String("http", ":9180", "Listen address for /metrics and /healthz"),
		envFile:      flag.String("env", ".env", "Environment file for exchange credentials"),
		logLevel:     flag.String("log-level", "info", "Log level (debug, info, warn, error)"),
	}
	flag.Parse()

	logger := newLogger(*flags.logLevel)
	logger.Info().Str("app", AppName).Str("version", AppVersion).Msg("starting")

	if err := godotenv.Load(*flags.envFile); err != nil {
		logger.Warn().Str("file", *flags.envFile).Err(err).Msg("env file not loaded, using system environment")
	}

	profile, err := strategy.ParseRiskProfile(*flags.profile)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid risk profile")
	}

	cfg := config.DefaultRunConfig(*flags.symbol, *flags.interval)
	cfg.RiskProfile = profile
	cfg.Model.NumStates = *flags.numStates
	cfg.Model.Seed = *flags.seed
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid run configuration")
	}

	provider := data.NewCachedProvider(data.NewBybitProvider(
		os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET"), "spot"))

	health := monitoring.NewHealthChecker(3 * *flags.pollInterval)
	server := newHTTPServer(*flags.httpAddr, health)
	go func() {
		logger.Info().Str("addr", *flags.httpAddr).Msg("metrics server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	analyzer := &liveAnalyzer{
		cfg:      cfg,
		provider: provider,
		lookback: *flags.lookback,
		health:   health,
		logger:   logger,
	}
	analyzer.run(ctx, *flags.pollInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	logger.Info().Msg("shutdown complete")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

func newHTTPServer(addr string, health *monitoring.HealthChecker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())
	mux.Handle("/healthz", health)
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// liveAnalyzer refits the model on a trailing window every poll tick and
// publishes the latest regime and signals as metrics. One goroutine does all
// the analysis; the HTTP side only reads.
type liveAnalyzer struct {
	cfg      config.RunConfig
	provider data.Provider
	lookback time.Duration
	health   *monitoring.HealthChecker
	logger   zerolog.Logger
}

func (a *liveAnalyzer) run(ctx context.Context, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	a.analyzeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("stopping analysis loop")
			return
		case <-ticker.C:
			a.analyzeOnce(ctx)
		}
	}
}

func (a *liveAnalyzer) analyzeOnce(ctx context.Context) {
	end := time.Now()
	start := end.Add(-a.lookback)

	runner := orchestrator.NewRunner(a.cfg)
	outcome, err := runner.Execute(ctx, a.provider, start, end)
	if err != nil {
		monitoring.RecordError("analysis")
		a.health.MarkError(err)
		a.logger.Error().Err(err).Str("symbol", a.cfg.Symbol).Msg("analysis failed")
		return
	}

	lastIdx := len(outcome.States) - 1
	lastRow := outcome.Features.Rows[lastIdx]
	monitoring.SetRegime(a.cfg.Symbol, outcome.States[lastIdx])
	monitoring.SetPrice(a.cfg.Symbol, lastRow.Close)
	monitoring.ObserveFitDuration(outcome.FitElapsed.Seconds())
	a.recordSignals(outcome.Buys, outcome.Sells, lastRow.Timestamp)
	a.health.MarkAnalysis()

	a.logger.Info().
		Str("symbol", a.cfg.Symbol).
		Int("regime", outcome.States[lastIdx]).
		Float64("close", lastRow.Close).
		Int("buys", len(outcome.Buys)).
		Int("sells", len(outcome.Sells)).
		Float64("fit_seconds", outcome.FitElapsed.Seconds()).
		Msg("analysis complete")
}

// recordSignals counts only signals on the latest bar so refits over the
// same window do not inflate the counters.
func (a *liveAnalyzer) recordSignals(buys, sells []types.Signal, latest time.Time) {
	for _, s := range buys {
		if s.Timestamp.Equal(latest) {
			monitoring.RecordSignal(a.cfg.Symbol, s.Side.String())
			a.logger.Info().Str("symbol", a.cfg.Symbol).Float64("price", s.Price).Msg("BUY signal on latest bar")
		}
	}
	for _, s := range sells {
		if s.Timestamp.Equal(latest) {
			monitoring.RecordSignal(a.cfg.Symbol, s.Side.String())
			a.logger.Info().Str("symbol", a.cfg.Symbol).Float64("price", s.Price).Msg("SELL signal on latest bar")
		}
	}
}
