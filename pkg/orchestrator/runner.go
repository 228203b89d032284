// Package orchestrator drives one complete analysis run: bars in, trade
// ledger and summary out.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quantfarm/regime-trader/internal/backtest"
	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/internal/hmm"
	"github.com/quantfarm/regime-trader/internal/strategy"
	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/data"
	"github.com/quantfarm/regime-trader/pkg/types"
)

// Outcome bundles every artifact of a run for reporting.
type Outcome struct {
	Bars       []types.OHLCV
	Features   *features.FeatureSet
	Model      *hmm.Model
	States     []int
	Buys       []types.Signal
	Sells      []types.Signal
	Results    *backtest.Results
	FitElapsed time.Duration
}

// Runner executes the fixed pipeline: features, model fit, decode, signal
// generation, backtest. Each Runner owns the models it trains; nothing is
// shared across runs.
type Runner struct {
	cfg config.RunConfig
}

// NewRunner creates a runner for one run configuration.
func NewRunner(cfg config.RunConfig) *Runner {
	return &Runner{cfg: cfg}
}

// Execute fetches bars from the provider and runs the full pipeline.
func (r *Runner) Execute(ctx context.Context, provider data.Provider, start, end time.Time) (*Outcome, error) {
	bars, err := provider.Fetch(ctx, r.cfg.Symbol, start, end, r.cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", r.cfg.Symbol, provider.Name(), err)
	}
	if err := data.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validate bars: %w", err)
	}
	return r.ExecuteWithBars(bars)
}

// ExecuteWithBars runs the pipeline over already-loaded bars.
func (r *Runner) ExecuteWithBars(bars []types.OHLCV) (*Outcome, error) {
	outcome := &Outcome{Bars: bars}

	pipeline := features.NewPipeline(r.cfg.Features)
	fs, err := pipeline.Compute(bars)
	if err != nil {
		return nil, err
	}
	outcome.Features = fs
	log.Printf("📊 %d bars → %d feature rows", len(bars), fs.Len())

	matrix := fs.Matrix()
	fitStart := time.Now()
	model, err := hmm.Fit(matrix, r.cfg.Model)
	if err != nil {
		return nil, err
	}
	outcome.Model = model
	outcome.FitElapsed = time.Since(fitStart)
	log.Printf("🧠 model fit: %d states, %d iterations, log-likelihood %.2f (%.2fs)",
		model.NumStates(), model.Iterations(), model.LogLikelihood(), outcome.FitElapsed.Seconds())

	states, err := model.Decode(matrix)
	if err != nil {
		return nil, err
	}
	outcome.States = states

	gen := strategy.NewGenerator(r.cfg.RiskProfile)
	buys, sells, err := gen.Generate(states, fs)
	if err != nil {
		return nil, err
	}
	outcome.Buys = buys
	outcome.Sells = sells
	log.Printf("📈 signals: %d buy, %d sell (%s profile)", len(buys), len(sells), r.cfg.RiskProfile)

	engine := backtest.NewEngine(r.cfg.InitialBalance, r.cfg.Strategy)
	results, err := engine.Run(fs, buys, sells)
	if err != nil {
		return nil, err
	}
	outcome.Results = results
	return outcome, nil
}
