package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/internal/hmm"
	"github.com/quantfarm/regime-trader/internal/strategy"
)

// RunConfig describes one self-contained analysis run: where the bars come
// from, how the model is fit, which risk profile gates the signals and the
// strategy parameters applied by the simulator.
type RunConfig struct {
	Symbol         string  `json:"symbol"`
	Interval       string  `json:"interval"`
	DataFile       string  `json:"data_file,omitempty"`
	InitialBalance float64 `json:"initial_balance"`

	RiskProfile strategy.RiskProfile `json:"risk_profile"`
	Strategy    StrategyConfig       `json:"strategy"`
	Model       hmm.Config           `json:"model"`
	Features    features.Config      `json:"features"`
}

// DefaultRunConfig returns a complete run description with standard
// parameters for the given symbol and interval.
func DefaultRunConfig(symbol, interval string) RunConfig {
	return RunConfig{
		Symbol:         symbol,
		Interval:       interval,
		InitialBalance: 1000.0,
		RiskProfile:    strategy.ProfileModerate,
		Strategy:       DefaultStrategyConfig(),
		Model:          hmm.DefaultConfig(),
		Features:       features.DefaultConfig(),
	}
}

// Validate checks the whole run description.
func (c RunConfig) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got %.2f", c.InitialBalance)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Features.Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	return nil
}

// LoadRunConfig reads a run config file over the defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig("", "")
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load run config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse run config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid run config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the run config as indented JSON.
func (c RunConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save run config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
