// Package config holds the run configuration surface: strategy risk
// parameters and the full backtest run description, both JSON-backed.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// StrategyConfig carries the risk parameters of a backtest run. It is
// immutable once the run starts.
type StrategyConfig struct {
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	MaxTradesPerDay int     `json:"max_trades_per_day"`
	MaxLossPct      float64 `json:"max_loss_pct"`
	RiskPerTrade    float64 `json:"risk_per_trade"`
}

// DefaultStrategyConfig returns the standard parameter set: 2% stop, 3%
// target, 5% run-level loss limit, 2% risk budget per trade.
func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		StopLossPct:     0.02,
		TakeProfitPct:   0.03,
		MaxTradesPerDay: 1000,
		MaxLossPct:      0.05,
		RiskPerTrade:    0.02,
	}
}

// Validate checks the strategy parameters.
func (c StrategyConfig) Validate() error {
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("stop loss percent must be in (0, 1), got %.4f", c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 || c.TakeProfitPct >= 1 {
		return fmt.Errorf("take profit percent must be in (0, 1), got %.4f", c.TakeProfitPct)
	}
	if c.MaxTradesPerDay < 1 {
		return fmt.Errorf("max trades per day must be at least 1, got %d", c.MaxTradesPerDay)
	}
	if c.MaxLossPct <= 0 || c.MaxLossPct >= 1 {
		return fmt.Errorf("max loss percent must be in (0, 1), got %.4f", c.MaxLossPct)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade > 1 {
		return fmt.Errorf("risk per trade must be in (0, 1], got %.4f", c.RiskPerTrade)
	}
	return nil
}

// LoadStrategyConfig reads and validates a strategy config file. Fields
// missing from the file keep their defaults.
func LoadStrategyConfig(path string) (StrategyConfig, error) {
	cfg := DefaultStrategyConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load strategy config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse strategy config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid strategy config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func (c StrategyConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("save strategy config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
