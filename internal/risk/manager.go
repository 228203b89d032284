// Package risk provides volatility-normalized position sizing, protective
// price levels and the trade-eligibility rules (daily cap, drawdown
// circuit breaker) enforced during a backtest run.
package risk

// DefaultATRMultiplier is the stop distance in ATR units for long entries.
const DefaultATRMultiplier = 2.0

// Manager computes sizing and protective levels for long positions.
type Manager struct {
	riskPerTrade  float64
	atrMultiplier float64
	takeProfitPct float64
}

// NewManager creates a risk manager.
func NewManager(riskPerTrade, atrMultiplier, takeProfitPct float64) *Manager {
	return &Manager{
		riskPerTrade:  riskPerTrade,
		atrMultiplier: atrMultiplier,
		takeProfitPct: takeProfitPct,
	}
}

// PositionSize returns the volatility-normalized size: the account risk
// budget divided by the current ATR. A non-positive ATR yields zero rather
// than an unbounded size.
func (m *Manager) PositionSize(balance, atr float64) float64 {
	if atr <= 0 {
		return 0
	}
	return balance * m.riskPerTrade / atr
}

// StopLoss returns the protective stop for a long entry.
func (m *Manager) StopLoss(entryPrice, atr float64) float64 {
	return entryPrice - atr*m.atrMultiplier
}

// TakeProfit returns the profit target for a long entry.
func (m *Manager) TakeProfit(entryPrice float64) float64 {
	return entryPrice * (1 + m.takeProfitPct)
}
