// Package backtest replays gated regime signals against historical prices
// and produces the trade ledger, final equity and summary metrics.
package backtest

import (
	"fmt"
	"time"

	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/internal/risk"
	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/types"
)

// Engine is the event-driven simulator. All path-dependent state (balance,
// position, daily counters, breaker) lives inside a single Run call; the
// engine itself can be reused across runs.
type Engine struct {
	initialBalance float64
	cfg            config.StrategyConfig
	riskMgr        *risk.Manager
}

// NewEngine creates a simulator for the given account size and strategy
// parameters.
func NewEngine(initialBalance float64, cfg config.StrategyConfig) *Engine {
	return &Engine{
		initialBalance: initialBalance,
		cfg:            cfg,
		riskMgr:        risk.NewManager(cfg.RiskPerTrade, risk.DefaultATRMultiplier, cfg.TakeProfitPct),
	}
}

// Run consumes the buy and sell signal lists as positional pairs: the i-th
// buy zips with the i-th sell. A signal whose timestamp cannot be resolved
// to a feature row ends the loop early (soft stop, not an error); a
// tripped circuit breaker ends the run; a hit daily cap skips the pair.
func (e *Engine) Run(fs *features.FeatureSet, buys, sells []types.Signal) (*Results, error) {
	if fs == nil || fs.Len() == 0 {
		return nil, fmt.Errorf("backtest: empty feature set")
	}

	index := make(map[time.Time]int, fs.Len())
	for i, row := range fs.Rows {
		index[row.Timestamp] = i
	}

	results := &Results{InitialBalance: e.initialBalance}
	tracker := risk.NewTracker(e.initialBalance, e.cfg.MaxTradesPerDay, e.cfg.MaxLossPct)

	balance := e.initialBalance
	position := 0.0
	peak := balance

	pairs := len(buys)
	if len(sells) < pairs {
		pairs = len(sells)
	}
	for i := 0; i < pairs; i++ {
		buyIdx, okBuy := index[buys[i].Timestamp]
		sellIdx, okSell := index[sells[i].Timestamp]
		if !okBuy || !okSell {
			break // signal beyond the priced range, stop quietly
		}
		buyRow := fs.Rows[buyIdx]
		sellRow := fs.Rows[sellIdx]

		if tracker.BreakerTripped(balance) {
			results.BreakerTripped = true
			break
		}
		if tracker.DailyCapReached(buyRow.Timestamp) {
			continue
		}

		// Sizing and protective levels are computed for every accepted
		// entry even though execution uses the full balance.
		planned := e.riskMgr.PositionSize(balance, buyRow.ATR)
		stop := e.riskMgr.StopLoss(buyRow.Close, buyRow.ATR)
		target := e.riskMgr.TakeProfit(buyRow.Close)

		entryBalance := balance
		position = balance / buyRow.Close
		balance = 0
		results.Trades = append(results.Trades, types.Trade{
			Timestamp: buyRow.Timestamp,
			Side:      types.SideBuy,
			Price:     buyRow.Close,
		})

		balance = position * sellRow.Close
		position = 0
		results.Trades = append(results.Trades, types.Trade{
			Timestamp: sellRow.Timestamp,
			Side:      types.SideSell,
			Price:     sellRow.Close,
		})

		results.RoundTrips = append(results.RoundTrips, RoundTrip{
			EntryTime:   buyRow.Timestamp,
			ExitTime:    sellRow.Timestamp,
			EntryPrice:  buyRow.Close,
			ExitPrice:   sellRow.Close,
			PlannedSize: planned,
			StopLoss:    stop,
			TakeProfit:  target,
			PnL:         balance - entryBalance,
		})
		tracker.RecordTrade(buyRow.Timestamp)

		if balance > peak {
			peak = balance
		}
		if peak > 0 {
			if dd := (peak - balance) / peak; dd > results.MaxDrawdown {
				results.MaxDrawdown = dd
			}
		}
	}

	// Mark-to-market against the last known close, covering a position
	// left open by an early stop.
	lastClose := fs.Rows[fs.Len()-1].Close
	results.FinalBalance = balance + position*lastClose
	results.OpenPosition = position
	results.Profit = results.FinalBalance - e.initialBalance
	results.finalize()
	return results, nil
}
