package backtest

import (
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// RoundTrip is one completed entry/exit pair with the risk levels that
// were computed for it.
type RoundTrip struct {
	EntryTime   time.Time
	ExitTime    time.Time
	EntryPrice  float64
	ExitPrice   float64
	PlannedSize float64 // ATR-normalized size; execution uses full balance
	StopLoss    float64
	TakeProfit  float64
	PnL         float64
}

// Results is the transient outcome of one run.
type Results struct {
	InitialBalance float64
	FinalBalance   float64
	Profit         float64
	OpenPosition   float64 // units still held at mark-to-market

	Trades     []types.Trade // ordered ledger, two entries per round trip
	RoundTrips []RoundTrip

	WinningTrades  int
	LosingTrades   int
	MaxDrawdown    float64
	BreakerTripped bool
}

// TotalReturn is the fractional return over the run.
func (r *Results) TotalReturn() float64 {
	if r.InitialBalance == 0 {
		return 0
	}
	return r.Profit / r.InitialBalance
}

// WinRate is the fraction of round trips closed at a profit.
func (r *Results) WinRate() float64 {
	total := r.WinningTrades + r.LosingTrades
	if total == 0 {
		return 0
	}
	return float64(r.WinningTrades) / float64(total)
}

func (r *Results) finalize() {
	for _, rt := range r.RoundTrips {
		if rt.PnL > 0 {
			r.WinningTrades++
		} else if rt.PnL < 0 {
			r.LosingTrades++
		}
	}
}
