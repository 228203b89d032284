package risk

import "time"

// Tracker enforces the per-run trade eligibility rules: a daily trade cap
// keyed on calendar date and a drawdown circuit breaker that latches for
// the remainder of the run once tripped.
type Tracker struct {
	initialBalance  float64
	maxTradesPerDay int
	maxLossPct      float64

	tradesToday   int
	lastTradeDate time.Time
	breakerOpen   bool
}

// NewTracker creates a tracker for one backtest run.
func NewTracker(initialBalance float64, maxTradesPerDay int, maxLossPct float64) *Tracker {
	return &Tracker{
		initialBalance:  initialBalance,
		maxTradesPerDay: maxTradesPerDay,
		maxLossPct:      maxLossPct,
	}
}

// BreakerTripped reports whether cumulative loss has exceeded the limit.
// Once open the breaker stays open regardless of later recovery.
func (t *Tracker) BreakerTripped(balance float64) bool {
	if t.breakerOpen {
		return true
	}
	if balance < t.initialBalance*(1-t.maxLossPct) {
		t.breakerOpen = true
	}
	return t.breakerOpen
}

// DailyCapReached reports whether the cap for the trade date of ts has
// been hit. The counter resets when the date changes.
func (t *Tracker) DailyCapReached(ts time.Time) bool {
	if !sameDate(t.lastTradeDate, ts) {
		t.tradesToday = 0
	}
	return t.tradesToday >= t.maxTradesPerDay
}

// RecordTrade counts one executed round trip against the date of ts.
func (t *Tracker) RecordTrade(ts time.Time) {
	if !sameDate(t.lastTradeDate, ts) {
		t.tradesToday = 0
	}
	t.tradesToday++
	t.lastTradeDate = ts
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
