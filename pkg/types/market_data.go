package types

import "time"

type OHLCV struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Timestamp time.Time
}

// Side distinguishes the two legs of a round-trip position.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "Buy"
	case SideSell:
		return "Sell"
	default:
		return "UNKNOWN"
	}
}

// Signal is a gated regime-transition event at a specific bar.
type Signal struct {
	Timestamp time.Time
	Side      Side
	Price     float64
}

// Trade is one executed leg in the backtest ledger.
type Trade struct {
	Timestamp time.Time
	Side      Side
	Price     float64
}
