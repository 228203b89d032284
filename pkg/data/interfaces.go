// Package data loads historical price bars from CSV files or the Bybit
// kline API and validates them before they reach the analysis core.
package data

import (
	"context"
	"errors"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
)

// ErrNoData is returned when a provider produces zero bars; an empty
// result is a fatal precondition for any run.
var ErrNoData = errors.New("no market data returned")

// Provider is the market-data collaborator. Implementations return bars
// ordered by timestamp for the requested range.
type Provider interface {
	// Fetch returns bars for symbol in [start, end] at the given interval.
	Fetch(ctx context.Context, symbol string, start, end time.Time, interval string) ([]types.OHLCV, error)

	// Name identifies the provider in logs and reports.
	Name() string
}

// Cache stores fetched bar series keyed by request.
type Cache interface {
	Get(key string) ([]types.OHLCV, bool)
	Set(key string, bars []types.OHLCV)
	Clear()
	Size() int
}
