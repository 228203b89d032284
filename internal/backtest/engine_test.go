package backtest

import (
	"testing"
	"time"

	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

// priceSet builds an hourly feature set with the given closes and a flat
// ATR, which is all the engine reads.
func priceSet(closes ...float64) *features.FeatureSet {
	rows := make([]features.Row, len(closes))
	for i, c := range closes {
		rows[i] = features.Row{
			Timestamp: testBase.Add(time.Duration(i) * time.Hour),
			Close:     c,
			ATR:       2.0,
		}
	}
	return &features.FeatureSet{Rows: rows}
}

func signalAt(i int, side types.Side, price float64) types.Signal {
	return types.Signal{
		Timestamp: testBase.Add(time.Duration(i) * time.Hour),
		Side:      side,
		Price:     price,
	}
}

func TestEngine_Run_NoSignals(t *testing.T) {
	engine := NewEngine(1000.0, config.DefaultStrategyConfig())

	results, err := engine.Run(priceSet(100, 101, 102), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, results.InitialBalance)
	assert.Equal(t, 1000.0, results.FinalBalance)
	assert.Equal(t, 0.0, results.Profit)
	assert.Empty(t, results.Trades)
	assert.Empty(t, results.RoundTrips)
	assert.False(t, results.BreakerTripped)
}

func TestEngine_Run_ProfitableRoundTrip(t *testing.T) {
	engine := NewEngine(1000.0, config.DefaultStrategyConfig())
	fs := priceSet(100, 105, 110)

	buys := []types.Signal{signalAt(0, types.SideBuy, 100)}
	sells := []types.Signal{signalAt(2, types.SideSell, 110)}

	results, err := engine.Run(fs, buys, sells)
	require.NoError(t, err)

	assert.InDelta(t, 1100.0, results.FinalBalance, 1e-9)
	assert.InDelta(t, 100.0, results.Profit, 1e-9)
	assert.InDelta(t, 0.1, results.TotalReturn(), 1e-12)

	require.Len(t, results.Trades, 2)
	assert.Equal(t, types.SideBuy, results.Trades[0].Side)
	assert.Equal(t, types.SideSell, results.Trades[1].Side)

	require.Len(t, results.RoundTrips, 1)
	rt := results.RoundTrips[0]
	assert.InDelta(t, 100.0, rt.PnL, 1e-9)
	assert.Equal(t, 100.0, rt.EntryPrice)
	assert.Equal(t, 110.0, rt.ExitPrice)
	assert.Equal(t, 1, results.WinningTrades)
	assert.Equal(t, 0, results.LosingTrades)
	assert.Equal(t, 1.0, results.WinRate())
}

func TestEngine_Run_RecordsRiskLevels(t *testing.T) {
	cfg := config.DefaultStrategyConfig() // 2% risk, 3% TP
	engine := NewEngine(1000.0, cfg)
	fs := priceSet(100, 110)

	results, err := engine.Run(fs,
		[]types.Signal{signalAt(0, types.SideBuy, 100)},
		[]types.Signal{signalAt(1, types.SideSell, 110)})
	require.NoError(t, err)

	require.Len(t, results.RoundTrips, 1)
	rt := results.RoundTrips[0]
	// risk budget 1000*0.02 over ATR 2.0
	assert.InDelta(t, 10.0, rt.PlannedSize, 1e-9)
	// entry 100 minus 2 ATR units of 2.0
	assert.InDelta(t, 96.0, rt.StopLoss, 1e-9)
	assert.InDelta(t, 103.0, rt.TakeProfit, 1e-9)
}

func TestEngine_Run_DailyCapSkipsPairs(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.MaxTradesPerDay = 1
	engine := NewEngine(1000.0, cfg)

	// Four hourly rows, all the same calendar day.
	fs := priceSet(100, 110, 100, 110)
	buys := []types.Signal{
		signalAt(0, types.SideBuy, 100),
		signalAt(2, types.SideBuy, 100),
	}
	sells := []types.Signal{
		signalAt(1, types.SideSell, 110),
		signalAt(3, types.SideSell, 110),
	}

	results, err := engine.Run(fs, buys, sells)
	require.NoError(t, err)

	assert.Len(t, results.RoundTrips, 1)
	assert.InDelta(t, 1100.0, results.FinalBalance, 1e-9)
}

func TestEngine_Run_BreakerStopsRun(t *testing.T) {
	cfg := config.DefaultStrategyConfig()
	cfg.MaxLossPct = 0.05
	engine := NewEngine(1000.0, cfg)

	// First pair loses 10%, tripping the 5% breaker before the second.
	fs := priceSet(100, 90, 100, 110)
	buys := []types.Signal{
		signalAt(0, types.SideBuy, 100),
		signalAt(2, types.SideBuy, 100),
	}
	sells := []types.Signal{
		signalAt(1, types.SideSell, 90),
		signalAt(3, types.SideSell, 110),
	}

	results, err := engine.Run(fs, buys, sells)
	require.NoError(t, err)

	assert.True(t, results.BreakerTripped)
	require.Len(t, results.RoundTrips, 1)
	assert.InDelta(t, -100.0, results.RoundTrips[0].PnL, 1e-9)
	assert.InDelta(t, 900.0, results.FinalBalance, 1e-9)
	assert.Equal(t, 1, results.LosingTrades)
	assert.InDelta(t, 0.1, results.MaxDrawdown, 1e-12)
}

func TestEngine_Run_UnresolvedSignalStopsQuietly(t *testing.T) {
	engine := NewEngine(1000.0, config.DefaultStrategyConfig())
	fs := priceSet(100, 110)

	// The sell timestamp does not exist in the feature set.
	buys := []types.Signal{signalAt(0, types.SideBuy, 100)}
	sells := []types.Signal{signalAt(9, types.SideSell, 110)}

	results, err := engine.Run(fs, buys, sells)
	require.NoError(t, err)

	assert.Empty(t, results.RoundTrips)
	assert.Equal(t, 1000.0, results.FinalBalance)
}

func TestEngine_Run_UnevenSignalListsZipToShorter(t *testing.T) {
	engine := NewEngine(1000.0, config.DefaultStrategyConfig())
	fs := priceSet(100, 110, 120)

	buys := []types.Signal{
		signalAt(0, types.SideBuy, 100),
		signalAt(2, types.SideBuy, 120),
	}
	sells := []types.Signal{signalAt(1, types.SideSell, 110)}

	results, err := engine.Run(fs, buys, sells)
	require.NoError(t, err)

	// Only one pair executes; the dangling buy is ignored.
	assert.Len(t, results.RoundTrips, 1)
	assert.InDelta(t, 1100.0, results.FinalBalance, 1e-9)
}

func TestEngine_Run_EmptyFeatureSet(t *testing.T) {
	engine := NewEngine(1000.0, config.DefaultStrategyConfig())
	_, err := engine.Run(&features.FeatureSet{}, nil, nil)
	assert.Error(t, err)
}
