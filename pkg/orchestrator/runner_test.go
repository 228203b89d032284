package orchestrator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/quantfarm/regime-trader/pkg/config"
	"github.com/quantfarm/regime-trader/pkg/data"
	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticBars builds a calm-then-volatile series so the model has two
// distinguishable regimes to find.
func syntheticBars(n int) []types.OHLCV {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.OHLCV, n)
	for i := 0; i < n; i++ {
		amp := 1.0
		if i >= n/2 {
			amp = 8.0
		}
		price := 100.0 + amp*math.Sin(float64(i)/6.0) + 0.02*float64(i)
		bars[i] = types.OHLCV{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price - 0.3,
			High:      price + amp*0.3 + 0.5,
			Low:       price - amp*0.3 - 0.5,
			Close:     price,
			Volume:    1000 + 100*math.Cos(float64(i)/4.0),
		}
	}
	return bars
}

func testConfig() config.RunConfig {
	cfg := config.DefaultRunConfig("TESTUSDT", "1h")
	cfg.Model.NumStates = 2
	cfg.Model.MaxIter = 50
	return cfg
}

func TestRunner_ExecuteWithBars(t *testing.T) {
	runner := NewRunner(testConfig())

	outcome, err := runner.ExecuteWithBars(syntheticBars(300))
	require.NoError(t, err)

	require.NotNil(t, outcome.Features)
	assert.Greater(t, outcome.Features.Len(), 0)
	require.NotNil(t, outcome.Model)
	assert.Equal(t, 2, outcome.Model.NumStates())
	assert.Len(t, outcome.States, outcome.Features.Len())
	require.NotNil(t, outcome.Results)
	assert.Equal(t, 1000.0, outcome.Results.InitialBalance)
	assert.Greater(t, outcome.FitElapsed, time.Duration(0))
}

func TestRunner_Execute_FetchesFromProvider(t *testing.T) {
	bars := syntheticBars(300)
	provider := &staticProvider{bars: bars}
	runner := NewRunner(testConfig())

	start := bars[0].Timestamp
	end := bars[len(bars)-1].Timestamp
	outcome, err := runner.Execute(context.Background(), provider, start, end)
	require.NoError(t, err)
	assert.Len(t, outcome.Bars, 300)
}

func TestRunner_Execute_RejectsBadBars(t *testing.T) {
	bars := syntheticBars(100)
	bars[10].Timestamp = bars[9].Timestamp // duplicate
	runner := NewRunner(testConfig())

	_, err := runner.Execute(context.Background(), &staticProvider{bars: bars}, time.Time{}, time.Time{})
	assert.Error(t, err)
}

func TestRunner_ExecuteWithBars_TooFewBars(t *testing.T) {
	runner := NewRunner(testConfig())
	_, err := runner.ExecuteWithBars(syntheticBars(10))
	assert.Error(t, err)
}

type staticProvider struct {
	bars []types.OHLCV
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) Fetch(_ context.Context, _ string, start, end time.Time, _ string) ([]types.OHLCV, error) {
	out := data.FilterByDateRange(p.bars, start, end)
	if len(out) == 0 {
		return nil, data.ErrNoData
	}
	return out, nil
}
