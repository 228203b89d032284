package features

import (
	"math"
	"testing"
	"time"

	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateBars builds a deterministic oscillating price series with enough
// movement for every indicator to take finite values.
func generateBars(n int) []types.OHLCV {
	bars := make([]types.OHLCV, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := 100.0 + 10.0*math.Sin(float64(i)/7.0) + 0.05*float64(i)
		bars[i] = types.OHLCV{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      price - 0.5,
			High:      price + 1.0,
			Low:       price - 1.0,
			Close:     price,
			Volume:    1000.0 + 50.0*math.Cos(float64(i)/5.0),
		}
	}
	return bars
}

func TestPipeline_Compute_TrimsWarmUp(t *testing.T) {
	bars := generateBars(100)
	fs, err := NewPipeline(DefaultConfig()).Compute(bars)
	require.NoError(t, err)

	// The longest window among the model columns is the Bollinger period
	// (20 bars), so the first 19 bars are dropped.
	assert.Equal(t, 100-19, fs.Len())
	assert.Equal(t, bars[19].Timestamp, fs.Rows[0].Timestamp)
	assert.Equal(t, bars[99].Timestamp, fs.Rows[fs.Len()-1].Timestamp)

	// Output must be a contiguous suffix of the input.
	for i, row := range fs.Rows {
		assert.Equal(t, bars[19+i].Timestamp, row.Timestamp, "row %d out of order", i)
	}
}

func TestPipeline_Compute_FiniteMatrix(t *testing.T) {
	bars := generateBars(80)
	fs, err := NewPipeline(DefaultConfig()).Compute(bars)
	require.NoError(t, err)

	matrix := fs.Matrix()
	require.Equal(t, fs.Len(), len(matrix))
	for i, vec := range matrix {
		require.Len(t, vec, FeatureDim, "row %d", i)
		for j, v := range vec {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "row %d col %d is not finite: %f", i, j, v)
		}
	}
}

func TestPipeline_Compute_RSIBounds(t *testing.T) {
	fs, err := NewPipeline(DefaultConfig()).Compute(generateBars(120))
	require.NoError(t, err)

	for i, row := range fs.Rows {
		assert.GreaterOrEqual(t, row.RSI, 0.0, "row %d", i)
		assert.LessOrEqual(t, row.RSI, 100.0, "row %d", i)
	}
}

func TestPipeline_Compute_BollingerOrder(t *testing.T) {
	fs, err := NewPipeline(DefaultConfig()).Compute(generateBars(120))
	require.NoError(t, err)

	for i, row := range fs.Rows {
		assert.GreaterOrEqual(t, row.BollUpper, row.BollLower, "row %d", i)
	}
}

// Gate-only averages have their own warm-up inside the cleaned frame, so
// the first rows carry NaN there while the model columns stay finite.
func TestPipeline_Compute_GateSeriesWarmUp(t *testing.T) {
	fs, err := NewPipeline(DefaultConfig()).Compute(generateBars(100))
	require.NoError(t, err)

	assert.True(t, math.IsNaN(fs.Rows[0].VolumeSMA))
	assert.True(t, math.IsNaN(fs.Rows[0].ATRSMA))
	last := fs.Rows[fs.Len()-1]
	assert.False(t, math.IsNaN(last.VolumeSMA))
	assert.False(t, math.IsNaN(last.ATRSMA))
}

func TestPipeline_Compute_Deterministic(t *testing.T) {
	bars := generateBars(90)
	pipeline := NewPipeline(DefaultConfig())

	a, err := pipeline.Compute(bars)
	require.NoError(t, err)
	b, err := pipeline.Compute(bars)
	require.NoError(t, err)

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Rows {
		assert.Equal(t, a.Rows[i], b.Rows[i], "row %d", i)
	}
}

func TestPipeline_Compute_EmptyInput(t *testing.T) {
	_, err := NewPipeline(DefaultConfig()).Compute(nil)
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestPipeline_Compute_TooFewBars(t *testing.T) {
	_, err := NewPipeline(DefaultConfig()).Compute(generateBars(10))
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.ShortSMAPeriod = 15 // above long period
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MACDFastSpan = 30
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.BollStdDev = 0
	assert.Error(t, bad.Validate())
}
