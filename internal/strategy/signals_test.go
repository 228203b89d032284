package strategy

import (
	"math"
	"testing"
	"time"

	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// neutralRow builds a row that passes the volume and volatility checks but
// triggers neither gate. Tests tweak individual fields from here.
func neutralRow(i int) features.Row {
	return features.Row{
		Timestamp: testBase.Add(time.Duration(i) * time.Hour),
		Close:     100.0,
		Volume:    1500.0,
		MACD:      0.0,
		RSI:       50.0,
		BollUpper: 105.0,
		BollLower: 95.0,
		ATR:       2.0,
		VolumeSMA: 1000.0,
		ATRSMA:    2.0,
	}
}

func buyRow(i int) features.Row {
	row := neutralRow(i)
	row.Close = 94.0 // below the lower band
	row.MACD = -0.5
	row.RSI = 25.0
	return row
}

func sellRow(i int) features.Row {
	row := neutralRow(i)
	row.Close = 106.0 // above the upper band
	row.MACD = 0.5
	row.RSI = 75.0
	return row
}

func featureSet(rows ...features.Row) *features.FeatureSet {
	return &features.FeatureSet{Rows: rows}
}

func TestGenerate_BuyOnRegimeChange(t *testing.T) {
	gen := NewGenerator(ProfileModerate)
	fs := featureSet(neutralRow(0), buyRow(1))

	buys, sells, err := gen.Generate([]int{0, 1}, fs)
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.Empty(t, sells)
	assert.Equal(t, types.SideBuy, buys[0].Side)
	assert.Equal(t, 94.0, buys[0].Price)
	assert.Equal(t, fs.Rows[1].Timestamp, buys[0].Timestamp)
}

func TestGenerate_SellOnRegimeChange(t *testing.T) {
	gen := NewGenerator(ProfileModerate)
	fs := featureSet(neutralRow(0), sellRow(1))

	buys, sells, err := gen.Generate([]int{2, 0}, fs)
	require.NoError(t, err)
	assert.Empty(t, buys)
	require.Len(t, sells, 1)
	assert.Equal(t, types.SideSell, sells[0].Side)
}

func TestGenerate_NoSignalWithoutRegimeChange(t *testing.T) {
	gen := NewGenerator(ProfileAggressive)
	fs := featureSet(buyRow(0), buyRow(1), buyRow(2))

	buys, sells, err := gen.Generate([]int{1, 1, 1}, fs)
	require.NoError(t, err)
	assert.Empty(t, buys)
	assert.Empty(t, sells)
}

func TestGenerate_VolumeGateBlocks(t *testing.T) {
	gen := NewGenerator(ProfileModerate)
	row := buyRow(1)
	row.Volume = 1000.0 // exactly average, below the required ratio
	fs := featureSet(neutralRow(0), row)

	buys, _, err := gen.Generate([]int{0, 1}, fs)
	require.NoError(t, err)
	assert.Empty(t, buys)
}

func TestGenerate_VolatilityBandBlocks(t *testing.T) {
	gen := NewGenerator(ProfileModerate)

	quiet := buyRow(1)
	quiet.ATR = 1.0 // half the average, below the floor
	buys, _, err := gen.Generate([]int{0, 1}, featureSet(neutralRow(0), quiet))
	require.NoError(t, err)
	assert.Empty(t, buys)

	wild := buyRow(1)
	wild.ATR = 5.0 // 2.5x the average, above the ceiling
	buys, _, err = gen.Generate([]int{0, 1}, featureSet(neutralRow(0), wild))
	require.NoError(t, err)
	assert.Empty(t, buys)
}

// Rows inside the gate-series warm-up carry NaN averages and must never
// produce a signal.
func TestGenerate_NaNGateSeriesBlocks(t *testing.T) {
	gen := NewGenerator(ProfileAggressive)

	row := buyRow(1)
	row.VolumeSMA = math.NaN()
	buys, _, err := gen.Generate([]int{0, 1}, featureSet(neutralRow(0), row))
	require.NoError(t, err)
	assert.Empty(t, buys)

	row = buyRow(1)
	row.ATRSMA = math.NaN()
	buys, _, err = gen.Generate([]int{0, 1}, featureSet(neutralRow(0), row))
	require.NoError(t, err)
	assert.Empty(t, buys)
}

// A single row can never emit both a buy and a sell.
func TestGenerate_OneSignalPerTransition(t *testing.T) {
	for _, profile := range []RiskProfile{ProfileConservative, ProfileModerate, ProfileAggressive} {
		gen := NewGenerator(profile)
		fs := featureSet(neutralRow(0), buyRow(1), neutralRow(2), sellRow(3))

		buys, sells, err := gen.Generate([]int{0, 1, 1, 2}, fs)
		require.NoError(t, err)

		seen := map[time.Time]int{}
		for _, s := range buys {
			seen[s.Timestamp]++
		}
		for _, s := range sells {
			seen[s.Timestamp]++
		}
		for ts, count := range seen {
			assert.Equal(t, 1, count, "profile %s emitted %d signals at %s", profile, count, ts)
		}
	}
}

func TestGenerate_ProfileStrictness(t *testing.T) {
	// RSI 38 is oversold for moderate (40) and aggressive (45) but not
	// conservative (35).
	row := buyRow(1)
	row.RSI = 38.0
	fs := featureSet(neutralRow(0), row)

	buys, _, err := NewGenerator(ProfileConservative).Generate([]int{0, 1}, fs)
	require.NoError(t, err)
	assert.Empty(t, buys)

	buys, _, err = NewGenerator(ProfileModerate).Generate([]int{0, 1}, fs)
	require.NoError(t, err)
	assert.Len(t, buys, 1)
}

func TestGenerate_LengthMismatch(t *testing.T) {
	gen := NewGenerator(ProfileModerate)
	fs := featureSet(neutralRow(0), neutralRow(1))

	_, _, err := gen.Generate([]int{0, 1, 2}, fs)
	assert.Error(t, err)
}

func TestGenerate_EmptyFeatureSet(t *testing.T) {
	gen := NewGenerator(ProfileModerate)
	_, _, err := gen.Generate(nil, featureSet())
	assert.Error(t, err)
}
