// Package strategy filters regime-state transitions into buy and sell
// signals using technical gate conditions parameterized by a risk profile.
package strategy

import (
	"fmt"
	"math"

	"github.com/quantfarm/regime-trader/internal/features"
	"github.com/quantfarm/regime-trader/pkg/types"
)

// Volatility band around the trailing ATR average: enough movement to be
// worth trading, not so much that stops become meaningless.
const (
	atrFloorRatio = 0.8
	atrCeilRatio  = 2.0
)

// Generator evaluates gate conditions at regime transitions.
type Generator struct {
	profile    RiskProfile
	thresholds Thresholds
}

// NewGenerator creates a generator for the given risk profile.
func NewGenerator(profile RiskProfile) *Generator {
	return &Generator{
		profile:    profile,
		thresholds: profile.Thresholds(),
	}
}

// Profile returns the profile the generator was built with.
func (g *Generator) Profile() RiskProfile { return g.profile }

// Generate walks the decoded state sequence and emits a signal at every
// index where the state label changes and the corresponding gate holds.
// The buy and sell lists are each ordered by time but are not guaranteed
// to alternate; pairing discipline belongs to the backtest engine.
func (g *Generator) Generate(states []int, fs *features.FeatureSet) (buys, sells []types.Signal, err error) {
	if fs == nil || fs.Len() == 0 {
		return nil, nil, fmt.Errorf("generate signals: empty feature set")
	}
	if len(states) != fs.Len() {
		return nil, nil, fmt.Errorf("generate signals: state sequence length %d does not match feature rows %d", len(states), fs.Len())
	}

	for i := 1; i < len(states); i++ {
		if states[i] == states[i-1] {
			continue
		}
		row := fs.Rows[i]
		if !g.volumeOK(row) || !g.volatilityOK(row) {
			continue
		}
		switch {
		case g.buyGate(row):
			buys = append(buys, types.Signal{Timestamp: row.Timestamp, Side: types.SideBuy, Price: row.Close})
		case g.sellGate(row):
			sells = append(sells, types.Signal{Timestamp: row.Timestamp, Side: types.SideSell, Price: row.Close})
		}
	}
	return buys, sells, nil
}

// buyGate: price pressed into the lower band, bearish momentum exhausted.
func (g *Generator) buyGate(row features.Row) bool {
	return row.Close < row.BollLower*(1+g.thresholds.BollingerMargin) &&
		row.MACD < 0 &&
		row.RSI < g.thresholds.RSIOversold
}

// sellGate: price pressed into the upper band, bullish momentum stretched.
func (g *Generator) sellGate(row features.Row) bool {
	return row.Close > row.BollUpper*(1-g.thresholds.BollingerMargin) &&
		row.MACD > 0 &&
		row.RSI > g.thresholds.RSIOverbought
}

// volumeOK requires volume above its trailing average by the profile's
// ratio. A non-finite average (inside the volume MA warm-up) fails.
func (g *Generator) volumeOK(row features.Row) bool {
	if math.IsNaN(row.VolumeSMA) || math.IsInf(row.VolumeSMA, 0) {
		return false
	}
	return row.Volume > row.VolumeSMA*g.thresholds.VolumeThreshold
}

// volatilityOK keeps ATR inside the favorable band around its own average.
func (g *Generator) volatilityOK(row features.Row) bool {
	if math.IsNaN(row.ATRSMA) || math.IsInf(row.ATRSMA, 0) {
		return false
	}
	return row.ATR > row.ATRSMA*atrFloorRatio && row.ATR < row.ATRSMA*atrCeilRatio
}
