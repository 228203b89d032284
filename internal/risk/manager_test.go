package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_PositionSize(t *testing.T) {
	m := NewManager(0.02, DefaultATRMultiplier, 0.03)

	// 2% of 1000 at risk, ATR 50 => 0.4 units.
	assert.InDelta(t, 0.4, m.PositionSize(1000.0, 50.0), 1e-12)
	assert.InDelta(t, 4.0, m.PositionSize(1000.0, 5.0), 1e-12)
}

func TestManager_PositionSize_DegenerateATR(t *testing.T) {
	m := NewManager(0.02, DefaultATRMultiplier, 0.03)

	assert.Equal(t, 0.0, m.PositionSize(1000.0, 0.0))
	assert.Equal(t, 0.0, m.PositionSize(1000.0, -3.0))
}

func TestManager_StopLoss(t *testing.T) {
	m := NewManager(0.02, 2.0, 0.03)
	assert.InDelta(t, 90.0, m.StopLoss(100.0, 5.0), 1e-12)
}

func TestManager_TakeProfit(t *testing.T) {
	m := NewManager(0.02, 2.0, 0.03)
	assert.InDelta(t, 103.0, m.TakeProfit(100.0), 1e-12)
}
