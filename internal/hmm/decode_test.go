package hmm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_StatesInRange(t *testing.T) {
	obs := twoRegimeData(120, 11)
	model, err := Fit(obs, Config{NumStates: 4, MaxIter: 100, Tol: 1e-4, Seed: 42})
	require.NoError(t, err)

	states, err := model.Decode(obs)
	require.NoError(t, err)
	require.Len(t, states, len(obs))
	for t2, s := range states {
		assert.GreaterOrEqual(t, s, 0, "timestep %d", t2)
		assert.Less(t, s, model.NumStates(), "timestep %d", t2)
	}
}

func TestDecode_DimensionMismatch(t *testing.T) {
	obs := twoRegimeData(60, 5)
	model, err := Fit(obs, Config{NumStates: 2, MaxIter: 50, Tol: 1e-4, Seed: 1})
	require.NoError(t, err)

	_, err = model.Decode([][]float64{{1, 2, 3}})
	assert.Error(t, err)
}

func TestDecode_NoObservations(t *testing.T) {
	obs := twoRegimeData(60, 5)
	model, err := Fit(obs, Config{NumStates: 2, MaxIter: 50, Tol: 1e-4, Seed: 1})
	require.NoError(t, err)

	_, err = model.Decode(nil)
	assert.ErrorIs(t, err, ErrNoObservations)
}

func TestDecode_DoesNotMutateModel(t *testing.T) {
	obs := twoRegimeData(80, 9)
	model, err := Fit(obs, Config{NumStates: 2, MaxIter: 50, Tol: 1e-4, Seed: 42})
	require.NoError(t, err)

	meanBefore := model.Mean(0)
	transBefore := model.TransitionRow(0)
	llBefore := model.LogLikelihood()

	_, err = model.Decode(obs)
	require.NoError(t, err)

	assert.Equal(t, meanBefore, model.Mean(0))
	assert.Equal(t, transBefore, model.TransitionRow(0))
	assert.Equal(t, llBefore, model.LogLikelihood())
}
