// Package hmm implements a Gaussian hidden Markov model with diagonal
// emission covariance, fit by Baum-Welch and decoded by per-timestep
// posterior argmax.
package hmm

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoObservations is returned when a fit or decode is requested on an
	// empty observation matrix.
	ErrNoObservations = errors.New("no observations provided")
)

// varianceFloor keeps emission densities away from degenerate spikes when a
// state collapses onto near-identical observations.
const varianceFloor = 1e-6

// Config controls the fitting procedure.
type Config struct {
	NumStates int     `json:"num_states"`
	MaxIter   int     `json:"max_iter"`
	Tol       float64 `json:"tol"`
	Seed      int64   `json:"seed"`
}

// DefaultConfig matches the richest production run: six states, a tight
// tolerance and a generous iteration cap.
func DefaultConfig() Config {
	return Config{
		NumStates: 6,
		MaxIter:   2000,
		Tol:       1e-3,
		Seed:      42,
	}
}

// Validate checks the fitting configuration.
func (c Config) Validate() error {
	if c.NumStates < 2 || c.NumStates > 16 {
		return fmt.Errorf("number of states must be between 2 and 16, got %d", c.NumStates)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("iteration cap must be positive, got %d", c.MaxIter)
	}
	if c.Tol <= 0 {
		return fmt.Errorf("convergence tolerance must be positive, got %g", c.Tol)
	}
	return nil
}

// Model holds the fitted parameters. It is immutable after Fit returns;
// Decode never mutates it.
type Model struct {
	numStates  int
	dim        int
	initial    []float64   // initial state distribution
	transition [][]float64 // transition[i][j] = P(state j | state i)
	means      [][]float64 // per-state mean vector
	variances  [][]float64 // per-state diagonal covariance

	logLikelihood float64 // training log-likelihood at convergence
	iterations    int     // EM iterations actually run
}

func (m *Model) NumStates() int { return m.numStates }
func (m *Model) Dim() int       { return m.dim }

// LogLikelihood returns the training log-likelihood at the final iteration.
func (m *Model) LogLikelihood() float64 { return m.logLikelihood }

// Iterations returns how many EM iterations the fit used.
func (m *Model) Iterations() int { return m.iterations }

// Mean returns a copy of the mean vector for one state.
func (m *Model) Mean(state int) []float64 {
	out := make([]float64, m.dim)
	copy(out, m.means[state])
	return out
}

// Variance returns a copy of the diagonal covariance for one state.
func (m *Model) Variance(state int) []float64 {
	out := make([]float64, m.dim)
	copy(out, m.variances[state])
	return out
}

// TransitionRow returns a copy of one row of the transition matrix.
func (m *Model) TransitionRow(state int) []float64 {
	out := make([]float64, m.numStates)
	copy(out, m.transition[state])
	return out
}

// logEmission is the log density of a diagonal Gaussian for one state.
func (m *Model) logEmission(state int, obs []float64) float64 {
	sum := 0.0
	for d := 0; d < m.dim; d++ {
		v := m.variances[state][d]
		diff := obs[d] - m.means[state][d]
		sum += math.Log(2*math.Pi*v) + diff*diff/v
	}
	return -0.5 * sum
}

func validateObservations(observations [][]float64) (dim int, err error) {
	if len(observations) == 0 {
		return 0, ErrNoObservations
	}
	dim = len(observations[0])
	if dim == 0 {
		return 0, fmt.Errorf("observation vectors are empty")
	}
	for i, obs := range observations {
		if len(obs) != dim {
			return 0, fmt.Errorf("inconsistent observation dimension at row %d: expected %d, got %d", i, dim, len(obs))
		}
		for d, v := range obs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("non-finite observation at row %d, dimension %d", i, d)
			}
		}
	}
	return dim, nil
}
