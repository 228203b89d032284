package hmm

import "fmt"

// Decode assigns each observation the state with the highest posterior
// probability at that timestep (MAP decoding, not full-sequence Viterbi).
// Decoding the same observations with the same fitted model is
// deterministic.
func (m *Model) Decode(observations [][]float64) ([]int, error) {
	dim, err := validateObservations(observations)
	if err != nil {
		return nil, fmt.Errorf("hmm decode: %w", err)
	}
	if dim != m.dim {
		return nil, fmt.Errorf("hmm decode: observation dimension %d does not match model dimension %d", dim, m.dim)
	}

	gamma, _, _ := m.forwardBackward(observations)
	states := make([]int, len(observations))
	for t, posterior := range gamma {
		best := 0
		for s := 1; s < m.numStates; s++ {
			if posterior[s] > posterior[best] {
				best = s
			}
		}
		states[t] = best
	}
	return states, nil
}
