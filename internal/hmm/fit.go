package hmm

import (
	"fmt"
	"math"
	"math/rand"
)

// Fit estimates model parameters from the observation matrix with the
// Baum-Welch procedure. Iteration stops once the log-likelihood improves by
// less than cfg.Tol or the iteration cap is reached. The returned model is
// immutable.
func Fit(observations [][]float64, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hmm fit: %w", err)
	}
	dim, err := validateObservations(observations)
	if err != nil {
		return nil, fmt.Errorf("hmm fit: %w", err)
	}
	if len(observations) < cfg.NumStates {
		return nil, fmt.Errorf("hmm fit: %d observations cannot support %d states", len(observations), cfg.NumStates)
	}

	m := initialModel(observations, dim, cfg)

	prevLL := math.Inf(-1)
	for iter := 1; iter <= cfg.MaxIter; iter++ {
		ll := m.emStep(observations)
		m.logLikelihood = ll
		m.iterations = iter
		if iter > 1 && math.Abs(ll-prevLL) < cfg.Tol {
			break
		}
		prevLL = ll
	}
	return m, nil
}

// initialModel seeds the EM run: means are spread over the data with a
// k-means++-style farthest-point pick, variances start at the global
// per-dimension variance, and transitions are uniform with a self bias.
func initialModel(observations [][]float64, dim int, cfg Config) *Model {
	k := cfg.NumStates
	rng := rand.New(rand.NewSource(cfg.Seed))

	m := &Model{
		numStates:  k,
		dim:        dim,
		initial:    make([]float64, k),
		transition: make([][]float64, k),
		means:      make([][]float64, k),
		variances:  make([][]float64, k),
	}

	globalMean := make([]float64, dim)
	for _, obs := range observations {
		for d, v := range obs {
			globalMean[d] += v
		}
	}
	for d := range globalMean {
		globalMean[d] /= float64(len(observations))
	}
	globalVar := make([]float64, dim)
	for _, obs := range observations {
		for d, v := range obs {
			diff := v - globalMean[d]
			globalVar[d] += diff * diff
		}
	}
	for d := range globalVar {
		globalVar[d] = math.Max(globalVar[d]/float64(len(observations)), varianceFloor)
	}

	chosen := seedMeans(observations, k, rng)
	for s := 0; s < k; s++ {
		m.initial[s] = 1.0 / float64(k)
		m.means[s] = make([]float64, dim)
		copy(m.means[s], observations[chosen[s]])
		m.variances[s] = make([]float64, dim)
		copy(m.variances[s], globalVar)

		m.transition[s] = make([]float64, k)
		for j := 0; j < k; j++ {
			if j == s {
				m.transition[s][j] = 0.8
			} else {
				m.transition[s][j] = 0.2 / float64(k-1)
			}
		}
	}
	return m
}

// seedMeans picks k observation indices, the first uniformly at random and
// each following one with probability proportional to its squared distance
// from the nearest pick so far.
func seedMeans(observations [][]float64, k int, rng *rand.Rand) []int {
	n := len(observations)
	chosen := make([]int, 0, k)
	chosen = append(chosen, rng.Intn(n))

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = squaredDistance(observations[i], observations[chosen[0]])
	}

	for len(chosen) < k {
		total := 0.0
		for _, d := range dist {
			total += d
		}
		var next int
		if total <= 0 {
			next = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			cum := 0.0
			for i, d := range dist {
				cum += d
				if cum >= target {
					next = i
					break
				}
			}
		}
		chosen = append(chosen, next)
		for i := range dist {
			if d := squaredDistance(observations[i], observations[next]); d < dist[i] {
				dist[i] = d
			}
		}
	}
	return chosen
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

// emStep runs one expectation-maximization iteration in place and returns
// the log-likelihood of the observations under the pre-update parameters.
func (m *Model) emStep(observations [][]float64) float64 {
	n := len(observations)
	k := m.numStates

	gamma, xiSum, ll := m.forwardBackward(observations)

	// M-step: initial distribution.
	for s := 0; s < k; s++ {
		m.initial[s] = gamma[0][s]
	}

	// Transition matrix from expected transition counts.
	for s := 0; s < k; s++ {
		rowMass := 0.0
		for t := 0; t < n-1; t++ {
			rowMass += gamma[t][s]
		}
		if rowMass <= 0 {
			continue // starved state keeps its previous row
		}
		for j := 0; j < k; j++ {
			m.transition[s][j] = xiSum[s][j] / rowMass
		}
	}

	// Emission parameters from responsibilities.
	for s := 0; s < k; s++ {
		mass := 0.0
		for t := 0; t < n; t++ {
			mass += gamma[t][s]
		}
		if mass <= 0 {
			continue
		}
		mean := make([]float64, m.dim)
		for t := 0; t < n; t++ {
			for d := 0; d < m.dim; d++ {
				mean[d] += gamma[t][s] * observations[t][d]
			}
		}
		for d := range mean {
			mean[d] /= mass
		}
		variance := make([]float64, m.dim)
		for t := 0; t < n; t++ {
			for d := 0; d < m.dim; d++ {
				diff := observations[t][d] - mean[d]
				variance[d] += gamma[t][s] * diff * diff
			}
		}
		for d := range variance {
			variance[d] = math.Max(variance[d]/mass, varianceFloor)
		}
		m.means[s] = mean
		m.variances[s] = variance
	}

	return ll
}

// forwardBackward computes per-timestep state posteriors (gamma), summed
// pairwise transition posteriors (xiSum) and the observation log-likelihood,
// using per-timestep scaling to stay in floating-point range.
func (m *Model) forwardBackward(observations [][]float64) (gamma [][]float64, xiSum [][]float64, ll float64) {
	n := len(observations)
	k := m.numStates

	// Emission densities, shifted by the per-timestep max log density before
	// exponentiation; the shift cancels in the posteriors and is added back
	// into the log-likelihood.
	emit := make([][]float64, n)
	shift := make([]float64, n)
	for t := 0; t < n; t++ {
		logs := make([]float64, k)
		maxLog := math.Inf(-1)
		for s := 0; s < k; s++ {
			logs[s] = m.logEmission(s, observations[t])
			if logs[s] > maxLog {
				maxLog = logs[s]
			}
		}
		emit[t] = make([]float64, k)
		for s := 0; s < k; s++ {
			emit[t][s] = math.Exp(logs[s] - maxLog)
		}
		shift[t] = maxLog
	}

	alpha := make([][]float64, n)
	scale := make([]float64, n)
	alpha[0] = make([]float64, k)
	for s := 0; s < k; s++ {
		alpha[0][s] = m.initial[s] * emit[0][s]
		scale[0] += alpha[0][s]
	}
	normalize(alpha[0], scale[0])
	for t := 1; t < n; t++ {
		alpha[t] = make([]float64, k)
		for s := 0; s < k; s++ {
			sum := 0.0
			for j := 0; j < k; j++ {
				sum += alpha[t-1][j] * m.transition[j][s]
			}
			alpha[t][s] = sum * emit[t][s]
			scale[t] += alpha[t][s]
		}
		normalize(alpha[t], scale[t])
	}

	beta := make([][]float64, n)
	beta[n-1] = make([]float64, k)
	for s := 0; s < k; s++ {
		beta[n-1][s] = 1
	}
	for t := n - 2; t >= 0; t-- {
		beta[t] = make([]float64, k)
		for s := 0; s < k; s++ {
			sum := 0.0
			for j := 0; j < k; j++ {
				sum += m.transition[s][j] * emit[t+1][j] * beta[t+1][j]
			}
			beta[t][s] = sum
		}
		normalize(beta[t], scale[t+1])
	}

	gamma = make([][]float64, n)
	for t := 0; t < n; t++ {
		gamma[t] = make([]float64, k)
		total := 0.0
		for s := 0; s < k; s++ {
			gamma[t][s] = alpha[t][s] * beta[t][s]
			total += gamma[t][s]
		}
		normalize(gamma[t], total)
	}

	xiSum = make([][]float64, k)
	for s := 0; s < k; s++ {
		xiSum[s] = make([]float64, k)
	}
	for t := 0; t < n-1; t++ {
		total := 0.0
		xi := make([][]float64, k)
		for s := 0; s < k; s++ {
			xi[s] = make([]float64, k)
			for j := 0; j < k; j++ {
				xi[s][j] = alpha[t][s] * m.transition[s][j] * emit[t+1][j] * beta[t+1][j]
				total += xi[s][j]
			}
		}
		if total <= 0 {
			continue
		}
		for s := 0; s < k; s++ {
			for j := 0; j < k; j++ {
				xiSum[s][j] += xi[s][j] / total
			}
		}
	}

	for t := 0; t < n; t++ {
		if scale[t] > 0 {
			ll += math.Log(scale[t])
		}
		ll += shift[t]
	}
	return gamma, xiSum, ll
}

func normalize(values []float64, total float64) {
	if total <= 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
