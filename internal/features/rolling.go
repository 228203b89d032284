package features

import "math"

// Rolling-window primitives used by the feature pipeline. All of them
// return a slice aligned with the input; positions inside the warm-up
// window are NaN so callers can tell "not yet defined" from a real zero.

// pctChange returns the percent change between consecutive values.
// The first element and any division by zero are NaN.
func pctChange(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		if i == 0 || values[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}

// rollingMean computes a trailing simple moving average. Windows that
// reach into the warm-up prefix or contain a NaN produce NaN.
func rollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		win := values[i-window+1 : i+1]
		if hasNaN(win) {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for _, v := range win {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// rollingStd computes the trailing sample standard deviation (n-1 in the
// denominator, matching the convention the bands were tuned against).
func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		win := values[i-window+1 : i+1]
		if hasNaN(win) {
			out[i] = math.NaN()
			continue
		}
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(window)
		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// ema computes an exponential moving average with the recursive
// adjust-false definition: ema_t = alpha*x_t + (1-alpha)*ema_{t-1},
// alpha = 2/(span+1), seeded with the first observation.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func hasNaN(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// forwardFill replaces each NaN with the most recent finite value.
// Leading NaNs are left in place.
func forwardFill(values []float64) {
	last := math.NaN()
	for i, v := range values {
		if math.IsInf(v, 0) {
			v = math.NaN()
			values[i] = v
		}
		if math.IsNaN(v) {
			values[i] = last
		} else {
			last = v
		}
	}
}

// backFill replaces leading NaNs with the first finite value.
func backFill(values []float64) {
	first := math.NaN()
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			first = v
			break
		}
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			values[i] = first
		} else {
			break
		}
	}
}

// firstFinite returns the index of the first finite value, or len(values)
// when the whole series is non-finite.
func firstFinite(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return i
		}
	}
	return len(values)
}
