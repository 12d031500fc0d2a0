package mathutil

import "math"

// LogZero stands in for log(0). Costs and log-likelihoods at or below it are
// treated as unreachable.
const LogZero = -1e30

// LogAdd returns log(exp(a) + exp(b)) without leaving the log domain.
// A difference beyond -36 is below float64 precision and is dropped.
func LogAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if b <= LogZero {
		return a
	}
	d := b - a
	if d < -36.0 {
		return a
	}
	return a + math.Log1p(math.Exp(d))
}

// LogSumExp returns log(sum(exp(xs))), or LogZero for an empty slice.
func LogSumExp(xs []float64) float64 {
	max := LogZero
	for _, x := range xs {
		if x > max {
			max = x
		}
	}
	if max <= LogZero {
		return LogZero
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}

// Softmax overwrites the log-domain values in xs with their normalized
// probabilities and returns the log of the normalizer.
func Softmax(xs []float64) float64 {
	total := LogSumExp(xs)
	for i, x := range xs {
		if total <= LogZero {
			xs[i] = 0
			continue
		}
		xs[i] = math.Exp(x - total)
	}
	return total
}
