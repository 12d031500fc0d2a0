package acoustic

import (
	"math"
	"math/rand"
	"testing"
)

func randomGMM(rng *rand.Rand, k, dim int) *GMM {
	means := make([][]float64, k)
	vars := make([][]float64, k)
	lw := make([]float64, k)
	for i := 0; i < k; i++ {
		means[i] = make([]float64, dim)
		vars[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			means[i][d] = rng.NormFloat64()
			vars[i][d] = 0.5 + rng.Float64()
		}
		lw[i] = -math.Log(float64(k))
	}
	return NewGMMWithParams(means, vars, lw)
}

func TestLogProbFrames_MatchesSingle(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	dim := 39
	K := 4
	T := 300

	gmm := randomGMM(rng, K, dim)

	xs := make([][]float64, T)
	for i := 0; i < T; i++ {
		xs[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			xs[i][d] = rng.NormFloat64()
		}
	}

	got := gmm.LogProbFrames(xs)
	for i := 0; i < T; i++ {
		ref := gmm.LogProb(xs[i])
		if diff := math.Abs(got[i] - ref); diff > 1e-8 {
			t.Errorf("frame %d: batch=%f, single=%f, diff=%e", i, got[i], ref, diff)
		}
	}
}

func TestLogProbFrames_SingleFrame(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	gmm := randomGMM(rng, 1, 3)
	x := []float64{0.5, -1, 2}

	got := gmm.LogProbFrames([][]float64{x})
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if ref := gmm.LogProb(x); math.Abs(got[0]-ref) > 1e-10 {
		t.Errorf("LogProbFrames = %f, LogProb = %f", got[0], ref)
	}
}

func TestLogProbFrames_Empty(t *testing.T) {
	gmm := twoModeGMM()
	if got := gmm.LogProbFrames(nil); len(got) != 0 {
		t.Errorf("LogProbFrames(nil) = %v, want empty", got)
	}
}

func BenchmarkGMM_LogProbFrames_300x4(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	gmm := randomGMM(rng, 4, 39)
	xs := make([][]float64, 300)
	for i := range xs {
		xs[i] = make([]float64, 39)
		for d := range xs[i] {
			xs[i][d] = rng.NormFloat64()
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gmm.LogProbFrames(xs)
	}
}
