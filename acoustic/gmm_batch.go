package acoustic

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ieee0824/asrtools/internal/mathutil"
)

// LogProbFrames computes log P(x_t | GMM) for every row of feats with two
// matrix products instead of one pass per frame and component.
//
//	maha(x,μ,invVar) = Σ(x²·invVar) - 2·Σ(x·μ·invVar) + Σ(μ²·invVar)
//	term1 = X² · invVarᵀ        (T×D)(D×K)
//	term2 = X  · (μ·invVar)ᵀ    (T×D)(D×K)
//	lp[t,k] = -0.5·term1 + term2 + bias[k]
func (g *GMM) LogProbFrames(feats [][]float64) []float64 {
	T, K, D := len(feats), len(g.Components), g.Dim
	out := make([]float64, T)
	if T == 0 || K == 0 || D == 0 {
		for t := range out {
			out[t] = mathutil.LogZero
		}
		return out
	}

	x := mat.NewDense(T, D, nil)
	xsq := mat.NewDense(T, D, nil)
	for t, row := range feats {
		x.SetRow(t, row)
		for d, v := range row {
			xsq.Set(t, d, v*v)
		}
	}
	invVar := mat.NewDense(K, D, nil)
	meanInvVar := mat.NewDense(K, D, nil)
	bias := make([]float64, K)
	for k := range g.Components {
		c := &g.Components[k]
		if c.invVariance == nil {
			c.Precompute()
		}
		b := c.LogWeight - c.logNormConst
		for d := 0; d < D; d++ {
			invVar.Set(k, d, c.invVariance[d])
			meanInvVar.Set(k, d, c.Mean[d]*c.invVariance[d])
			b -= 0.5 * c.Mean[d] * c.Mean[d] * c.invVariance[d]
		}
		bias[k] = b
	}

	var term1, term2 mat.Dense
	term1.Mul(xsq, invVar.T())
	term2.Mul(x, meanInvVar.T())

	lp := make([]float64, K)
	for t := 0; t < T; t++ {
		for k := 0; k < K; k++ {
			lp[k] = -0.5*term1.At(t, k) + term2.At(t, k) + bias[k]
		}
		out[t] = mathutil.LogSumExp(lp)
	}
	return out
}
