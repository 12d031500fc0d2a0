package acoustic

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/ieee0824/asrtools/cluster"
	"github.com/ieee0824/asrtools/internal/mathutil"
)

// Gaussian represents a single multivariate Gaussian component with diagonal covariance.
type Gaussian struct {
	Mean      []float64 // [dim]
	Variance  []float64 // [dim] diagonal covariance
	LogWeight float64   // log mixture weight

	logNormConst float64
	invVariance  []float64
}

// Precompute recalculates cached normalization constants and inverse variances.
// Must be called after updating Mean or Variance.
func (g *Gaussian) Precompute() {
	dim := len(g.Mean)
	g.logNormConst = float64(dim)/2.0*math.Log(2*math.Pi) + 0.5*sumLog(g.Variance)
	g.invVariance = make([]float64, dim)
	for i, v := range g.Variance {
		g.invVariance[i] = 1.0 / v
	}
}

// LogProb computes the log density of x under this Gaussian, ignoring the weight.
func (g *Gaussian) LogProb(x []float64) float64 {
	maha := 0.0
	for d, xd := range x {
		diff := xd - g.Mean[d]
		maha += diff * diff * g.invVariance[d]
	}
	return -0.5*maha - g.logNormConst
}

func sumLog(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += math.Log(x)
	}
	return s
}

// GMM is a Gaussian Mixture Model with diagonal covariance. It is the
// emission density of one pdf.
type GMM struct {
	Components []Gaussian
	Dim        int
}

// NewGMMWithParams creates a GMM from given parameters.
func NewGMMWithParams(means, variances [][]float64, logWeights []float64) *GMM {
	k := len(means)
	dim := 0
	if k > 0 {
		dim = len(means[0])
	}
	g := &GMM{
		Components: make([]Gaussian, k),
		Dim:        dim,
	}
	for i := range g.Components {
		g.Components[i] = Gaussian{
			Mean:      append([]float64(nil), means[i]...),
			Variance:  append([]float64(nil), variances[i]...),
			LogWeight: logWeights[i],
		}
		g.Components[i].Precompute()
	}
	return g
}

// NumGauss returns the number of mixture components.
func (g *GMM) NumGauss() int { return len(g.Components) }

// Weights returns the linear mixture weights.
func (g *GMM) Weights() []float64 {
	w := make([]float64, len(g.Components))
	for i, c := range g.Components {
		w[i] = math.Exp(c.LogWeight)
	}
	return w
}

// Check reports malformed parameters: ragged dimensions, non-positive
// variances or weights that do not sum to one.
func (g *GMM) Check() error {
	if len(g.Components) == 0 {
		return errors.New("gmm has no components")
	}
	if g.Dim <= 0 {
		return errors.Errorf("gmm has dimension %d", g.Dim)
	}
	for i, c := range g.Components {
		if len(c.Mean) != g.Dim || len(c.Variance) != g.Dim {
			return errors.Errorf("component %d: dimension %d/%d, want %d", i, len(c.Mean), len(c.Variance), g.Dim)
		}
		for _, v := range c.Variance {
			if !(v > 0) {
				return errors.Errorf("component %d: non-positive variance %g", i, v)
			}
		}
	}
	if sum := floats.Sum(g.Weights()); math.Abs(sum-1) > 1e-4 {
		return errors.Errorf("mixture weights sum to %g", sum)
	}
	return nil
}

// ComponentLogLikes returns log(w_k) + log N(x; μ_k, σ_k) for every component.
func (g *GMM) ComponentLogLikes(x []float64) []float64 {
	ll := make([]float64, len(g.Components))
	for i := range g.Components {
		ll[i] = g.Components[i].LogWeight + g.Components[i].LogProb(x)
	}
	return ll
}

// ComponentPosteriors returns the posterior of each component given x and
// the total log-likelihood log P(x).
func (g *GMM) ComponentPosteriors(x []float64) ([]float64, float64) {
	post := g.ComponentLogLikes(x)
	total := mathutil.Softmax(post)
	return post, total
}

// LogProb computes log P(x | this GMM) = log sum_k w_k * N(x; μ_k, σ_k).
func (g *GMM) LogProb(x []float64) float64 {
	return mathutil.LogSumExp(g.ComponentLogLikes(x))
}

// clusterables converts the components to weighted stats; each component
// contributes count = its weight times scale. Zero-weight components are
// dropped.
func (g *GMM) clusterables(scale, varFloor float64) []cluster.Clusterable {
	out := make([]cluster.Clusterable, 0, len(g.Components))
	for _, c := range g.Components {
		if count := scale * math.Exp(c.LogWeight); count > 0 {
			out = append(out, cluster.FromGaussian(c.Mean, c.Variance, varFloor, count))
		}
	}
	return out
}

// gmmFromClusters builds a GMM whose components are the clusters' ML
// Gaussians, weighted by their relative counts.
func gmmFromClusters(clusters []cluster.Clusterable, dim int) *GMM {
	total := 0.0
	for _, c := range clusters {
		total += c.Normalizer()
	}
	means := make([][]float64, len(clusters))
	vars := make([][]float64, len(clusters))
	logWeights := make([]float64, len(clusters))
	for i, c := range clusters {
		gc := c.(*cluster.GaussClusterable)
		means[i] = gc.Mean()
		vars[i] = gc.Variance()
		logWeights[i] = math.Log(gc.Count / total)
	}
	g := NewGMMWithParams(means, vars, logWeights)
	g.Dim = dim
	return g
}

// Merge reduces the mixture to at most target components by repeatedly
// merging the pair whose merge loses the least likelihood. Variances of
// merged components are the exact moment-matched variances.
func (g *GMM) Merge(target int) error {
	if target <= 0 {
		return errors.Errorf("cannot merge to %d components", target)
	}
	if target >= len(g.Components) {
		return nil
	}
	// Variance flooring only steers the choice of pairs; the merged
	// parameters come from the unfloored stats.
	clusters, _, _ := cluster.BottomUp(g.clusterables(1, 1e-10), math.Inf(1), target)
	*g = *gmmFromClusters(clusters, g.Dim)
	return nil
}
