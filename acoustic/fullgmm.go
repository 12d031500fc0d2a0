package acoustic

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ieee0824/asrtools/internal/kio"
	"github.com/ieee0824/asrtools/internal/mathutil"
)

// FullGMM is a Gaussian mixture with full covariance matrices.
type FullGMM struct {
	Weights []float64
	Means   [][]float64
	Covars  []*mat.SymDense
}

// FullFromDiag converts a diagonal GMM to full covariance.
func FullFromDiag(g *GMM) *FullGMM {
	f := &FullGMM{
		Weights: g.Weights(),
		Means:   make([][]float64, g.NumGauss()),
		Covars:  make([]*mat.SymDense, g.NumGauss()),
	}
	for i, c := range g.Components {
		f.Means[i] = append([]float64(nil), c.Mean...)
		cov := mat.NewSymDense(g.Dim, nil)
		for d, v := range c.Variance {
			cov.SetSym(d, d, v)
		}
		f.Covars[i] = cov
	}
	return f
}

// NumGauss returns the number of components.
func (f *FullGMM) NumGauss() int { return len(f.Weights) }

// Dim returns the feature dimension.
func (f *FullGMM) Dim() int {
	if len(f.Means) == 0 {
		return 0
	}
	return len(f.Means[0])
}

// LogProb returns log P(x). Components whose covariance is not positive
// definite are an error.
func (f *FullGMM) LogProb(x []float64) (float64, error) {
	dim := f.Dim()
	if len(x) != dim {
		return 0, errors.Errorf("feature dimension %d, model has %d", len(x), dim)
	}
	ll := make([]float64, f.NumGauss())
	diff := mat.NewVecDense(dim, nil)
	var solved mat.VecDense
	var chol mat.Cholesky
	for k := range f.Weights {
		if ok := chol.Factorize(f.Covars[k]); !ok {
			return 0, errors.Errorf("component %d: covariance is not positive definite", k)
		}
		for d := range x {
			diff.SetVec(d, x[d]-f.Means[k][d])
		}
		if err := chol.SolveVecTo(&solved, diff); err != nil {
			return 0, errors.Wrapf(err, "component %d", k)
		}
		maha := mat.Dot(diff, &solved)
		ll[k] = math.Log(f.Weights[k]) - 0.5*(float64(dim)*math.Log(2*math.Pi)+chol.LogDet()+maha)
	}
	return mathutil.LogSumExp(ll), nil
}

type serializedFullGMM struct {
	Weights []float64     `yaml:"weights,flow"`
	Means   [][]float64   `yaml:"means"`
	Covars  [][][]float64 `yaml:"covars"`
}

// WriteFullGMM stores f in name.
func WriteFullGMM(name string, binary bool, f *FullGMM) error {
	s := serializedFullGMM{Weights: f.Weights, Means: f.Means}
	for _, c := range f.Covars {
		n := c.SymmetricDim()
		rows := mathutil.NewMat(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				rows[i][j] = c.At(i, j)
			}
		}
		s.Covars = append(s.Covars, rows)
	}
	return kio.WriteObjects(name, binary, s)
}

// ReadFullGMM loads a GMM written by WriteFullGMM.
func ReadFullGMM(name string) (*FullGMM, error) {
	var s serializedFullGMM
	if err := kio.ReadObjects(name, &s); err != nil {
		return nil, err
	}
	if len(s.Means) != len(s.Weights) || len(s.Covars) != len(s.Weights) {
		return nil, errors.Errorf("full gmm %s: %d weights, %d means, %d covariances", name, len(s.Weights), len(s.Means), len(s.Covars))
	}
	f := &FullGMM{Weights: s.Weights, Means: s.Means}
	for k, rows := range s.Covars {
		n := len(rows)
		if n == 0 || mathutil.Cols(rows) != n || n != len(s.Means[k]) {
			return nil, errors.Errorf("full gmm %s: component %d covariance has the wrong shape", name, k)
		}
		cov := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				cov.SetSym(i, j, rows[i][j])
			}
		}
		f.Covars = append(f.Covars, cov)
	}
	return f, nil
}
