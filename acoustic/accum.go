package acoustic

import (
	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
)

// AccumDiagGmm holds the sufficient statistics of one GMM: per-Gaussian
// occupancy and occupancy-weighted first and second order sums.
type AccumDiagGmm struct {
	Occupancy []float64   `yaml:"occupancy,flow"`
	X         [][]float64 `yaml:"x"`
	X2        [][]float64 `yaml:"x2"`
}

// TotalOccupancy returns the summed occupancy of all Gaussians.
func (a *AccumDiagGmm) TotalOccupancy() float64 {
	s := 0.0
	for _, o := range a.Occupancy {
		s += o
	}
	return s
}

// AccumAmDiagGmm holds one AccumDiagGmm per pdf.
type AccumAmDiagGmm struct {
	Pdfs         []AccumDiagGmm `yaml:"pdfs"`
	TotalLogLike float64        `yaml:"total_log_like"`
	TotalFrames  float64        `yaml:"total_frames"`
}

// NewAccumAmDiagGmm returns zeroed stats shaped like am.
func NewAccumAmDiagGmm(am *AmDiagGmm) *AccumAmDiagGmm {
	a := &AccumAmDiagGmm{Pdfs: make([]AccumDiagGmm, am.NumPdfs())}
	dim := am.Dim()
	for i, g := range am.Pdfs {
		k := g.NumGauss()
		a.Pdfs[i] = AccumDiagGmm{
			Occupancy: make([]float64, k),
			X:         make([][]float64, k),
			X2:        make([][]float64, k),
		}
		for j := 0; j < k; j++ {
			a.Pdfs[i].X[j] = make([]float64, dim)
			a.Pdfs[i].X2[j] = make([]float64, dim)
		}
	}
	return a
}

// NumAccs returns the number of pdfs.
func (a *AccumAmDiagGmm) NumAccs() int { return len(a.Pdfs) }

// AccumulateForPdf adds frame x with the given weight to the stats of pdf,
// distributing it over the Gaussians by their posteriors. It returns the
// frame's log-likelihood.
func (a *AccumAmDiagGmm) AccumulateForPdf(am *AmDiagGmm, pdf int, x []float64, weight float64) (float64, error) {
	if pdf < 0 || pdf >= len(a.Pdfs) || pdf >= am.NumPdfs() {
		return 0, errors.Errorf("pdf %d out of range [0, %d)", pdf, len(a.Pdfs))
	}
	g := am.Pdfs[pdf]
	if len(x) != g.Dim {
		return 0, errors.Errorf("feature dimension %d, model has %d", len(x), g.Dim)
	}
	post, loglike := g.ComponentPosteriors(x)
	acc := &a.Pdfs[pdf]
	for k, p := range post {
		w := p * weight
		acc.Occupancy[k] += w
		for d, v := range x {
			acc.X[k][d] += w * v
			acc.X2[k][d] += w * v * v
		}
	}
	a.TotalLogLike += loglike * weight
	a.TotalFrames += weight
	return loglike, nil
}

// Occupancies returns the per-pdf occupancy sums.
func (a *AccumAmDiagGmm) Occupancies() []float64 {
	occs := make([]float64, len(a.Pdfs))
	for i := range a.Pdfs {
		occs[i] = a.Pdfs[i].TotalOccupancy()
	}
	return occs
}

// Stats is the content of a GMM statistics file: per-pdf aligned frame
// counts followed by the Gaussian accumulators.
type Stats struct {
	FrameCounts []float64       `yaml:"frame_counts,flow"`
	Gmm         *AccumAmDiagGmm `yaml:"gmm"`
}

// Write stores s in name.
func (s *Stats) Write(name string, binary bool) error {
	return kio.WriteObjects(name, binary, s)
}

// ReadStats loads a statistics file written by Stats.Write.
func ReadStats(name string) (*Stats, error) {
	s := &Stats{}
	if err := kio.ReadObjects(name, s); err != nil {
		return nil, err
	}
	if s.Gmm == nil {
		return nil, errors.Errorf("stats %s: no accumulators", name)
	}
	return s, nil
}
