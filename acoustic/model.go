package acoustic

import (
	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/kio"
	"github.com/ieee0824/asrtools/internal/mathutil"
)

// AmDiagGmm is a pdf-indexed set of diagonal GMMs.
type AmDiagGmm struct {
	Pdfs []*GMM
}

// NumPdfs returns the number of pdfs.
func (am *AmDiagGmm) NumPdfs() int { return len(am.Pdfs) }

// Dim returns the feature dimension, 0 for an empty model.
func (am *AmDiagGmm) Dim() int {
	if len(am.Pdfs) == 0 {
		return 0
	}
	return am.Pdfs[0].Dim
}

// NumGauss returns the total number of Gaussians over all pdfs.
func (am *AmDiagGmm) NumGauss() int {
	n := 0
	for _, g := range am.Pdfs {
		n += g.NumGauss()
	}
	return n
}

// LogLikelihood returns log P(x | pdf).
func (am *AmDiagGmm) LogLikelihood(pdf int, x []float64) float64 {
	if pdf < 0 || pdf >= len(am.Pdfs) {
		return mathutil.LogZero
	}
	return am.Pdfs[pdf].LogProb(x)
}

// Copy returns a deep copy.
func (am *AmDiagGmm) Copy() *AmDiagGmm {
	out := &AmDiagGmm{Pdfs: make([]*GMM, len(am.Pdfs))}
	for i, g := range am.Pdfs {
		out.Pdfs[i] = g.Copy()
	}
	return out
}

// Copy returns a deep copy of g.
func (g *GMM) Copy() *GMM {
	means := make([][]float64, len(g.Components))
	vars := make([][]float64, len(g.Components))
	lw := make([]float64, len(g.Components))
	for i, c := range g.Components {
		means[i], vars[i], lw[i] = c.Mean, c.Variance, c.LogWeight
	}
	out := NewGMMWithParams(means, vars, lw)
	out.Dim = g.Dim
	return out
}

// Model is a transition model followed by its acoustic model, the layout of
// GMM model files.
type Model struct {
	Trans *TransitionModel
	Am    *AmDiagGmm
}

// Check verifies that the two halves agree with each other.
func (m *Model) Check() error {
	if err := m.Trans.Check(); err != nil {
		return err
	}
	if m.Trans.NumPdfs() > m.Am.NumPdfs() {
		return errors.Errorf("transition model uses %d pdfs, acoustic model has %d", m.Trans.NumPdfs(), m.Am.NumPdfs())
	}
	dim := m.Am.Dim()
	for i, g := range m.Am.Pdfs {
		if g.Dim != dim {
			return errors.Errorf("pdf %d has dimension %d, want %d", i, g.Dim, dim)
		}
		if err := g.Check(); err != nil {
			return errors.Wrapf(err, "pdf %d", i)
		}
	}
	return nil
}

// serializable types shared by the gob and YAML encodings

type serializedPhone struct {
	Phone    int32       `yaml:"phone"`
	Pdfs     []int       `yaml:"pdfs,flow"`
	TransLog [][]float64 `yaml:"trans_log"`
}

type serializedTransitionModel struct {
	Phones []serializedPhone `yaml:"phones"`
}

type serializedGaussian struct {
	Mean      []float64 `yaml:"mean,flow"`
	Variance  []float64 `yaml:"variance,flow"`
	LogWeight float64   `yaml:"log_weight"`
}

type serializedGMM struct {
	Dim        int                  `yaml:"dim"`
	Components []serializedGaussian `yaml:"components"`
}

type serializedAm struct {
	Pdfs []serializedGMM `yaml:"pdfs"`
}

func (tm *TransitionModel) serialize() serializedTransitionModel {
	s := serializedTransitionModel{Phones: make([]serializedPhone, len(tm.Phones))}
	for i, h := range tm.Phones {
		s.Phones[i] = serializedPhone{Phone: h.Phone, Pdfs: h.Pdfs, TransLog: h.TransLog}
	}
	return s
}

func (s serializedTransitionModel) model() *TransitionModel {
	tm := &TransitionModel{Phones: make([]*PhoneHMM, len(s.Phones))}
	for i, p := range s.Phones {
		tm.Phones[i] = &PhoneHMM{Phone: p.Phone, Pdfs: p.Pdfs, TransLog: p.TransLog}
	}
	return tm
}

func (g *GMM) serialize() serializedGMM {
	s := serializedGMM{Dim: g.Dim}
	for _, c := range g.Components {
		s.Components = append(s.Components, serializedGaussian{
			Mean:      c.Mean,
			Variance:  c.Variance,
			LogWeight: c.LogWeight,
		})
	}
	return s
}

func (s serializedGMM) gmm() *GMM {
	g := &GMM{Dim: s.Dim}
	for _, sc := range s.Components {
		c := Gaussian{
			Mean:      sc.Mean,
			Variance:  sc.Variance,
			LogWeight: sc.LogWeight,
		}
		c.Precompute()
		g.Components = append(g.Components, c)
	}
	return g
}

func (am *AmDiagGmm) serialize() serializedAm {
	s := serializedAm{Pdfs: make([]serializedGMM, len(am.Pdfs))}
	for i, g := range am.Pdfs {
		s.Pdfs[i] = g.serialize()
	}
	return s
}

func (s serializedAm) am() *AmDiagGmm {
	am := &AmDiagGmm{Pdfs: make([]*GMM, len(s.Pdfs))}
	for i, g := range s.Pdfs {
		am.Pdfs[i] = g.gmm()
	}
	return am
}

// Write stores the model in name, gob-encoded when binary and YAML otherwise.
func (m *Model) Write(name string, binary bool) error {
	return kio.WriteObjects(name, binary, m.Trans.serialize(), m.Am.serialize())
}

// ReadModel loads and checks a model written by Write.
func ReadModel(name string) (*Model, error) {
	var st serializedTransitionModel
	var sa serializedAm
	if err := kio.ReadObjects(name, &st, &sa); err != nil {
		return nil, err
	}
	m := &Model{Trans: st.model(), Am: sa.am()}
	if err := m.Check(); err != nil {
		return nil, errors.Wrapf(err, "model %s", name)
	}
	return m, nil
}

// WriteGMM stores a single diagonal GMM.
func WriteGMM(name string, binary bool, g *GMM) error {
	return kio.WriteObjects(name, binary, g.serialize())
}

// ReadGMM loads a single diagonal GMM.
func ReadGMM(name string) (*GMM, error) {
	var s serializedGMM
	if err := kio.ReadObjects(name, &s); err != nil {
		return nil, err
	}
	return s.gmm(), nil
}
