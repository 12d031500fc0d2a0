package acoustic

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ieee0824/asrtools/internal/kio"
)

// DNNLayer holds weights and biases for a single fully-connected layer.
// W is [OutDim × InDim] row-major, B is [OutDim].
type DNNLayer struct {
	W      []float64 `yaml:"w,flow"`
	B      []float64 `yaml:"b,flow"`
	InDim  int       `yaml:"in_dim"`
	OutDim int       `yaml:"out_dim"`
}

// BatchNormParams holds parameters for one batch normalization layer.
type BatchNormParams struct {
	Gamma       []float64 `yaml:"gamma,flow"`        // learnable scale [Dim]
	Beta        []float64 `yaml:"beta,flow"`         // learnable shift [Dim]
	RunningMean []float64 `yaml:"running_mean,flow"` // EMA mean for inference [Dim]
	RunningVar  []float64 `yaml:"running_var,flow"`  // EMA variance for inference [Dim]
	Dim         int       `yaml:"dim"`
}

// DNN is a feedforward network whose outputs are pdf posteriors.
// Architecture: input → hidden1 (ReLU) → ... → hiddenN (ReLU) → output (log-softmax).
// The input of a frame is the window of ContextLen frames on each side,
// with edge frames replicated.
type DNN struct {
	Layers     []DNNLayer `yaml:"layers"`
	ContextLen int        `yaml:"context_len"`

	// Batch normalization (hidden layers only)
	UseBatchNorm bool              `yaml:"use_batch_norm"`
	BN           []BatchNormParams `yaml:"bn,omitempty"` // len = nHidden (nil if !UseBatchNorm)

	// Log prior P(pdf), subtracted to turn posteriors into scaled likelihoods
	LogPrior []float64 `yaml:"log_prior,flow"`
}

// NewDNN creates a DNN with randomly initialized weights.
// featureDim is the per-frame dimension; the input layer sees the whole window.
// useBatchNorm enables batch normalization on hidden layers (He init is used instead of Xavier).
func NewDNN(featureDim, hiddenDim, outputDim, contextLen, numHiddenLayers int, useBatchNorm bool, rng *rand.Rand) *DNN {
	inputDim := (2*contextLen + 1) * featureDim

	initWeights := xavierInit
	if useBatchNorm {
		initWeights = heInit
	}

	layers := make([]DNNLayer, numHiddenLayers+1)
	prevDim := inputDim
	for i := 0; i < numHiddenLayers; i++ {
		layers[i] = DNNLayer{
			W:      make([]float64, hiddenDim*prevDim),
			B:      make([]float64, hiddenDim),
			InDim:  prevDim,
			OutDim: hiddenDim,
		}
		initWeights(rng, layers[i].W, prevDim, hiddenDim)
		prevDim = hiddenDim
	}
	// Output layer
	layers[numHiddenLayers] = DNNLayer{
		W:      make([]float64, outputDim*prevDim),
		B:      make([]float64, outputDim),
		InDim:  prevDim,
		OutDim: outputDim,
	}
	xavierInit(rng, layers[numHiddenLayers].W, prevDim, outputDim)

	d := &DNN{
		Layers:       layers,
		ContextLen:   contextLen,
		UseBatchNorm: useBatchNorm,
		LogPrior:     make([]float64, outputDim),
	}

	if useBatchNorm {
		d.BN = make([]BatchNormParams, numHiddenLayers)
		for i := 0; i < numHiddenLayers; i++ {
			dim := layers[i].OutDim
			d.BN[i] = BatchNormParams{
				Gamma:       filled(dim, 1),
				Beta:        make([]float64, dim),
				RunningMean: make([]float64, dim),
				RunningVar:  filled(dim, 1),
				Dim:         dim,
			}
		}
	}
	return d
}

func filled(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func xavierInit(rng *rand.Rand, w []float64, fanIn, fanOut int) {
	scale := math.Sqrt(2.0 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
}

// heInit initializes weights with He normal initialization (for ReLU networks with BN).
func heInit(rng *rand.Rand, w []float64, fanIn, _ int) {
	scale := math.Sqrt(2.0 / float64(fanIn))
	for i := range w {
		w[i] = rng.NormFloat64() * scale
	}
}

// InputDim is the dimension of one context window.
func (d *DNN) InputDim() int { return d.Layers[0].InDim }

// OutputDim is the number of pdfs.
func (d *DNN) OutputDim() int { return d.Layers[len(d.Layers)-1].OutDim }

// Check verifies that the layer shapes chain together.
func (d *DNN) Check() error {
	if len(d.Layers) == 0 {
		return errors.New("dnn has no layers")
	}
	for i, l := range d.Layers {
		if l.InDim <= 0 || l.OutDim <= 0 || len(l.W) != l.InDim*l.OutDim || len(l.B) != l.OutDim {
			return errors.Errorf("dnn layer %d: malformed %dx%d layer", i, l.OutDim, l.InDim)
		}
		if i > 0 && l.InDim != d.Layers[i-1].OutDim {
			return errors.Errorf("dnn layer %d: input dim %d, previous layer outputs %d", i, l.InDim, d.Layers[i-1].OutDim)
		}
	}
	if d.UseBatchNorm {
		if len(d.BN) != len(d.Layers)-1 {
			return errors.Errorf("dnn has %d batch-norm layers for %d hidden layers", len(d.BN), len(d.Layers)-1)
		}
		for i, bn := range d.BN {
			if bn.Dim != d.Layers[i].OutDim {
				return errors.Errorf("dnn batch-norm %d: dim %d, layer outputs %d", i, bn.Dim, d.Layers[i].OutDim)
			}
		}
	}
	if d.LogPrior != nil && len(d.LogPrior) != d.OutputDim() {
		return errors.Errorf("dnn has %d priors for %d outputs", len(d.LogPrior), d.OutputDim())
	}
	return nil
}

// batchNormEps is the epsilon for numerical stability in batch normalization.
const batchNormEps = 1e-5

// Forward computes log-softmax outputs for a batch of input windows, one
// per row of input.
// When UseBatchNorm is true, hidden layers use running stats for BN inference.
func (d *DNN) Forward(input *mat.Dense) *mat.Dense {
	rows, _ := input.Dims()
	nLayers := len(d.Layers)
	act := input

	for i := range d.Layers {
		layer := &d.Layers[i]
		w := mat.NewDense(layer.OutDim, layer.InDim, layer.W)
		z := mat.NewDense(rows, layer.OutDim, nil)
		z.Mul(act, w.T())

		data := z.RawMatrix().Data
		if i < nLayers-1 {
			if d.UseBatchNorm {
				addBiasBNReLU(data, layer.B, &d.BN[i], rows, layer.OutDim)
			} else {
				addBiasReLU(data, layer.B, rows, layer.OutDim)
			}
		} else {
			addBiasLogSoftmax(data, layer.B, rows, layer.OutDim)
		}
		act = z
	}
	return act
}

// addBiasReLU adds bias and applies ReLU in place.
func addBiasReLU(z []float64, bias []float64, rows, cols int) {
	for i := 0; i < rows; i++ {
		off := i * cols
		for j := 0; j < cols; j++ {
			v := z[off+j] + bias[j]
			if v < 0 {
				v = 0
			}
			z[off+j] = v
		}
	}
}

// addBiasBNReLU adds bias, applies batch normalization using running stats, then ReLU.
// Fused: z = gamma * (z + bias - runningMean) / sqrt(runningVar + eps) + beta → ReLU
func addBiasBNReLU(z []float64, bias []float64, bn *BatchNormParams, rows, cols int) {
	scale := make([]float64, cols)
	shift := make([]float64, cols)
	for j := 0; j < cols; j++ {
		invStd := 1.0 / math.Sqrt(bn.RunningVar[j]+batchNormEps)
		scale[j] = bn.Gamma[j] * invStd
		shift[j] = bn.Beta[j] - bn.Gamma[j]*invStd*(bn.RunningMean[j]-bias[j])
	}
	for i := 0; i < rows; i++ {
		off := i * cols
		for j := 0; j < cols; j++ {
			v := z[off+j]*scale[j] + shift[j]
			if v < 0 {
				v = 0
			}
			z[off+j] = v
		}
	}
}

// addBiasLogSoftmax adds bias and applies log-softmax per row.
func addBiasLogSoftmax(z []float64, bias []float64, rows, cols int) {
	for i := 0; i < rows; i++ {
		row := z[i*cols : (i+1)*cols]
		floats.Add(row, bias)
		maxVal := floats.Max(row)
		sumExp := 0.0
		for _, v := range row {
			sumExp += math.Exp(v - maxVal)
		}
		floats.AddConst(-(maxVal + math.Log(sumExp)), row)
	}
}

// window copies the context window around frame t of features into dst,
// replicating the first and last frames at the edges.
func (d *DNN) window(dst []float64, features [][]float64, t int) {
	T := len(features)
	featDim := len(features[0])
	for w := 0; w < 2*d.ContextLen+1; w++ {
		src := t - d.ContextLen + w
		if src < 0 {
			src = 0
		} else if src >= T {
			src = T - 1
		}
		copy(dst[w*featDim:(w+1)*featDim], features[src])
	}
}

func (d *DNN) checkFeatureDim(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("no frames")
	}
	featDim := len(features[0])
	if featDim*(2*d.ContextLen+1) != d.InputDim() {
		return errors.Errorf("feature dim %d with context %d does not match network input %d", featDim, d.ContextLen, d.InputDim())
	}
	for t, f := range features {
		if len(f) != featDim {
			return errors.Errorf("frame %d has dimension %d, want %d", t, len(f), featDim)
		}
	}
	return nil
}

// ForwardFrames computes DNN log-posteriors for all T frames.
// Returns [T][OutputDim] log-posteriors.
func (d *DNN) ForwardFrames(features [][]float64) ([][]float64, error) {
	if len(features) == 0 {
		return nil, nil
	}
	if err := d.checkFeatureDim(features); err != nil {
		return nil, err
	}
	T := len(features)
	input := mat.NewDense(T, d.InputDim(), nil)
	for t := 0; t < T; t++ {
		d.window(input.RawRowView(t), features, t)
	}
	return rowsOf(d.Forward(input)), nil
}

func rowsOf(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = m.RawRowView(i)
	}
	return out
}

// SubtractPrior converts log-posteriors to pseudo-log-likelihoods in place.
// logLike[c] = logPost[c] - logPrior[c]
func (d *DNN) SubtractPrior(logPost []float64) {
	for i, lp := range d.LogPrior {
		logPost[i] -= lp
	}
}

// RemoveFirstLayers drops the first n layers. The network then takes the
// activations of the removed layers as its input, with no frame context.
func (d *DNN) RemoveFirstLayers(n int) error {
	if n < 0 || n >= len(d.Layers) {
		return errors.Errorf("cannot remove %d of %d layers", n, len(d.Layers))
	}
	if n == 0 {
		return nil
	}
	d.Layers = d.Layers[n:]
	if d.UseBatchNorm {
		d.BN = d.BN[n:]
	}
	d.ContextLen = 0
	return nil
}

// RemoveLastLayers drops the last n layers. The new last layer becomes the
// log-softmax output, so priors are reset to uniform.
func (d *DNN) RemoveLastLayers(n int) error {
	if n < 0 || n >= len(d.Layers) {
		return errors.Errorf("cannot remove %d of %d layers", n, len(d.Layers))
	}
	if n == 0 {
		return nil
	}
	keep := len(d.Layers) - n
	d.Layers = d.Layers[:keep]
	if d.UseBatchNorm {
		d.BN = d.BN[:keep-1]
	}
	out := d.OutputDim()
	d.LogPrior = filled(out, -math.Log(float64(out)))
	return nil
}

// PriorsFromCounts normalizes counts, floors them at floor and normalizes
// again.
func PriorsFromCounts(counts []float64, floor float64) ([]float64, error) {
	if !(floor > 0 && floor < 1) {
		return nil, errors.Errorf("prior floor must be in (0, 1), got %g", floor)
	}
	sum := floats.Sum(counts)
	if sum == 0 {
		return nil, errors.New("counts sum to zero")
	}
	priors := append([]float64(nil), counts...)
	floats.Scale(1/sum, priors)
	for i, p := range priors {
		if p < floor {
			priors[i] = floor
		}
	}
	floats.Scale(1/floats.Sum(priors), priors)
	return priors, nil
}

// SetPriors stores log(priors).
func (d *DNN) SetPriors(priors []float64) error {
	if len(priors) != d.OutputDim() {
		return errors.Errorf("have %d priors for %d network outputs", len(priors), d.OutputDim())
	}
	d.LogPrior = make([]float64, len(priors))
	for i, p := range priors {
		d.LogPrior[i] = math.Log(p)
	}
	return nil
}

// WriteDNN stores a raw network.
func WriteDNN(name string, binary bool, d *DNN) error {
	return kio.WriteObjects(name, binary, d)
}

// ReadDNN loads and checks a raw network.
func ReadDNN(name string) (*DNN, error) {
	d := &DNN{}
	if err := kio.ReadObjects(name, d); err != nil {
		return nil, err
	}
	if err := d.Check(); err != nil {
		return nil, errors.Wrapf(err, "network %s", name)
	}
	return d, nil
}
