package acoustic

import (
	"bufio"
	"io"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ieee0824/asrtools/posterior"
	"github.com/ieee0824/asrtools/table"
)

// Example is one network training example: soft pdf labels for a single
// frame together with the feature window around it.
type Example struct {
	LeftContext int              // row of Features holding the labeled frame
	Labels      []posterior.Pair // pdf id and weight
	Features    [][]float64
}

// ExampleCodec reads and writes example archives:
//
//	key 2 [ 3 0.9 5 0.1 ]  [
//	  1 2
//	  3 4 ]
type ExampleCodec struct{}

func (ExampleCodec) Framing() table.Framing { return table.FrameBrackets }

func (ExampleCodec) Decode(body string) (Example, error) {
	cut := strings.Index(body, "]")
	if cut < 0 {
		return Example{}, errors.Wrap(table.ErrFormat, "example has no label list")
	}
	t := table.NewTokens(body[:cut+1])
	lc, err := t.Int32()
	if err != nil {
		return Example{}, err
	}
	if err := t.Expect("["); err != nil {
		return Example{}, err
	}
	eg := Example{LeftContext: int(lc), Labels: []posterior.Pair{}}
	for t.Peek() != "]" {
		l, err := t.Int32()
		if err != nil {
			return Example{}, err
		}
		w, err := t.Float()
		if err != nil {
			return Example{}, err
		}
		eg.Labels = append(eg.Labels, posterior.Pair{Label: l, Weight: w})
	}
	eg.Features, err = table.MatrixCodec{}.Decode(body[cut+1:])
	if err != nil {
		return Example{}, err
	}
	if len(eg.Features) == 0 || eg.LeftContext < 0 || eg.LeftContext >= len(eg.Features) {
		return Example{}, errors.Wrapf(table.ErrFormat, "left context %d outside %d feature rows", eg.LeftContext, len(eg.Features))
	}
	return eg, nil
}

func (ExampleCodec) Encode(w io.Writer, eg Example) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte(' ')
	bw.WriteString(strconv.Itoa(eg.LeftContext))
	bw.WriteString(" [")
	for _, p := range eg.Labels {
		bw.WriteByte(' ')
		bw.WriteString(strconv.FormatInt(int64(p.Label), 10))
		bw.WriteByte(' ')
		bw.WriteString(table.FormatFloat(p.Weight))
	}
	bw.WriteString(" ]")
	if err := bw.Flush(); err != nil {
		return err
	}
	return table.MatrixCodec{}.Encode(w, eg.Features)
}

func OpenExampleSequential(rspecifier string) (*table.SequentialReader[Example], error) {
	return table.OpenSequential[Example](rspecifier, ExampleCodec{})
}

func OpenExampleWriter(wspecifier string) (*table.Writer[Example], error) {
	return table.OpenWriter[Example](wspecifier, ExampleCodec{})
}

// Posteriors forwards the labeled frame of each example through d and
// returns the pdf posteriors, one row per example.
func (d *DNN) Posteriors(egs []Example) (*mat.Dense, error) {
	if len(egs) == 0 {
		return nil, errors.New("no examples")
	}
	input := mat.NewDense(len(egs), d.InputDim(), nil)
	for i, eg := range egs {
		if err := d.checkFeatureDim(eg.Features); err != nil {
			return nil, errors.Wrapf(err, "example %d", i)
		}
		d.window(input.RawRowView(i), eg.Features, eg.LeftContext)
	}
	out := d.Forward(input)
	out.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, out)
	return out, nil
}

// AveragePosteriors is the mean of the posteriors of all networks.
func AveragePosteriors(nnets []*DNN, egs []Example) (*mat.Dense, error) {
	var avg *mat.Dense
	for i, d := range nnets {
		post, err := d.Posteriors(egs)
		if err != nil {
			return nil, errors.Wrapf(err, "network %d", i)
		}
		if avg == nil {
			avg = post
			continue
		}
		if _, c := avg.Dims(); c != d.OutputDim() {
			return nil, errors.Errorf("network %d has %d outputs, network 0 has %d", i, d.OutputDim(), c)
		}
		avg.Add(avg, post)
	}
	avg.Scale(1/float64(len(nnets)), avg)
	return avg, nil
}

// Relabel returns the soft labels drawn from one row of averaged
// posteriors: every pdf with posterior at least minPost keeps its
// posterior, and each other pdf is kept with probability p/minPost and
// weight minPost.
func Relabel(post []float64, minPost float64, rng *rand.Rand) []posterior.Pair {
	labels := []posterior.Pair{}
	for n, p := range post {
		if p >= minPost {
			labels = append(labels, posterior.Pair{Label: int32(n), Weight: p})
		} else if p/minPost >= rng.Float64() {
			labels = append(labels, posterior.Pair{Label: int32(n), Weight: minPost})
		}
	}
	return labels
}
