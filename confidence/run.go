package confidence

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Stream is the sequentially read alignment archive of system 0. It drives
// the run: every output key is one of its keys.
type Stream interface {
	Next() bool
	Key() string
	Value() []int32
	Err() error
}

// AlignmentWriter receives combined alignments.
type AlignmentWriter interface {
	Write(key string, v []int32) error
}

// WeightWriter receives output confidences.
type WeightWriter interface {
	Write(key string, v []float64) error
}

// Inputs are the archives of one run: system 0 (stream plus weights) and the
// secondary systems 1..n.
type Inputs struct {
	Alignments Stream
	Weights    Weights
	WeightSpec string
	Others     []*System
}

// NumSystems counts system 0 and the secondary systems.
func (in *Inputs) NumSystems() int { return len(in.Others) + 1 }

func warnFetch(log logrus.FieldLogger, key string, system int, f Fetched, numFrames int) {
	e := log.WithFields(logrus.Fields{"key": key, "system": system, "rspecifier": f.Spec})
	if f.Status == LengthMismatch {
		e.WithFields(logrus.Fields{"dim": f.Len, "frames": numFrames}).Warn("dimension mismatch")
		return
	}
	e.Warn("no vector found")
}

// Recalibrator rewrites the confidences of system Primary using the
// agreement of all other systems. An utterance is written only when every
// system matched; the first failing system aborts it.
type Recalibrator struct {
	Inputs
	Primary int
	Out     WeightWriter
	Log     logrus.FieldLogger
}

// Run processes the stream to the end. ctx is checked between utterances.
func (r *Recalibrator) Run(ctx context.Context) (Stats, error) {
	var st Stats
	numSystems := r.NumSystems()
	if r.Primary < 0 || r.Primary >= numSystems {
		return st, errors.Errorf("primary system %d out of range [0, %d)", r.Primary, numSystems)
	}
	for r.Alignments.Next() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		key, ali0 := r.Alignments.Key(), r.Alignments.Value()
		numFrames := len(ali0)
		st.Utterances++
		st.SystemUtterances++

		f, err := fetchWeights(r.Weights, r.WeightSpec, key, numFrames)
		if err != nil {
			return st, err
		}
		if f.Status != Matched {
			st.fail(f.Status)
			warnFetch(r.Log, key, 0, f, numFrames)
			continue
		}

		alis := [][]int32{ali0}
		rows := [][]float64{f.Weights}
		for _, sys := range r.Others {
			f, err := sys.Fetch(key, numFrames)
			if err != nil {
				return st, err
			}
			if f.Status != Matched {
				st.fail(f.Status)
				warnFetch(r.Log, key, sys.Index, f, numFrames)
				break
			}
			alis = append(alis, f.Alignment)
			rows = append(rows, f.Weights)
			st.SystemUtterances++
		}
		if len(alis) != numSystems {
			r.Log.WithField("key", key).Debugf("matched %d of %d other systems, skipping", len(alis)-1, numSystems-1)
			continue
		}

		out := Recalibrate(alis, workingMatrix(rows, numFrames), r.Primary)
		if err := r.Out.Write(key, out); err != nil {
			return st, err
		}
		st.Succeeded++
	}
	return st, r.Alignments.Err()
}

// workingMatrix stacks one row per system. gonum has no zero-sized Dense, so
// an utterance without frames gets the empty matrix.
func workingMatrix(rows [][]float64, numFrames int) *mat.Dense {
	if numFrames == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(rows), numFrames, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

// Combiner keeps, per frame, the label and confidence of the most confident
// system. Unlike Recalibrator, a failing secondary system is skipped and the
// utterance is still written.
type Combiner struct {
	Inputs
	AliOut AlignmentWriter
	Out    WeightWriter
	Log    logrus.FieldLogger
}

// Run processes the stream to the end. ctx is checked between utterances.
func (c *Combiner) Run(ctx context.Context) (Stats, error) {
	var st Stats
	for c.Alignments.Next() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		key, ali0 := c.Alignments.Key(), c.Alignments.Value()
		numFrames := len(ali0)
		st.Utterances++
		st.SystemUtterances++

		f, err := fetchWeights(c.Weights, c.WeightSpec, key, numFrames)
		if err != nil {
			return st, err
		}
		if f.Status != Matched {
			st.fail(f.Status)
			warnFetch(c.Log, key, 0, f, numFrames)
			continue
		}

		bestAli := append([]int32(nil), ali0...)
		bestW := append([]float64(nil), f.Weights...)
		for _, sys := range c.Others {
			f, err := sys.Fetch(key, numFrames)
			if err != nil {
				return st, err
			}
			if f.Status != Matched {
				st.fail(f.Status)
				warnFetch(c.Log, key, sys.Index, f, numFrames)
				continue
			}
			PickBest(bestAli, bestW, f.Alignment, f.Weights)
			st.SystemUtterances++
		}

		if err := c.Out.Write(key, bestW); err != nil {
			return st, err
		}
		if err := c.AliOut.Write(key, bestAli); err != nil {
			return st, err
		}
		st.Succeeded++
	}
	return st, c.Alignments.Err()
}
