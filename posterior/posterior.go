// Package posterior holds per-frame label posteriors and the operations the
// decoding and counting tools need on them.
package posterior

import (
	"github.com/pkg/errors"
)

// Pair is one label with its posterior weight.
type Pair struct {
	Label  int32
	Weight float64
}

// Posterior has one list of pairs per frame.
type Posterior [][]Pair

// ErrEmptyFrame is returned by Argmax when a frame has no entries.
var ErrEmptyFrame = errors.New("frame has no posterior entries")

// FromAlignment returns a posterior with a single entry per frame. weights
// may be nil, in which case every entry gets weight 1.
func FromAlignment(ali []int32, weights []float64) Posterior {
	post := make(Posterior, len(ali))
	for i, l := range ali {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		post[i] = []Pair{{Label: l, Weight: w}}
	}
	return post
}

// Argmax returns, per frame, the label with the largest weight and that
// weight. The first entry wins ties.
func Argmax(post Posterior) ([]int32, []float64, error) {
	ali := make([]int32, len(post))
	weights := make([]float64, len(post))
	for i, frame := range post {
		if len(frame) == 0 {
			return nil, nil, errors.Wrapf(ErrEmptyFrame, "frame %d", i)
		}
		best := frame[0]
		for _, p := range frame[1:] {
			if p.Weight > best.Weight {
				best = p
			}
		}
		ali[i], weights[i] = best.Label, best.Weight
	}
	return ali, weights, nil
}

// AddCounts adds the weight of every entry of post to counts[label],
// growing counts as needed, and returns the updated slice.
func AddCounts(counts []float64, post Posterior) ([]float64, error) {
	for i, frame := range post {
		for _, p := range frame {
			if p.Label < 0 {
				return counts, errors.Errorf("frame %d: negative label %d", i, p.Label)
			}
			for int(p.Label) >= len(counts) {
				counts = append(counts, 0)
			}
			counts[p.Label] += p.Weight
		}
	}
	return counts, nil
}

// OfAlignment looks up, for each frame, the posterior of the aligned label.
// Frames where the label has no entry get weight 0 and are counted in zeros.
func OfAlignment(post Posterior, ali []int32) (weights []float64, zeros int, err error) {
	if len(post) != len(ali) {
		return nil, 0, errors.Errorf("size mismatch between alignment and posterior: %d vs %d", len(ali), len(post))
	}
	weights = make([]float64, len(ali))
	for i, frame := range post {
		found := false
		for _, p := range frame {
			if p.Label == ali[i] {
				weights[i] = p.Weight
				found = true
				break
			}
		}
		if !found {
			zeros++
		}
	}
	return weights, zeros, nil
}
