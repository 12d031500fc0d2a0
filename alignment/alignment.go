// Package alignment has the per-frame label operations shared by the
// alignment tools.
package alignment

import "github.com/pkg/errors"

// Agreement returns the fraction of positions where a and b hold the same
// label. The vectors must have equal length; two empty vectors agree fully.
func Agreement(a, b []int32) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.Errorf("length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 1, nil
	}
	same := 0
	for i := range a {
		if a[i] == b[i] {
			same++
		}
	}
	return float64(same) / float64(len(a)), nil
}

// Counter counts frames per label.
type Counter struct {
	// Threshold: a frame counts only when its weight is strictly above it.
	Threshold float64
	Counts    []int32
}

// Add counts the frames of ali. weights may be nil, meaning weight 1 for
// every frame; otherwise it must match ali in length. Every label grows
// Counts even when its frame falls below the threshold.
func (c *Counter) Add(ali []int32, weights []float64) error {
	if weights != nil && len(weights) != len(ali) {
		return errors.Errorf("%d weights for %d frames", len(weights), len(ali))
	}
	for i, l := range ali {
		if l < 0 {
			return errors.Errorf("frame %d: negative label %d", i, l)
		}
		for int(l) >= len(c.Counts) {
			c.Counts = append(c.Counts, 0)
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w > c.Threshold {
			c.Counts[l]++
		}
	}
	return nil
}
