// Package confidence combines frame-level alignments and confidences from
// several recognition systems: either recalibrating one system's confidences
// by how often the others agree with it, or picking the most confident label
// per frame.
package confidence

import (
	"github.com/pkg/errors"
)

// Alignments is a keyed store of per-frame labels.
type Alignments interface {
	HasKey(key string) bool
	Value(key string) ([]int32, error)
}

// Weights is a keyed store of per-frame confidences.
type Weights interface {
	HasKey(key string) bool
	Value(key string) ([]float64, error)
}

// Status is the outcome of fetching one system's data for an utterance.
type Status int

const (
	Matched Status = iota
	MissingKey
	LengthMismatch
)

func (s Status) String() string {
	switch s {
	case Matched:
		return "matched"
	case MissingKey:
		return "missing"
	case LengthMismatch:
		return "length mismatch"
	}
	return "unknown"
}

// Fetched is a tagged result: Alignment and Weights are set only when
// Status is Matched. Spec names the archive at fault otherwise.
type Fetched struct {
	Status    Status
	Alignment []int32
	Weights   []float64
	Spec      string
	Len       int // offending length on LengthMismatch
}

// System is one secondary system: an alignment archive and a weight archive
// looked up by utterance key.
type System struct {
	Index      int
	Alignments Alignments
	Weights    Weights
	AliSpec    string
	WeightSpec string
}

// Fetch looks up key in both archives and checks both against numFrames.
// The returned error is reserved for failures of the underlying stores.
func (s *System) Fetch(key string, numFrames int) (Fetched, error) {
	if !s.Alignments.HasKey(key) || !s.Weights.HasKey(key) {
		return Fetched{Status: MissingKey, Spec: s.AliSpec + ", " + s.WeightSpec}, nil
	}
	ali, err := s.Alignments.Value(key)
	if err != nil {
		return Fetched{}, errors.Wrapf(err, "system %d: reading %s", s.Index, s.AliSpec)
	}
	if len(ali) != numFrames {
		return Fetched{Status: LengthMismatch, Spec: s.AliSpec, Len: len(ali)}, nil
	}
	w, err := s.Weights.Value(key)
	if err != nil {
		return Fetched{}, errors.Wrapf(err, "system %d: reading %s", s.Index, s.WeightSpec)
	}
	if len(w) != numFrames {
		return Fetched{Status: LengthMismatch, Spec: s.WeightSpec, Len: len(w)}, nil
	}
	return Fetched{Status: Matched, Alignment: ali, Weights: w}, nil
}

// fetchWeights is Fetch for the system whose alignments come from the
// sequential stream.
func fetchWeights(store Weights, spec, key string, numFrames int) (Fetched, error) {
	if !store.HasKey(key) {
		return Fetched{Status: MissingKey, Spec: spec}, nil
	}
	w, err := store.Value(key)
	if err != nil {
		return Fetched{}, errors.Wrapf(err, "system 0: reading %s", spec)
	}
	if len(w) != numFrames {
		return Fetched{Status: LengthMismatch, Spec: spec, Len: len(w)}, nil
	}
	return Fetched{Status: Matched, Weights: w}, nil
}
