package lattice

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/ieee0824/asrtools/internal/mathutil"
	"github.com/ieee0824/asrtools/posterior"
)

// StateTimes returns the frame index at which each state is entered and the
// number of frames in the lattice. Unreachable states get -1. The lattice
// must be topologically sorted.
func (l *Lattice) StateTimes() ([]int, int, error) {
	if l.Empty() {
		return nil, 0, ErrNoPath
	}
	if !l.IsTopSorted() {
		return nil, 0, errors.New("lattice is not topologically sorted")
	}
	times := make([]int, len(l.States))
	for i := range times {
		times[i] = -1
	}
	times[l.Start] = 0
	numFrames := 0
	for s := range l.States {
		t := times[s]
		if t < 0 {
			continue
		}
		if t > numFrames {
			numFrames = t
		}
		for _, a := range l.States[s].Arcs {
			next := t
			if a.ILabel != 0 {
				next++
			}
			switch times[a.Next] {
			case -1:
				times[a.Next] = next
			case next:
			default:
				return nil, 0, errors.Errorf("state %d reached at frames %d and %d", a.Next, times[a.Next], next)
			}
		}
	}
	return times, numFrames, nil
}

// ForwardBackward computes the posterior of every input label at every
// frame, the total log-likelihood of the lattice and the expected acoustic
// log-likelihood under the lattice posteriors. The lattice must be
// topologically sorted. Per-frame entries are ordered by label.
func (l *Lattice) ForwardBackward() (post posterior.Posterior, logLike, acLogLike float64, err error) {
	times, numFrames, err := l.StateTimes()
	if err != nil {
		return nil, 0, 0, err
	}
	n := len(l.States)

	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = mathutil.LogZero
	}
	alpha[l.Start] = 0
	total := mathutil.LogZero
	for s := 0; s < n; s++ {
		if alpha[s] <= mathutil.LogZero {
			continue
		}
		st := &l.States[s]
		for _, a := range st.Arcs {
			alpha[a.Next] = mathutil.LogAdd(alpha[a.Next], alpha[s]-a.Weight.Cost())
		}
		if st.IsFinal() {
			total = mathutil.LogAdd(total, alpha[s]-st.Final.Cost())
		}
	}
	if total <= mathutil.LogZero || math.IsNaN(total) {
		return nil, 0, 0, ErrNoPath
	}

	beta := make([]float64, n)
	for s := n - 1; s >= 0; s-- {
		st := &l.States[s]
		beta[s] = mathutil.LogZero
		if st.IsFinal() {
			beta[s] = -st.Final.Cost()
		}
		for _, a := range st.Arcs {
			if beta[a.Next] > mathutil.LogZero {
				beta[s] = mathutil.LogAdd(beta[s], beta[a.Next]-a.Weight.Cost())
			}
		}
	}

	frames := make([]map[int32]float64, numFrames)
	for i := range frames {
		frames[i] = map[int32]float64{}
	}
	for s := 0; s < n; s++ {
		if alpha[s] <= mathutil.LogZero {
			continue
		}
		st := &l.States[s]
		for _, a := range st.Arcs {
			if beta[a.Next] <= mathutil.LogZero {
				continue
			}
			p := math.Exp(alpha[s] - a.Weight.Cost() + beta[a.Next] - total)
			acLogLike -= p * a.Weight.Acoustic
			if a.ILabel != 0 {
				frames[times[s]][a.ILabel] += p
			}
		}
		if st.IsFinal() {
			p := math.Exp(alpha[s] - st.Final.Cost() - total)
			acLogLike -= p * st.Final.Acoustic
		}
	}

	post = make(posterior.Posterior, numFrames)
	for t, m := range frames {
		pairs := make([]posterior.Pair, 0, len(m))
		for label, w := range m {
			pairs = append(pairs, posterior.Pair{Label: label, Weight: w})
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Label < pairs[j].Label })
		post[t] = pairs
	}
	return post, total, acLogLike, nil
}
