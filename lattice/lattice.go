// Package lattice holds acyclic weighted automata over frame labels as
// produced by a decoder, with the scaling, sorting, forward-backward and
// best-path operations the lattice tools need.
package lattice

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrCycle is returned when a lattice that must be acyclic is not.
	ErrCycle = errors.New("cycles detected in lattice")
	// ErrNoPath is returned when no final state is reachable from the start.
	ErrNoPath = errors.New("lattice has no successful path")
)

// Weight is a pair of costs (negated log-probabilities): the graph part
// (language model, pronunciation, transitions) and the acoustic part.
type Weight struct {
	Graph    float64
	Acoustic float64
}

// One is the weight of a free transition.
var One = Weight{}

// Zero marks a non-final state.
var Zero = Weight{Graph: math.Inf(1), Acoustic: math.Inf(1)}

// IsZero reports whether w is Zero.
func (w Weight) IsZero() bool { return math.IsInf(w.Graph, 1) || math.IsInf(w.Acoustic, 1) }

// Cost is the total cost of w.
func (w Weight) Cost() float64 { return w.Graph + w.Acoustic }

// Times concatenates two weights.
func (w Weight) Times(o Weight) Weight {
	return Weight{Graph: w.Graph + o.Graph, Acoustic: w.Acoustic + o.Acoustic}
}

// Arc is a transition to state Next. ILabel 0 is epsilon and consumes no
// frame.
type Arc struct {
	ILabel int32
	OLabel int32
	Weight Weight
	Next   int
}

// State is a lattice state with its outgoing arcs.
type State struct {
	Arcs  []Arc
	Final Weight
}

// IsFinal reports whether s has a final weight.
func (s *State) IsFinal() bool { return !s.Final.IsZero() }

// Lattice is a weighted automaton. Start is -1 for an empty lattice.
type Lattice struct {
	Start  int
	States []State
}

// New returns an empty lattice.
func New() *Lattice { return &Lattice{Start: -1} }

// AddState appends a non-final state and returns its id.
func (l *Lattice) AddState() int {
	l.States = append(l.States, State{Final: Zero})
	return len(l.States) - 1
}

// AddArc adds an arc leaving state s.
func (l *Lattice) AddArc(s int, a Arc) {
	l.States[s].Arcs = append(l.States[s].Arcs, a)
}

// SetFinal gives state s the final weight w.
func (l *Lattice) SetFinal(s int, w Weight) { l.States[s].Final = w }

// Empty reports whether l has no start state.
func (l *Lattice) Empty() bool { return l.Start < 0 || l.Start >= len(l.States) }

// NumArcs is the total number of arcs.
func (l *Lattice) NumArcs() int {
	n := 0
	for i := range l.States {
		n += len(l.States[i].Arcs)
	}
	return n
}

// Scale multiplies the graph costs by lm and the acoustic costs by ac, on
// arcs and final weights alike. Only the ratio ac/lm matters for posteriors.
func (l *Lattice) Scale(lm, ac float64) {
	if lm == 1 && ac == 1 {
		return
	}
	scale := func(w Weight) Weight {
		return Weight{Graph: w.Graph * lm, Acoustic: w.Acoustic * ac}
	}
	for i := range l.States {
		s := &l.States[i]
		for j := range s.Arcs {
			s.Arcs[j].Weight = scale(s.Arcs[j].Weight)
		}
		if s.IsFinal() {
			s.Final = scale(s.Final)
		}
	}
}

// topOrder returns the states in an order where every arc goes forward,
// or ErrCycle. Ties keep state-id order.
func (l *Lattice) topOrder() ([]int, error) {
	indeg := make([]int, len(l.States))
	for i := range l.States {
		for _, a := range l.States[i].Arcs {
			indeg[a.Next]++
		}
	}
	queue := make([]int, 0, len(l.States))
	for s, d := range indeg {
		if d == 0 {
			queue = append(queue, s)
		}
	}
	for head := 0; head < len(queue); head++ {
		for _, a := range l.States[queue[head]].Arcs {
			indeg[a.Next]--
			if indeg[a.Next] == 0 {
				queue = append(queue, a.Next)
			}
		}
	}
	if len(queue) != len(l.States) {
		return nil, ErrCycle
	}
	return queue, nil
}

// IsTopSorted reports whether every arc goes to a higher-numbered state.
func (l *Lattice) IsTopSorted() bool {
	for i := range l.States {
		for _, a := range l.States[i].Arcs {
			if a.Next <= i {
				return false
			}
		}
	}
	return true
}

// TopSort renumbers the states so that every arc goes to a higher-numbered
// state. A lattice with a cycle is left unchanged and ErrCycle returned.
func (l *Lattice) TopSort() error {
	if l.IsTopSorted() {
		return nil
	}
	order, err := l.topOrder()
	if err != nil {
		return err
	}
	newID := make([]int, len(order))
	for n, s := range order {
		newID[s] = n
	}
	states := make([]State, len(order))
	for n, s := range order {
		st := l.States[s]
		arcs := make([]Arc, len(st.Arcs))
		for j, a := range st.Arcs {
			a.Next = newID[a.Next]
			arcs[j] = a
		}
		states[n] = State{Arcs: arcs, Final: st.Final}
	}
	l.States = states
	if l.Start >= 0 {
		l.Start = newID[l.Start]
	}
	return nil
}
