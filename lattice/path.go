package lattice

// Path is a single path through a lattice.
type Path struct {
	Alignment []int32 // non-epsilon input labels, one per frame
	Words     []int32 // non-epsilon output labels
	Weight    Weight  // total weight including the final weight
}

// backPointer records how a state was reached on the best path.
type backPointer struct {
	prev int
	arc  int
}

// BestPath returns the lowest-cost path from the start state to a final
// state. Ties go to the path found first in topological order. It returns
// ErrNoPath if no final state is reachable and ErrCycle if the lattice has a
// cycle.
func (l *Lattice) BestPath() (*Path, error) {
	if l.Empty() {
		return nil, ErrNoPath
	}
	order, err := l.topOrder()
	if err != nil {
		return nil, err
	}

	n := len(l.States)
	cost := make([]float64, n)
	reached := make([]bool, n)
	back := make([]backPointer, n)
	reached[l.Start] = true
	for _, s := range order {
		if !reached[s] {
			continue
		}
		for j, a := range l.States[s].Arcs {
			c := cost[s] + a.Weight.Cost()
			if !reached[a.Next] || c < cost[a.Next] {
				reached[a.Next] = true
				cost[a.Next] = c
				back[a.Next] = backPointer{prev: s, arc: j}
			}
		}
	}

	best := -1
	bestCost := 0.0
	for _, s := range order {
		st := &l.States[s]
		if !reached[s] || !st.IsFinal() {
			continue
		}
		if c := cost[s] + st.Final.Cost(); best < 0 || c < bestCost {
			best, bestCost = s, c
		}
	}
	if best < 0 {
		return nil, ErrNoPath
	}

	// Walk back to the start, collecting arcs in reverse.
	var arcs []Arc
	for s := best; s != l.Start; s = back[s].prev {
		bp := back[s]
		arcs = append(arcs, l.States[bp.prev].Arcs[bp.arc])
	}
	p := &Path{Weight: l.States[best].Final}
	for i := len(arcs) - 1; i >= 0; i-- {
		a := arcs[i]
		if a.ILabel != 0 {
			p.Alignment = append(p.Alignment, a.ILabel)
		}
		if a.OLabel != 0 {
			p.Words = append(p.Words, a.OLabel)
		}
		p.Weight = p.Weight.Times(a.Weight)
	}
	return p, nil
}
