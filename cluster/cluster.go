// Package cluster implements greedy bottom-up clustering over sufficient
// statistics, as used to merge Gaussians.
package cluster

import (
	"container/heap"
	"math"
)

// Clusterable is a set of statistics that can be merged and scored.
type Clusterable interface {
	// Objf is the objective (e.g. log-likelihood) of the stats; higher is better.
	Objf() float64
	// Normalizer is the count the objective is proportional to.
	Normalizer() float64
	Copy() Clusterable
	Add(other Clusterable)
	Sub(other Clusterable)
}

// Distance is the objective lost by merging a and b. It is never negative
// for well-formed stats.
func Distance(a, b Clusterable) float64 {
	merged := a.Copy()
	merged.Add(b)
	return a.Objf() + b.Objf() - merged.Objf()
}

// Sum merges all points into one, or returns nil for no points.
func Sum(points []Clusterable) Clusterable {
	if len(points) == 0 {
		return nil
	}
	s := points[0].Copy()
	for _, p := range points[1:] {
		s.Add(p)
	}
	return s
}

// BottomUp merges the closest pair of clusters until at most minClust
// remain or the cheapest merge costs more than maxMergeThresh. It returns the
// resulting clusters, the cluster index of every point and the total
// objective change (zero or negative).
func BottomUp(points []Clusterable, maxMergeThresh float64, minClust int) ([]Clusterable, []int, float64) {
	clusters, assignments, change := BottomUpCompartmentalized([][]Clusterable{points}, maxMergeThresh, minClust)
	return clusters[0], assignments[0], change
}

// BottomUpCompartmentalized is BottomUp where points are only ever merged
// with points of the same compartment. minClust counts clusters over all
// compartments; no compartment ends up with fewer than one cluster.
func BottomUpCompartmentalized(compartments [][]Clusterable, maxMergeThresh float64, minClust int) ([][]Clusterable, [][]int, float64) {
	b := newBottomUp(compartments)
	change := b.run(maxMergeThresh, minClust)
	clusters, assignments := b.result()
	return clusters, assignments, change
}

type mergeCandidate struct {
	cost   float64
	i, j   int
	vi, vj int
}

type candidateHeap []mergeCandidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(a, b int) bool { return h[a].cost < h[b].cost }
func (h candidateHeap) Swap(a, b int)      { h[a], h[b] = h[b], h[a] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(mergeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

type bottomUp struct {
	stats   []Clusterable // nil once merged away
	comp    []int         // compartment of every point
	offset  []int         // first point of every compartment
	parent  []int
	version []int
	active  int
	queue   candidateHeap
}

func newBottomUp(compartments [][]Clusterable) *bottomUp {
	b := &bottomUp{}
	for c, points := range compartments {
		b.offset = append(b.offset, len(b.stats))
		for _, p := range points {
			b.stats = append(b.stats, p.Copy())
			b.comp = append(b.comp, c)
		}
	}
	n := len(b.stats)
	b.parent = make([]int, n)
	b.version = make([]int, n)
	for i := range b.parent {
		b.parent[i] = i
	}
	b.active = n
	for i := 0; i < n; i++ {
		for j := i + 1; j < n && b.comp[j] == b.comp[i]; j++ {
			b.queue = append(b.queue, mergeCandidate{cost: Distance(b.stats[i], b.stats[j]), i: i, j: j})
		}
	}
	heap.Init(&b.queue)
	return b
}

func (b *bottomUp) run(maxMergeThresh float64, minClust int) float64 {
	change := 0.0
	for b.active > minClust && b.queue.Len() > 0 {
		c := heap.Pop(&b.queue).(mergeCandidate)
		if b.stats[c.i] == nil || b.stats[c.j] == nil || c.vi != b.version[c.i] || c.vj != b.version[c.j] {
			continue
		}
		if c.cost > maxMergeThresh || math.IsNaN(c.cost) {
			break
		}
		b.stats[c.i].Add(b.stats[c.j])
		b.stats[c.j] = nil
		b.parent[c.j] = c.i
		b.version[c.i]++
		b.active--
		change -= c.cost
		for k := range b.stats {
			if k == c.i || b.stats[k] == nil || b.comp[k] != b.comp[c.i] {
				continue
			}
			i, j := c.i, k
			if j < i {
				i, j = j, i
			}
			heap.Push(&b.queue, mergeCandidate{
				cost: Distance(b.stats[i], b.stats[j]),
				i:    i,
				j:    j,
				vi:   b.version[i],
				vj:   b.version[j],
			})
		}
	}
	return change
}

func (b *bottomUp) root(i int) int {
	for b.parent[i] != i {
		b.parent[i] = b.parent[b.parent[i]]
		i = b.parent[i]
	}
	return i
}

// result numbers the surviving clusters of each compartment in point order.
func (b *bottomUp) result() ([][]Clusterable, [][]int) {
	numComp := len(b.offset)
	clusters := make([][]Clusterable, numComp)
	assignments := make([][]int, numComp)
	index := make(map[int]int)
	for p, s := range b.stats {
		if s != nil {
			c := b.comp[p]
			index[p] = len(clusters[c])
			clusters[c] = append(clusters[c], s)
		}
	}
	for p := range b.stats {
		c := b.comp[p]
		assignments[c] = append(assignments[c], index[b.root(p)])
	}
	return clusters, assignments
}
