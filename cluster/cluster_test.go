package cluster

import (
	"math"
	"testing"
)

func point(x float64) Clusterable {
	return NewGaussClusterable([]float64{x}, []float64{x * x}, 0.01, 1)
}

func TestGaussClusterableStats(t *testing.T) {
	g := FromGaussian([]float64{1, -2}, []float64{0.5, 4}, 0.01, 10)
	mean, v := g.Mean(), g.Variance()
	if math.Abs(mean[0]-1) > 1e-12 || math.Abs(mean[1]+2) > 1e-12 {
		t.Errorf("Mean = %v, want [1 -2]", mean)
	}
	if math.Abs(v[0]-0.5) > 1e-12 || math.Abs(v[1]-4) > 1e-12 {
		t.Errorf("Variance = %v, want [0.5 4]", v)
	}

	h := g.Copy()
	h.Add(g)
	h.Sub(g)
	if math.Abs(h.Objf()-g.Objf()) > 1e-9 {
		t.Errorf("Add then Sub changed objf: %v vs %v", h.Objf(), g.Objf())
	}
	if (&GaussClusterable{}).Objf() != 0 {
		t.Error("empty stats should have zero objf")
	}
}

func TestDistanceNonNegative(t *testing.T) {
	pts := []Clusterable{point(0), point(0.1), point(5), point(-3)}
	for i := range pts {
		for j := range pts {
			if i != j && Distance(pts[i], pts[j]) < -1e-9 {
				t.Errorf("Distance(%d, %d) = %v < 0", i, j, Distance(pts[i], pts[j]))
			}
		}
	}
}

func TestBottomUp(t *testing.T) {
	pts := []Clusterable{point(0), point(10), point(0.1), point(10.1), point(0.05)}
	clusters, assign, change := BottomUp(pts, math.Inf(1), 2)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	want := []int{0, 1, 0, 1, 0}
	for i := range want {
		if assign[i] != want[i] {
			t.Errorf("assignments = %v, want %v", assign, want)
			break
		}
	}
	if clusters[0].Normalizer() != 3 || clusters[1].Normalizer() != 2 {
		t.Errorf("cluster counts = %v, %v", clusters[0].Normalizer(), clusters[1].Normalizer())
	}
	if change > 1e-9 {
		t.Errorf("objective change = %v, want <= 0", change)
	}
	if pts[0].Normalizer() != 1 {
		t.Error("BottomUp modified its input")
	}
}

func TestBottomUpThreshold(t *testing.T) {
	pts := []Clusterable{point(0), point(0), point(100)}
	clusters, _, _ := BottomUp(pts, 1e-6, 1)
	if len(clusters) != 2 {
		t.Errorf("got %d clusters, want 2 (only the free merge is under the threshold)", len(clusters))
	}
}

func TestBottomUpCompartmentalized(t *testing.T) {
	comps := [][]Clusterable{
		{point(0), point(10)},
		{point(0.1), point(10.1), point(20)},
	}
	clusters, assign, _ := BottomUpCompartmentalized(comps, math.Inf(1), 2)
	if len(clusters[0])+len(clusters[1]) != 2 {
		t.Fatalf("cluster sizes %d + %d, want 2 in total", len(clusters[0]), len(clusters[1]))
	}
	if len(clusters[0]) != 1 || len(clusters[1]) != 1 {
		t.Errorf("each compartment should keep one cluster, got %d and %d", len(clusters[0]), len(clusters[1]))
	}
	if len(assign[1]) != 3 || assign[1][2] != 0 {
		t.Errorf("assignments = %v", assign)
	}
}
