package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GaussClusterable holds the zeroth, first and second order statistics of
// a diagonal Gaussian. Its objective is the log-likelihood of the data
// under the maximum-likelihood Gaussian, with variances floored at VarFloor.
type GaussClusterable struct {
	Count    float64
	X        []float64 // sum of weighted data
	X2       []float64 // sum of weighted squared data
	VarFloor float64
}

// NewGaussClusterable copies x and x2.
func NewGaussClusterable(x, x2 []float64, varFloor, count float64) *GaussClusterable {
	return &GaussClusterable{
		Count:    count,
		X:        append([]float64(nil), x...),
		X2:       append([]float64(nil), x2...),
		VarFloor: varFloor,
	}
}

// FromGaussian returns the stats of count points with the given mean and
// variance.
func FromGaussian(mean, variance []float64, varFloor, count float64) *GaussClusterable {
	g := &GaussClusterable{
		Count:    count,
		X:        make([]float64, len(mean)),
		X2:       make([]float64, len(mean)),
		VarFloor: varFloor,
	}
	for d := range mean {
		g.X[d] = count * mean[d]
		g.X2[d] = count * (variance[d] + mean[d]*mean[d])
	}
	return g
}

// Mean returns X/Count.
func (g *GaussClusterable) Mean() []float64 {
	m := append([]float64(nil), g.X...)
	floats.Scale(1/g.Count, m)
	return m
}

// Variance returns X2/Count - mean^2, without flooring.
func (g *GaussClusterable) Variance() []float64 {
	mean := g.Mean()
	v := append([]float64(nil), g.X2...)
	floats.Scale(1/g.Count, v)
	for d := range v {
		v[d] -= mean[d] * mean[d]
	}
	return v
}

func (g *GaussClusterable) Objf() float64 {
	if g.Count <= 0 {
		return 0
	}
	logDet := 0.0
	for d, x := range g.X {
		mean := x / g.Count
		v := g.X2[d]/g.Count - mean*mean
		if v < g.VarFloor {
			v = g.VarFloor
		}
		logDet += math.Log(v)
	}
	dim := float64(len(g.X))
	return -0.5 * g.Count * (dim*(1+math.Log(2*math.Pi)) + logDet)
}

func (g *GaussClusterable) Normalizer() float64 { return g.Count }

func (g *GaussClusterable) Copy() Clusterable {
	return NewGaussClusterable(g.X, g.X2, g.VarFloor, g.Count)
}

func (g *GaussClusterable) Add(other Clusterable) {
	o := other.(*GaussClusterable)
	g.Count += o.Count
	floats.Add(g.X, o.X)
	floats.Add(g.X2, o.X2)
}

func (g *GaussClusterable) Sub(other Clusterable) {
	o := other.(*GaussClusterable)
	g.Count -= o.Count
	floats.Sub(g.X, o.X)
	floats.Sub(g.X2, o.X2)
}
