package confidence

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Recalibrate returns new confidences for system primary. alis holds one
// alignment per system and conf one row per system, one column per frame.
//
// For frame i with c = conf[primary][i], let agree be the number of other
// systems whose label equals the primary label. If agree > 0 the result is
// c^(1/agree); otherwise it is c^(column sum / c), so confident dissenters
// push the value down harder. A non-positive c yields 0.
func Recalibrate(alis [][]int32, conf *mat.Dense, primary int) []float64 {
	if conf.IsEmpty() {
		return []float64{}
	}
	_, numFrames := conf.Dims()
	out := make([]float64, numFrames)
	col := make([]float64, len(alis))
	for i := 0; i < numFrames; i++ {
		agree := 0
		for n, ali := range alis {
			if n != primary && ali[i] == alis[primary][i] {
				agree++
			}
		}
		c := conf.At(primary, i)
		switch {
		case agree > 0:
			out[i] = math.Pow(c, 1/float64(agree))
		case c <= 0:
			out[i] = 0
		default:
			mat.Col(col, i, conf)
			out[i] = math.Pow(c, floats.Sum(col)/c)
		}
	}
	return out
}

// PickBest updates bestAli and bestW in place with every frame where w is
// strictly greater, so earlier systems win ties.
func PickBest(bestAli []int32, bestW []float64, ali []int32, w []float64) {
	for i := range bestW {
		if w[i] > bestW[i] {
			bestW[i] = w[i]
			bestAli[i] = ali[i]
		}
	}
}
