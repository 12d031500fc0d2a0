package mathutil

import (
	"math"
	"testing"
)

func TestLogAdd(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{math.Log(2), math.Log(3), math.Log(5)},
		{math.Log(3), math.Log(2), math.Log(5)},
		{LogZero, math.Log(5), math.Log(5)},
		{math.Log(5), LogZero, math.Log(5)},
		{0, -100, 0},
	}
	for _, tt := range tests {
		if got := LogAdd(tt.a, tt.b); math.Abs(got-tt.want) > 1e-10 {
			t.Errorf("LogAdd(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLogSumExp(t *testing.T) {
	got := LogSumExp([]float64{math.Log(1), math.Log(2), math.Log(3)})
	if want := math.Log(6); math.Abs(got-want) > 1e-10 {
		t.Errorf("LogSumExp = %v, want %v", got, want)
	}
	if got := LogSumExp(nil); got != LogZero {
		t.Errorf("LogSumExp(nil) = %v, want LogZero", got)
	}
}

func TestSoftmax(t *testing.T) {
	xs := []float64{math.Log(1), math.Log(3)}
	total := Softmax(xs)
	if math.Abs(total-math.Log(4)) > 1e-10 {
		t.Errorf("Softmax total = %v, want log 4", total)
	}
	if math.Abs(xs[0]-0.25) > 1e-12 || math.Abs(xs[1]-0.75) > 1e-12 {
		t.Errorf("Softmax = %v, want [0.25 0.75]", xs)
	}
}

func TestMatrixShape(t *testing.T) {
	m := NewMat(2, 3)
	m[0] = append(m[0], 1)
	if m[1][0] != 0 {
		t.Error("append on row 0 overwrote row 1")
	}
	if Cols(NewMat(4, 2)) != 2 {
		t.Error("Cols(4x2) != 2")
	}
	if Cols([][]float64{{1, 2}, {3}}) != -1 {
		t.Error("Cols of ragged matrix should be -1")
	}
}
