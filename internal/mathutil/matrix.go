package mathutil

// NewMat returns a rows x cols zero matrix whose rows share one backing array.
func NewMat(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	data := make([]float64, rows*cols)
	for i := range m {
		m[i] = data[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m
}

// Cols returns the common row length of m, or -1 if the rows are ragged.
// An empty matrix has zero columns.
func Cols(m [][]float64) int {
	if len(m) == 0 {
		return 0
	}
	n := len(m[0])
	for _, row := range m[1:] {
		if len(row) != n {
			return -1
		}
	}
	return n
}
