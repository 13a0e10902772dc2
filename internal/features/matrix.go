package features

import "gonum.org/v1/gonum/mat"

// Vector is a sparse row: Indices are strictly increasing column numbers.
type Vector struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Matrix is a row-major sparse feature matrix.
type Matrix struct {
	Cols int
	Rows []Vector
}

// Dense materializes m. Intended for small batches and inspection.
func (m *Matrix) Dense() *mat.Dense {
	d := mat.NewDense(len(m.Rows), m.Cols, nil)
	for i, row := range m.Rows {
		for k, j := range row.Indices {
			d.Set(i, j, row.Values[k])
		}
	}
	return d
}

// Subset returns the rows at the given positions, sharing row storage.
func (m *Matrix) Subset(rows []int) *Matrix {
	out := &Matrix{Cols: m.Cols, Rows: make([]Vector, len(rows))}
	for i, r := range rows {
		out.Rows[i] = m.Rows[r]
	}
	return out
}
