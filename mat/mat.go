// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

// Mat is a strided, non-owning view over a slice of scalars. The element at
// (i, j) lives at data[off + i*rowStride + j*colStride]. Strides may be
// negative, which is how the Reverse* views are expressed; off always keeps
// indices inside the backing slice.
type Mat[T Scalar] struct {
	data      []T
	off       int
	rows      int
	cols      int
	rowStride int
	colStride int
}

// NewMat allocates a zeroed rows×cols matrix in row-major order.
func NewMat[T Scalar](rows, cols int) Mat[T] {
	if rows < 0 || cols < 0 {
		panic("mat: negative dimension")
	}
	return Mat[T]{
		data:      make([]T, rows*cols),
		rows:      rows,
		cols:      cols,
		rowStride: cols,
		colStride: 1,
	}
}

// FromSlice wraps data as a row-major rows×cols view. The slice is shared,
// not copied.
func FromSlice[T Scalar](data []T, rows, cols int) Mat[T] {
	if rows < 0 || cols < 0 || rows*cols > len(data) {
		panic("mat: slice too short for dimensions")
	}
	return Mat[T]{
		data:      data,
		rows:      rows,
		cols:      cols,
		rowStride: cols,
		colStride: 1,
	}
}

// FromRows builds a matrix from row slices, copying the data.
func FromRows[T Scalar](rows [][]T) Mat[T] {
	if len(rows) == 0 {
		return Mat[T]{}
	}
	m := NewMat[T](len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.cols {
			panic("mat: ragged rows")
		}
		copy(m.data[i*m.cols:(i+1)*m.cols], r)
	}
	return m
}

func (m Mat[T]) Rows() int { return m.rows }
func (m Mat[T]) Cols() int { return m.cols }

func (m Mat[T]) idx(i, j int) int {
	return m.off + i*m.rowStride + j*m.colStride
}

// At returns the element at (i, j).
func (m Mat[T]) At(i, j int) T { return m.data[m.idx(i, j)] }

// Set stores v at (i, j).
func (m Mat[T]) Set(i, j int, v T) { m.data[m.idx(i, j)] = v }

// Add adds v to the element at (i, j).
func (m Mat[T]) Add(i, j int, v T) { m.data[m.idx(i, j)] += v }

// Scale multiplies the element at (i, j) by v.
func (m Mat[T]) Scale(i, j int, v T) { m.data[m.idx(i, j)] *= v }

// Transpose returns the transposed view. No conjugation is applied; the
// kernels carry conjugation flags separately.
func (m Mat[T]) Transpose() Mat[T] {
	return Mat[T]{
		data:      m.data,
		off:       m.off,
		rows:      m.cols,
		cols:      m.rows,
		rowStride: m.colStride,
		colStride: m.rowStride,
	}
}

// Submatrix returns the rows×cols view starting at (i, j).
func (m Mat[T]) Submatrix(i, j, rows, cols int) Mat[T] {
	if i < 0 || j < 0 || rows < 0 || cols < 0 || i+rows > m.rows || j+cols > m.cols {
		panic("mat: submatrix out of bounds")
	}
	return Mat[T]{
		data:      m.data,
		off:       m.idx(i, j),
		rows:      rows,
		cols:      cols,
		rowStride: m.rowStride,
		colStride: m.colStride,
	}
}

// Row returns row i as a 1×cols view.
func (m Mat[T]) Row(i int) Mat[T] { return m.Submatrix(i, 0, 1, m.cols) }

// Col returns column j as a rows×1 view.
func (m Mat[T]) Col(j int) Mat[T] { return m.Submatrix(0, j, m.rows, 1) }

// ReverseRows returns a view with the row order flipped.
func (m Mat[T]) ReverseRows() Mat[T] {
	r := m
	if m.rows > 0 {
		r.off += (m.rows - 1) * m.rowStride
	}
	r.rowStride = -m.rowStride
	return r
}

// ReverseCols returns a view with the column order flipped.
func (m Mat[T]) ReverseCols() Mat[T] {
	r := m
	if m.cols > 0 {
		r.off += (m.cols - 1) * m.colStride
	}
	r.colStride = -m.colStride
	return r
}

// ReverseBoth flips both row and column order.
func (m Mat[T]) ReverseBoth() Mat[T] {
	return m.ReverseRows().ReverseCols()
}

// Fill sets every element to v.
func (m Mat[T]) Fill(v T) {
	for i, iMax := 0, m.rows; i < iMax; i++ {
		for j, jMax := 0, m.cols; j < jMax; j++ {
			m.Set(i, j, v)
		}
	}
}

// CopyFrom copies src into m. Shapes must match.
func (m Mat[T]) CopyFrom(src Mat[T]) {
	if m.rows != src.rows || m.cols != src.cols {
		panic("mat: copy shape mismatch")
	}
	for i, iMax := 0, m.rows; i < iMax; i++ {
		for j, jMax := 0, m.cols; j < jMax; j++ {
			m.Set(i, j, src.At(i, j))
		}
	}
}

// SwapRows exchanges rows i1 and i2.
func (m Mat[T]) SwapRows(i1, i2 int) {
	if i1 == i2 {
		return
	}
	for j, jMax := 0, m.cols; j < jMax; j++ {
		a, b := m.At(i1, j), m.At(i2, j)
		m.Set(i1, j, b)
		m.Set(i2, j, a)
	}
}

// SwapCols exchanges columns j1 and j2.
func (m Mat[T]) SwapCols(j1, j2 int) {
	if j1 == j2 {
		return
	}
	for i, iMax := 0, m.rows; i < iMax; i++ {
		a, b := m.At(i, j1), m.At(i, j2)
		m.Set(i, j1, b)
		m.Set(i, j2, a)
	}
}

// Identity writes the identity pattern into m (1 on the main diagonal, 0
// elsewhere). m need not be square.
func (m Mat[T]) Identity() {
	for i, iMax := 0, m.rows; i < iMax; i++ {
		for j, jMax := 0, m.cols; j < jMax; j++ {
			if i == j {
				m.Set(i, j, T(1))
			} else {
				m.Set(i, j, T(0))
			}
		}
	}
}
