// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

import "testing"

func TestNewMat(t *testing.T) {
	m := NewMat[float64](3, 4)
	if m.Rows() != 3 || m.Cols() != 4 {
		t.Fatalf("shape = %dx%d, want 3x4", m.Rows(), m.Cols())
	}
	for i, iMax := 0, 3; i < iMax; i++ {
		for j, jMax := 0, 4; j < jMax; j++ {
			if m.At(i, j) != 0 {
				t.Errorf("At(%d, %d) = %v, want 0", i, j, m.At(i, j))
			}
		}
	}
}

func TestFromRows(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	if m.Rows() != 2 || m.Cols() != 3 {
		t.Fatalf("shape = %dx%d, want 2x3", m.Rows(), m.Cols())
	}
	if m.At(1, 2) != 6 {
		t.Errorf("At(1, 2) = %v, want 6", m.At(1, 2))
	}
}

func TestFromSliceShares(t *testing.T) {
	data := []float64{1, 2, 3, 4}
	m := FromSlice(data, 2, 2)
	m.Set(0, 1, 9)
	if data[1] != 9 {
		t.Errorf("data[1] = %v, want 9 after Set through the view", data[1])
	}
}

func TestTranspose(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	mt := m.Transpose()
	if mt.Rows() != 3 || mt.Cols() != 2 {
		t.Fatalf("transpose shape = %dx%d, want 3x2", mt.Rows(), mt.Cols())
	}
	for i, iMax := 0, 2; i < iMax; i++ {
		for j, jMax := 0, 3; j < jMax; j++ {
			if mt.At(j, i) != m.At(i, j) {
				t.Errorf("Transpose().At(%d, %d) = %v, want %v", j, i, mt.At(j, i), m.At(i, j))
			}
		}
	}
	// Writes through the transpose land in the original.
	mt.Set(2, 0, -1)
	if m.At(0, 2) != -1 {
		t.Errorf("At(0, 2) = %v, want -1", m.At(0, 2))
	}
}

func TestSubmatrix(t *testing.T) {
	m := NewMat[float64](4, 4)
	for i, iMax := 0, 4; i < iMax; i++ {
		for j, jMax := 0, 4; j < jMax; j++ {
			m.Set(i, j, float64(10*i+j))
		}
	}
	s := m.Submatrix(1, 2, 2, 2)
	want := [][]float64{
		{12, 13},
		{22, 23},
	}
	for i, iMax := 0, 2; i < iMax; i++ {
		for j, jMax := 0, 2; j < jMax; j++ {
			if s.At(i, j) != want[i][j] {
				t.Errorf("sub.At(%d, %d) = %v, want %v", i, j, s.At(i, j), want[i][j])
			}
		}
	}
	s.Set(0, 0, -5)
	if m.At(1, 2) != -5 {
		t.Errorf("write through submatrix: At(1, 2) = %v, want -5", m.At(1, 2))
	}
}

func TestReverseViews(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2},
		{3, 4},
	})
	rr := m.ReverseRows()
	if rr.At(0, 0) != 3 || rr.At(1, 1) != 2 {
		t.Errorf("ReverseRows: got [%v %v; %v %v]", rr.At(0, 0), rr.At(0, 1), rr.At(1, 0), rr.At(1, 1))
	}
	rc := m.ReverseCols()
	if rc.At(0, 0) != 2 || rc.At(1, 0) != 4 {
		t.Errorf("ReverseCols: got [%v %v; %v %v]", rc.At(0, 0), rc.At(0, 1), rc.At(1, 0), rc.At(1, 1))
	}
	rb := m.ReverseBoth()
	if rb.At(0, 0) != 4 || rb.At(1, 1) != 1 {
		t.Errorf("ReverseBoth: got [%v %v; %v %v]", rb.At(0, 0), rb.At(0, 1), rb.At(1, 0), rb.At(1, 1))
	}
}

func TestSwapRowsCols(t *testing.T) {
	m := FromRows([][]float64{
		{1, 2},
		{3, 4},
	})
	m.SwapRows(0, 1)
	if m.At(0, 0) != 3 || m.At(1, 1) != 2 {
		t.Errorf("after SwapRows: [%v %v; %v %v]", m.At(0, 0), m.At(0, 1), m.At(1, 0), m.At(1, 1))
	}
	m.SwapCols(0, 1)
	if m.At(0, 0) != 4 || m.At(1, 1) != 1 {
		t.Errorf("after SwapCols: [%v %v; %v %v]", m.At(0, 0), m.At(0, 1), m.At(1, 0), m.At(1, 1))
	}
}

func TestIdentity(t *testing.T) {
	m := NewMat[complex128](3, 2)
	m.Fill(7)
	m.Identity()
	for i, iMax := 0, 3; i < iMax; i++ {
		for j, jMax := 0, 2; j < jMax; j++ {
			want := complex128(0)
			if i == j {
				want = 1
			}
			if m.At(i, j) != want {
				t.Errorf("At(%d, %d) = %v, want %v", i, j, m.At(i, j), want)
			}
		}
	}
}

func TestScalarHelpers(t *testing.T) {
	if Conj(complex128(1+2i)) != 1-2i {
		t.Errorf("Conj(1+2i) = %v", Conj(complex128(1+2i)))
	}
	if Conj(float64(3)) != 3 {
		t.Errorf("Conj(3) = %v", Conj(float64(3)))
	}
	if Real(complex128(5+2i)) != 5 || Imag(complex128(5+2i)) != 2 {
		t.Errorf("Real/Imag(5+2i) = %v, %v", Real(complex128(5+2i)), Imag(complex128(5+2i)))
	}
	if Abs2(complex128(3+4i)) != 25 {
		t.Errorf("Abs2(3+4i) = %v, want 25", Abs2(complex128(3+4i)))
	}
	if Abs(complex64(3+4i)) != 5 {
		t.Errorf("Abs(3+4i) = %v, want 5", Abs(complex64(3+4i)))
	}
	if FromReal[complex128](2.5) != 2.5+0i {
		t.Errorf("FromReal = %v", FromReal[complex128](2.5))
	}
	if ScaleReal(complex128(1+1i), 2) != 2+2i {
		t.Errorf("ScaleReal = %v", ScaleReal(complex128(1+1i), 2))
	}
	if IsComplex[float32]() || !IsComplex[complex64]() {
		t.Error("IsComplex misclassifies")
	}
	if Epsilon[float32]() != 0x1p-23 || Epsilon[complex128]() != 0x1p-52 {
		t.Error("Epsilon mismatch")
	}
}
