// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

func randomMat(rng *rand.Rand, rows, cols int) mat.Mat[float64] {
	m := mat.NewMat[float64](rows, cols)
	for i, iMax := 0, rows; i < iMax; i++ {
		for j, jMax := 0, cols; j < jMax; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

func requireOrthonormalCols(t *testing.T, m mat.Mat[float64], tol float64, label string) {
	t.Helper()
	for i, iMax := 0, m.Cols(); i < iMax; i++ {
		for j, jMax := 0, m.Cols(); j < jMax; j++ {
			var dot float64
			for p, pMax := 0, m.Rows(); p < pMax; p++ {
				dot += m.At(p, i) * m.At(p, j)
			}
			want := 0.0
			if i == j {
				want = 1
			}
			require.InDelta(t, want, dot, tol, "%s gram (%d, %d)", label, i, j)
		}
	}
}

func svdCheck(t *testing.T, a mat.Mat[float64]) {
	t.Helper()
	m := a.Rows()
	n := a.Cols()
	size := min(m, n)
	tol := 1e-9 * float64(m+n+1)

	s := make([]float64, size)
	u := mat.NewMat[float64](m, m)
	v := mat.NewMat[float64](n, n)

	stack := mat.NewStack[float64](ComputeScratch(m, n, m, n))
	require.NoError(t, Compute(a, s, &u, &v, parallel.Seq(), stack), "%dx%d", m, n)

	for k, kMax := 0, size; k < kMax; k++ {
		require.GreaterOrEqual(t, s[k], 0.0, "%dx%d value %d", m, n, k)
		if k > 0 {
			require.LessOrEqual(t, s[k], s[k-1]+tol, "%dx%d order %d", m, n, k)
		}
	}

	requireOrthonormalCols(t, u, tol, "u")
	requireOrthonormalCols(t, v, tol, "v")

	// A = U·diag(s)·Vᵀ.
	for i, iMax := 0, m; i < iMax; i++ {
		for j, jMax := 0, n; j < jMax; j++ {
			var acc float64
			for k, kMax := 0, size; k < kMax; k++ {
				acc += s[k] * u.At(i, k) * v.At(j, k)
			}
			require.InDelta(t, a.At(i, j), acc, tol, "%dx%d reconstruct (%d, %d)", m, n, i, j)
		}
	}
}

func TestCompute(t *testing.T) {
	rng := rand.New(rand.NewSource(70))
	for _, dims := range [][2]int{
		{1, 1}, {2, 2}, {3, 2}, {2, 3}, {4, 4}, {4, 3},
		{5, 5}, {8, 5}, {5, 8}, {12, 12}, {20, 7}, {7, 20}, {16, 10},
	} {
		svdCheck(t, randomMat(rng, dims[0], dims[1]))
	}
}

func TestComputeZeroMatrix(t *testing.T) {
	for _, dims := range [][2]int{{3, 3}, {6, 4}, {10, 10}} {
		svdCheck(t, mat.NewMat[float64](dims[0], dims[1]))
	}
}

func TestComputeRankDeficient(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	// Outer product, rank one.
	m, n := 9, 6
	a := mat.NewMat[float64](m, n)
	x := randomMat(rng, m, 1)
	y := randomMat(rng, n, 1)
	for i, iMax := 0, m; i < iMax; i++ {
		for j, jMax := 0, n; j < jMax; j++ {
			a.Set(i, j, x.At(i, 0)*y.At(j, 0))
		}
	}
	svdCheck(t, a)

	s := make([]float64, n)
	stack := mat.NewStack[float64](ComputeScratch(m, n, 0, 0))
	require.NoError(t, Compute(a, s, nil, nil, parallel.Seq(), stack))
	for k := 1; k < n; k++ {
		require.InDelta(t, 0, s[k], 1e-10, "value %d", k)
	}
}

func TestComputeEmpty(t *testing.T) {
	a := mat.NewMat[float64](4, 0)
	u := mat.NewMat[float64](4, 4)
	require.NoError(t, Compute(a, nil, &u, nil, parallel.Seq(), mat.NewStack[float64](ComputeScratch(4, 0, 4, 0))))
	requireOrthonormalCols(t, u, 1e-15, "u")
}

func TestComputeThinMatchesFull(t *testing.T) {
	rng := rand.New(rand.NewSource(72))
	for _, dims := range [][2]int{{6, 4}, {15, 9}} {
		m, n := dims[0], dims[1]
		a := randomMat(rng, m, n)

		sFull := make([]float64, n)
		uFull := mat.NewMat[float64](m, m)
		vFull := mat.NewMat[float64](n, n)
		require.NoError(t, Compute(a, sFull, &uFull, &vFull, parallel.Seq(),
			mat.NewStack[float64](ComputeScratch(m, n, m, n))))

		sThin := make([]float64, n)
		uThin := mat.NewMat[float64](m, n)
		vThin := mat.NewMat[float64](n, n)
		require.NoError(t, Compute(a, sThin, &uThin, &vThin, parallel.Seq(),
			mat.NewStack[float64](ComputeScratch(m, n, n, n))))

		for k, kMax := 0, n; k < kMax; k++ {
			require.InDelta(t, sFull[k], sThin[k], 1e-12, "dims %v value %d", dims, k)
		}
		for i, iMax := 0, m; i < iMax; i++ {
			for j, jMax := 0, n; j < jMax; j++ {
				require.InDelta(t, uFull.At(i, j), uThin.At(i, j), 1e-12, "dims %v u (%d, %d)", dims, i, j)
			}
		}
	}
}

func TestComputeValuesOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(73))
	m, n := 11, 8
	a := randomMat(rng, m, n)

	sFull := make([]float64, n)
	u := mat.NewMat[float64](m, n)
	v := mat.NewMat[float64](n, n)
	require.NoError(t, Compute(a, sFull, &u, &v, parallel.Seq(),
		mat.NewStack[float64](ComputeScratch(m, n, n, n))))

	sOnly := make([]float64, n)
	require.NoError(t, Compute(a, sOnly, nil, nil, parallel.Seq(),
		mat.NewStack[float64](ComputeScratch(m, n, 0, 0))))

	for k, kMax := 0, n; k < kMax; k++ {
		require.InDelta(t, sFull[k], sOnly[k], 1e-10, "value %d", k)
	}
}

func TestComputeKnownValues(t *testing.T) {
	// diag(3, 1, 2) padded with a zero row.
	a := mat.FromRows([][]float64{
		{3, 0, 0},
		{0, 1, 0},
		{0, 0, 2},
		{0, 0, 0},
	})
	s := make([]float64, 3)
	require.NoError(t, Compute(a, s, nil, nil, parallel.Seq(),
		mat.NewStack[float64](ComputeScratch(4, 3, 0, 0))))
	require.InDelta(t, 3, s[0], 1e-12)
	require.InDelta(t, 2, s[1], 1e-12)
	require.InDelta(t, 1, s[2], 1e-12)
}
