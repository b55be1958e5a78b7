// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package lu

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-dense/linalg/matmul"
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

func maxAbsDiff(a, b mat.Mat[float64]) float64 {
	var worst float64
	for i, iMax := 0, a.Rows(); i < iMax; i++ {
		for j, jMax := 0, a.Cols(); j < jMax; j++ {
			worst = max(worst, mat.Abs(a.At(i, j)-b.At(i, j)))
		}
	}
	return worst
}

func TestFactorRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(40))
	for _, dims := range [][2]int{{1, 1}, {4, 4}, {7, 5}, {5, 9}, {30, 30}, {50, 35}, {100, 100}, {130, 80}, {80, 130}} {
		m, n := dims[0], dims[1]
		a := randomMat(rng, m, n)
		lu := mat.NewMat[float64](m, n)
		lu.CopyFrom(a)

		_, perm := Factor(lu, parallel.Seq(), mat.NewStack[float64](FactorScratch(m, n)))

		size := min(m, n)
		l := mat.NewMat[float64](m, size)
		u := mat.NewMat[float64](size, n)
		for i, iMax := 0, m; i < iMax; i++ {
			for j, jMax := 0, size; j < jMax; j++ {
				switch {
				case i > j:
					l.Set(i, j, lu.At(i, j))
				case i == j:
					l.Set(i, j, 1)
				}
			}
		}
		for i, iMax := 0, size; i < iMax; i++ {
			for j := i; j < n; j++ {
				u.Set(i, j, lu.At(i, j))
			}
		}

		prod := mat.NewMat[float64](m, n)
		matmul.MatMul(prod, l, false, u, false, false, 1.0, parallel.Seq())

		pa := mat.NewMat[float64](m, n)
		mat.PermuteRows(pa, a, perm)
		require.Less(t, maxAbsDiff(prod, pa), 1e-10, "dims %v", dims)
	}
}

func TestSolveInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	for _, n := range []int{1, 2, 8, 25, 60, 100} {
		a := randomMat(rng, n, n)
		for i, iMax := 0, n; i < iMax; i++ {
			a.Set(i, i, a.At(i, i)+float64(n))
		}
		x := randomMat(rng, n, 3)
		b := mat.NewMat[float64](n, 3)
		matmul.MatMul(b, a, false, x, false, false, 1.0, parallel.Seq())

		lu := mat.NewMat[float64](n, n)
		lu.CopyFrom(a)
		_, perm := Factor(lu, parallel.Seq(), mat.NewStack[float64](FactorScratch(n, n)))

		stack := mat.NewStack[float64](SolveScratch(n, 3))
		SolveInPlace(lu, perm, b, parallel.Seq(), stack)

		require.Less(t, maxAbsDiff(b, x), 1e-8, "n=%d", n)
	}
}

func TestFactorParallelMatchesSeq(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 100
	a := randomMat(rng, n, n)

	seq := mat.NewMat[float64](n, n)
	seq.CopyFrom(a)
	_, permSeq := Factor(seq, parallel.Seq(), mat.NewStack[float64](FactorScratch(n, n)))

	par := mat.NewMat[float64](n, n)
	par.CopyFrom(a)
	_, permPar := Factor(par, parallel.Par(4), mat.NewStack[float64](FactorScratch(n, n)))

	require.Equal(t, permSeq.Forward(), permPar.Forward())
	for i, iMax := 0, n; i < iMax; i++ {
		for j, jMax := 0, n; j < jMax; j++ {
			require.Equal(t, seq.At(i, j), par.At(i, j), "at (%d, %d)", i, j)
		}
	}
}

func TestDeterminant(t *testing.T) {
	a := mat.FromRows([][]float64{
		{4, 3},
		{6, 3},
	})
	trans, _ := Factor(a, parallel.Seq(), mat.NewStack[float64](FactorScratch(2, 2)))
	require.InDelta(t, -6.0, Determinant(a, trans), 1e-12)

	b := mat.FromRows([][]float64{
		{2, 0, 0},
		{0, 3, 0},
		{0, 0, 4},
	})
	trans, _ = Factor(b, parallel.Seq(), mat.NewStack[float64](FactorScratch(3, 3)))
	require.InDelta(t, 24.0, Determinant(b, trans), 1e-12)
}

func TestFactorSingular(t *testing.T) {
	// A zero column is skipped; the factorization finishes with a singular U.
	a := mat.FromRows([][]float64{
		{0, 1},
		{0, 2},
	})
	trans, _ := Factor(a, parallel.Seq(), mat.NewStack[float64](FactorScratch(2, 2)))
	require.InDelta(t, 0.0, Determinant(a, trans), 1e-12)
}
