// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package qr

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-dense/linalg/householder"
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

// extractQR returns Q (m×m, applied to the identity) and R (m×n upper
// trapezoid) from a factored matrix.
func extractQR(qrf, factor mat.Mat[float64]) (q, r mat.Mat[float64]) {
	m := qrf.Rows()
	n := qrf.Cols()
	bs := factor.Rows()

	q = mat.NewMat[float64](m, m)
	q.Identity()
	stack := mat.NewStack[float64](householder.ApplyScratch(bs, m))
	householder.ApplySeqOnLeft(qrf, factor, false, q, parallel.Seq(), stack)

	r = mat.NewMat[float64](m, n)
	for i, iMax := 0, min(m, n); i < iMax; i++ {
		for j := i; j < n; j++ {
			r.Set(i, j, qrf.At(i, j))
		}
	}
	return q, r
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
	rng := rand.New(rand.NewSource(30))
	for _, dims := range [][2]int{{1, 1}, {4, 4}, {5, 3}, {10, 10}, {20, 13}, {40, 40}, {70, 50}} {
		m, n := dims[0], dims[1]
		a := randomMat(rng, m, n)
		qrf := mat.NewMat[float64](m, n)
		qrf.CopyFrom(a)

		bs := RecommendedBlocksize(m, n)
		factor := mat.NewMat[float64](bs, min(m, n))
		Factor(qrf, factor, parallel.Seq(), mat.NewStack[float64](FactorScratch(m, n, bs)))

		q, r := extractQR(qrf, factor)
		prod := mat.NewMat[float64](m, n)
		matmul.MatMul(prod, q, false, r, false, false, 1.0, parallel.Seq())

		require.Less(t, maxAbsDiff(prod, a), 1e-10, "dims %v", dims)
	}
}

func TestFactorBlocksizeAgreement(t *testing.T) {
	rng := rand.New(rand.NewSource(34))
	m, n := 30, 20
	a := randomMat(rng, m, n)

	one := mat.NewMat[float64](m, n)
	one.CopyFrom(a)
	factorOne := mat.NewMat[float64](1, n)
	Factor(one, factorOne, parallel.Seq(), mat.NewStack[float64](FactorScratch(m, n, 1)))

	blk := mat.NewMat[float64](m, n)
	blk.CopyFrom(a)
	factorBlk := mat.NewMat[float64](8, n)
	Factor(blk, factorBlk, parallel.Seq(), mat.NewStack[float64](FactorScratch(m, n, 8)))

	// The reflectors and R do not depend on the panel width.
	require.Less(t, maxAbsDiff(one, blk), 1e-10)
}

func TestFactorColPivot(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	for _, dims := range [][2]int{{6, 6}, {12, 8}, {30, 30}, {25, 40}} {
		m, n := dims[0], dims[1]
		a := randomMat(rng, m, n)
		qrf := mat.NewMat[float64](m, n)
		qrf.CopyFrom(a)

		bs := RecommendedBlocksize(m, n)
		factor := mat.NewMat[float64](bs, min(m, n))
		stack := mat.NewStack[float64](FactorColPivotScratch(m, n, bs))
		perm := FactorColPivot(qrf, factor, parallel.Seq(), stack)

		q, r := extractQR(qrf, factor)
		prod := mat.NewMat[float64](m, n)
		matmul.MatMul(prod, q, false, r, false, false, 1.0, parallel.Seq())

		// prod must equal A·P, the columns of a in factored order.
		ap := mat.NewMat[float64](m, n)
		mat.PermuteCols(ap, a, perm)
		require.Less(t, maxAbsDiff(prod, ap), 1e-10, "dims %v", dims)

		// Pivoting keeps the diagonal of R non-increasing in modulus.
		for k := 1; k < min(m, n); k++ {
			require.LessOrEqual(t, mat.Abs(qrf.At(k, k)), mat.Abs(qrf.At(k-1, k-1))+1e-12, "dims %v diag %d", dims, k)
		}
	}
}

func TestSolveInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	for _, n := range []int{1, 3, 10, 35} {
		a := randomMat(rng, n, n)
		for i, iMax := 0, n; i < iMax; i++ {
			a.Set(i, i, a.At(i, i)+float64(n))
		}
		x := randomMat(rng, n, 2)
		b := mat.NewMat[float64](n, 2)
		matmul.MatMul(b, a, false, x, false, false, 1.0, parallel.Seq())

		qrf := mat.NewMat[float64](n, n)
		qrf.CopyFrom(a)
		bs := RecommendedBlocksize(n, n)
		factor := mat.NewMat[float64](bs, n)
		Factor(qrf, factor, parallel.Seq(), mat.NewStack[float64](FactorScratch(n, n, bs)))

		stack := mat.NewStack[float64](SolveScratch(n, 2, bs))
		SolveInPlace(qrf, factor, b, parallel.Seq(), stack)

		require.Less(t, maxAbsDiff(b, x), 1e-8, "n=%d", n)
	}
}

func TestSolveColPivotInPlace(t *testing.T) {
	rng := rand.New(rand.NewSource(33))
	for _, n := range []int{2, 9, 24} {
		a := randomMat(rng, n, n)
		for i, iMax := 0, n; i < iMax; i++ {
			a.Set(i, i, a.At(i, i)+float64(n))
		}
		x := randomMat(rng, n, 3)
		b := mat.NewMat[float64](n, 3)
		matmul.MatMul(b, a, false, x, false, false, 1.0, parallel.Seq())

		qrf := mat.NewMat[float64](n, n)
		qrf.CopyFrom(a)
		bs := RecommendedBlocksize(n, n)
		factor := mat.NewMat[float64](bs, n)
		fstack := mat.NewStack[float64](FactorColPivotScratch(n, n, bs))
		perm := FactorColPivot(qrf, factor, parallel.Seq(), fstack)

		stack := mat.NewStack[float64](SolveScratch(n, 3, bs))
		SolveColPivotInPlace(qrf, factor, perm, b, parallel.Seq(), stack)

		require.Less(t, maxAbsDiff(b, x), 1e-8, "n=%d", n)
	}
}
