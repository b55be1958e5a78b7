// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package lu computes the LU factorization with partial (row) pivoting.
package lu

import (
	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// Panel width of the blocked factorization.
const factorBlocksize = 64

// FactorScratch is the workspace requirement of Factor.
func FactorScratch(rows, cols int) mat.Scratch {
	return mat.Scratch{}
}

// factorPanel factors the tall panel a in place, recording in pivots the row
// chosen at each step (relative to the panel). Row swaps are applied to the
// panel only; the caller propagates them to the columns outside it.
func factorPanel[T mat.Scalar](a mat.Mat[T], pivots []int) int {
	m := a.Rows()
	n := a.Cols()
	size := min(m, n)
	transpositions := 0

	for k, kMax := 0, size; k < kMax; k++ {
		p := k
		best := mat.Abs(a.At(k, k))
		for i := k + 1; i < m; i++ {
			if s := mat.Abs(a.At(i, k)); s > best {
				p = i
				best = s
			}
		}
		pivots[k] = p
		if best == 0 {
			continue
		}
		if p != k {
			a.SwapRows(k, p)
			transpositions++
		}

		inv := T(1) / a.At(k, k)
		for i := k + 1; i < m; i++ {
			a.Set(i, k, a.At(i, k)*inv)
		}
		for j := k + 1; j < n; j++ {
			akj := a.At(k, j)
			if akj == 0 {
				continue
			}
			for i := k + 1; i < m; i++ {
				a.Set(i, j, a.At(i, j)-a.At(i, k)*akj)
			}
		}
	}
	return transpositions
}

// Factor overwrites a with its factorization P·A = L·U: the unit lower
// triangular L below the diagonal and U on and above it. Returns the number
// of row transpositions performed and the row permutation P. A zero pivot
// column is skipped, leaving a singular U; solves against it divide by zero.
//
// Columns are factored a panel at a time; the trailing matrix is updated with
// a triangular solve and a parallel rank-nb product.
func Factor[T mat.Scalar](a mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) (int, mat.Permutation) {
	m := a.Rows()
	n := a.Cols()
	size := min(m, n)

	fwd := make([]int, m)
	for i := range fwd {
		fwd[i] = i
	}
	pivots := make([]int, size)
	transpositions := 0

	for k := 0; k < size; k += factorBlocksize {
		nb := min(factorBlocksize, size-k)
		transpositions += factorPanel(a.Submatrix(k, k, m-k, nb), pivots[k:k+nb])

		// Propagate the panel's row swaps to the columns outside it.
		for i, iMax := 0, nb; i < iMax; i++ {
			r := k + i
			p := k + pivots[k+i]
			if p != r {
				a.Submatrix(0, 0, m, k).SwapRows(r, p)
				a.Submatrix(0, k+nb, m, n-k-nb).SwapRows(r, p)
				fwd[r], fwd[p] = fwd[p], fwd[r]
			}
		}

		if k+nb < n {
			// U12 = L11⁻¹·A12, then A22 -= L21·U12.
			triangular.SolveUnitLowerInPlace(
				a.Submatrix(k, k, nb, nb), false,
				a.Submatrix(k, k+nb, nb, n-k-nb), par,
			)
			if k+nb < m {
				matmul.MatMul(
					a.Submatrix(k+nb, k+nb, m-k-nb, n-k-nb),
					a.Submatrix(k+nb, k, m-k-nb, nb), false,
					a.Submatrix(k, k+nb, nb, n-k-nb), false,
					true, T(-1), par,
				)
			}
		}
	}

	return transpositions, mat.NewPermutation(fwd)
}

// SolveScratch is the workspace requirement of SolveInPlace for a dim×dim
// factorization and rhsCols right-hand sides.
func SolveScratch(dim, rhsCols int) mat.Scratch {
	return mat.ScratchMat(dim, rhsCols)
}

// SolveInPlace solves A·X = rhs in place for square A factored by Factor.
func SolveInPlace[T mat.Scalar](lu mat.Mat[T], perm mat.Permutation, rhs mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	n := lu.Rows()
	if lu.Cols() != n {
		panic("lu: solve requires a square factorization")
	}
	if rhs.Rows() != n {
		panic("lu: rhs row count mismatch")
	}

	x, _ := stack.Mat(n, rhs.Cols())
	mat.PermuteRows(x, rhs, perm)
	triangular.SolveUnitLowerInPlace(lu, false, x, par)
	triangular.SolveUpperInPlace(lu, false, x, par)
	rhs.CopyFrom(x)
}

// Determinant returns det(A) from the factorization of a square matrix and
// the transposition count reported by Factor.
func Determinant[T mat.Scalar](lu mat.Mat[T], transpositions int) T {
	n := lu.Rows()
	det := T(1)
	for i, iMax := 0, n; i < iMax; i++ {
		det *= lu.At(i, i)
	}
	if transpositions%2 != 0 {
		det = -det
	}
	return det
}
