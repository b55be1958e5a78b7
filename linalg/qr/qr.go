// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package qr computes QR factorizations, optionally with column pivoting.
//
// Factor overwrites the input with R in its upper triangle and the essential
// reflector vectors below it; the accompanying blocksize×size factor matrix
// holds the block Householder T factors, ready for the householder apply
// functions. FactorColPivot additionally permutes columns by decreasing
// norm, so the diagonal of R is non-increasing in modulus: A·P = Q·R.
package qr

import (
	"math"

	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// RecommendedBlocksize returns a reasonable Householder blocksize for a
// rows×cols factorization.
func RecommendedBlocksize(rows, cols int) int {
	size := min(rows, cols)
	switch {
	case size <= 16:
		return max(1, size)
	case size <= 64:
		return 16
	case size <= 512:
		return 32
	default:
		return 64
	}
}

// FactorScratch is the workspace requirement of Factor.
func FactorScratch(rows, cols, blocksize int) mat.Scratch {
	return householder.ApplyScratch(blocksize, cols)
}

func checkFactor[T mat.Scalar](a, factor mat.Mat[T]) (size int) {
	size = min(a.Rows(), a.Cols())
	if factor.Cols() != size {
		panic("qr: factor must have min(rows, cols) columns")
	}
	if factor.Rows() == 0 {
		panic("qr: factor must have at least one row")
	}
	return size
}

func colSquaredNorm[T mat.Scalar](col mat.Mat[T]) float64 {
	var acc float64
	for i, iMax := 0, col.Rows(); i < iMax; i++ {
		acc += mat.Abs2(col.At(i, 0))
	}
	return acc
}

// factorColumn builds the reflector for column k and applies it to the
// trailing columns, writing tau into row 0 of factor.
func factorColumn[T mat.Scalar](a, factor mat.Mat[T], k int) {
	m := a.Rows()
	n := a.Cols()

	essential := a.Submatrix(k+1, k, m-k-1, 1)
	tau, beta := householder.Make(essential, a.At(k, k), colSquaredNorm(essential))
	a.Set(k, k, beta)
	factor.Set(0, k, tau)

	for j := k + 1; j < n; j++ {
		d := a.At(k, j)
		for i := k + 1; i < m; i++ {
			d += mat.Conj(a.At(i, k)) * a.At(i, j)
		}
		d /= tau
		a.Set(k, j, a.At(k, j)-d)
		for i := k + 1; i < m; i++ {
			a.Set(i, j, a.At(i, j)-d*a.At(i, k))
		}
	}
}

// upgradeBlocks merges the taus in row 0 of factor into per-block T factors.
func upgradeBlocks[T mat.Scalar](a, factor mat.Mat[T], par parallel.Parallelism) {
	m := a.Rows()
	size := factor.Cols()
	blocksize := factor.Rows()

	for j := 0; j < size; j += blocksize {
		bs := min(blocksize, size-j)
		block := factor.Submatrix(0, j, bs, bs)
		for i := 1; i < bs; i++ {
			block.Set(i, i, factor.At(0, j+i))
		}
		householder.UpgradeFactor(block, a.Submatrix(j, j, m-j, bs), bs, 1, par)
	}
}

// Factor overwrites a with its QR factorization: R in the upper triangle,
// essential reflectors below it. factor must be blocksize×min(rows, cols)
// and receives the block Householder T factors on its diagonal band.
//
// Each panel of blocksize columns is factored with rank-1 sweeps, its T
// factor assembled, and the accumulated block applied to the trailing
// columns in one pass.
func Factor[T mat.Scalar](a, factor mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	size := checkFactor(a, factor)
	m := a.Rows()
	n := a.Cols()
	blocksize := factor.Rows()

	for k := 0; k < size; k += blocksize {
		bs := min(blocksize, size-k)
		panel := a.Submatrix(k, k, m-k, bs)
		block := factor.Submatrix(0, k, bs, bs)

		for j, jMax := 0, bs; j < jMax; j++ {
			factorColumn(panel, block, j)
		}
		for j := 1; j < bs; j++ {
			block.Set(j, j, block.At(0, j))
		}
		householder.UpgradeFactor(block, panel, bs, 1, par)

		if k+bs < n {
			householder.ApplyBlockTransposeOnLeft(
				panel, block, true,
				a.Submatrix(k, k+bs, m-k, n-k-bs), par, stack,
			)
		}
	}
}

// FactorColPivotScratch is the workspace requirement of FactorColPivot.
func FactorColPivotScratch(rows, cols, blocksize int) mat.Scratch {
	return mat.ScratchReals(2 * cols)
}

// FactorColPivot overwrites a with the factorization A·P = Q·R, choosing at
// each step the trailing column of largest norm. Returns the column
// permutation P, with Forward()[k] the original index of the column factored
// at position k. Column norms are downdated and recomputed when cancellation
// makes the running value untrustworthy.
func FactorColPivot[T mat.Scalar](a, factor mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) mat.Permutation {
	size := checkFactor(a, factor)
	m := a.Rows()
	n := a.Cols()

	vn1, stack := stack.Reals(n)
	vn2, _ := stack.Reals(n)
	fwd := make([]int, n)
	for j, jMax := 0, n; j < jMax; j++ {
		vn1[j] = math.Sqrt(colSquaredNorm(a.Submatrix(0, j, m, 1)))
		vn2[j] = vn1[j]
		fwd[j] = j
	}

	tol3z := math.Sqrt(mat.Epsilon[T]())

	for k, kMax := 0, size; k < kMax; k++ {
		p := k
		for j := k + 1; j < n; j++ {
			if vn1[j] > vn1[p] {
				p = j
			}
		}
		if p != k {
			a.SwapCols(k, p)
			vn1[k], vn1[p] = vn1[p], vn1[k]
			vn2[k], vn2[p] = vn2[p], vn2[k]
			fwd[k], fwd[p] = fwd[p], fwd[k]
		}

		factorColumn(a, factor, k)

		for j := k + 1; j < n; j++ {
			if vn1[j] == 0 {
				continue
			}
			t := mat.Abs(a.At(k, j)) / vn1[j]
			t = math.Max(0, (1-t)*(1+t))
			t2 := t * (vn1[j] / vn2[j]) * (vn1[j] / vn2[j])
			if t2 <= tol3z {
				if k+1 < m {
					vn1[j] = math.Sqrt(colSquaredNorm(a.Submatrix(k+1, j, m-k-1, 1)))
				} else {
					vn1[j] = 0
				}
				vn2[j] = vn1[j]
			} else {
				vn1[j] *= math.Sqrt(t)
			}
		}
	}

	upgradeBlocks(a, factor, par)
	return mat.NewPermutation(fwd)
}

// SolveScratch is the workspace requirement of the in-place solves for a
// dim×dim factorization and rhsCols right-hand sides.
func SolveScratch(dim, rhsCols, blocksize int) mat.Scratch {
	return householder.ApplyScratch(blocksize, rhsCols).
		Or(mat.PermuteRowsInPlaceScratch(dim, rhsCols))
}

// SolveInPlace solves A·X = rhs in place for square A factored by Factor.
func SolveInPlace[T mat.Scalar](qrf, factor mat.Mat[T], rhs mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	if qrf.Rows() != qrf.Cols() {
		panic("qr: solve requires a square factorization")
	}
	householder.ApplySeqTransposeOnLeft(qrf, factor, true, rhs, par, stack)
	triangular.SolveUpperInPlace(qrf, false, rhs, par)
}

// SolveColPivotInPlace solves A·X = rhs in place for square A factored by
// FactorColPivot.
func SolveColPivotInPlace[T mat.Scalar](qrf, factor mat.Mat[T], perm mat.Permutation, rhs mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	SolveInPlace(qrf, factor, rhs, par, stack)
	mat.PermuteRowsInPlace(rhs, perm.Inverse(), stack)
}
