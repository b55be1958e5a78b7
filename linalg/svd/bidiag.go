// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// BidiagonalizeScratch is the workspace requirement of Bidiagonalize.
func BidiagonalizeScratch(rows, cols int) mat.Scratch {
	return mat.Scratch{}
}

// Bidiagonalize reduces the m×n matrix a (m ≥ n) to upper bidiagonal form
// B = Qᵀ·A·P in place. On return the diagonal and superdiagonal of a hold B,
// the columns below the diagonal hold the essential left reflectors of Q, the
// rows right of the superdiagonal hold the essential right reflectors of P,
// and factorLeft (blocksize×n) and factorRight (blocksize×(n-1)) hold the
// block Householder T factors of the two sequences.
func Bidiagonalize[T mat.Float](a, factorLeft, factorRight mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	m := a.Rows()
	n := a.Cols()
	if m < n {
		panic("svd: matrix must have at least as many rows as columns")
	}
	if factorLeft.Cols() != n {
		panic("svd: left factor must have n columns")
	}
	if n > 1 && factorRight.Cols() != n-1 {
		panic("svd: right factor must have n-1 columns")
	}
	_ = stack

	for k, kMax := 0, n; k < kMax; k++ {
		// Left reflector annihilating a[k+1:, k].
		essential := a.Submatrix(k+1, k, m-k-1, 1)
		tau, beta := householder.Make(essential, a.At(k, k), colSquaredNorm(essential))
		a.Set(k, k, beta)
		factorLeft.Set(0, k, tau)

		for j := k + 1; j < n; j++ {
			d := a.At(k, j)
			for i := k + 1; i < m; i++ {
				d += a.At(i, k) * a.At(i, j)
			}
			d /= tau
			a.Set(k, j, a.At(k, j)-d)
			for i := k + 1; i < m; i++ {
				a.Set(i, j, a.At(i, j)-d*a.At(i, k))
			}
		}

		if k >= n-1 {
			continue
		}

		// Right reflector annihilating a[k, k+2:].
		rowTail := a.Submatrix(k, k+2, 1, n-k-2).Transpose()
		tau, beta = householder.Make(rowTail, a.At(k, k+1), colSquaredNorm(rowTail))
		a.Set(k, k+1, beta)
		factorRight.Set(0, k, tau)

		for i := k + 1; i < m; i++ {
			d := a.At(i, k+1)
			for j := k + 2; j < n; j++ {
				d += a.At(i, j) * a.At(k, j)
			}
			d /= tau
			a.Set(i, k+1, a.At(i, k+1)-d)
			for j := k + 2; j < n; j++ {
				a.Set(i, j, a.At(i, j)-d*a.At(k, j))
			}
		}
	}

	upgradeFactorBlocks(a, factorLeft, par)
	if n > 1 {
		upgradeFactorBlocks(a.Submatrix(0, 1, m, n-1).Transpose(), factorRight, par)
	}
}

func colSquaredNorm[T mat.Float](col mat.Mat[T]) float64 {
	var acc float64
	for i, iMax := 0, col.Rows(); i < iMax; i++ {
		acc += mat.Abs2(col.At(i, 0))
	}
	return acc
}

// upgradeFactorBlocks merges per-reflector taus stored in row 0 of factor
// into per-block T factors, using the essential vectors in basis.
func upgradeFactorBlocks[T mat.Float](basis, factor mat.Mat[T], par parallel.Parallelism) {
	size := factor.Cols()
	blocksize := factor.Rows()
	for j := 0; j < size; j += blocksize {
		bs := min(blocksize, size-j)
		block := factor.Submatrix(0, j, bs, bs)
		for c := 1; c < bs; c++ {
			block.Set(c, c, factor.At(0, j+c))
		}
		householder.UpgradeFactor(block, basis.Submatrix(j, j, basis.Rows()-j, bs), bs, 1, par)
	}
}
