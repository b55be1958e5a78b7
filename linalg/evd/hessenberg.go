// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package evd

import (
	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// HessenbergScratch is the workspace requirement of Hessenberg.
func HessenbergScratch(dim int) mat.Scratch {
	return mat.Scratch{}
}

// Hessenberg reduces a to upper Hessenberg form H = Qᴴ·A·Q in place. On
// return the Hessenberg part of a holds H, the columns below the subdiagonal
// hold the essential reflector vectors of Q, and factor (blocksize×(n-1))
// holds the block Householder T factors.
func Hessenberg[T mat.Scalar](a, factor mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	n := a.Rows()
	if a.Cols() != n {
		panic("evd: matrix must be square")
	}
	if n > 0 && factor.Cols() != n-1 {
		panic("evd: factor must have n-1 columns")
	}
	if n <= 1 {
		return
	}
	_ = stack

	for k, kMax := 0, n-1; k < kMax; k++ {
		essential := a.Submatrix(k+2, k, n-k-2, 1)
		tau, beta := householder.Make(essential, a.At(k+1, k), colSquaredNorm(essential))
		a.Set(k+1, k, beta)
		factor.Set(0, k, tau)

		// A[k+1:, k+1:] = H·A[k+1:, k+1:] with v = [1; essential].
		for j := k + 1; j < n; j++ {
			d := a.At(k+1, j)
			for i := k + 2; i < n; i++ {
				d += mat.Conj(a.At(i, k)) * a.At(i, j)
			}
			d /= tau
			a.Set(k+1, j, a.At(k+1, j)-d)
			for i := k + 2; i < n; i++ {
				a.Set(i, j, a.At(i, j)-d*a.At(i, k))
			}
		}
		// A[:, k+1:] = A[:, k+1:]·H.
		for r, rMax := 0, n; r < rMax; r++ {
			d := a.At(r, k+1)
			for i := k + 2; i < n; i++ {
				d += a.At(r, i) * a.At(i, k)
			}
			d /= tau
			a.Set(r, k+1, a.At(r, k+1)-d)
			for i := k + 2; i < n; i++ {
				a.Set(r, i, a.At(r, i)-d*mat.Conj(a.At(i, k)))
			}
		}
	}

	upgradeFactorBlocks(a.Submatrix(1, 0, n-1, n-1), factor, par)
}
