// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package evd

import (
	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// TridiagonalizeScratch is the workspace requirement of Tridiagonalize for a
// dim×dim matrix.
func TridiagonalizeScratch(dim int) mat.Scratch {
	if dim < 1 {
		return mat.Scratch{}
	}
	return mat.ScratchElems(2 * (dim - 1))
}

// Tridiagonalize reduces the self-adjoint matrix whose lower triangle a holds
// to real tridiagonal form T = Qᴴ·A·Q. On return the diagonal and subdiagonal
// of a hold T, the columns below the subdiagonal hold the essential reflector
// vectors of Q, and factor (blocksize×(n-1)) holds the block Householder T
// factors. The strictly upper triangle may be clobbered.
func Tridiagonalize[T mat.Scalar](a, factor mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
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

	p, stack := stack.Elems(n - 1)
	w, _ := stack.Elems(n - 1)

	for k, kMax := 0, n-1; k < kMax; k++ {
		rem := n - k - 1
		essential := a.Submatrix(k+2, k, rem-1, 1)
		tau, beta := householder.Make(essential, a.At(k+1, k), colSquaredNorm(essential))
		a.Set(k+1, k, beta)
		factor.Set(0, k, tau)

		tauInv := 1 / mat.Real(tau)
		a22 := a.Submatrix(k+1, k+1, rem, rem)
		vAt := func(j int) T {
			if j == 0 {
				return 1
			}
			return a.At(k+1+j, k)
		}

		// p = A22·v/τ, reading A22 from its lower triangle.
		for i, iMax := 0, rem; i < iMax; i++ {
			var acc T
			for j, jMax := 0, rem; j < jMax; j++ {
				var aij T
				if j <= i {
					aij = a22.At(i, j)
				} else {
					aij = mat.Conj(a22.At(j, i))
				}
				acc += aij * vAt(j)
			}
			p[i] = mat.ScaleReal(acc, tauInv)
		}

		var c float64
		for i, iMax := 0, rem; i < iMax; i++ {
			c += mat.Real(mat.Conj(vAt(i)) * p[i])
		}
		half := c * 0.5 * tauInv
		for i, iMax := 0, rem; i < iMax; i++ {
			w[i] = p[i] - mat.ScaleReal(vAt(i), half)
		}

		// A22 -= v·wᴴ + w·vᴴ, lower triangle only.
		for j, jMax := 0, rem; j < jMax; j++ {
			vj := mat.Conj(vAt(j))
			wj := mat.Conj(w[j])
			for i := j; i < rem; i++ {
				a22.Set(i, j, a22.At(i, j)-vAt(i)*wj-w[i]*vj)
			}
			a22.Set(j, j, mat.FromReal[T](mat.Real(a22.At(j, j))))
		}
	}

	upgradeFactorBlocks(a.Submatrix(1, 0, n-1, n-1), factor, par)
}

func colSquaredNorm[T mat.Scalar](col mat.Mat[T]) float64 {
	var acc float64
	for i, iMax := 0, col.Rows(); i < iMax; i++ {
		acc += mat.Abs2(col.At(i, 0))
	}
	return acc
}

// upgradeFactorBlocks merges per-reflector taus stored in row 0 of factor
// into per-block T factors, using the essential vectors in basis.
func upgradeFactorBlocks[T mat.Scalar](basis, factor mat.Mat[T], par parallel.Parallelism) {
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
