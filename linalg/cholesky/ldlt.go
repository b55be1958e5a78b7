// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package cholesky

import (
	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// LdltScratch is the workspace requirement of Ldlt for a dim×dim matrix.
func LdltScratch(dim int) mat.Scratch {
	return mat.ScratchMat(dim, dim)
}

// Ldlt overwrites a with its L·D·Lᴴ factorization: D (real) on the diagonal
// and the strictly lower part of the unit triangular L below it. Only the
// lower triangle is read; the strictly upper triangle is clobbered. No
// pivoting is performed, so the input must have a well conditioned leading
// principal minor sequence; use BunchKaufman otherwise.
func Ldlt[T mat.Scalar](a mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	if a.Rows() != a.Cols() {
		panic("cholesky: matrix must be square")
	}
	ldltImpl(a, par, stack)
}

func ldltImpl[T mat.Scalar](a mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	n := a.Rows()
	if n < 32 {
		ldltLeftLooking(a)
		return
	}

	bs := min(n/2, 128)
	rem := n - bs
	l00 := a.Submatrix(0, 0, bs, bs)
	a10 := a.Submatrix(bs, 0, rem, bs)
	a11 := a.Submatrix(bs, bs, rem, rem)

	ldltImpl(l00, par, stack)

	// L10 = A10·L00⁻ᴴ·D0⁻¹.
	triangular.SolveUnitLowerInPlace(l00, true, a10.Transpose(), par)

	l10xd0, _ := stack.Mat(rem, bs)
	for j, jMax := 0, bs; j < jMax; j++ {
		dInv := T(1) / l00.At(j, j)
		for i, iMax := 0, rem; i < iMax; i++ {
			v := a10.At(i, j)
			l10xd0.Set(i, j, v)
			a10.Set(i, j, v*dInv)
		}
	}
	matmul.TriMatMul(
		a11, matmul.TriangularLower,
		a10, matmul.Rectangular, false,
		l10xd0.Transpose(), matmul.Rectangular, true,
		true, T(-1), par,
	)

	ldltImpl(a11, par, stack)
}

func ldltLeftLooking[T mat.Scalar](a mat.Mat[T]) {
	n := a.Rows()
	if n <= 1 {
		return
	}

	for idx, idxMax := 0, n; idx < idxMax; idx++ {
		// The strictly upper part of column idx doubles as storage for
		// L10·D0.
		l10xd0 := a.Submatrix(0, idx, idx, 1)
		var dot T
		for j, jMax := 0, idx; j < jMax; j++ {
			v := a.At(idx, j) * a.At(j, j)
			l10xd0.Set(j, 0, v)
			dot += mat.Conj(v) * a.At(idx, j)
		}
		a.Set(idx, idx, a.At(idx, idx)-dot)

		if idx+1 == n {
			break
		}

		r := 1 / mat.Real(a.At(idx, idx))
		for i := idx + 1; i < n; i++ {
			x := a.At(i, idx)
			for j, jMax := 0, idx; j < jMax; j++ {
				x -= a.At(i, j) * mat.Conj(l10xd0.At(j, 0))
			}
			a.Set(i, idx, mat.ScaleReal(x, r))
		}
	}
}

// SolveLdltInPlace solves op(L·D·Lᴴ)·X = rhs in place, given the factor
// computed by Ldlt.
func SolveLdltInPlace[T mat.Scalar](ld mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	n := ld.Rows()
	triangular.SolveUnitLowerInPlace(ld, conj, rhs, par)
	for i, iMax := 0, n; i < iMax; i++ {
		dInv := 1 / mat.Real(ld.At(i, i))
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			rhs.Set(i, j, mat.ScaleReal(rhs.At(i, j), dInv))
		}
	}
	triangular.SolveUnitUpperInPlace(ld.Transpose(), !conj, rhs, par)
}
