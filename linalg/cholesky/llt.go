// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package cholesky

import (
	"errors"
	"math"

	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// ErrNotPositiveDefinite is returned by Llt when a pivot is not strictly
// positive (after regularization, if enabled).
var ErrNotPositiveDefinite = errors.New("cholesky: matrix is not positive definite")

// Regularization controls dynamic regularization of the Llt pivots: a pivot
// in [0, Epsilon] is replaced by Delta and counted. A zero Delta disables
// regularization.
type Regularization struct {
	Delta   float64
	Epsilon float64
}

// LltScratch is the workspace requirement of Llt for a dim×dim matrix.
func LltScratch(dim int) mat.Scratch {
	return mat.Scratch{}
}

// Llt overwrites the lower triangle of a with its Cholesky factor L, such
// that L·Lᴴ equals the self-adjoint matrix whose lower triangle a held. Only
// the lower triangle is read; the strictly upper triangle may be clobbered.
// Returns the number of regularized pivots, or ErrNotPositiveDefinite.
func Llt[T mat.Scalar](a mat.Mat[T], reg Regularization, par parallel.Parallelism, stack mat.Stack[T]) (int, error) {
	if a.Rows() != a.Cols() {
		panic("cholesky: matrix must be square")
	}
	_ = stack
	count := 0
	if err := lltImpl(&count, a, reg, par); err != nil {
		return count, err
	}
	return count, nil
}

func lltImpl[T mat.Scalar](count *int, a mat.Mat[T], reg Regularization, par parallel.Parallelism) error {
	n := a.Rows()
	if n < 32 {
		return lltLeftLooking(count, a, reg)
	}

	bs := min(n/2, 128*par.Degree())
	l00 := a.Submatrix(0, 0, bs, bs)
	a10 := a.Submatrix(bs, 0, n-bs, bs)
	a11 := a.Submatrix(bs, bs, n-bs, n-bs)

	if err := lltImpl(count, l00, reg, par); err != nil {
		return err
	}
	// L10 = A10·L00⁻ᴴ, via conj(L00)·L10ᵀ = A10ᵀ.
	triangular.SolveLowerInPlace(l00, true, a10.Transpose(), par)
	matmul.TriMatMul(
		a11, matmul.TriangularLower,
		a10, matmul.Rectangular, false,
		a10.Transpose(), matmul.Rectangular, true,
		true, T(-1), par,
	)
	return lltImpl(count, a11, reg, par)
}

func lltLeftLooking[T mat.Scalar](count *int, a mat.Mat[T], reg Regularization) error {
	n := a.Rows()
	if n == 0 {
		return nil
	}

	eps := math.Abs(reg.Epsilon)
	delta := math.Abs(reg.Delta)
	hasEps := delta > 0

	for idx, idxMax := 0, n; idx < idxMax; idx++ {
		var dot float64
		for j, jMax := 0, idx; j < jMax; j++ {
			dot += mat.Abs2(a.At(idx, j))
		}
		re := mat.Real(a.At(idx, idx)) - dot
		if hasEps && re >= 0 && re <= eps {
			re = delta
			*count++
		}
		if re <= 0 {
			return ErrNotPositiveDefinite
		}
		l11 := math.Sqrt(re)
		a.Set(idx, idx, mat.FromReal[T](l11))

		if idx+1 == n {
			break
		}

		// A21 -= L20·L10ᴴ, then scale by the pivot inverse.
		r := 1 / l11
		for i := idx + 1; i < n; i++ {
			x := a.At(i, idx)
			for j, jMax := 0, idx; j < jMax; j++ {
				x -= a.At(i, j) * mat.Conj(a.At(idx, j))
			}
			a.Set(i, idx, mat.ScaleReal(x, r))
		}
	}
	return nil
}

// SolveLltInPlace solves op(L·Lᴴ)·X = rhs in place, given the factor
// computed by Llt.
func SolveLltInPlace[T mat.Scalar](l mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	triangular.SolveLowerInPlace(l, conj, rhs, par)
	triangular.SolveUpperInPlace(l.Transpose(), !conj, rhs, par)
}
