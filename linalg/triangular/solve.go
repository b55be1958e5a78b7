// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package triangular provides in-place solves against lower and upper
// triangular matrices, in plain and unit-diagonal variants.
//
// The solves recurse on the triangle: the split point is chosen so the
// trailing block is a multiple of a SIMD-friendly width, the top block is
// solved, the rectangle below it is folded into the remaining right-hand side
// with one multiply, and the trailing triangle is solved. Triangles of
// dimension four or less are handled by unrolled substitution with
// precomputed diagonal inverses. Wide right-hand sides fork on their column
// halves while the triangle still fits in cache.
//
// The upper variants run the lower kernel on views with reversed rows and
// columns, so all four share one implementation.
package triangular

import (
	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

const recursionThreshold = 4

// SolveLowerInPlace solves op(L)·X = rhs and stores X in rhs, where L is
// tri's lower triangle (diagonal included) and op conjugates elementwise when
// conj is set. The strictly upper part of tri is not accessed.
func SolveLowerInPlace[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	checkSolve(tri, rhs)
	solveLower(tri, conj, rhs, par, false)
}

// SolveUnitLowerInPlace is SolveLowerInPlace with an implicit unit diagonal;
// tri's diagonal is not accessed.
func SolveUnitLowerInPlace[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	checkSolve(tri, rhs)
	solveLower(tri, conj, rhs, par, true)
}

// SolveUpperInPlace solves op(U)·X = rhs and stores X in rhs, where U is
// tri's upper triangle (diagonal included).
func SolveUpperInPlace[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	checkSolve(tri, rhs)
	solveLower(tri.ReverseBoth(), conj, rhs.ReverseRows(), par, false)
}

// SolveUnitUpperInPlace is SolveUpperInPlace with an implicit unit diagonal.
func SolveUnitUpperInPlace[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism) {
	checkSolve(tri, rhs)
	solveLower(tri.ReverseBoth(), conj, rhs.ReverseRows(), par, true)
}

func checkSolve[T mat.Scalar](tri, rhs mat.Mat[T]) {
	if tri.Rows() != tri.Cols() {
		panic("triangular: matrix must be square")
	}
	if rhs.Rows() != tri.Cols() {
		panic("triangular: rhs row count mismatch")
	}
}

func solveLower[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T], par parallel.Parallelism, unit bool) {
	n := tri.Rows()
	k := rhs.Cols()

	if k > 64 && n <= 128 {
		left := rhs.Submatrix(0, 0, n, k/2)
		right := rhs.Submatrix(0, k/2, n, k-k/2)
		parallel.Join(
			func(p parallel.Parallelism) { solveLower(tri, conj, left, p, unit) },
			func(p parallel.Parallelism) { solveLower(tri, conj, right, p, unit) },
			par,
		)
		return
	}

	if n <= recursionThreshold {
		if unit {
			solveUnitLowerBase(tri, conj, rhs)
		} else {
			solveLowerBase(tri, conj, rhs)
		}
		return
	}

	bs := blocksize(n)
	topLeft := tri.Submatrix(0, 0, bs, bs)
	botLeft := tri.Submatrix(bs, 0, n-bs, bs)
	botRight := tri.Submatrix(bs, bs, n-bs, n-bs)
	rhsTop := rhs.Submatrix(0, 0, bs, k)
	rhsBot := rhs.Submatrix(bs, 0, n-bs, k)

	solveLower(topLeft, conj, rhsTop, par, unit)
	matmul.MatMul(rhsBot, botLeft, conj, rhsTop, false, true, T(-1), par)
	solveLower(botRight, conj, rhsBot, par, unit)
}

// blocksize picks the recursion split so the trailing block dimension is a
// multiple of the register width.
func blocksize(n int) int {
	rem := n / 2
	switch {
	case n >= 32:
		rem = (rem + 15) / 16 * 16
	case n >= 16:
		rem = (rem + 7) / 8 * 8
	case n >= 8:
		rem = (rem + 3) / 4 * 4
	}
	return n - rem
}

func maybeConj[T mat.Scalar](x T, conj bool) T {
	if conj {
		return mat.Conj(x)
	}
	return x
}

func solveLowerBase[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T]) {
	one := T(1)
	switch tri.Rows() {
	case 0:
	case 1:
		inv := one / maybeConj(tri.At(0, 0), conj)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			rhs.Scale(0, j, inv)
		}
	case 2:
		l00Inv := one / maybeConj(tri.At(0, 0), conj)
		l11Inv := one / maybeConj(tri.At(1, 1), conj)
		nl10DivL11 := -(maybeConj(tri.At(1, 0), conj) * l11Inv)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			y0 := rhs.At(0, j) * l00Inv
			y1 := rhs.At(1, j)*l11Inv + nl10DivL11*y0
			rhs.Set(0, j, y0)
			rhs.Set(1, j, y1)
		}
	case 3:
		l00Inv := one / maybeConj(tri.At(0, 0), conj)
		l11Inv := one / maybeConj(tri.At(1, 1), conj)
		l22Inv := one / maybeConj(tri.At(2, 2), conj)
		nl10DivL11 := -(maybeConj(tri.At(1, 0), conj) * l11Inv)
		nl20DivL22 := -(maybeConj(tri.At(2, 0), conj) * l22Inv)
		nl21DivL22 := -(maybeConj(tri.At(2, 1), conj) * l22Inv)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			y0 := rhs.At(0, j) * l00Inv
			y1 := rhs.At(1, j)*l11Inv + nl10DivL11*y0
			y2 := rhs.At(2, j)*l22Inv + nl20DivL22*y0 + nl21DivL22*y1
			rhs.Set(0, j, y0)
			rhs.Set(1, j, y1)
			rhs.Set(2, j, y2)
		}
	default:
		l00Inv := one / maybeConj(tri.At(0, 0), conj)
		l11Inv := one / maybeConj(tri.At(1, 1), conj)
		l22Inv := one / maybeConj(tri.At(2, 2), conj)
		l33Inv := one / maybeConj(tri.At(3, 3), conj)
		nl10DivL11 := -(maybeConj(tri.At(1, 0), conj) * l11Inv)
		nl20DivL22 := -(maybeConj(tri.At(2, 0), conj) * l22Inv)
		nl21DivL22 := -(maybeConj(tri.At(2, 1), conj) * l22Inv)
		nl30DivL33 := -(maybeConj(tri.At(3, 0), conj) * l33Inv)
		nl31DivL33 := -(maybeConj(tri.At(3, 1), conj) * l33Inv)
		nl32DivL33 := -(maybeConj(tri.At(3, 2), conj) * l33Inv)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			y0 := rhs.At(0, j) * l00Inv
			y1 := rhs.At(1, j)*l11Inv + nl10DivL11*y0
			y2 := rhs.At(2, j)*l22Inv + nl20DivL22*y0 + nl21DivL22*y1
			y3 := rhs.At(3, j)*l33Inv + nl30DivL33*y0 + nl31DivL33*y1 + nl32DivL33*y2
			rhs.Set(0, j, y0)
			rhs.Set(1, j, y1)
			rhs.Set(2, j, y2)
			rhs.Set(3, j, y3)
		}
	}
}

func solveUnitLowerBase[T mat.Scalar](tri mat.Mat[T], conj bool, rhs mat.Mat[T]) {
	switch tri.Rows() {
	case 0, 1:
	case 2:
		nl10 := -maybeConj(tri.At(1, 0), conj)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			rhs.Add(1, j, nl10*rhs.At(0, j))
		}
	case 3:
		nl10 := -maybeConj(tri.At(1, 0), conj)
		nl20 := -maybeConj(tri.At(2, 0), conj)
		nl21 := -maybeConj(tri.At(2, 1), conj)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			y0 := rhs.At(0, j)
			y1 := rhs.At(1, j) + nl10*y0
			y2 := rhs.At(2, j) + nl20*y0 + nl21*y1
			rhs.Set(1, j, y1)
			rhs.Set(2, j, y2)
		}
	default:
		nl10 := -maybeConj(tri.At(1, 0), conj)
		nl20 := -maybeConj(tri.At(2, 0), conj)
		nl21 := -maybeConj(tri.At(2, 1), conj)
		nl30 := -maybeConj(tri.At(3, 0), conj)
		nl31 := -maybeConj(tri.At(3, 1), conj)
		nl32 := -maybeConj(tri.At(3, 2), conj)
		for j, jMax := 0, rhs.Cols(); j < jMax; j++ {
			y0 := rhs.At(0, j)
			y1 := rhs.At(1, j) + nl10*y0
			y2 := rhs.At(2, j) + nl20*y0 + nl21*y1
			y3 := rhs.At(3, j) + nl30*y0 + nl31*y1 + nl32*y2
			rhs.Set(1, j, y1)
			rhs.Set(2, j, y2)
			rhs.Set(3, j, y3)
		}
	}
}
