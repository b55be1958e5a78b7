// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package householder constructs and applies block Householder
// transformations in the compact WY representation.
//
// A sequence of reflectors is stored as a trapezoid of essential vectors (the
// implicit-unit columns below the diagonal of the factored matrix) plus a
// blocksize×size factor matrix: each blocksize-wide group of columns owns the
// upper triangular T block sitting on the factor's diagonal band, with the
// reflector taus on its diagonal. The block transformation is
// I - V·T⁻¹·Vᴴ, so applying it costs two multiplies and one triangular solve
// against T, with a blocksize×cols temporary from the caller's stack.
//
// Factorizations produce taus in row 0 of the factor (blocksize 1);
// UpgradeFactor merges them into wider T blocks in place.
package householder

import (
	"math"

	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// Make builds the Householder reflector mapping the vector with the given
// head and tail onto a multiple of the first basis vector. essential holds
// the tail on input and the essential part of the reflector (scaled so the
// implicit head is one) on output; tailSquaredNorm is the squared norm of the
// tail. It returns the reflector's tau and the produced head coefficient
// beta. A zero input yields an infinite tau, which makes the transformation
// the identity.
func Make[T mat.Scalar](essential mat.Mat[T], head T, tailSquaredNorm float64) (tau, beta T) {
	if essential.Cols() != 1 {
		panic("householder: essential must be a column")
	}
	headSq := mat.Abs2(head)
	norm := math.Sqrt(headSq + tailSquaredNorm)

	sign := T(1)
	if head != 0 {
		sign = mat.ScaleReal(head, 1/math.Sqrt(headSq))
	}
	signedNorm := mat.ScaleReal(sign, norm)
	headWithBeta := head + signedNorm
	if headWithBeta == 0 {
		return mat.FromReal[T](math.Inf(1)), 0
	}
	inv := T(1) / headWithBeta
	for i, iMax := 0, essential.Rows(); i < iMax; i++ {
		essential.Scale(i, 0, inv)
	}
	tau = mat.FromReal[T](0.5 * (1 + tailSquaredNorm*mat.Abs2(inv)))
	return tau, -signedNorm
}

// UpgradeFactor rewrites a Householder factor computed at prevBlocksize into
// one valid at blocksize, in place. factor's diagonal band must already hold
// the prevBlocksize-level T blocks (taus on the diagonal for prevBlocksize
// 1); essentials is the full reflector trapezoid. blocksize must be a
// multiple of prevBlocksize.
func UpgradeFactor[T mat.Scalar](factor, essentials mat.Mat[T], blocksize, prevBlocksize int, par parallel.Parallelism) {
	if blocksize == prevBlocksize || factor.Rows() <= prevBlocksize {
		return
	}
	if factor.Rows() != factor.Cols() {
		panic("householder: factor must be square")
	}
	if blocksize <= prevBlocksize || blocksize%prevBlocksize != 0 {
		panic("householder: invalid blocksize pair")
	}

	size := factor.Rows()
	blockCount := (size + blocksize - 1) / blocksize
	if blockCount > 1 {
		idx := (blockCount / 2) * blocksize
		tl := factor.Submatrix(0, 0, idx, idx)
		br := factor.Submatrix(idx, idx, size-idx, size-idx)
		basisLeft := essentials.Submatrix(0, 0, essentials.Rows(), idx)
		basisRight := essentials.Submatrix(idx, idx, essentials.Rows()-idx, size-idx)
		parallel.Join(
			func(p parallel.Parallelism) { UpgradeFactor(tl, basisLeft, blocksize, prevBlocksize, p) },
			func(p parallel.Parallelism) { UpgradeFactor(br, basisRight, blocksize, prevBlocksize, p) },
			par,
		)
		return
	}

	if prevBlocksize < 8 {
		// Cheap enough to recompute the whole strict upper part from the
		// basis; the diagonal keeps the taus.
		basisTop := essentials.Submatrix(0, 0, size, size)
		basisBot := essentials.Submatrix(size, 0, essentials.Rows()-size, size)
		matmul.TriMatMul(
			factor, matmul.UnitTriangularUpper,
			basisTop.Transpose(), matmul.UnitTriangularUpper, true,
			basisTop, matmul.UnitTriangularLower, false,
			false, T(1), par,
		)
		matmul.TriMatMul(
			factor, matmul.UnitTriangularUpper,
			basisBot.Transpose(), matmul.Rectangular, true,
			basisBot, matmul.Rectangular, false,
			true, T(1), par,
		)
		return
	}

	prevBlockCount := (size + prevBlocksize - 1) / prevBlocksize
	idx := (prevBlockCount / 2) * prevBlocksize
	tl := factor.Submatrix(0, 0, idx, idx)
	tr := factor.Submatrix(0, idx, idx, size-idx)
	br := factor.Submatrix(idx, idx, size-idx, size-idx)
	basisLeft := essentials.Submatrix(0, 0, essentials.Rows(), idx)
	basisRight := essentials.Submatrix(idx, idx, essentials.Rows()-idx, size-idx)

	parallel.Join(
		func(p parallel.Parallelism) {
			parallel.Join(
				func(p parallel.Parallelism) { UpgradeFactor(tl, basisLeft, blocksize, prevBlocksize, p) },
				func(p parallel.Parallelism) { UpgradeFactor(br, basisRight, blocksize, prevBlocksize, p) },
				p,
			)
		},
		func(p parallel.Parallelism) {
			rightCols := size - idx
			sub := basisLeft.Submatrix(idx, 0, basisLeft.Rows()-idx, idx)
			leftTop := sub.Submatrix(0, 0, rightCols, idx)
			leftBot := sub.Submatrix(rightCols, 0, sub.Rows()-rightCols, idx)
			rightTop := basisRight.Submatrix(0, 0, rightCols, rightCols)
			rightBot := basisRight.Submatrix(rightCols, 0, basisRight.Rows()-rightCols, rightCols)

			matmul.TriMatMul(
				tr, matmul.Rectangular,
				leftTop.Transpose(), matmul.Rectangular, true,
				rightTop, matmul.UnitTriangularLower, false,
				false, T(1), p,
			)
			matmul.MatMul(tr, leftBot.Transpose(), true, rightBot, false, true, T(1), p)
		},
		par,
	)
}

// ApplyScratch is the workspace requirement of the block and sequence apply
// functions, for the given blocksize and applied-to column count.
func ApplyScratch(blocksize, cols int) mat.Scratch {
	return mat.ScratchMat(blocksize, cols)
}

func applyBlockOnLeftGeneric[T mat.Scalar](
	basis, factor mat.Mat[T], conjLHS bool,
	m mat.Mat[T], forward bool,
	par parallel.Parallelism, stack mat.Stack[T],
) {
	if factor.Rows() != factor.Cols() || basis.Cols() != factor.Rows() {
		panic("householder: basis/factor shape mismatch")
	}
	if m.Rows() != basis.Rows() {
		panic("householder: matrix row count mismatch")
	}

	bs := factor.Rows()
	n := m.Cols()
	basisTop := basis.Submatrix(0, 0, bs, bs)
	basisBot := basis.Submatrix(bs, 0, basis.Rows()-bs, bs)
	mTop := m.Submatrix(0, 0, bs, n)
	mBot := m.Submatrix(bs, 0, m.Rows()-bs, n)

	tmp, _ := stack.Mat(bs, n)

	matmul.TriMatMul(
		tmp, matmul.Rectangular,
		basisTop.Transpose(), matmul.UnitTriangularUpper, !conjLHS,
		mTop, matmul.Rectangular, false,
		false, T(1), par,
	)
	matmul.MatMul(tmp, basisBot.Transpose(), !conjLHS, mBot, false, true, T(1), par)

	if forward {
		triangular.SolveLowerInPlace(factor.Transpose(), !conjLHS, tmp, par)
	} else {
		triangular.SolveUpperInPlace(factor, conjLHS, tmp, par)
	}

	matmul.TriMatMul(
		mTop, matmul.Rectangular,
		basisTop, matmul.UnitTriangularLower, conjLHS,
		tmp, matmul.Rectangular, false,
		true, T(-1), par,
	)
	matmul.MatMul(mBot, basisBot, conjLHS, tmp, false, true, T(-1), par)
}

// ApplyBlockOnLeft overwrites m with H·m where H is the block transformation
// described by basis and factor, conjugated elementwise when conjLHS is set.
func ApplyBlockOnLeft[T mat.Scalar](basis, factor mat.Mat[T], conjLHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	applyBlockOnLeftGeneric(basis, factor, conjLHS, m, false, par, stack)
}

// ApplyBlockTransposeOnLeft overwrites m with Hᵀ·m.
func ApplyBlockTransposeOnLeft[T mat.Scalar](basis, factor mat.Mat[T], conjLHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	applyBlockOnLeftGeneric(basis, factor, !conjLHS, m, true, par, stack)
}

// ApplyBlockOnRight overwrites m with m·H.
func ApplyBlockOnRight[T mat.Scalar](basis, factor mat.Mat[T], conjRHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	ApplyBlockTransposeOnLeft(basis, factor, conjRHS, m.Transpose(), par, stack)
}

// ApplyBlockTransposeOnRight overwrites m with m·Hᵀ.
func ApplyBlockTransposeOnRight[T mat.Scalar](basis, factor mat.Mat[T], conjRHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	ApplyBlockOnLeft(basis, factor, conjRHS, m.Transpose(), par, stack)
}

// ApplySeqOnLeft applies the whole sequence of block transformations to m
// from the left, walking the blocks from the last to the first. basis is the
// full reflector trapezoid; factor is blocksize×size.
func ApplySeqOnLeft[T mat.Scalar](basis, factor mat.Mat[T], conjLHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	blocksize := factor.Rows()
	if blocksize == 0 {
		panic("householder: empty factor")
	}
	rows := basis.Rows()
	k := m.Cols()
	size := factor.Cols()

	j := size
	bs := size % blocksize
	if bs == 0 {
		bs = blocksize
	}
	for j > 0 {
		j -= bs
		essentials := basis.Submatrix(j, j, rows-j, bs)
		block := factor.Submatrix(0, j, bs, bs)
		ApplyBlockOnLeft(essentials, block, conjLHS, m.Submatrix(j, 0, rows-j, k), par, stack)
		bs = blocksize
	}
}

// ApplySeqTransposeOnLeft applies the transposed sequence to m from the
// left, walking the blocks from the first to the last.
func ApplySeqTransposeOnLeft[T mat.Scalar](basis, factor mat.Mat[T], conjLHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	blocksize := factor.Rows()
	if blocksize == 0 {
		panic("householder: empty factor")
	}
	rows := basis.Rows()
	k := m.Cols()
	size := factor.Cols()

	for j := 0; j < size; {
		bs := min(blocksize, size-j)
		essentials := basis.Submatrix(j, j, rows-j, bs)
		block := factor.Submatrix(0, j, bs, bs)
		ApplyBlockTransposeOnLeft(essentials, block, conjLHS, m.Submatrix(j, 0, rows-j, k), par, stack)
		j += bs
	}
}

// ApplySeqOnRight overwrites m with m·H for the whole sequence.
func ApplySeqOnRight[T mat.Scalar](basis, factor mat.Mat[T], conjRHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	ApplySeqTransposeOnLeft(basis, factor, conjRHS, m.Transpose(), par, stack)
}

// ApplySeqTransposeOnRight overwrites m with m·Hᵀ for the whole sequence.
func ApplySeqTransposeOnRight[T mat.Scalar](basis, factor mat.Mat[T], conjRHS bool, m mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	ApplySeqOnLeft(basis, factor, conjRHS, m.Transpose(), par, stack)
}
