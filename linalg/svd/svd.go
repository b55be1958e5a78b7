// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"errors"

	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/linalg/qr"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// ErrConvergence is returned when the bidiagonal QR iteration fails to
// converge within its iteration budget.
var ErrConvergence = errors.New("svd: iteration limit exceeded")

// Inputs at most this size skip the bidiagonalization and go straight to the
// Jacobi solver after a column-pivoted QR step.
const jacobiFallbackThreshold = 4

// ComputeScratch is the workspace requirement of Compute for a rows×cols
// input. uCols and vCols are the column counts of the requested singular
// vector matrices, or zero when the corresponding side is not wanted.
func ComputeScratch(rows, cols, uCols, vCols int) mat.Scratch {
	if cols > rows {
		rows, cols = cols, rows
		uCols, vCols = vCols, uCols
	}
	m, n := rows, cols
	if n == 0 {
		return mat.Scratch{}
	}
	bs := qr.RecommendedBlocksize(m, n)

	if n <= jacobiFallbackThreshold {
		return mat.ScratchMat(m, n).
			And(mat.ScratchMat(n, n)).
			And(mat.ScratchMat(bs, n)).
			And(qr.FactorColPivotScratch(m, n, bs).
				Or(householder.ApplyScratch(bs, uCols)))
	}

	req := mat.ScratchMat(m, n).
		And(mat.ScratchMat(bs, n)).
		And(mat.ScratchMat(bs, n-1)).
		And(mat.ScratchElems(2 * n))
	if uCols > 0 {
		req = req.And(mat.ScratchMat(n, n))
	}
	if vCols > 0 {
		req = req.And(mat.ScratchMat(n, n))
	}
	return req.And(BidiagonalizeScratch(m, n).
		Or(householder.ApplyScratch(bs, max(uCols, vCols))))
}

// Compute writes the singular values of a into s in decreasing order and,
// when u and v are non-nil, fills them with the left and right singular
// vectors: A = U·diag(s)·Vᵀ. With a of size m×n and m ≥ n, u must be m×n for
// the thin factorization or m×m for the full one, and v must be n×n; for
// m < n the roles of u and v swap accordingly. The first min(m, n) entries of
// s are written.
func Compute[T mat.Float](a mat.Mat[T], s []T, u, v *mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) error {
	if a.Cols() > a.Rows() {
		return Compute(a.Transpose(), s, v, u, par, stack)
	}
	m := a.Rows()
	n := a.Cols()
	if len(s) < n {
		panic("svd: singular value slice too short")
	}
	if u != nil {
		if u.Rows() != m || (u.Cols() != m && u.Cols() != n) {
			panic("svd: u must be m×n or m×m")
		}
	}
	if v != nil && (v.Rows() != n || v.Cols() != n) {
		panic("svd: v must be n×n")
	}

	if n == 0 {
		if u != nil {
			u.Identity()
		}
		return nil
	}

	bs := qr.RecommendedBlocksize(m, n)

	if n <= jacobiFallbackThreshold {
		qrm, stack := stack.Mat(m, n)
		r, stack := stack.Mat(n, n)
		factor, stack := stack.Mat(bs, n)

		qrm.CopyFrom(a)
		perm := qr.FactorColPivot(qrm, factor, par, stack)

		// r = R·P⁻¹ so that A = Q·r.
		inv := perm.Inverse().Forward()
		for j, jMax := 0, n; j < jMax; j++ {
			sj := inv[j]
			for i, iMax := 0, n; i < iMax; i++ {
				if i <= sj {
					r.Set(i, j, qrm.At(i, sj))
				} else {
					r.Set(i, j, 0)
				}
			}
		}

		var uSmall mat.Mat[T]
		var uSmallPtr *mat.Mat[T]
		if u != nil {
			uSmall = u.Submatrix(0, 0, n, n)
			uSmallPtr = &uSmall
		}
		JacobiSVD(r, uSmallPtr, v, SkipNone)
		for j, jMax := 0, n; j < jMax; j++ {
			s[j] = r.At(j, j)
		}

		if u != nil {
			ucols := u.Cols()
			if m > n {
				u.Submatrix(n, 0, m-n, ucols).Fill(0)
			}
			if ucols > n {
				u.Submatrix(0, n, n, ucols-n).Fill(0)
			}
			for i := n; i < min(m, ucols); i++ {
				u.Set(i, i, 1)
			}
			householder.ApplySeqOnLeft(qrm, factor, false, *u, par, stack)
		}
		return nil
	}

	bid, stack := stack.Mat(m, n)
	factorLeft, stack := stack.Mat(bs, n)
	factorRight, stack := stack.Mat(bs, n-1)

	bid.CopyFrom(a)
	Bidiagonalize(bid, factorLeft, factorRight, par, stack)

	diag, stack := stack.Elems(n)
	off, stack := stack.Elems(n)
	for i, iMax := 0, n; i < iMax; i++ {
		diag[i] = bid.At(i, i)
	}
	for i, iMax := 0, n-1; i < iMax; i++ {
		off[i] = bid.At(i, i+1)
	}
	off[n-1] = 0

	var x, y mat.Mat[T]
	var xPtr, yPtr *mat.Mat[T]
	if u != nil {
		x, stack = stack.Mat(n, n)
		xPtr = &x
	}
	if v != nil {
		y, stack = stack.Mat(n, n)
		yPtr = &y
	}

	if err := bidiagSVD(diag, off, xPtr, yPtr); err != nil {
		return err
	}
	for j, jMax := 0, n; j < jMax; j++ {
		s[j] = diag[j]
	}

	if u != nil {
		ucols := u.Cols()
		u.Submatrix(0, 0, n, n).CopyFrom(x)
		if m > n {
			u.Submatrix(n, 0, m-n, ucols).Fill(0)
		}
		if ucols > n {
			u.Submatrix(0, n, n, ucols-n).Fill(0)
		}
		for i := n; i < min(m, ucols); i++ {
			u.Set(i, i, 1)
		}
		householder.ApplySeqOnLeft(bid, factorLeft, false, *u, par, stack)
	}
	if v != nil {
		v.CopyFrom(y)
		householder.ApplySeqOnLeft(
			bid.Submatrix(0, 1, m, n-1).Transpose(), factorRight, false,
			v.Submatrix(1, 0, n-1, n), par, stack,
		)
	}
	return nil
}
