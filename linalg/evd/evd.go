// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package evd

import (
	"errors"
	"math"

	"github.com/ajroetker/go-dense/linalg/householder"
	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/qr"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// ErrConvergence is returned when an eigenvalue iteration exceeds its
// iteration bound.
var ErrConvergence = errors.New("evd: iteration limit exceeded")

// SelfAdjointScratch is the workspace requirement of SelfAdjoint for a
// dim×dim matrix.
func SelfAdjointScratch(dim int, withVectors bool) mat.Scratch {
	if dim == 0 {
		return mat.Scratch{}
	}
	bs := qr.RecommendedBlocksize(dim-1, dim-1)
	base := mat.ScratchMat(dim, dim).And(mat.ScratchMat(bs, dim-1))

	stages := TridiagonalizeScratch(dim)
	condensed := mat.ScratchReals(2*dim - 1)
	if withVectors {
		stages = stages.Or(condensed.
			And(mat.ScratchRealMat(dim, dim)).
			And(mat.ScratchElems(dim)).
			And(householder.ApplyScratch(bs, dim)))
	} else {
		stages = stages.Or(condensed)
	}
	return base.And(stages)
}

// SelfAdjoint computes the eigenvalue decomposition of the self-adjoint
// matrix whose lower triangle a holds. The eigenvalues are written to s in
// ascending order; if u is non-nil it receives the corresponding orthonormal
// eigenvectors as columns. Only the lower triangle of a is read; a is not
// modified.
func SelfAdjoint[T mat.Scalar](a mat.Mat[T], s []float64, u *mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) error {
	n := a.Rows()
	if a.Cols() != n {
		panic("evd: matrix must be square")
	}
	if len(s) != n {
		panic("evd: eigenvalue slice length mismatch")
	}
	if u != nil && (u.Rows() != n || u.Cols() != n) {
		panic("evd: eigenvector matrix must be n×n")
	}
	if n == 0 {
		return nil
	}

	trid, stack := stack.Mat(n, n)
	for j, jMax := 0, n; j < jMax; j++ {
		for i := j; i < n; i++ {
			trid.Set(i, j, a.At(i, j))
		}
	}

	bs := qr.RecommendedBlocksize(n-1, n-1)
	factor, stack := stack.Mat(bs, max(n-1, 0))

	Tridiagonalize(trid, factor, par, stack)

	diag, stack := stack.Reals(n)
	offdiag, stack := stack.Reals(n - 1)
	for i, iMax := 0, n; i < iMax; i++ {
		diag[i] = mat.Real(trid.At(i, i))
	}
	for i, iMax := 0, n-1; i < iMax; i++ {
		offdiag[i] = mat.Abs(trid.At(i+1, i))
	}

	if u == nil {
		if err := TridiagQR(diag, offdiag, nil); err != nil {
			return err
		}
		copy(s, diag)
		return nil
	}

	uReal, stack := stack.RealMat(n, n)
	mul, stack := stack.Elems(n)

	// The condensed problem is real; the subdiagonal phases lost by taking
	// moduli are restored per row after the real solve.
	normalized := func(x T) T {
		if x == 0 {
			return 1
		}
		return mat.ScaleReal(x, 1/mat.Abs(x))
	}
	mul[0] = 1
	phase := T(1)
	for i := 1; i < n; i++ {
		phase = mat.Conj(normalized(trid.At(i, i-1) * mat.Conj(phase)))
		mul[i] = mat.Conj(phase)
	}

	if err := TridiagQR(diag, offdiag, &uReal); err != nil {
		return err
	}
	copy(s, diag)

	for j, jMax := 0, n; j < jMax; j++ {
		for i, iMax := 0, n; i < iMax; i++ {
			u.Set(i, j, mat.ScaleReal(mul[i], uReal.At(i, j)))
		}
	}

	householder.ApplySeqOnLeft(
		trid.Submatrix(1, 0, n-1, n-1), factor, false,
		u.Submatrix(1, 0, n-1, n), par, stack,
	)
	return nil
}

// RealScratch is the workspace requirement of Real for a dim×dim matrix.
func RealScratch(dim int, withVectors bool) mat.Scratch {
	if dim <= 1 {
		return mat.ScratchMat(dim, dim)
	}
	bs := qr.RecommendedBlocksize(dim-1, dim-1)
	base := mat.ScratchMat(dim, dim).And(mat.ScratchMat(bs, dim-1))
	stages := HessenbergScratch(dim)
	if withVectors {
		base = base.And(mat.ScratchMat(dim, dim))
		stages = stages.
			Or(householder.ApplyScratch(bs, dim-1)).
			Or(mat.ScratchMat(dim, dim))
	}
	return base.And(stages)
}

// Real computes the eigenvalue decomposition of a general real square
// matrix. The eigenvalues are written to sRe and sIm; complex conjugate
// pairs occupy consecutive positions, the one with positive imaginary part
// first. If u is non-nil it receives the eigenvectors: one column per real
// eigenvalue, and for each complex pair the real and imaginary parts of the
// eigenvector of the first member. a is not modified.
func Real[T mat.Float](a mat.Mat[T], sRe, sIm []T, u *mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) error {
	n := a.Rows()
	if a.Cols() != n {
		panic("evd: matrix must be square")
	}
	if len(sRe) != n || len(sIm) != n {
		panic("evd: eigenvalue slice length mismatch")
	}
	if u != nil && (u.Rows() != n || u.Cols() != n) {
		panic("evd: eigenvector matrix must be n×n")
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		sRe[0] = a.At(0, 0)
		sIm[0] = 0
		if u != nil {
			u.Set(0, 0, 1)
		}
		return nil
	}

	h, stack := stack.Mat(n, n)
	h.CopyFrom(a)

	var z mat.Mat[T]
	var zp *mat.Mat[T]
	if u != nil {
		z, stack = stack.Mat(n, n)
		z.Fill(0)
		for i, iMax := 0, n; i < iMax; i++ {
			z.Set(i, i, 1)
		}
		zp = &z
	}

	bs := qr.RecommendedBlocksize(n-1, n-1)
	factor, stack := stack.Mat(bs, n-1)
	Hessenberg(h, factor, par, stack)
	if u != nil {
		householder.ApplySeqOnRight(
			h.Submatrix(1, 0, n-1, n-1), factor, false,
			z.Submatrix(1, 1, n-1, n-1), par, stack,
		)
	}
	for j, jMax := 0, n; j < jMax; j++ {
		for i := j + 2; i < n; i++ {
			h.Set(i, j, 0)
		}
	}

	if err := realSchur(h, zp, sRe, sIm); err != nil {
		return err
	}
	if u == nil {
		return nil
	}

	x, _ := stack.Mat(n, n)
	x.Fill(0)
	eigenvectorsFromSchur(h, x)

	matmul.TriMatMul(
		*u, matmul.Rectangular,
		z, matmul.Rectangular, false,
		x, matmul.TriangularUpper, false,
		false, T(1), par,
	)
	return nil
}

type cpx[T mat.Float] struct{ re, im T }

func cadd[T mat.Float](a, b cpx[T]) cpx[T] { return cpx[T]{a.re + b.re, a.im + b.im} }
func csub[T mat.Float](a, b cpx[T]) cpx[T] { return cpx[T]{a.re - b.re, a.im - b.im} }

func cmul[T mat.Float](a, b cpx[T]) cpx[T] {
	return cpx[T]{a.re*b.re - a.im*b.im, a.re*b.im + a.im*b.re}
}

func cscale[T mat.Float](a cpx[T], r T) cpx[T] { return cpx[T]{a.re * r, a.im * r} }

func cinv[T mat.Float](a cpx[T]) cpx[T] {
	if fabs(a.re) >= fabs(a.im) {
		r := a.im / a.re
		den := a.re + a.im*r
		return cpx[T]{1 / den, -r / den}
	}
	r := a.re / a.im
	den := a.re*r + a.im
	return cpx[T]{r / den, -1 / den}
}

// eigenvectorsFromSchur back-substitutes through the quasi-triangular Schur
// matrix h, filling x with the eigenvectors of h column by column. A zero
// diagonal pivot is replaced by eps times the norm of h so that defective
// problems still produce finite output.
func eigenvectorsFromSchur[T mat.Float](h, x mat.Mat[T]) {
	n := h.Rows()
	eps := T(mat.Epsilon[T]())

	norm := T(mat.ZeroThreshold[T]())
	for j, jMax := 0, n; j < jMax; j++ {
		top := min(j+1, n-1)
		for i := 0; i <= top; i++ {
			norm += fabs(h.At(i, j))
		}
	}

	k := n
	for k > 0 {
		k--

		if k == 0 || h.At(k, k-1) == 0 {
			// Real eigenvalue: solve (h[:k, :k] - p·I)·x = -h[:k, k].
			p := h.At(k, k)
			x.Set(k, k, 1)
			for i, iMax := 0, k; i < iMax; i++ {
				x.Set(i, k, -h.At(i, k))
			}

			i := k
			for i > 0 {
				i--
				if i == 0 || h.At(i, i-1) == 0 {
					var dot T
					for j := i + 1; j < k; j++ {
						dot += h.At(i, j) * x.At(j, k)
					}
					x.Set(i, k, x.At(i, k)-dot)

					zv := h.At(i, i) - p
					if zv == 0 {
						zv = eps * norm
					}
					if xv := x.At(i, k); xv != 0 {
						x.Set(i, k, xv/zv)
					}
				} else {
					var dot0, dot1 T
					for j := i + 1; j < k; j++ {
						dot0 += h.At(i-1, j) * x.At(j, k)
						dot1 += h.At(i, j) * x.At(j, k)
					}
					x.Set(i-1, k, x.At(i-1, k)-dot0)
					x.Set(i, k, x.At(i, k)-dot1)

					// [a b; c a]·[x0; x1] = [r0; r1]
					av := h.At(i, i) - p
					bv := h.At(i-1, i)
					cv := h.At(i, i-1)
					r0 := x.At(i-1, k)
					r1 := x.At(i, k)
					invDet := 1 / (av*av - bv*cv)
					x.Set(i-1, k, (av*r0-bv*r1)*invDet)
					x.Set(i, k, (av*r1-cv*r0)*invDet)
					i--
				}
			}
			continue
		}

		// Complex pair: columns k-1 and k hold the real and imaginary
		// parts, solving (h[:k-1, :k-1] - (p + iq)·I)·x = rhs.
		p := h.At(k, k)
		q := T(math.Sqrt(float64(fabs(h.At(k, k-1))))) * T(math.Sqrt(float64(fabs(h.At(k-1, k)))))

		if fabs(h.At(k-1, k)) >= h.At(k, k-1) {
			x.Set(k-1, k-1, 1)
			x.Set(k, k, q/h.At(k-1, k))
		} else {
			x.Set(k-1, k-1, -q/h.At(k, k-1))
			x.Set(k, k, 1)
		}
		x.Set(k-1, k, 0)
		x.Set(k, k-1, 0)

		for i, iMax := 0, k-1; i < iMax; i++ {
			x.Set(i, k-1, -x.At(k-1, k-1)*h.At(i, k-1))
			x.Set(i, k, -x.At(k, k)*h.At(i, k))
		}

		i := k - 1
		for i > 0 {
			i--
			if i == 0 || h.At(i, i-1) == 0 {
				var dot cpx[T]
				for j := i + 1; j < k-1; j++ {
					dot = cadd(dot, cscale(cpx[T]{x.At(j, k-1), x.At(j, k)}, h.At(i, j)))
				}
				x.Set(i, k-1, x.At(i, k-1)-dot.re)
				x.Set(i, k, x.At(i, k)-dot.im)

				zinv := cinv(cpx[T]{h.At(i, i) - p, -q})
				xv := cpx[T]{x.At(i, k-1), x.At(i, k)}
				if xv.re != 0 || xv.im != 0 {
					xv = cmul(zinv, xv)
					x.Set(i, k-1, xv.re)
					x.Set(i, k, xv.im)
				}
			} else {
				var dot0, dot1 cpx[T]
				for j := i + 1; j < k-1; j++ {
					xc := cpx[T]{x.At(j, k-1), x.At(j, k)}
					dot0 = cadd(dot0, cscale(xc, h.At(i-1, j)))
					dot1 = cadd(dot1, cscale(xc, h.At(i, j)))
				}
				x.Set(i-1, k-1, x.At(i-1, k-1)-dot0.re)
				x.Set(i-1, k, x.At(i-1, k)-dot0.im)
				x.Set(i, k-1, x.At(i, k-1)-dot1.re)
				x.Set(i, k, x.At(i, k)-dot1.im)

				av := cpx[T]{h.At(i, i) - p, -q}
				bv := h.At(i-1, i)
				cv := h.At(i, i-1)
				r0 := cpx[T]{x.At(i-1, k-1), x.At(i-1, k)}
				r1 := cpx[T]{x.At(i, k-1), x.At(i, k)}

				invDet := cinv(csub(cmul(av, av), cpx[T]{bv * cv, 0}))
				x0 := cmul(csub(cmul(av, r0), cscale(r1, bv)), invDet)
				x1 := cmul(csub(cmul(av, r1), cscale(r0, cv)), invDet)

				x.Set(i-1, k-1, x0.re)
				x.Set(i-1, k, x0.im)
				x.Set(i, k-1, x1.re)
				x.Set(i, k, x1.im)
				i--
			}
		}
		k--
	}
}
