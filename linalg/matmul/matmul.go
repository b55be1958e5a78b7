// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package matmul

import (
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

const (
	// Minimum m*n*k before parallel decomposition pays off.
	minParallelOps = 64 * 64 * 64
	// Rows per parallel strip.
	rowsPerStrip = 64
)

// MatMul computes
//
//	dst = base + alpha * op(lhs) * op(rhs)
//
// where base is dst itself when accumulate is true and zero otherwise, and
// op conjugates its operand elementwise when the matching flag is set (no
// transposition; pass a transposed view for that). Shapes must agree:
// dst is m×n, lhs m×k, rhs k×n. Panics on mismatch.
func MatMul[T mat.Scalar](dst, lhs mat.Mat[T], conjLHS bool, rhs mat.Mat[T], conjRHS bool, accumulate bool, alpha T, par parallel.Parallelism) {
	m, n := dst.Rows(), dst.Cols()
	k := lhs.Cols()
	if lhs.Rows() != m || rhs.Rows() != k || rhs.Cols() != n {
		panic("matmul: dimension mismatch")
	}
	if m == 0 || n == 0 {
		return
	}
	if k == 0 {
		if !accumulate {
			dst.Fill(0)
		}
		return
	}

	if par.Degree() > 1 && m*n*k >= minParallelOps && m >= 2*rowsPerStrip {
		strips := (m + rowsPerStrip - 1) / rowsPerStrip
		parallel.ForEach(strips, func(s int) {
			i0 := s * rowsPerStrip
			rows := min(rowsPerStrip, m-i0)
			matMulSeq(dst.Submatrix(i0, 0, rows, n), lhs.Submatrix(i0, 0, rows, k), conjLHS, rhs, conjRHS, accumulate, alpha)
		}, par)
		return
	}
	matMulSeq(dst, lhs, conjLHS, rhs, conjRHS, accumulate, alpha)
}

func matMulSeq[T mat.Scalar](dst, lhs mat.Mat[T], conjLHS bool, rhs mat.Mat[T], conjRHS bool, accumulate bool, alpha T) {
	bp := DefaultBlockParams()
	m, n := dst.Rows(), dst.Cols()
	k := lhs.Cols()
	for i0 := 0; i0 < m; i0 += bp.Mc {
		mb := min(bp.Mc, m-i0)
		for p0 := 0; p0 < k; p0 += bp.Kc {
			kb := min(bp.Kc, k-p0)
			// Only the first K-strip may overwrite; later strips accumulate
			// onto the partial result.
			acc := accumulate || p0 > 0
			for j0 := 0; j0 < n; j0 += bp.Nc {
				nb := min(bp.Nc, n-j0)
				matMulTile(
					dst.Submatrix(i0, j0, mb, nb),
					lhs.Submatrix(i0, p0, mb, kb), conjLHS,
					rhs.Submatrix(p0, j0, kb, nb), conjRHS,
					acc, alpha,
				)
			}
		}
	}
}

func matMulTile[T mat.Scalar](dst, lhs mat.Mat[T], conjLHS bool, rhs mat.Mat[T], conjRHS bool, accumulate bool, alpha T) {
	m, n := dst.Rows(), dst.Cols()
	k := lhs.Cols()
	if !conjLHS && !conjRHS {
		for i, iMax := 0, m; i < iMax; i++ {
			for j, jMax := 0, n; j < jMax; j++ {
				var acc T
				for p, pMax := 0, k; p < pMax; p++ {
					acc += lhs.At(i, p) * rhs.At(p, j)
				}
				v := alpha * acc
				if accumulate {
					v += dst.At(i, j)
				}
				dst.Set(i, j, v)
			}
		}
		return
	}
	for i, iMax := 0, m; i < iMax; i++ {
		for j, jMax := 0, n; j < jMax; j++ {
			var acc T
			for p, pMax := 0, k; p < pMax; p++ {
				l := lhs.At(i, p)
				if conjLHS {
					l = mat.Conj(l)
				}
				r := rhs.At(p, j)
				if conjRHS {
					r = mat.Conj(r)
				}
				acc += l * r
			}
			v := alpha * acc
			if accumulate {
				v += dst.At(i, j)
			}
			dst.Set(i, j, v)
		}
	}
}
