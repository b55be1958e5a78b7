// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package cholesky

import (
	"math"

	"github.com/ajroetker/go-dense/linalg/matmul"
	"github.com/ajroetker/go-dense/linalg/triangular"
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// Pivot records one step of diagonal pivoting. A Pair pivot covers two
// consecutive columns forming a 2×2 block; both columns carry the same
// record.
type Pivot struct {
	Index int
	Pair  bool
}

// BunchKaufmanParams tunes the blocked factorization.
type BunchKaufmanParams struct {
	// Blocksize of the panel factorization. Values below 2 disable blocking.
	Blocksize int
}

// DefaultBunchKaufmanParams returns the default tuning parameters.
func DefaultBunchKaufmanParams() BunchKaufmanParams {
	return BunchKaufmanParams{Blocksize: 64}
}

func bkBlocksize(dim int, params BunchKaufmanParams) int {
	bs := params.Blocksize
	if bs < 2 || dim <= bs {
		return 0
	}
	return bs
}

// BunchKaufmanScratch is the workspace requirement of BunchKaufman for a
// dim×dim matrix.
func BunchKaufmanScratch(dim int, params BunchKaufmanParams) mat.Scratch {
	return mat.ScratchMat(dim, bkBlocksize(dim, params))
}

func bkMakeReal[T mat.Scalar](a mat.Mat[T], i, j int) {
	a.Set(i, j, mat.FromReal[T](mat.Real(a.At(i, j))))
}

// bkBestScoreIdx returns the index and value of the largest modulus in a
// column.
func bkBestScoreIdx[T mat.Scalar](col mat.Mat[T]) (int, float64) {
	best := 0
	score := 0.0
	for i, iMax := 0, col.Rows(); i < iMax; i++ {
		s := mat.Abs(col.At(i, 0))
		if s > score {
			best = i
			score = s
		}
	}
	return best, score
}

func bkBestScore[T mat.Scalar](a mat.Mat[T]) float64 {
	score := 0.0
	for j, jMax := 0, a.Cols(); j < jMax; j++ {
		for i, iMax := 0, a.Rows(); i < iMax; i++ {
			score = math.Max(score, mat.Abs(a.At(i, j)))
		}
	}
	return score
}

// bkAssignCol copies column j of a over column i.
func bkAssignCol[T mat.Scalar](a mat.Mat[T], i, j int) {
	if i == j {
		return
	}
	for r, rMax := 0, a.Rows(); r < rMax; r++ {
		a.Set(r, i, a.At(r, j))
	}
}

func bkSwapElemsConj[T mat.Scalar](a mat.Mat[T], i0, j0, i1, j1 int) {
	tmp := mat.Conj(a.At(i0, j0))
	a.Set(i0, j0, mat.Conj(a.At(i1, j1)))
	a.Set(i1, j1, tmp)
}

// bkBlockedStep factors up to nb columns of a using the work panel w,
// returning the number of columns actually handled. Row swaps for the
// already-factored columns are applied retroactively at the end.
func bkBlockedStep[T mat.Scalar](a, w mat.Mat[T], pivots []Pivot, alpha float64, par parallel.Parallelism) int {
	n := a.Rows()
	nb := w.Cols()
	if n == 0 {
		return 0
	}

	k := 0
	for k < n && k+1 < nb {
		// w[k:, k] holds column k of the updated matrix.
		wCol := w.Submatrix(k, k, n-k, 1)
		wCol.CopyFrom(a.Submatrix(k, k, n-k, 1))
		wRow := w.Submatrix(k, 0, 1, k)
		matmul.MatMul(wCol, a.Submatrix(k, 0, n-k, k), false, wRow.Transpose(), false, true, T(-1), par)
		bkMakeReal(w, k, k)

		kStep := 1
		absAkk := math.Abs(mat.Real(w.At(k, k)))
		imax := 0
		colmax := 0.0
		if k+1 < n {
			imax, colmax = bkBestScoreIdx(w.Submatrix(k+1, k, n-k-1, 1))
		}
		imax += k + 1

		var kp int
		if math.Max(absAkk, colmax) == 0 {
			kp = k
		} else {
			if absAkk >= colmax*alpha {
				kp = k
			} else {
				// Update column imax into w[:, k+1] to measure its row.
				for i := k; i < imax; i++ {
					w.Set(i, k+1, mat.Conj(a.At(imax, i)))
				}
				w.Submatrix(imax, k+1, n-imax, 1).CopyFrom(a.Submatrix(imax, imax, n-imax, 1))
				wCol2 := w.Submatrix(k, k+1, n-k, 1)
				wRow2 := w.Submatrix(imax, 0, 1, k)
				matmul.MatMul(wCol2, a.Submatrix(k, 0, n-k, k), false, wRow2.Transpose(), false, true, T(-1), par)
				bkMakeReal(w, imax, k+1)

				rowmax := math.Max(
					bkBestScore(w.Submatrix(k, k+1, imax-k, 1)),
					bkBestScore(w.Submatrix(imax+1, k+1, n-imax-1, 1)),
				)

				if absAkk >= alpha*colmax*(colmax/rowmax) {
					kp = k
				} else if math.Abs(mat.Real(a.At(imax, imax))) >= alpha*rowmax {
					kp = imax
					bkAssignCol(w.Submatrix(k, 0, n-k, nb), k, k+1)
				} else {
					kp = imax
					kStep = 2
				}
			}

			kk := k + kStep - 1
			if kp != kk {
				// Symmetric swap of rows/columns kk and kp, restricted to
				// the lower triangle.
				a.Set(kp, kp, a.At(kk, kk))
				for j := kk + 1; j < kp; j++ {
					a.Set(kp, j, mat.Conj(a.At(j, kk)))
				}
				bkAssignCol(a.Submatrix(kp+1, 0, n-kp-1, n), kp, kk)
				a.Submatrix(0, 0, n, k).SwapRows(kk, kp)
				w.Submatrix(0, 0, n, kk+1).SwapRows(kk, kp)
			}

			if kStep == 1 {
				a.Submatrix(k, k, n-k, 1).CopyFrom(w.Submatrix(k, k, n-k, 1))
				if k+1 < n {
					d11 := 1 / mat.Real(a.At(k, k))
					for i := k + 1; i < n; i++ {
						a.Set(i, k, mat.ScaleReal(a.At(i, k), d11))
						w.Set(i, k, mat.Conj(w.At(i, k)))
					}
				}
			} else {
				if k+2 < n {
					d21 := w.At(k+1, k)
					d21Inv := T(1) / d21
					d11 := w.At(k+1, k+1) * d21Inv
					d22 := w.At(k, k) * mat.Conj(d21Inv)

					t := 1 / (mat.Real(d11*d22) - 1)
					d21t := mat.ScaleReal(d21Inv, t)

					for j := k + 2; j < n; j++ {
						wk := mat.Conj(d21t) * (d11*w.At(j, k) - w.At(j, k+1))
						wkp1 := d21t * (d22*w.At(j, k+1) - w.At(j, k))
						a.Set(j, k, wk)
						a.Set(j, k+1, wkp1)
					}
				}

				a.Set(k, k, w.At(k, k))
				a.Set(k+1, k, w.At(k+1, k))
				a.Set(k+1, k+1, w.At(k+1, k+1))
				bkMakeReal(a, k, k)
				bkMakeReal(a, k+1, k+1)

				for i := k + 1; i < n; i++ {
					w.Set(i, k, mat.Conj(w.At(i, k)))
				}
				for i := k + 2; i < n; i++ {
					w.Set(i, k+1, mat.Conj(w.At(i, k+1)))
				}
			}
		}

		if kStep == 1 {
			pivots[k] = Pivot{Index: kp}
		} else {
			pivots[k] = Pivot{Index: kp, Pair: true}
			pivots[k+1] = Pivot{Index: kp, Pair: true}
		}
		k += kStep
	}

	// Deferred trailing update with the accumulated panel.
	aRight := a.Submatrix(k, k, n-k, n-k)
	matmul.TriMatMul(
		aRight, matmul.TriangularLower,
		a.Submatrix(k, 0, n-k, k), matmul.Rectangular, false,
		w.Submatrix(k, 0, n-k, k).Transpose(), matmul.Rectangular, false,
		true, T(-1), par,
	)
	for i, iMax := 0, n-k; i < iMax; i++ {
		bkMakeReal(aRight, i, i)
	}

	// Retroactive row swaps in the already-factored columns.
	j := k - 1
	for {
		jj := j
		jp := pivots[j].Index
		if pivots[j].Pair {
			j--
		}
		if j == 0 {
			return k
		}
		j--
		if jp != jj {
			a.Submatrix(0, 0, n, j+1).SwapRows(jp, jj)
		}
		if j == 0 {
			return k
		}
	}
}

func bkUnblocked[T mat.Scalar](a mat.Mat[T], pivots []Pivot, alpha float64) {
	n := a.Rows()
	if n == 0 {
		return
	}

	k := 0
	for k < n {
		kStep := 1
		absAkk := mat.Abs(a.At(k, k))
		imax := 0
		colmax := 0.0
		if k+1 < n {
			imax, colmax = bkBestScoreIdx(a.Submatrix(k+1, k, n-k-1, 1))
		}
		imax += k + 1

		var kp int
		if math.Max(absAkk, colmax) == 0 {
			kp = k
		} else {
			if absAkk >= colmax*alpha {
				kp = k
			} else {
				rowmax := math.Max(
					bkBestScore(a.Submatrix(imax, k, 1, imax-k)),
					bkBestScore(a.Submatrix(imax+1, imax, n-imax-1, 1)),
				)

				if absAkk >= alpha*colmax*(colmax/rowmax) {
					kp = k
				} else if mat.Abs(a.At(imax, imax)) >= alpha*rowmax {
					kp = imax
				} else {
					kp = imax
					kStep = 2
				}
			}

			kk := k + kStep - 1
			if kp != kk {
				a.Submatrix(kp+1, 0, n-kp-1, n).SwapCols(kk, kp)
				for j := kk + 1; j < kp; j++ {
					bkSwapElemsConj(a, j, kk, kp, j)
				}
				a.Set(kp, kk, mat.Conj(a.At(kp, kk)))
				tmp := a.At(kk, kk)
				a.Set(kk, kk, a.At(kp, kp))
				a.Set(kp, kp, tmp)
				if kStep == 2 {
					tmp = a.At(k+1, k)
					a.Set(k+1, k, a.At(kp, k))
					a.Set(kp, k, tmp)
				}
			}

			if kStep == 1 {
				d11 := 1 / mat.Real(a.At(k, k))
				for j := k + 1; j < n; j++ {
					d11xj := mat.ScaleReal(mat.Conj(a.At(j, k)), d11)
					for i := k + 1; i < n; i++ {
						a.Set(i, j, a.At(i, j)-d11xj*a.At(i, k))
					}
					bkMakeReal(a, j, j)
				}
				for i := k + 1; i < n; i++ {
					a.Set(i, k, mat.ScaleReal(a.At(i, k), d11))
				}
			} else if k+1 < n {
				d := mat.Abs(a.At(k+1, k))
				dInv := 1 / d
				d11 := dInv * mat.Real(a.At(k+1, k+1))
				d22 := dInv * mat.Real(a.At(k, k))

				t := 1 / (d11*d22 - 1)
				d21 := mat.ScaleReal(a.At(k+1, k), dInv)
				dd := t * dInv

				for j := k + 2; j < n; j++ {
					wk := mat.ScaleReal(mat.ScaleReal(a.At(j, k), d11)-a.At(j, k+1)*d21, dd)
					wkp1 := mat.ScaleReal(mat.ScaleReal(a.At(j, k+1), d22)-a.At(j, k)*mat.Conj(d21), dd)

					for i := j; i < n; i++ {
						a.Set(i, j, a.At(i, j)-a.At(i, k)*mat.Conj(wk)-a.At(i, k+1)*mat.Conj(wkp1))
					}
					bkMakeReal(a, j, j)

					a.Set(j, k, wk)
					a.Set(j, k+1, wkp1)
				}
			}
		}

		if kStep == 1 {
			pivots[k] = Pivot{Index: kp}
		} else {
			pivots[k] = Pivot{Index: kp, Pair: true}
			pivots[k+1] = Pivot{Index: kp, Pair: true}
		}
		k += kStep
	}
}

// bkConvert extracts the 2×2 subdiagonals into subdiag, zeroing them in a,
// and applies the deferred row swaps so a holds the unit lower triangular
// factor in permuted order.
func bkConvert[T mat.Scalar](a mat.Mat[T], pivots []Pivot, subdiag mat.Mat[T]) {
	n := a.Rows()

	i := 0
	for i < n {
		if pivots[i].Pair {
			subdiag.Set(i, 0, a.At(i+1, i))
			subdiag.Set(i+1, 0, 0)
			a.Set(i+1, i, 0)
			i += 2
		} else {
			subdiag.Set(i, 0, 0)
			i++
		}
	}

	i = 0
	for i < n {
		p := pivots[i].Index
		if pivots[i].Pair {
			a.Submatrix(0, 0, n, i).SwapRows(i+1, p)
			i += 2
		} else {
			a.Submatrix(0, 0, n, i).SwapRows(i, p)
			i++
		}
	}
}

// BunchKaufman computes the pivoted factorization P·A·Pᵀ = L·B·Lᴴ of the
// self-adjoint matrix whose lower triangle a holds. On return the strictly
// lower triangle of a holds the unit triangular L, the diagonal holds the
// block diagonal B, and subdiag (an n×1 column) holds the subdiagonal
// coefficients of B's 2×2 blocks, zero elsewhere. Only the lower triangle of
// a is read; the strictly upper triangle may be clobbered. Returns the
// permutation P.
func BunchKaufman[T mat.Scalar](a, subdiag mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T], params BunchKaufmanParams) mat.Permutation {
	n := a.Rows()
	if a.Cols() != n {
		panic("cholesky: matrix must be square")
	}
	if subdiag.Rows() != n || subdiag.Cols() != 1 {
		panic("cholesky: subdiag must be an n×1 column")
	}

	alpha := (1 + math.Sqrt(17)) / 8

	pivots := make([]Pivot, n)
	bs := bkBlocksize(n, params)
	var work mat.Mat[T]
	if bs > 0 {
		work, _ = stack.Mat(n, bs)
	}

	k := 0
	for k < n {
		var kb int
		if bs >= 2 && bs < n-k {
			kb = bkBlockedStep(a.Submatrix(k, k, n-k, n-k), work, pivots[k:], alpha, par)
		} else {
			bkUnblocked(a.Submatrix(k, k, n-k, n-k), pivots[k:], alpha)
			kb = n - k
		}
		for i := k; i < k+kb; i++ {
			pivots[i].Index += k
		}
		k += kb
	}

	bkConvert(a, pivots, subdiag)

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	i := 0
	for i < n {
		p := pivots[i].Index
		if pivots[i].Pair {
			perm[i+1], perm[p] = perm[p], perm[i+1]
			i += 2
		} else {
			perm[i], perm[p] = perm[p], perm[i]
			i++
		}
	}
	return mat.NewPermutation(perm)
}

// SolveBunchKaufmanScratch is the workspace requirement of
// SolveBunchKaufmanInPlace for a dim×dim factorization and rhsCols
// right-hand sides.
func SolveBunchKaufmanScratch(dim, rhsCols int) mat.Scratch {
	return mat.ScratchMat(dim, rhsCols)
}

// SolveBunchKaufmanInPlace solves op(A)·X = rhs in place given the
// factorization computed by BunchKaufman.
func SolveBunchKaufmanInPlace[T mat.Scalar](lb, subdiag mat.Mat[T], conj bool, perm mat.Permutation, rhs mat.Mat[T], par parallel.Parallelism, stack mat.Stack[T]) {
	n := lb.Rows()
	k := rhs.Cols()
	if lb.Cols() != n || rhs.Rows() != n || subdiag.Rows() != n || perm.Len() != n {
		panic("cholesky: solve shape mismatch")
	}

	x, _ := stack.Mat(n, k)
	mat.PermuteRows(x, rhs, perm)
	triangular.SolveUnitLowerInPlace(lb, conj, x, par)

	i := 0
	for i < n {
		if subdiag.At(i, 0) == 0 {
			dInv := 1 / mat.Real(lb.At(i, i))
			for j, jMax := 0, k; j < jMax; j++ {
				x.Set(i, j, mat.ScaleReal(x.At(i, j), dInv))
			}
			i++
		} else {
			s := subdiag.At(i, 0)
			if conj {
				s = mat.Conj(s)
			}
			akm1k := T(1) / s
			akm1 := mat.ScaleReal(mat.Conj(akm1k), mat.Real(lb.At(i, i)))
			ak := mat.ScaleReal(akm1k, mat.Real(lb.At(i+1, i+1)))
			denom := T(1) / (akm1*ak - 1)

			for j, jMax := 0, k; j < jMax; j++ {
				xkm1 := x.At(i, j) * mat.Conj(akm1k)
				xk := x.At(i+1, j) * akm1k
				x.Set(i, j, (ak*xkm1-xk)*denom)
				x.Set(i+1, j, (akm1*xk-xkm1)*denom)
			}
			i += 2
		}
	}

	triangular.SolveUnitUpperInPlace(lb.Transpose(), !conj, x, par)
	mat.PermuteRows(rhs, x, perm.Inverse())
}
