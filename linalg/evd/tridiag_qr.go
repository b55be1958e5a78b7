// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package evd

import (
	"math"

	"github.com/ajroetker/go-dense/mat"
)

// makeGivens returns c, s with s·p + c·q = 0, normalized so the rotation
// maps (p, q) onto (r, 0).
func makeGivens[T mat.Float](p, q T) (c, s T) {
	switch {
	case q == 0:
		if p < 0 {
			c = -1
		} else {
			c = 1
		}
	case p == 0:
		if q < 0 {
			s = 1
		} else {
			s = -1
		}
	default:
		if fabs(p) > fabs(q) {
			t := q / p
			u := T(math.Sqrt(float64(1 + t*t)))
			if p < 0 {
				u = -u
			}
			c = 1 / u
			s = -t * c
		} else {
			t := p / q
			u := T(math.Sqrt(float64(1 + t*t)))
			if q < 0 {
				u = -u
			}
			s = -1 / u
			c = -t * s
		}
	}
	return c, s
}

func fabs[T mat.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// TridiagQR diagonalizes the symmetric tridiagonal matrix held in diag and
// offdiag by the implicit-shift QR iteration with Wilkinson shifts. On
// success diag holds the eigenvalues in ascending order; offdiag is
// destroyed. If u is non-nil it is overwritten with the accumulated
// eigenvector matrix, starting from the identity. Returns ErrConvergence if
// the iteration count exceeds its bound.
func TridiagQR[T mat.Float](diag, offdiag []T, u *mat.Mat[T]) error {
	n := len(diag)
	if n > 1 && len(offdiag) != n-1 {
		panic("evd: offdiag length mismatch")
	}

	if u != nil {
		u.Fill(0)
		for i, iMax := 0, n; i < iMax; i++ {
			u.Set(i, i, 1)
		}
	}
	if n <= 1 {
		return nil
	}

	eps := T(mat.Epsilon[T]())
	zeroThreshold := T(mat.ZeroThreshold[T]())
	iterMax := 30 * n

	end := n - 1
	start := 0
	iter := 0

	for end > 0 {
		for i := start; i < end; i++ {
			if fabs(offdiag[i]) < zeroThreshold ||
				fabs(offdiag[i]) <= eps*T(math.Sqrt(float64(fabs(diag[i])+fabs(diag[i+1])))) {
				offdiag[i] = 0
			}
		}

		for end > 0 && offdiag[end-1] == 0 {
			end--
		}
		if end == 0 {
			break
		}

		iter++
		if iter > iterMax {
			return ErrConvergence
		}

		start = end - 1
		for start > 0 && offdiag[start-1] != 0 {
			start--
		}

		// Wilkinson shift.
		td := diag[end-1]
		e := offdiag[end-1]
		mu := diag[end]
		if td == 0 {
			mu -= fabs(e)
		} else if e != 0 {
			e2 := e * e
			h := T(math.Sqrt(float64(td*td + e*e)))
			if td < 0 {
				h = -h
			}
			if e2 == 0 {
				mu -= e / ((td + h) / e)
			} else {
				mu -= e2 / (td + h)
			}
		}

		x := diag[start] - mu
		z := offdiag[start]

		for k := start; k < end && z != 0; k++ {
			c, s := makeGivens(x, z)

			// T = Gᵀ·T·G on rows/columns k, k+1.
			sdk := s*diag[k] + c*offdiag[k]
			dkp1 := s*offdiag[k] + c*diag[k+1]
			diag[k] = c*(c*diag[k]-s*offdiag[k]) - s*(c*offdiag[k]-s*diag[k+1])
			diag[k+1] = s*sdk + c*dkp1
			offdiag[k] = c*sdk - s*dkp1

			if k > start {
				offdiag[k-1] = c*offdiag[k-1] - s*z
			}

			x = offdiag[k]
			if k < end-1 {
				z = -s * offdiag[k+1]
				offdiag[k+1] = c * offdiag[k+1]
			}

			if u != nil {
				for r, rMax := 0, u.Rows(); r < rMax; r++ {
					uk := u.At(r, k)
					ukp1 := u.At(r, k+1)
					u.Set(r, k, c*uk-s*ukp1)
					u.Set(r, k+1, s*uk+c*ukp1)
				}
			}
		}
	}

	// Ascending selection sort.
	for i, iMax := 0, n-1; i < iMax; i++ {
		minIdx := i
		minVal := diag[i]
		for k := i + 1; k < n; k++ {
			if diag[k] < minVal {
				minIdx = k
				minVal = diag[k]
			}
		}
		if minIdx > i {
			diag[i], diag[minIdx] = diag[minIdx], diag[i]
			if u != nil {
				u.SwapCols(i, minIdx)
			}
		}
	}
	return nil
}
