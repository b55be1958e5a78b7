// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"math"

	"github.com/ajroetker/go-dense/mat"
)

// rotg returns a Givens rotation with c·f + s·g = r and -s·f + c·g = 0.
func rotg[T mat.Float](f, g T) (c, s, r T) {
	if g == 0 {
		return 1, 0, f
	}
	if f == 0 {
		return 0, 1, g
	}
	if fabs(f) > fabs(g) {
		t := g / f
		tt := T(math.Sqrt(float64(1 + t*t)))
		c = 1 / tt
		s = t * c
		r = f * tt
		return c, s, r
	}
	t := f / g
	tt := T(math.Sqrt(float64(1 + t*t)))
	s = 1 / tt
	c = t * s
	r = g * tt
	return c, s, r
}

// smallestSingular2x2 returns the smaller singular value of the 2×2 upper
// triangular matrix [f g; 0 h], computed without overflow.
func smallestSingular2x2[T mat.Float](f, g, h T) T {
	fa, ga, ha := fabs(f), fabs(g), fabs(h)
	fhmn := min(fa, ha)
	fhmx := max(fa, ha)
	if fhmn == 0 {
		return 0
	}
	if ga < fhmx {
		as := 1 + fhmn/fhmx
		at := (fhmx - fhmn) / fhmx
		au := (ga / fhmx) * (ga / fhmx)
		c := 2 / (T(math.Sqrt(float64(as*as+au))) + T(math.Sqrt(float64(at*at+au))))
		return fhmn * c
	}
	au := fhmx / ga
	if au == 0 {
		return fhmn * fhmx / ga
	}
	as := 1 + fhmn/fhmx
	at := (fhmx - fhmn) / fhmx
	c := 1 / (T(math.Sqrt(float64(1+as*au*as*au))) + T(math.Sqrt(float64(1+at*au*at*au))))
	return fhmn * c * au * 2
}

// rotateCols applies the rotation [c s; -s c] to columns k and k+1 of m from
// the right.
func rotateCols[T mat.Float](m *mat.Mat[T], k int, c, s T) {
	if m == nil {
		return
	}
	for i, iMax := 0, m.Rows(); i < iMax; i++ {
		a := m.At(i, k)
		b := m.At(i, k+1)
		m.Set(i, k, c*a+s*b)
		m.Set(i, k+1, c*b-s*a)
	}
}

// bidiagSVD diagonalizes the upper bidiagonal matrix with diagonal d and
// superdiagonal e by the implicit-shift Golub–Kahan QR iteration. On return
// d holds the singular values in decreasing order and e is zero. When x and y
// are non-nil they are overwritten with the left and right singular vectors
// (n×n). Falls back to zero-shift Demmel–Kahan sweeps when the shift would
// lose all accuracy.
func bidiagSVD[T mat.Float](d, e []T, x, y *mat.Mat[T]) error {
	n := len(d)
	if n == 0 {
		return nil
	}

	if x != nil {
		x.Identity()
	}
	if y != nil {
		y.Identity()
	}

	eps := T(mat.Epsilon[T]())
	zeroThreshold := T(mat.ZeroThreshold[T]())
	negligible := func(i int) bool {
		return fabs(e[i]) <= eps*(fabs(d[i])+fabs(d[i+1]))+zeroThreshold
	}

	iterMax := 30 * n * n
	iters := 0
	for m := n - 1; m > 0; {
		if negligible(m - 1) {
			e[m-1] = 0
			m--
			continue
		}
		l := m - 1
		for l > 0 && !negligible(l-1) {
			l--
		}
		if l > 0 {
			e[l-1] = 0
		}

		iters++
		if iters > iterMax {
			return ErrConvergence
		}

		shift := smallestSingular2x2(d[m-1], e[m-1], d[m])
		sll := fabs(d[l])
		zeroShift := sll == 0 || shift == 0
		if !zeroShift {
			t := shift / sll
			if t*t < eps {
				zeroShift = true
			}
		}

		if zeroShift {
			cs := T(1)
			oldcs := T(1)
			var sn, oldsn T
			for i := l; i < m; i++ {
				var r T
				cs, sn, r = rotg(d[i]*cs, e[i])
				if i > l {
					e[i-1] = oldsn * r
				}
				oldcs, oldsn, d[i] = rotg(oldcs*r, d[i+1]*sn)
				rotateCols(y, i, cs, sn)
				rotateCols(x, i, oldcs, oldsn)
			}
			h := d[m] * cs
			d[m] = h * oldcs
			e[m-1] = h * oldsn
			continue
		}

		sign := T(1)
		if d[l] < 0 {
			sign = -1
		}
		f := (fabs(d[l]) - shift) * (sign + shift/d[l])
		g := e[l]
		for k := l; k < m; k++ {
			c, s, r := rotg(f, g)
			if k > l {
				e[k-1] = r
			}
			f = c*d[k] + s*e[k]
			e[k] = c*e[k] - s*d[k]
			g = s * d[k+1]
			d[k+1] = c * d[k+1]
			rotateCols(y, k, c, s)

			c, s, r = rotg(f, g)
			d[k] = r
			f = c*e[k] + s*d[k+1]
			d[k+1] = c*d[k+1] - s*e[k]
			if k < m-1 {
				g = s * e[k+1]
				e[k+1] = c * e[k+1]
			}
			rotateCols(x, k, c, s)
		}
		e[m-1] = f
	}

	for i, iMax := 0, n; i < iMax; i++ {
		if d[i] < 0 {
			d[i] = -d[i]
			if x != nil {
				for r, rMax := 0, x.Rows(); r < rMax; r++ {
					x.Set(r, i, -x.At(r, i))
				}
			}
		}
	}

	for i, iMax := 0, n; i < iMax; i++ {
		pos := i
		for j := i + 1; j < n; j++ {
			if d[j] > d[pos] {
				pos = j
			}
		}
		if pos != i {
			d[i], d[pos] = d[pos], d[i]
			if x != nil {
				x.SwapCols(i, pos)
			}
			if y != nil {
				y.SwapCols(i, pos)
			}
		}
	}
	return nil
}
