// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package evd

import (
	"math"

	"github.com/ajroetker/go-dense/mat"
)

// standardize2x2 reduces the 2×2 block [a b; c d] to standardized real Schur
// form by a rotation (cs, sn), returning the transformed entries and the
// eigenvalues. In the standardized form either c is zero (real eigenvalues)
// or a equals d and b·c < 0 (a complex conjugate pair).
func standardize2x2[T mat.Float](a, b, c, d T) (ra, rb, rc, rd, rt1r, rt1i, rt2r, rt2i, cs, sn T) {
	eps := T(mat.Epsilon[T]())
	half := T(0.5)

	switch {
	case c == 0:
		cs, sn = 1, 0
	case b == 0:
		cs, sn = 0, 1
		a, b, c, d = d, -c, 0, a
	case a-d == 0 && signOf(b) != signOf(c):
		cs, sn = 1, 0
	default:
		temp := a - d
		p := half * temp
		bcmax := max(fabs(b), fabs(c))
		bcmis := min(fabs(b), fabs(c)) * signOf(b) * signOf(c)
		scale := max(fabs(p), bcmax)
		z := p/scale*p + bcmax/scale*bcmis

		if z >= 4*eps {
			// Real eigenvalues: compute a, d directly.
			z = p + copysign(T(math.Sqrt(float64(scale)))*T(math.Sqrt(float64(z))), p)
			a = d + z
			d -= bcmax / z * bcmis
			tau := hypot(c, z)
			cs = z / tau
			sn = c / tau
			b -= c
			c = 0
		} else {
			// Complex or nearly equal real eigenvalues.
			sigma := b + c
			tau := hypot(sigma, temp)
			cs = T(math.Sqrt(float64(half * (1 + fabs(sigma)/tau))))
			sn = -(p / (tau * cs)) * signOf(sigma)

			aa := a*cs + b*sn
			bb := -a*sn + b*cs
			cc := c*cs + d*sn
			dd := -c*sn + d*cs
			a = aa*cs + cc*sn
			b = bb*cs + dd*sn
			c = -aa*sn + cc*cs
			d = -bb*sn + dd*cs

			temp = half * (a + d)
			a = temp
			d = temp

			if c != 0 {
				if b != 0 {
					if signOf(b) == signOf(c) {
						// Real eigenvalues after all: reduce to triangular.
						sab := T(math.Sqrt(float64(fabs(b))))
						sac := T(math.Sqrt(float64(fabs(c))))
						p = copysign(sab*sac, c)
						tau = 1 / T(math.Sqrt(float64(fabs(b+c))))
						a = temp + p
						d = temp - p
						b -= c
						c = 0
						cs1 := sab * tau
						sn1 := sac * tau
						cs, sn = cs*cs1-sn*sn1, cs*sn1+sn*cs1
					}
				} else {
					b = -c
					c = 0
					cs, sn = -sn, cs
				}
			}
		}
	}

	rt1r, rt2r = a, d
	if c != 0 {
		rt1i = T(math.Sqrt(float64(fabs(b)))) * T(math.Sqrt(float64(fabs(c))))
		rt2i = -rt1i
	}
	return a, b, c, d, rt1r, rt1i, rt2r, rt2i, cs, sn
}

func signOf[T mat.Float](x T) T {
	if x < 0 {
		return -1
	}
	return 1
}

func copysign[T mat.Float](x, y T) T {
	return T(math.Copysign(float64(x), float64(y)))
}

func hypot[T mat.Float](x, y T) T {
	return T(math.Hypot(float64(x), float64(y)))
}

// reflect3 generates an elementary reflector H = I - t·[1; v]·[1; v]ᵀ
// mapping v[:nr] onto a multiple of e1. On return v[0] holds the produced
// head coefficient and v[1:] the reflector tail.
func reflect3[T mat.Float](v *[3]T, nr int) (t T) {
	alpha := v[0]
	var xnorm T
	if nr == 3 {
		xnorm = hypot(v[1], v[2])
	} else {
		xnorm = fabs(v[1])
	}
	if xnorm == 0 {
		return 0
	}
	beta := -copysign(hypot(alpha, xnorm), alpha)
	t = (beta - alpha) / beta
	scale := 1 / (alpha - beta)
	for c := 1; c < nr; c++ {
		v[c] *= scale
	}
	v[0] = beta
	return t
}

// realSchur reduces the Hessenberg matrix h to real Schur form in place by
// the double-shift QR iteration, accumulating the transformations into z
// when non-nil and writing the eigenvalues to sRe, sIm. Complex conjugate
// pairs occupy consecutive positions, the positive imaginary part first.
func realSchur[T mat.Float](h mat.Mat[T], z *mat.Mat[T], sRe, sIm []T) error {
	n := h.Rows()
	if n == 0 {
		return nil
	}
	if n == 1 {
		sRe[0] = h.At(0, 0)
		sIm[0] = 0
		return nil
	}

	const dat1 = 0.75
	const dat2 = -0.4375
	ulp := T(mat.Epsilon[T]())
	smlnum := T(mat.ZeroThreshold[T]()) * (T(n) / ulp)
	itmax := 30 * max(10, n)

	var v [3]T

	i := n - 1
	for i >= 0 {
		if i == 0 {
			sRe[0] = h.At(0, 0)
			sIm[0] = 0
			break
		}

		l := 0
		converged := false
		for its := 0; its <= itmax; its++ {
			// Look for a negligible subdiagonal element.
			k := i
			for ; k > l; k-- {
				if fabs(h.At(k, k-1)) <= smlnum {
					break
				}
				tst := fabs(h.At(k-1, k-1)) + fabs(h.At(k, k))
				if tst == 0 {
					if k-2 >= 0 {
						tst += fabs(h.At(k-1, k-2))
					}
					if k+1 < n {
						tst += fabs(h.At(k+1, k))
					}
				}
				if fabs(h.At(k, k-1)) <= ulp*tst {
					ab := max(fabs(h.At(k, k-1)), fabs(h.At(k-1, k)))
					ba := min(fabs(h.At(k, k-1)), fabs(h.At(k-1, k)))
					aa := max(fabs(h.At(k, k)), fabs(h.At(k-1, k-1)-h.At(k, k)))
					bb := min(fabs(h.At(k, k)), fabs(h.At(k-1, k-1)-h.At(k, k)))
					s := aa + ab
					if ba*(ab/s) <= max(smlnum, ulp*(bb*(aa/s))) {
						break
					}
				}
			}
			l = k
			if l > 0 {
				h.Set(l, l-1, 0)
			}
			if l >= i-1 {
				converged = true
				break
			}

			// Shifts from the trailing 2×2, with occasional exceptional
			// shifts to break cycling.
			var h11, h12, h21, h22 T
			switch its {
			case 10:
				s := fabs(h.At(l+1, l)) + fabs(h.At(l+2, l+1))
				h11 = dat1*s + h.At(l, l)
				h12 = dat2 * s
				h21 = s
				h22 = h11
			case 20:
				s := fabs(h.At(i, i-1)) + fabs(h.At(i-1, i-2))
				h11 = dat1*s + h.At(i, i)
				h12 = dat2 * s
				h21 = s
				h22 = h11
			default:
				h11 = h.At(i-1, i-1)
				h21 = h.At(i, i-1)
				h12 = h.At(i-1, i)
				h22 = h.At(i, i)
			}

			var rt1r, rt1i, rt2r, rt2i T
			if s := fabs(h11) + fabs(h12) + fabs(h21) + fabs(h22); s != 0 {
				h11 /= s
				h21 /= s
				h12 /= s
				h22 /= s
				tr := (h11 + h22) / 2
				det := (h11-tr)*(h22-tr) - h12*h21
				rtdisc := T(math.Sqrt(float64(fabs(det))))
				if det >= 0 {
					rt1r = tr * s
					rt2r = rt1r
					rt1i = rtdisc * s
					rt2i = -rt1i
				} else {
					rt1r = tr + rtdisc
					rt2r = tr - rtdisc
					if fabs(rt1r-h22) <= fabs(rt2r-h22) {
						rt2r = rt1r
					} else {
						rt1r = rt2r
					}
					rt1r *= s
					rt2r *= s
				}
			}

			// Find the starting position of the bulge.
			m := i - 2
			for ; m >= l; m-- {
				h21s := h.At(m+1, m)
				s := fabs(h.At(m, m)-rt2r) + fabs(rt1i) + fabs(h21s)
				h21s = h.At(m+1, m) / s
				v[0] = h21s*h.At(m, m+1) + (h.At(m, m)-rt1r)*((h.At(m, m)-rt2r)/s) - rt1i*(rt2i/s)
				v[1] = h21s * (h.At(m, m) + h.At(m+1, m+1) - rt1r - rt2r)
				v[2] = h21s * h.At(m+2, m+1)
				s = fabs(v[0]) + fabs(v[1]) + fabs(v[2])
				v[0] /= s
				v[1] /= s
				v[2] /= s
				if m == l {
					break
				}
				if fabs(h.At(m, m-1))*(fabs(v[1])+fabs(v[2])) <=
					ulp*fabs(v[0])*(fabs(h.At(m-1, m-1))+fabs(h.At(m, m))+fabs(h.At(m+1, m+1))) {
					break
				}
			}

			// Double-shift sweep, chasing the bulge down to row i.
			for k := m; k < i; k++ {
				nr := min(3, i-k+1)
				if k > m {
					for c, cMax := 0, nr; c < cMax; c++ {
						v[c] = h.At(k+c, k-1)
					}
				}
				t1 := reflect3(&v, nr)
				if k > m {
					h.Set(k, k-1, v[0])
					h.Set(k+1, k-1, 0)
					if k < i-1 {
						h.Set(k+2, k-1, 0)
					}
				} else if m > l {
					h.Set(k, k-1, h.At(k, k-1)*(1-t1))
				}

				v2 := v[1]
				t2 := t1 * v2
				if nr == 3 {
					v3 := v[2]
					t3 := t1 * v3
					for j := k; j < n; j++ {
						sum := h.At(k, j) + v2*h.At(k+1, j) + v3*h.At(k+2, j)
						h.Set(k, j, h.At(k, j)-sum*t1)
						h.Set(k+1, j, h.At(k+1, j)-sum*t2)
						h.Set(k+2, j, h.At(k+2, j)-sum*t3)
					}
					for j := 0; j <= min(k+3, i); j++ {
						sum := h.At(j, k) + v2*h.At(j, k+1) + v3*h.At(j, k+2)
						h.Set(j, k, h.At(j, k)-sum*t1)
						h.Set(j, k+1, h.At(j, k+1)-sum*t2)
						h.Set(j, k+2, h.At(j, k+2)-sum*t3)
					}
					if z != nil {
						for j, jMax := 0, n; j < jMax; j++ {
							sum := z.At(j, k) + v2*z.At(j, k+1) + v3*z.At(j, k+2)
							z.Set(j, k, z.At(j, k)-sum*t1)
							z.Set(j, k+1, z.At(j, k+1)-sum*t2)
							z.Set(j, k+2, z.At(j, k+2)-sum*t3)
						}
					}
				} else {
					for j := k; j < n; j++ {
						sum := h.At(k, j) + v2*h.At(k+1, j)
						h.Set(k, j, h.At(k, j)-sum*t1)
						h.Set(k+1, j, h.At(k+1, j)-sum*t2)
					}
					for j := 0; j <= min(k+3, i); j++ {
						sum := h.At(j, k) + v2*h.At(j, k+1)
						h.Set(j, k, h.At(j, k)-sum*t1)
						h.Set(j, k+1, h.At(j, k+1)-sum*t2)
					}
					if z != nil {
						for j, jMax := 0, n; j < jMax; j++ {
							sum := z.At(j, k) + v2*z.At(j, k+1)
							z.Set(j, k, z.At(j, k)-sum*t1)
							z.Set(j, k+1, z.At(j, k+1)-sum*t2)
						}
					}
				}
			}
		}
		if !converged {
			return ErrConvergence
		}

		if l == i {
			sRe[i] = h.At(i, i)
			sIm[i] = 0
			i = l - 1
			continue
		}

		// Standardize the converged trailing 2×2 block.
		a, b, c, d, rt1r, rt1i, rt2r, rt2i, cs, sn :=
			standardize2x2(h.At(i-1, i-1), h.At(i-1, i), h.At(i, i-1), h.At(i, i))
		h.Set(i-1, i-1, a)
		h.Set(i-1, i, b)
		h.Set(i, i-1, c)
		h.Set(i, i, d)
		sRe[i-1] = rt1r
		sIm[i-1] = rt1i
		sRe[i] = rt2r
		sIm[i] = rt2i

		for j := i + 1; j < n; j++ {
			x := h.At(i-1, j)
			y := h.At(i, j)
			h.Set(i-1, j, cs*x+sn*y)
			h.Set(i, j, cs*y-sn*x)
		}
		for r := 0; r <= i-2; r++ {
			x := h.At(r, i-1)
			y := h.At(r, i)
			h.Set(r, i-1, cs*x+sn*y)
			h.Set(r, i, cs*y-sn*x)
		}
		if z != nil {
			for r, rMax := 0, n; r < rMax; r++ {
				x := z.At(r, i-1)
				y := z.At(r, i)
				z.Set(r, i-1, cs*x+sn*y)
				z.Set(r, i, cs*y-sn*x)
			}
		}
		i = l - 1
	}
	return nil
}
