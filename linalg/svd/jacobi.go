// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"math"

	"github.com/ajroetker/go-dense/mat"
)

// JacobiRotation is a plane rotation [c s; -s c] acting on a pair of rows or
// columns.
type JacobiRotation[T mat.Float] struct {
	C, S T
}

// rotationFromTriplet diagonalizes the symmetric 2×2 matrix [x y; y z].
func rotationFromTriplet[T mat.Float](x, y, z T) JacobiRotation[T] {
	twoAbsY := 2 * fabs(y)
	if twoAbsY == 0 {
		return JacobiRotation[T]{C: 1}
	}
	tau := (x - z) / twoAbsY
	w := T(math.Sqrt(float64(tau*tau + 1)))
	var t T
	if tau > 0 {
		t = 1 / (tau + w)
	} else {
		t = 1 / (tau - w)
	}
	negSignY := T(1)
	if y > 0 {
		negSignY = -1
	}
	n := 1 / T(math.Sqrt(float64(t*t+1)))
	return JacobiRotation[T]{C: n, S: negSignY * t * n}
}

func fabs[T mat.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// ApplyOnLeft2x2 returns [c s; -s c]·[m00 m01; m10 m11].
func (r JacobiRotation[T]) ApplyOnLeft2x2(m00, m01, m10, m11 T) (T, T, T, T) {
	c, s := r.C, r.S
	return c*m00 + s*m10, c*m01 + s*m11, c*m10 - s*m00, c*m11 - s*m01
}

// ApplyOnLeft rotates the row pair (x, y) in place.
func (r JacobiRotation[T]) ApplyOnLeft(x, y mat.Mat[T]) {
	c, s := r.C, r.S
	if c == 1 && s == 0 {
		return
	}
	for j, jMax := 0, x.Cols(); j < jMax; j++ {
		xv := x.At(0, j)
		yv := y.At(0, j)
		x.Set(0, j, c*xv+s*yv)
		y.Set(0, j, c*yv-s*xv)
	}
}

// ApplyOnRight rotates the column pair (x, y) in place.
func (r JacobiRotation[T]) ApplyOnRight(x, y mat.Mat[T]) {
	r.Transpose().ApplyOnLeft(x.Transpose(), y.Transpose())
}

// Transpose returns the inverse rotation.
func (r JacobiRotation[T]) Transpose() JacobiRotation[T] {
	return JacobiRotation[T]{C: r.C, S: -r.S}
}

// Compose returns the rotation r∘o.
func (r JacobiRotation[T]) Compose(o JacobiRotation[T]) JacobiRotation[T] {
	return JacobiRotation[T]{C: r.C*o.C - r.S*o.S, S: r.C*o.S + r.S*o.C}
}

// rotations2x2 returns the left and right rotations diagonalizing the 2×2
// matrix [m00 m01; m10 m11] with a symmetrizing pre-rotation.
func rotations2x2[T mat.Float](m00, m01, m10, m11 T) (left, right JacobiRotation[T]) {
	t := m00 + m11
	d := m10 - m01

	var rot1 JacobiRotation[T]
	if d == 0 {
		rot1 = JacobiRotation[T]{C: 1}
	} else {
		u := t / d
		tmp := 1 / T(math.Sqrt(float64(1+u*u)))
		if tmp == 0 {
			tmp = 1 / fabs(u)
		}
		rot1 = JacobiRotation[T]{C: u * tmp, S: tmp}
	}
	r00, r01, _, r11 := rot1.ApplyOnLeft2x2(m00, m01, m10, m11)
	right = rotationFromTriplet(r00, r01, r11)
	left = rot1.Compose(right.Transpose())
	return left, right
}

// Skip marks a column of the Jacobi SVD input as structurally zero.
type Skip int

const (
	SkipNone Skip = iota
	SkipFirst
	SkipLast
)

// JacobiSVD diagonalizes the square matrix a in place by two-sided Jacobi
// rotations: on return the diagonal of a holds the singular values in
// decreasing order and, when u and v are non-nil, a = U·diag·Vᵀ. skip
// declares a structurally zero first or last column, which is excluded from
// the result ordering. Returns the number of nonzero singular values.
func JacobiSVD[T mat.Float](a mat.Mat[T], u, v *mat.Mat[T], skip Skip) int {
	n := a.Rows()
	if a.Cols() != n {
		panic("svd: matrix must be square")
	}
	if u != nil && (u.Rows() != n || u.Cols() != n) {
		panic("svd: u must be n×n")
	}
	if v != nil && v.Cols() != n {
		panic("svd: v must have n columns")
	}

	if u != nil {
		u.Identity()
	}

	var vActive mat.Mat[T]
	hasV := v != nil
	if hasV {
		vActive = *v
		if skip == SkipFirst {
			for i, iMax := 0, n-1; i < iMax; i++ {
				vActive.Set(i, 0, 0)
			}
			vActive = vActive.Submatrix(0, 1, n-1, n-1)
		}
		vActive.Identity()
	}

	var maxDiag T
	for i, iMax := 0, n; i < iMax; i++ {
		maxDiag = max(maxDiag, fabs(a.At(i, i)))
	}

	precision := 2 * T(mat.Epsilon[T]())
	zeroThreshold := T(mat.ZeroThreshold[T]())

	for {
		failed := false
		for p := 1; p < n; p++ {
			for q, qMax := 0, p; q < qMax; q++ {
				threshold := max(precision*maxDiag, zeroThreshold)
				if fabs(a.At(p, q)) <= threshold && fabs(a.At(q, p)) <= threshold {
					continue
				}
				failed = true
				jLeft, jRight := rotations2x2(a.At(p, p), a.At(p, q), a.At(q, p), a.At(q, q))

				jLeft.ApplyOnLeft(a.Submatrix(p, 0, 1, n), a.Submatrix(q, 0, 1, n))
				jRight.ApplyOnRight(a.Submatrix(0, p, n, 1), a.Submatrix(0, q, n, 1))

				if u != nil {
					jLeft.Transpose().ApplyOnRight(u.Submatrix(0, p, n, 1), u.Submatrix(0, q, n, 1))
				}
				if hasV {
					vr := v.Rows()
					jRight.ApplyOnRight(v.Submatrix(0, p, vr, 1), v.Submatrix(0, q, vr, 1))
				}

				maxDiag = max(maxDiag, max(fabs(a.At(p, p)), fabs(a.At(q, q))))
			}
		}
		if !failed {
			break
		}
	}

	// Flip negative singular values.
	for j, jMax := 0, n; j < jMax; j++ {
		if d := a.At(j, j); d < 0 {
			a.Set(j, j, -d)
			if u != nil {
				for i, iMax := 0, n; i < iMax; i++ {
					u.Set(i, j, -u.At(i, j))
				}
			}
		}
	}

	// Sort in decreasing order, skipping the structurally zero position, and
	// count the nonzero values.
	start := 0
	size := n
	if skip == SkipFirst {
		start = 1
		size = n - 1
	} else if skip == SkipLast {
		size = n - 1
	}

	d := a.Submatrix(start, start, size, size)
	nnz := size
	for i, iMax := 0, size; i < iMax; i++ {
		largest := T(0)
		pos := i
		for j := i; j < size; j++ {
			if d.At(j, j) > largest {
				largest = d.At(j, j)
				pos = j
			}
		}
		if largest == 0 {
			nnz = i
		}
		if pos > i {
			d.Set(pos, pos, d.At(i, i))
			d.Set(i, i, largest)
			if u != nil {
				u.SwapCols(start+i, start+pos)
			}
			if hasV {
				vs := v.Submatrix(0, start, v.Rows(), size)
				vs.SwapCols(i, pos)
			}
		}
	}
	return nnz
}
