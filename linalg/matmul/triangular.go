// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package matmul

import (
	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

// BlockStructure describes which part of an operand or destination
// participates in a structured multiply. Elements outside the structure read
// as zero; unit structures have an implicit 1 on the diagonal and never read
// or write the stored diagonal.
type BlockStructure int

const (
	Rectangular BlockStructure = iota
	TriangularLower
	TriangularUpper
	UnitTriangularLower
	UnitTriangularUpper
)

// IsUnit reports whether the structure carries an implicit unit diagonal.
func (bs BlockStructure) IsUnit() bool {
	return bs == UnitTriangularLower || bs == UnitTriangularUpper
}

// TriMatMul is MatMul with structured operands and destination. Only
// destination elements inside dstBS are touched; lhs and rhs elements outside
// their structures contribute zero. Operands with a non-rectangular structure
// must be square.
func TriMatMul[T mat.Scalar](
	dst mat.Mat[T], dstBS BlockStructure,
	lhs mat.Mat[T], lhsBS BlockStructure, conjLHS bool,
	rhs mat.Mat[T], rhsBS BlockStructure, conjRHS bool,
	accumulate bool, alpha T, par parallel.Parallelism,
) {
	m, n := dst.Rows(), dst.Cols()
	k := lhs.Cols()
	if lhs.Rows() != m || rhs.Rows() != k || rhs.Cols() != n {
		panic("matmul: dimension mismatch")
	}
	if dstBS != Rectangular && m != n {
		panic("matmul: structured destination must be square")
	}
	if lhsBS != Rectangular && m != k {
		panic("matmul: structured lhs must be square")
	}
	if rhsBS != Rectangular && k != n {
		panic("matmul: structured rhs must be square")
	}
	if m == 0 || n == 0 {
		return
	}

	row := func(i int) {
		jlo, jhi := dstColRange(dstBS, i, n)
		for j := jlo; j < jhi; j++ {
			sum := structuredDot(lhs, lhsBS, conjLHS, rhs, rhsBS, conjRHS, i, j, k)
			v := alpha * sum
			if accumulate {
				v += dst.At(i, j)
			}
			dst.Set(i, j, v)
		}
	}
	if par.Degree() > 1 && m*n*k >= minParallelOps {
		parallel.ForEach(m, row, par)
		return
	}
	for i, iMax := 0, m; i < iMax; i++ {
		row(i)
	}
}

// dstColRange returns the half-open column range of row i inside the
// destination structure.
func dstColRange(bs BlockStructure, i, n int) (int, int) {
	switch bs {
	case TriangularLower:
		return 0, min(i+1, n)
	case UnitTriangularLower:
		return 0, min(i, n)
	case TriangularUpper:
		return i, n
	case UnitTriangularUpper:
		return min(i+1, n), n
	}
	return 0, n
}

// lhsExplicitRange returns the stored (non-implicit) index range of row i of
// a structured lhs.
func lhsExplicitRange(bs BlockStructure, i, k int) (int, int) {
	switch bs {
	case TriangularLower:
		return 0, min(i+1, k)
	case UnitTriangularLower:
		return 0, min(i, k)
	case TriangularUpper:
		return i, k
	case UnitTriangularUpper:
		return min(i+1, k), k
	}
	return 0, k
}

// rhsExplicitRange returns the stored index range of column j of a
// structured rhs.
func rhsExplicitRange(bs BlockStructure, j, k int) (int, int) {
	switch bs {
	case TriangularLower:
		return j, k
	case UnitTriangularLower:
		return min(j+1, k), k
	case TriangularUpper:
		return 0, min(j+1, k)
	case UnitTriangularUpper:
		return 0, min(j, k)
	}
	return 0, k
}

func structuredDot[T mat.Scalar](
	lhs mat.Mat[T], lhsBS BlockStructure, conjLHS bool,
	rhs mat.Mat[T], rhsBS BlockStructure, conjRHS bool,
	i, j, k int,
) T {
	la, lb := lhsExplicitRange(lhsBS, i, k)
	ra, rb := rhsExplicitRange(rhsBS, j, k)
	var sum T
	for p := max(la, ra); p < min(lb, rb); p++ {
		l := lhs.At(i, p)
		if conjLHS {
			l = mat.Conj(l)
		}
		r := rhs.At(p, j)
		if conjRHS {
			r = mat.Conj(r)
		}
		sum += l * r
	}
	// Implicit unit diagonal contributions.
	if lhsBS.IsUnit() && i < k && i >= ra && i < rb {
		r := rhs.At(i, j)
		if conjRHS {
			r = mat.Conj(r)
		}
		sum += r
	}
	if rhsBS.IsUnit() && j < k && j >= la && j < lb {
		l := lhs.At(i, j)
		if conjLHS {
			l = mat.Conj(l)
		}
		sum += l
	}
	if lhsBS.IsUnit() && rhsBS.IsUnit() && i == j && i < k {
		sum += 1
	}
	return sum
}
