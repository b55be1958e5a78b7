// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

// Permutation stores a permutation together with its inverse, so both
// directions apply as a single gather. Forward()[i] is the source index that
// lands at position i when the permutation is applied.
type Permutation struct {
	fwd []int
	inv []int
}

// NewPermutation wraps a forward array, computing the inverse. The array must
// be a permutation of 0..len-1.
func NewPermutation(fwd []int) Permutation {
	inv := make([]int, len(fwd))
	for i, p := range fwd {
		inv[p] = i
	}
	return Permutation{fwd: fwd, inv: inv}
}

// IdentityPermutation returns the identity on n indices.
func IdentityPermutation(n int) Permutation {
	fwd := make([]int, n)
	inv := make([]int, n)
	for i := range fwd {
		fwd[i] = i
		inv[i] = i
	}
	return Permutation{fwd: fwd, inv: inv}
}

func (p Permutation) Len() int       { return len(p.fwd) }
func (p Permutation) Forward() []int { return p.fwd }

// Inverse returns the inverse permutation. The underlying arrays are shared.
func (p Permutation) Inverse() Permutation {
	return Permutation{fwd: p.inv, inv: p.fwd}
}

// PermuteRows gathers rows of src into dst: dst[i, :] = src[fwd[i], :].
// dst and src must not alias.
func PermuteRows[T Scalar](dst, src Mat[T], p Permutation) {
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() || p.Len() != src.Rows() {
		panic("mat: permute shape mismatch")
	}
	for i, s := range p.fwd {
		for j, jMax := 0, src.Cols(); j < jMax; j++ {
			dst.Set(i, j, src.At(s, j))
		}
	}
}

// PermuteCols gathers columns of src into dst: dst[:, j] = src[:, fwd[j]].
// dst and src must not alias.
func PermuteCols[T Scalar](dst, src Mat[T], p Permutation) {
	PermuteRows(dst.Transpose(), src.Transpose(), p)
}

// PermuteRowsInPlace applies p to m using a scratch copy.
func PermuteRowsInPlace[T Scalar](m Mat[T], p Permutation, stack Stack[T]) {
	tmp, _ := stack.Mat(m.Rows(), m.Cols())
	tmp.CopyFrom(m)
	PermuteRows(m, tmp, p)
}

// PermuteRowsInPlaceScratch is the workspace requirement of
// PermuteRowsInPlace on a rows×cols matrix.
func PermuteRowsInPlaceScratch(rows, cols int) Scratch {
	return ScratchMat(rows, cols)
}
