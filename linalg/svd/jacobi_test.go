// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package svd

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-dense/mat"
)

func TestJacobiRotationApply(t *testing.T) {
	r := JacobiRotation[float64]{C: 0.6, S: 0.8}
	x := mat.FromRows([][]float64{{1, 2}})
	y := mat.FromRows([][]float64{{3, 4}})
	r.ApplyOnLeft(x, y)
	require.InDelta(t, 0.6*1+0.8*3, x.At(0, 0), 1e-15)
	require.InDelta(t, 0.6*3-0.8*1, y.At(0, 0), 1e-15)

	// Transpose undoes the rotation.
	r.Transpose().ApplyOnLeft(x, y)
	require.InDelta(t, 1, x.At(0, 0), 1e-15)
	require.InDelta(t, 3, y.At(0, 0), 1e-15)
}

func TestRotations2x2Diagonalize(t *testing.T) {
	rng := rand.New(rand.NewSource(80))
	for rangeIdx := 0; rangeIdx < 20; rangeIdx++ {
		m00, m01 := rng.NormFloat64(), rng.NormFloat64()
		m10, m11 := rng.NormFloat64(), rng.NormFloat64()
		left, right := rotations2x2(m00, m01, m10, m11)

		// Rotating the rows by left and the columns by right must kill the
		// off-diagonal entries.
		a00, a01, a10, a11 := left.ApplyOnLeft2x2(m00, m01, m10, m11)
		b01 := a00*right.S + a01*right.C
		b10 := a10*right.C - a11*right.S
		require.InDelta(t, 0, b01, 1e-12)
		require.InDelta(t, 0, b10, 1e-12)
	}
}

func TestJacobiSVDReconstruct(t *testing.T) {
	rng := rand.New(rand.NewSource(81))
	for _, n := range []int{1, 2, 3, 4, 6} {
		a := randomMat(rng, n, n)
		work := mat.NewMat[float64](n, n)
		work.CopyFrom(a)

		u := mat.NewMat[float64](n, n)
		v := mat.NewMat[float64](n, n)
		nnz := JacobiSVD(work, &u, &v, SkipNone)
		require.Equal(t, n, nnz, "n=%d", n)

		requireOrthonormalCols(t, u, 1e-10, "u")
		requireOrthonormalCols(t, v, 1e-10, "v")

		for i, iMax := 0, n; i < iMax; i++ {
			for j, jMax := 0, n; j < jMax; j++ {
				var acc float64
				for k, kMax := 0, n; k < kMax; k++ {
					acc += u.At(i, k) * work.At(k, k) * v.At(j, k)
				}
				require.InDelta(t, a.At(i, j), acc, 1e-10, "n=%d at (%d, %d)", n, i, j)
			}
		}

		for k := 1; k < n; k++ {
			require.LessOrEqual(t, work.At(k, k), work.At(k-1, k-1)+1e-12, "n=%d order %d", n, k)
		}
	}
}
