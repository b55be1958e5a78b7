// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package householder

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/go-dense/mat"
	"github.com/ajroetker/go-dense/parallel"
)

func TestMake(t *testing.T) {
	rng := rand.New(rand.NewSource(20))
	for _, n := range []int{1, 2, 5, 20} {
		x := make([]float64, n)
		for i := range x {
			x[i] = rng.NormFloat64()
		}

		tail := mat.NewMat[float64](n-1, 1)
		var tailSq float64
		for i, iMax := 0, n-1; i < iMax; i++ {
			tail.Set(i, 0, x[i+1])
			tailSq += x[i+1] * x[i+1]
		}

		tau, beta := Make(tail, x[0], tailSq)

		// v = [1; essential]; H·x = x - (vᴴ·x/τ)·v must be beta·e1.
		d := x[0]
		for i, iMax := 0, n-1; i < iMax; i++ {
			d += tail.At(i, 0) * x[i+1]
		}
		d /= tau

		require.InDelta(t, beta, x[0]-d, 1e-12, "n=%d", n)
		for i, iMax := 0, n-1; i < iMax; i++ {
			require.InDelta(t, 0, x[i+1]-d*tail.At(i, 0), 1e-12, "n=%d tail %d", n, i)
		}

		// The reflection preserves the norm.
		var norm float64
		for _, v := range x {
			norm += v * v
		}
		require.InDelta(t, norm, beta*beta, 1e-12, "n=%d", n)
	}
}

func TestMakeZeroInput(t *testing.T) {
	tail := mat.NewMat[float64](3, 1)
	tau, beta := Make(tail, 0, 0)
	require.True(t, math.IsInf(tau, 1), "tau = %v, want +Inf", tau)
	require.Equal(t, 0.0, beta)
}

// randomReflectors builds a trapezoid of k essential vectors over m rows plus
// the matching taus, so the implied block transformation is orthogonal.
func randomReflectors(rng *rand.Rand, m, k int) (mat.Mat[float64], []float64) {
	basis := mat.NewMat[float64](m, k)
	taus := make([]float64, k)
	for j, jMax := 0, k; j < jMax; j++ {
		var sq float64
		for i := j + 1; i < m; i++ {
			v := rng.NormFloat64()
			basis.Set(i, j, v)
			sq += v * v
		}
		taus[j] = 0.5 * (1 + sq)
	}
	return basis, taus
}

func tausFactor(taus []float64, blocksize int) mat.Mat[float64] {
	factor := mat.NewMat[float64](blocksize, len(taus))
	for j, tau := range taus {
		factor.Set(0, j, tau)
	}
	return factor
}

func upgrade(basis, factor mat.Mat[float64]) {
	size := factor.Cols()
	bs := factor.Rows()
	for j := 0; j < size; j += bs {
		w := min(bs, size-j)
		block := factor.Submatrix(0, j, w, w)
		for c := 1; c < w; c++ {
			block.Set(c, c, factor.At(0, j+c))
		}
		UpgradeFactor(block, basis.Submatrix(j, j, basis.Rows()-j, w), w, 1, parallel.Seq())
	}
}

func randomMat(rng *rand.Rand, rows, cols int) mat.Mat[float64] {
	m := mat.NewMat[float64](rows, cols)
	for i, iMax := 0, rows; i < iMax; i++ {
		for j, jMax := 0, cols; j < jMax; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	return m
}

func TestUpgradeFactorMatchesUnblocked(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for _, dims := range [][2]int{{6, 3}, {20, 8}, {40, 17}, {64, 33}} {
		m, k := dims[0], dims[1]
		basis, taus := randomReflectors(rng, m, k)
		rhs := randomMat(rng, m, 5)

		unblocked := mat.NewMat[float64](m, 5)
		unblocked.CopyFrom(rhs)
		f1 := tausFactor(taus, 1)
		stack1 := mat.NewStack[float64](ApplyScratch(1, 5))
		ApplySeqOnLeft(basis, f1, false, unblocked, parallel.Seq(), stack1)

		for _, bs := range []int{2, 4, 8} {
			blocked := mat.NewMat[float64](m, 5)
			blocked.CopyFrom(rhs)
			fb := tausFactor(taus, bs)
			upgrade(basis, fb)
			stack := mat.NewStack[float64](ApplyScratch(bs, 5))
			ApplySeqOnLeft(basis, fb, false, blocked, parallel.Seq(), stack)

			for i, iMax := 0, m; i < iMax; i++ {
				for j, jMax := 0, 5; j < jMax; j++ {
					require.InDelta(t, unblocked.At(i, j), blocked.At(i, j), 1e-10,
						"m=%d k=%d bs=%d at (%d, %d)", m, k, bs, i, j)
				}
			}
		}
	}
}

func TestApplySeqOrthogonal(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	m, k := 15, 7
	basis, taus := randomReflectors(rng, m, k)
	factor := tausFactor(taus, 4)
	upgrade(basis, factor)

	q := mat.NewMat[float64](m, m)
	q.Identity()
	stack := mat.NewStack[float64](ApplyScratch(4, m))
	ApplySeqOnLeft(basis, factor, false, q, parallel.Seq(), stack)

	// QᵀQ = I.
	for i, iMax := 0, m; i < iMax; i++ {
		for j, jMax := 0, m; j < jMax; j++ {
			var dot float64
			for p, pMax := 0, m; p < pMax; p++ {
				dot += q.At(p, i) * q.At(p, j)
			}
			want := 0.0
			if i == j {
				want = 1
			}
			require.InDelta(t, want, dot, 1e-12, "QᵀQ at (%d, %d)", i, j)
		}
	}
}

func TestApplySeqTransposeInverts(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	m, k := 12, 5
	basis, taus := randomReflectors(rng, m, k)
	factor := tausFactor(taus, 4)
	upgrade(basis, factor)

	orig := randomMat(rng, m, 3)
	work := mat.NewMat[float64](m, 3)
	work.CopyFrom(orig)
	stack := mat.NewStack[float64](ApplyScratch(4, 3))

	ApplySeqOnLeft(basis, factor, false, work, parallel.Seq(), stack)
	ApplySeqTransposeOnLeft(basis, factor, false, work, parallel.Seq(), stack)

	for i, iMax := 0, m; i < iMax; i++ {
		for j, jMax := 0, 3; j < jMax; j++ {
			require.InDelta(t, orig.At(i, j), work.At(i, j), 1e-12, "at (%d, %d)", i, j)
		}
	}
}

func TestApplyOnRightMatchesLeft(t *testing.T) {
	rng := rand.New(rand.NewSource(24))
	m, k := 10, 4
	basis, taus := randomReflectors(rng, m, k)
	factor := tausFactor(taus, 2)
	upgrade(basis, factor)

	a := randomMat(rng, 6, m)
	stack := mat.NewStack[float64](ApplyScratch(2, max(6, m)))

	viaRight := mat.NewMat[float64](6, m)
	viaRight.CopyFrom(a)
	ApplySeqOnRight(basis, factor, false, viaRight, parallel.Seq(), stack)

	viaLeft := mat.NewMat[float64](m, 6)
	viaLeft.CopyFrom(a.Transpose())
	ApplySeqTransposeOnLeft(basis, factor, false, viaLeft, parallel.Seq(), stack)

	for i, iMax := 0, 6; i < iMax; i++ {
		for j, jMax := 0, m; j < jMax; j++ {
			require.InDelta(t, viaLeft.At(j, i), viaRight.At(i, j), 1e-12, "at (%d, %d)", i, j)
		}
	}
}
