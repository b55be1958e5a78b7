// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestDegree(t *testing.T) {
	if Seq().Degree() != 1 {
		t.Errorf("Seq().Degree() = %d, want 1", Seq().Degree())
	}
	if Par(4).Degree() != 4 {
		t.Errorf("Par(4).Degree() = %d, want 4", Par(4).Degree())
	}
	if Par(0).Degree() != runtime.GOMAXPROCS(0) {
		t.Errorf("Par(0).Degree() = %d, want %d", Par(0).Degree(), runtime.GOMAXPROCS(0))
	}
}

func TestJoin(t *testing.T) {
	for _, p := range []Parallelism{Seq(), Par(1), Par(2), Par(8)} {
		var a, b atomic.Int32
		Join(
			func(Parallelism) { a.Add(1) },
			func(Parallelism) { b.Add(1) },
			p,
		)
		if a.Load() != 1 || b.Load() != 1 {
			t.Errorf("degree %d: ran a=%d b=%d times", p.Degree(), a.Load(), b.Load())
		}
	}
}

func TestJoinHalvesBudget(t *testing.T) {
	Join(
		func(sub Parallelism) {
			if sub.Degree() != 4 {
				t.Errorf("branch degree = %d, want 4", sub.Degree())
			}
		},
		func(Parallelism) {},
		Par(8),
	)
}

func TestForEach(t *testing.T) {
	for _, p := range []Parallelism{Seq(), Par(3), Par(16)} {
		n := 100
		hits := make([]atomic.Int32, n)
		ForEach(n, func(i int) { hits[i].Add(1) }, p)
		for i, iMax := 0, n; i < iMax; i++ {
			if hits[i].Load() != 1 {
				t.Errorf("degree %d: index %d hit %d times", p.Degree(), i, hits[i].Load())
			}
		}
	}
}

func TestForEachEmpty(t *testing.T) {
	ForEach(0, func(int) { t.Error("task ran for n = 0") }, Par(4))
}

func TestSplitIndices(t *testing.T) {
	tests := []struct {
		n, chunks int
	}{
		{10, 3},
		{7, 7},
		{5, 2},
		{12, 4},
		{3, 5},
	}
	for _, tt := range tests {
		covered := 0
		prevEnd := 0
		for idx, idxMax := 0, tt.chunks; idx < idxMax; idx++ {
			start, length := SplitIndices(tt.n, idx, tt.chunks)
			if start != prevEnd {
				t.Errorf("n=%d chunks=%d: chunk %d starts at %d, want %d", tt.n, tt.chunks, idx, start, prevEnd)
			}
			prevEnd = start + length
			covered += length
		}
		if covered != tt.n {
			t.Errorf("n=%d chunks=%d: covered %d items", tt.n, tt.chunks, covered)
		}
	}
}
