// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

import "testing"

func TestScratchCombine(t *testing.T) {
	a := Scratch{Elems: 10, Reals: 2}
	b := Scratch{Elems: 4, Reals: 6}

	and := a.And(b)
	if and.Elems != 14 || and.Reals != 8 {
		t.Errorf("And = %+v, want {14 8}", and)
	}
	or := a.Or(b)
	if or.Elems != 10 || or.Reals != 6 {
		t.Errorf("Or = %+v, want {10 6}", or)
	}
}

func TestStackCarve(t *testing.T) {
	stack := NewStack[float64](ScratchMat(2, 3).And(ScratchElems(4)).And(ScratchReals(5)))

	m, rest := stack.Mat(2, 3)
	if m.Rows() != 2 || m.Cols() != 3 {
		t.Fatalf("carved shape = %dx%d", m.Rows(), m.Cols())
	}
	v, rest := rest.Elems(4)
	if len(v) != 4 {
		t.Fatalf("carved len = %d", len(v))
	}
	r, _ := rest.Reals(5)
	if len(r) != 5 {
		t.Fatalf("carved reals len = %d", len(r))
	}

	// The caller's copy still sees the full stack.
	m2, _ := stack.Mat(2, 3)
	m.Set(0, 0, 42)
	if m2.At(0, 0) != 42 {
		t.Error("re-carving from the caller's copy must alias the same region")
	}
}

func TestStackExhausted(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on exhausted stack")
		}
	}()
	stack := NewStack[float64](ScratchElems(3))
	_, stack = stack.Elems(2)
	stack.Elems(2)
}

func TestStackRealPool(t *testing.T) {
	stack := NewStack[complex128](ScratchRealMat(2, 2))
	m, _ := stack.RealMat(2, 2)
	m.Set(1, 1, 3.5)
	if m.At(1, 1) != 3.5 {
		t.Errorf("RealMat element = %v, want 3.5", m.At(1, 1))
	}
}
