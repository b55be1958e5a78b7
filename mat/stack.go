// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

// Scratch describes a workspace requirement: a number of scalar elements and
// a number of float64 elements. Every kernel that needs workspace exports a
// *Scratch function computing its exact requirement; composites combine the
// requirements of their stages with And (stages that are live at the same
// time) and Or (stages that run one after the other).
type Scratch struct {
	Elems int
	Reals int
}

// ScratchMat is the requirement of one rows×cols scalar temporary.
func ScratchMat(rows, cols int) Scratch {
	return Scratch{Elems: rows * cols}
}

// ScratchElems is the requirement of n scalar elements.
func ScratchElems(n int) Scratch {
	return Scratch{Elems: n}
}

// ScratchRealMat is the requirement of one rows×cols float64 temporary.
func ScratchRealMat(rows, cols int) Scratch {
	return Scratch{Reals: rows * cols}
}

// ScratchReals is the requirement of n float64 elements.
func ScratchReals(n int) Scratch {
	return Scratch{Reals: n}
}

// And returns the requirement of s and o held simultaneously.
func (s Scratch) And(o Scratch) Scratch {
	return Scratch{Elems: s.Elems + o.Elems, Reals: s.Reals + o.Reals}
}

// Or returns the requirement of s and o used one after the other.
func (s Scratch) Or(o Scratch) Scratch {
	return Scratch{Elems: max(s.Elems, o.Elems), Reals: max(s.Reals, o.Reals)}
}

// Stack is a bump allocator for kernel temporaries. It is passed by value:
// carving off a temporary returns the remainder, and the caller's copy is
// untouched, so a temporary's region is automatically reusable once the
// callee returns.
type Stack[T Scalar] struct {
	elems []T
	reals []float64
}

// NewStack allocates a stack satisfying req.
func NewStack[T Scalar](req Scratch) Stack[T] {
	return Stack[T]{
		elems: make([]T, req.Elems),
		reals: make([]float64, req.Reals),
	}
}

// Mat carves a rows×cols scalar temporary. Contents are unspecified.
func (s Stack[T]) Mat(rows, cols int) (Mat[T], Stack[T]) {
	n := rows * cols
	if n > len(s.elems) {
		panic("mat: scratch stack exhausted")
	}
	m := FromSlice(s.elems[:n], rows, cols)
	s.elems = s.elems[n:]
	return m, s
}

// Elems carves n scalar elements. Contents are unspecified.
func (s Stack[T]) Elems(n int) ([]T, Stack[T]) {
	if n > len(s.elems) {
		panic("mat: scratch stack exhausted")
	}
	v := s.elems[:n]
	s.elems = s.elems[n:]
	return v, s
}

// RealMat carves a rows×cols float64 temporary. Contents are unspecified.
func (s Stack[T]) RealMat(rows, cols int) (Mat[float64], Stack[T]) {
	n := rows * cols
	if n > len(s.reals) {
		panic("mat: scratch stack exhausted")
	}
	m := FromSlice(s.reals[:n], rows, cols)
	s.reals = s.reals[n:]
	return m, s
}

// Reals carves n float64 elements. Contents are unspecified.
func (s Stack[T]) Reals(n int) ([]float64, Stack[T]) {
	if n > len(s.reals) {
		panic("mat: scratch stack exhausted")
	}
	v := s.reals[:n]
	s.reals = s.reals[n:]
	return v, s
}
