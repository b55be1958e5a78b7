// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package mat provides the strided matrix views, scalar helpers, workspace
// stack, and permutation types shared by every kernel in this module.
//
// A Mat is a non-owning window into a caller-owned slice. Submatrix, Transpose
// and the Reverse* methods return new views over the same storage, so kernels
// can recurse over blocks without copying. None of the kernels in linalg/
// allocate: temporaries come from a caller-provided Stack whose size is
// computed up front with the Scratch requirement algebra.
package mat
