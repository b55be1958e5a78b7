// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package svd computes the singular value decomposition of dense real
// matrices.
//
// Compute factors a rows×cols matrix A as A = U·Σ·Vᵀ with orthonormal U and
// V and nonnegative singular values in decreasing order. Small inputs are
// diagonalized directly by two-sided Jacobi rotations after a column-pivoted
// QR step; larger inputs are first reduced to bidiagonal form by block
// Householder transformations, then diagonalized by the implicit-shift
// Golub–Kahan QR iteration.
//
// All operations take their temporary storage from a caller-provided
// mat.Stack sized by the matching Scratch function.
package svd
