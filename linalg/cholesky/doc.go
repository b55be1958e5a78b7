// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package cholesky factors self-adjoint matrices stored in their lower
// triangle.
//
// Three factorizations are provided, in increasing order of robustness:
//
//   - Llt: A = L·Lᴴ for positive definite A, with optional dynamic
//     regularization of near-zero pivots.
//   - Ldlt: A = L·D·Lᴴ with unit lower triangular L and real diagonal D,
//     without pivoting.
//   - BunchKaufman: P·A·Pᵀ = L·B·Lᴴ with diagonal pivoting and a block
//     diagonal B of 1×1 and 2×2 blocks, for indefinite A.
//
// All three overwrite the lower triangle of their input with the factors and
// may clobber the strictly upper triangle. Each has a matching in-place solve
// and a *Scratch function sizing its workspace.
package cholesky
