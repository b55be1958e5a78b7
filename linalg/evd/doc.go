// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package evd computes eigenvalue decompositions of dense matrices.
//
// SelfAdjoint handles Hermitian (or real symmetric) matrices through
// tridiagonalization and an implicit-shift QR iteration on the condensed
// problem, producing real eigenvalues in ascending order and an orthonormal
// eigenvector basis.
//
// Real handles general real square matrices through Hessenberg reduction and
// the double-shift QR iteration, producing eigenvalues as separate real and
// imaginary parts. Complex conjugate pairs occupy consecutive positions; the
// eigenvector columns of such a pair hold the real and imaginary parts of the
// eigenvector of the eigenvalue with positive imaginary part.
package evd
