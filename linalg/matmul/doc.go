// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package matmul provides the dense multiply-accumulate primitive the
// factorization kernels are built on, plus a structure-aware variant that
// reads and writes triangular operands.
//
// Both entry points take per-operand conjugation flags instead of materialized
// conjugate copies, an accumulate flag selecting between overwriting and
// updating the destination, and a Parallelism budget. The dense path tiles
// its loops with cache-blocking parameters picked at startup from the CPU's
// feature flags.
package matmul
