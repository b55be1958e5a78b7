// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

package mat

import (
	"math"
	"math/cmplx"
)

// Scalar is the set of element types the kernels operate on. The constraint
// lists exact types so that values can be inspected with type switches; all
// four support the arithmetic operators directly.
type Scalar interface {
	float32 | float64 | complex64 | complex128
}

// Float is the real subset of Scalar, for kernels that need a total order.
type Float interface {
	float32 | float64
}

// IsComplex reports whether T is one of the complex instantiations.
func IsComplex[T Scalar]() bool {
	var z T
	switch any(z).(type) {
	case complex64, complex128:
		return true
	}
	return false
}

// Conj returns the complex conjugate of x. For real types it is the identity.
func Conj[T Scalar](x T) T {
	switch v := any(x).(type) {
	case complex64:
		return any(complex(real(v), -imag(v))).(T)
	case complex128:
		return any(cmplx.Conj(v)).(T)
	}
	return x
}

// Real returns the real part of x as a float64.
func Real[T Scalar](x T) float64 {
	switch v := any(x).(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case complex64:
		return float64(real(v))
	default:
		return real(any(x).(complex128))
	}
}

// Imag returns the imaginary part of x as a float64.
func Imag[T Scalar](x T) float64 {
	switch v := any(x).(type) {
	case complex64:
		return float64(imag(v))
	case complex128:
		return imag(v)
	}
	return 0
}

// Abs returns the modulus of x as a float64.
func Abs[T Scalar](x T) float64 {
	switch v := any(x).(type) {
	case float32:
		return math.Abs(float64(v))
	case float64:
		return math.Abs(v)
	case complex64:
		return cmplx.Abs(complex128(v))
	default:
		return cmplx.Abs(any(x).(complex128))
	}
}

// Abs2 returns the squared modulus of x as a float64.
func Abs2[T Scalar](x T) float64 {
	re, im := Real(x), Imag(x)
	return re*re + im*im
}

// FromReal converts a float64 into T, placing it in the real part.
func FromReal[T Scalar](r float64) T {
	var z T
	switch any(z).(type) {
	case float32:
		return any(float32(r)).(T)
	case float64:
		return any(r).(T)
	case complex64:
		return any(complex(float32(r), 0)).(T)
	default:
		return any(complex(r, 0)).(T)
	}
}

// ScaleReal returns x scaled by the real factor r.
func ScaleReal[T Scalar](x T, r float64) T {
	return x * FromReal[T](r)
}

// Sqrt returns the square root of x. For real T the input must be
// non-negative.
func Sqrt[T Scalar](x T) T {
	switch v := any(x).(type) {
	case float32:
		return any(float32(math.Sqrt(float64(v)))).(T)
	case float64:
		return any(math.Sqrt(v)).(T)
	case complex64:
		return any(complex64(cmplx.Sqrt(complex128(v)))).(T)
	default:
		return any(cmplx.Sqrt(any(x).(complex128))).(T)
	}
}

// Epsilon returns the machine epsilon of T's associated real type.
func Epsilon[T Scalar]() float64 {
	var z T
	switch any(z).(type) {
	case float32, complex64:
		return 0x1p-23
	}
	return 0x1p-52
}

// ZeroThreshold returns the smallest positive normal value of T's associated
// real type. Magnitudes at or below it are treated as zero by the iterative
// kernels.
func ZeroThreshold[T Scalar]() float64 {
	var z T
	switch any(z).(type) {
	case float32, complex64:
		return 0x1p-126
	}
	return 0x1p-1022
}
