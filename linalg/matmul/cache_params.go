// Copyright 2025 go-dense Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package matmul

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// BlockParams defines the cache-blocking parameters for the tiled multiply
// loops:
//   - Kc: K-blocking (L1 cache, inner-product strip length)
//   - Mc: M-blocking (L2 cache, row panel height)
//   - Nc: N-blocking (L3 cache, column panel width)
type BlockParams struct {
	Kc int
	Mc int
	Nc int
}

// BlockParamsAVX512 returns blocking parameters for AVX-512 class cores.
// Assumes: 32KB L1d, 1MB L2, large shared L3.
func BlockParamsAVX512() BlockParams {
	return BlockParams{Kc: 512, Mc: 512, Nc: 4096}
}

// BlockParamsAVX2 returns blocking parameters for AVX2 class cores.
// Assumes: 32KB L1d, 256KB L2, 8+MB L3.
func BlockParamsAVX2() BlockParams {
	return BlockParams{Kc: 256, Mc: 256, Nc: 2048}
}

// BlockParamsNEON returns blocking parameters for ARM NEON class cores.
func BlockParamsNEON() BlockParams {
	return BlockParams{Kc: 256, Mc: 256, Nc: 1024}
}

// BlockParamsFallback returns conservative blocking parameters that work on
// any hardware.
func BlockParamsFallback() BlockParams {
	return BlockParams{Kc: 128, Mc: 128, Nc: 512}
}

var defaultBlockParams = detectBlockParams()

func detectBlockParams() BlockParams {
	switch runtime.GOARCH {
	case "amd64":
		if cpu.X86.HasAVX512F {
			return BlockParamsAVX512()
		}
		if cpu.X86.HasAVX2 {
			return BlockParamsAVX2()
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return BlockParamsNEON()
		}
	}
	return BlockParamsFallback()
}

// DefaultBlockParams returns the blocking parameters selected at startup for
// the running CPU.
func DefaultBlockParams() BlockParams {
	return defaultBlockParams
}
