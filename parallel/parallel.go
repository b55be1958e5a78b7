// Copyright 2025 The go-dense Authors. SPDX-License-Identifier: Apache-2.0

// Package parallel provides the fork-join primitives the kernels use to
// split work. Callers pick a Parallelism once at the entry point and the
// kernels thread it through; recursive forks halve the worker budget so the
// total number of live goroutines stays bounded by the initial degree.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Parallelism selects between sequential execution and a bounded number of
// concurrent workers. The zero value is sequential.
type Parallelism struct {
	parallel bool
	workers  int
}

// Seq requests sequential execution.
func Seq() Parallelism { return Parallelism{} }

// Par requests parallel execution with the given worker budget.
// A budget of 0 means GOMAXPROCS.
func Par(workers int) Parallelism {
	if workers < 0 {
		panic("parallel: negative worker budget")
	}
	return Parallelism{parallel: true, workers: workers}
}

// Degree returns the effective number of workers: 1 for sequential
// execution, GOMAXPROCS for Par(0), and the budget otherwise.
func (p Parallelism) Degree() int {
	if !p.parallel {
		return 1
	}
	if p.workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return p.workers
}

// fork returns the budget handed to each side of a two-way join. Both sides
// receive degree - degree/2 workers, overlapping by at most one so neither
// side is starved by an odd budget.
func (p Parallelism) fork() Parallelism {
	n := p.Degree()
	if n <= 1 {
		return Seq()
	}
	return Par(n - n/2)
}

// Join runs a and b, concurrently when p allows it. Each branch receives the
// halved budget.
func Join(a, b func(Parallelism), p Parallelism) {
	if p.Degree() <= 1 {
		a(Seq())
		b(Seq())
		return
	}
	sub := p.fork()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a(sub)
	}()
	b(sub)
	wg.Wait()
}

// ForEach runs task(i) for i in [0, n). Under a parallel budget the indices
// are claimed from an atomic counter by min(degree, n) workers, so uneven
// task costs balance out without a pre-assigned split.
func ForEach(n int, task func(i int), p Parallelism) {
	if n <= 0 {
		return
	}
	workers := min(p.Degree(), n)
	if workers <= 1 {
		for i, iMax := 0, n; i < iMax; i++ {
			task(i)
		}
		return
	}
	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for rangeIdx := 0; rangeIdx < workers; rangeIdx++ {
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1)) - 1
				if i >= n {
					return
				}
				task(i)
			}
		}()
	}
	wg.Wait()
}

// SplitIndices partitions n items into chunkCount contiguous chunks and
// returns the start and length of chunk idx. Leading chunks absorb the
// remainder, so lengths differ by at most one.
func SplitIndices(n, idx, chunkCount int) (start, length int) {
	size := n / chunkCount
	rem := n % chunkCount
	at := func(i int) int {
		if i < rem {
			return i * (size + 1)
		}
		return rem + i*size
	}
	s := at(idx)
	return s, at(idx+1) - s
}
