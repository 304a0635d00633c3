// Package parallel splits data-independent loops across worker goroutines.
// The CPU backend uses it for the heavy kernels (matmul, convolution) where
// output rows can be computed independently.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how loops are split across goroutines.
type Config struct {
	Enabled    bool // run loops in parallel at all
	NumWorkers int  // goroutines to spawn per loop
	MinPerSpan int  // smallest iteration count worth parallelizing
}

// DefaultConfig sizes the worker count to the machine.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
		MinPerSpan: 4,
	}
}

// For runs f(i) for every i in [0, n). Iterations must be independent: f is
// called concurrently from multiple goroutines when the loop is large enough,
// sequentially otherwise.
func For(n int, cfg Config, f func(i int)) {
	if !cfg.Enabled || n < cfg.MinPerSpan*2 || cfg.NumWorkers < 2 {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	span := (n + cfg.NumWorkers - 1) / cfg.NumWorkers
	if span < cfg.MinPerSpan {
		span = cfg.MinPerSpan
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += span {
		end := min(start+span, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}
