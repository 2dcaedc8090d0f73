// Package parallel fans independent loop iterations out over goroutines.
//
// Every kernel in gradnet that parallelises does so over output elements that
// are written by exactly one iteration (a matrix row, a sample, a filter), so
// callers never need locking inside the loop body.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how loops are split across workers.
type Config struct {
	Enabled      bool // Fan out at all; false forces sequential execution.
	NumWorkers   int  // Upper bound on concurrently running chunks.
	MinChunkSize int  // Iterations per chunk below which splitting is not worth it.
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 16,
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// chunk returns the chunk size for n iterations, or 0 when the loop should run inline.
func (c Config) chunk(n int) int {
	if !c.Enabled || c.NumWorkers < 2 || n < 2*max(c.MinChunkSize, 1) {
		return 0
	}
	return max((n+c.NumWorkers-1)/c.NumWorkers, c.MinChunkSize)
}

// ForRange calls f(start, end) over disjoint half-open ranges covering [0, n).
func ForRange(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	size := cfg.chunk(n)
	if size == 0 {
		f(0, n)
		return
	}

	var wg sync.WaitGroup
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			f(s, e)
		}(start, end)
	}
	wg.Wait()
}

// For executes f(i) for i in [0, n).
func For(n int, f func(i int), cfg Config) {
	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForBatch iterates the batch*channels grid used by convolution and pooling.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	if channels <= 0 {
		return
	}
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
