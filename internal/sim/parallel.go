package sim

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"github.com/san-kum/xpbd/internal/vec"
	"github.com/san-kum/xpbd/internal/xpbd"
)

// SceneFactory builds a fresh scene for one ensemble member.
type SceneFactory func(ctx context.Context, seed int64) (*xpbd.Scene, error)

// Ensemble runs independent copies of a scene concurrently, one per seed.
// Each member gets its own scene and its own metric instances.
type Ensemble struct {
	factory    SceneFactory
	newMetrics func() []Metric
	numRuns    int
	seedStart  int64
}

func NewEnsemble(factory SceneFactory, newMetrics func() []Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, newMetrics: newMetrics, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(idx)

			scene, err := e.factory(ctx, cfgCopy.Seed)
			if err != nil {
				errs[idx] = err
				return
			}
			s := New(scene)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}

			results[idx], errs[idx] = s.Run(ctx, cfgCopy)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Jitter displaces every free particle by a uniform offset in
// [-amount, amount] on each axis. Previous moves with Position so no
// velocity is introduced.
func Jitter(s *xpbd.Scene, rng *rand.Rand, amount float64) {
	for i := range s.Particles {
		p := &s.Particles[i]
		if p.Pinned() {
			continue
		}
		d := vec.New((rng.Float64()*2-1)*amount, (rng.Float64()*2-1)*amount)
		p.Position = p.Position.Add(d)
		p.Previous = p.Position
	}
}

// ParallelFor executes fn in parallel over [0, n) in contiguous chunks.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	numWorkers := runtime.NumCPU()
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
