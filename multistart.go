package kanon

import (
	"context"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/hupe1980/kanon/cluster"
	"golang.org/x/sync/errgroup"
)

// RunBest executes runs independent optimizations with different seeds, at
// most parallelism at a time, and returns the result with the lowest final
// loss together with the merged Statistics of all runs.
//
// With WithSeed the run seeds are derived from it and the outcome is
// reproducible. parallelism <= 0 uses GOMAXPROCS. The oracle is shared by
// all runs, so its NewCluster must be safe for concurrent use; the same
// holds for the progress callback and metrics collector. The first failing
// run cancels the others and its error is returned.
func RunBest[V any](ctx context.Context, oracle cluster.Oracle[V], k int, alpha, omega float64, runs, parallelism int, optFns ...Option) (*Result[V], Statistics, error) {
	if runs < 1 {
		return nil, Statistics{}, invalidParameter("runs", runs, "must be at least 1")
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	opts := applyOptions(optFns)
	if opts.initial != nil {
		return nil, Statistics{}, invalidParameter("initial partition", len(opts.initial), "not supported with multiple runs")
	}
	if opts.rand != nil {
		return nil, Statistics{}, invalidParameter("rand", "set", "use WithSeed with multiple runs")
	}
	base := opts.seed
	if !opts.hasSeed {
		base = rand.Uint64()
	}

	// Validate once up front so a bad parameter fails before any work.
	anonymizers := make([]*Anonymizer[V], runs)
	for i := range anonymizers {
		runOpts := append(slices.Clone(optFns), WithSeed(deriveSeed(base, uint64(i))))
		a, err := New(oracle, k, runOpts...)
		if err != nil {
			return nil, Statistics{}, err
		}
		anonymizers[i] = a
	}

	results := make([]*Result[V], runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, a := range anonymizers {
		g.Go(func() error {
			res, err := a.Execute(ctx, alpha, omega)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Statistics{}, err
	}

	best := 0
	for i, r := range results {
		if r.Statistics.FinalLoss < results[best].Statistics.FinalLoss {
			best = i
		}
	}

	var total Statistics
	for i, r := range results {
		if i != best {
			total.Merge(r.Statistics)
		}
	}
	total.Merge(results[best].Statistics)
	total.InitialLoss = results[best].Statistics.InitialLoss
	return results[best], total, nil
}

// golden is the SplitMix64 increment, an odd constant.
const golden = 0x9e3779b97f4a7c15

// deriveSeed mixes a base seed and a stream index into an independent seed.
// The base is scrambled before the stream is added, so nearby (base, stream)
// pairs do not collide. Streams of one base never collide.
func deriveSeed(base, stream uint64) uint64 {
	return splitmix64(splitmix64(base) + (stream+1)*golden)
}

func splitmix64(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
