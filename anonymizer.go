package kanon

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/kanon/cluster"
	"github.com/hupe1980/kanon/internal/optimizer"
)

// Result is the outcome of one successful run.
type Result[V any] struct {
	// ID identifies the run in logs and snapshots.
	ID    uuid.UUID `json:"id"`
	K     int       `json:"k"`
	Alpha float64   `json:"alpha"`
	Omega float64   `json:"omega"`

	// Output holds one generalized row per input record, in input order.
	// Rows of records in the same cluster are equal.
	Output [][]V `json:"output"`

	// Clusters lists the records of every cluster, each sorted ascending,
	// ordered by their smallest record.
	Clusters [][]int `json:"clusters"`

	Statistics Statistics `json:"statistics"`
}

// Anonymizer partitions the records of an oracle into clusters of at least
// k records with low total information loss.
//
// Execute is synchronous. Concurrent calls on one Anonymizer are serialized;
// use separate Anonymizers (or RunBest) for parallel runs.
type Anonymizer[V any] struct {
	mu     sync.Mutex
	oracle cluster.Oracle[V]
	k      int
	opt    *optimizer.Optimizer[V]
	opts   options
	logger *Logger
}

// New creates an Anonymizer for clusters of at least k records.
//
// Example:
//
//	oracle, _ := loss.NewVariance(rows)
//	a, err := kanon.New(oracle, 5, kanon.WithSeed(42))
//	res, err := a.Execute(ctx, 1.0, 2.0)
func New[V any](oracle cluster.Oracle[V], k int, optFns ...Option) (*Anonymizer[V], error) {
	if oracle == nil {
		return nil, invalidParameter("oracle", nil, "must not be nil")
	}
	if k < 1 {
		return nil, invalidParameter("k", k, "must be at least 1")
	}
	n := oracle.NumRecords()
	if n < 1 {
		return nil, invalidParameter("records", n, "table is empty")
	}

	opts := applyOptions(optFns)
	if err := opts.check(); err != nil {
		return nil, err
	}

	return &Anonymizer[V]{
		oracle: oracle,
		k:      k,
		opt:    optimizer.New(oracle, k),
		opts:   opts,
		logger: opts.logger.WithK(k).WithRecords(n),
	}, nil
}

// K returns the minimum cluster size.
func (a *Anonymizer[V]) K() int { return a.k }

// Execute runs one complete optimization.
//
// alpha in (0, 1] scales the initial cluster size to floor(alpha*k); omega in
// (1, 2] bounds cluster sizes at omega*k during the search. Invalid values
// yield an *ErrInvalidParameter before any state changes.
func (a *Anonymizer[V]) Execute(ctx context.Context, alpha, omega float64) (*Result[V], error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	id := uuid.New()
	logger := a.logger.WithRun(id.String())

	params := optimizer.Params{
		Alpha:           alpha,
		Omega:           omega,
		Rand:            a.rand(),
		Initial:         a.opts.initial,
		Epsilon:         a.opts.epsilon,
		MaxRounds:       a.opts.maxRounds,
		TimeBudget:      a.opts.timeBudget,
		StallRounds:     a.opts.stallRounds,
		RequireFixpoint: a.opts.requireFixpoint,
		PairCacheSize:   a.opts.pairCacheSize,
		Validate:        a.opts.validate,
		Steps:           a.opts.progress != nil,
		OnEvent:         a.observe(ctx, logger),
	}

	res, err := a.opt.Run(ctx, params)
	err = translateError(err)
	duration := time.Since(start)
	if err != nil {
		a.opts.metricsCollector.RecordRun(nil, duration, err)
		logger.LogRun(ctx, nil, err)
		return nil, err
	}

	out := &Result[V]{
		ID:         id,
		K:          a.k,
		Alpha:      alpha,
		Omega:      omega,
		Output:     res.Output,
		Clusters:   res.Clusters,
		Statistics: statisticsFrom(res.Counters),
	}
	a.opts.metricsCollector.RecordRun(&out.Statistics, duration, nil)
	logger.LogRun(ctx, &out.Statistics, nil)
	return out, nil
}

// rand returns the generator for the next run.
func (a *Anonymizer[V]) rand() *rand.Rand {
	switch {
	case a.opts.rand != nil:
		return a.opts.rand
	case a.opts.hasSeed:
		return newRand(a.opts.seed)
	default:
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

func (a *Anonymizer[V]) observe(ctx context.Context, logger *Logger) func(optimizer.Event) {
	progress := a.opts.progress
	metrics := a.opts.metricsCollector
	return func(e optimizer.Event) {
		p := progressFrom(e)
		if !e.Step {
			metrics.RecordPhase(e.Phase, e.Duration, e.Changed)
			logger.LogPhase(ctx, p, e.Changed, e.Duration)
		}
		if progress != nil {
			progress(p)
		}
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
