package optimizer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/kanon/cluster"
	"github.com/hupe1980/kanon/internal/partition"
)

// ctxCheckInterval is the number of records moved between context checks.
const ctxCheckInterval = 1024

// Counters accumulates the statistics of one run.
type Counters struct {
	RecordsMoved   int
	ClustersSplit  int
	ClustersMerged int
	// Losses are normalized by the number of records.
	InitialLoss float64
	FinalLoss   float64
	Clusters    int
	Rounds      int
	Elapsed     time.Duration
	// Undersized is set when the table has fewer than k records and the
	// single remaining cluster could not reach k.
	Undersized bool
	// Converged is set when the move/split loop reached a fixpoint.
	// Otherwise StopReason says which limit ended it.
	Converged  bool
	StopReason string
}

// Result is the outcome of a successful run.
type Result[V any] struct {
	// Output holds one generalized row per input record.
	Output [][]V
	// Clusters holds the member records of every final cluster, each sorted
	// ascending, ordered by their smallest record.
	Clusters [][]int
	Counters Counters
}

// Optimizer runs the local search over the clusters of an oracle.
type Optimizer[V any] struct {
	oracle cluster.Oracle[V]
	k      int
	part   *partition.Partition[cluster.Cluster[V]]

	// per-run state
	params   Params
	eps      float64
	counters Counters
	round    int
	start    time.Time
	now      func() time.Time
}

// New creates an optimizer for clusters of at least k records over oracle.
func New[V any](oracle cluster.Oracle[V], k int) *Optimizer[V] {
	return &Optimizer[V]{
		oracle: oracle,
		k:      k,
		part:   partition.New[cluster.Cluster[V]](0),
		now:    time.Now,
	}
}

// K returns the minimum cluster size.
func (o *Optimizer[V]) K() int { return o.k }

// Run executes one complete optimization.
//
// Parameters are validated before any state is touched. The reverse index is
// reset and reused across runs.
func (o *Optimizer[V]) Run(ctx context.Context, p Params) (*Result[V], error) {
	n := o.oracle.NumRecords()
	if err := p.check(o.k, n); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.params = p
	o.eps = p.Epsilon
	if o.eps == 0 {
		o.eps = DefaultEpsilon
	}
	o.counters = Counters{}
	o.round = 0
	o.start = o.now()

	phaseStart := o.start
	if err := o.initialize(); err != nil {
		return nil, err
	}
	o.counters.InitialLoss = o.normalizedLoss()
	if err := o.endPhase(PhaseInitialize, true, phaseStart); err != nil {
		return nil, err
	}

	best := &bestPartition{}
	o.recordBest(best)
	stall := o.params.StallRounds
	if stall == 0 {
		stall = DefaultStallRounds
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if reason := o.exhausted(); reason != "" {
			if err := o.stop(best, reason); err != nil {
				return nil, err
			}
			break
		}
		o.round++
		o.counters.Rounds = o.round

		phaseStart = o.now()
		moved, err := o.moveRecords(ctx)
		if err != nil {
			return nil, err
		}
		if err := o.endPhase(PhaseMoveRecords, moved, phaseStart); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		phaseStart = o.now()
		split, err := o.splitClusters()
		if err != nil {
			return nil, err
		}
		if err := o.endPhase(PhaseSplitClusters, split, phaseStart); err != nil {
			return nil, err
		}

		if !moved && !split {
			o.counters.Converged = true
			break
		}
		o.recordBest(best)
		if stall > 0 && best.stale >= stall {
			if err := o.stop(best, fmt.Sprintf("no improvement in %d rounds", stall)); err != nil {
				return nil, err
			}
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	phaseStart = o.now()
	merged, err := o.ensureMinSize()
	if err != nil {
		return nil, err
	}
	if err := o.part.Validate(); err != nil {
		return nil, internalErr(PhaseFinalize, "partition invariant", err)
	}
	o.counters.FinalLoss = o.normalizedLoss()
	o.counters.Clusters = o.part.Len()
	if err := o.endPhase(PhaseFinalize, merged, phaseStart); err != nil {
		return nil, err
	}

	phaseStart = o.now()
	res := o.materialize()
	o.counters.Elapsed = o.now().Sub(o.start)
	res.Counters = o.counters
	o.emit(Event{
		Phase:    PhaseDone,
		Round:    o.round,
		Clusters: o.counters.Clusters,
		Loss:     o.counters.FinalLoss,
		Elapsed:  o.counters.Elapsed,
		Duration: o.now().Sub(phaseStart),
	})
	return res, nil
}

// initialize builds the starting partition.
func (o *Optimizer[V]) initialize() error {
	n := o.oracle.NumRecords()
	o.part.Reset(n)

	if o.params.Initial != nil {
		for _, g := range o.params.Initial {
			o.part.Add(o.oracle.NewCluster(g))
		}
		return nil
	}

	k0 := max(1, int(math.Floor(o.params.Alpha*float64(o.k))))

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	o.params.Rand.Shuffle(n, func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })

	for _, size := range groupSizes(n, k0) {
		o.part.Add(o.oracle.NewCluster(perm[:size]))
		perm = perm[size:]
	}
	return nil
}

// groupSizes splits n records into floor(n/k0) groups of k0 and spreads the
// remainder round-robin over them. Fewer than k0 records form one group.
func groupSizes(n, k0 int) []int {
	c := n / k0
	if c == 0 {
		return []int{n}
	}
	rem := n - c*k0
	sizes := make([]int, c)
	for i := range sizes {
		sizes[i] = k0 + rem/c
		if i < rem%c {
			sizes[i]++
		}
	}
	return sizes
}

// materialize writes each cluster's tuple into the rows of its records.
func (o *Optimizer[V]) materialize() *Result[V] {
	n := o.oracle.NumRecords()
	res := &Result[V]{
		Output:   make([][]V, n),
		Clusters: make([][]int, 0, o.part.Len()),
	}
	for _, c := range o.part.All() {
		tuple := c.Tuple()
		records := cluster.Collect(c)
		for _, r := range records {
			row := make([]V, len(tuple))
			copy(row, tuple)
			res.Output[r] = row
		}
		res.Clusters = append(res.Clusters, records)
	}
	sortClusters(res.Clusters)
	return res
}

func (o *Optimizer[V]) totalLoss() float64 {
	var sum float64
	for _, c := range o.part.All() {
		sum += c.Loss()
	}
	return sum
}

func (o *Optimizer[V]) normalizedLoss() float64 {
	n := o.part.NumRecords()
	if n == 0 {
		return 0
	}
	return o.totalLoss() / float64(n)
}

// exhausted returns why the round cap or the time budget ends the loop, or
// "" if neither does.
func (o *Optimizer[V]) exhausted() string {
	if o.params.MaxRounds > 0 && o.round >= o.params.MaxRounds {
		return fmt.Sprintf("no fixpoint after %d rounds", o.round)
	}
	if o.params.TimeBudget > 0 {
		if elapsed := o.now().Sub(o.start); elapsed > o.params.TimeBudget {
			return fmt.Sprintf("time budget %s exhausted after %d rounds", o.params.TimeBudget, o.round)
		}
	}
	return ""
}

// stop ends the loop before a fixpoint. Unless a fixpoint is required, the
// best partition seen is reinstated so that finalizing starts from it.
func (o *Optimizer[V]) stop(best *bestPartition, reason string) error {
	if o.params.RequireFixpoint {
		return &NotConvergedError{Reason: reason}
	}
	o.counters.StopReason = reason
	o.restoreBest(best)
	return nil
}

func (o *Optimizer[V]) endPhase(phase Phase, changed bool, phaseStart time.Time) error {
	if o.params.Validate {
		if err := o.part.Validate(); err != nil {
			return internalErr(phase, "partition invariant", err)
		}
	}
	if o.params.OnEvent == nil {
		return nil
	}
	now := o.now()
	o.emit(Event{
		Phase:    phase,
		Round:    o.round,
		Clusters: o.part.Len(),
		Loss:     o.normalizedLoss(),
		Elapsed:  now.Sub(o.start),
		Changed:  changed,
		Duration: now.Sub(phaseStart),
	})
	return nil
}

func (o *Optimizer[V]) step(phase Phase) {
	if o.params.OnEvent == nil || !o.params.Steps {
		return
	}
	o.emit(Event{
		Phase:    phase,
		Round:    o.round,
		Clusters: o.part.Len(),
		Elapsed:  o.now().Sub(o.start),
		Step:     true,
	})
}

func (o *Optimizer[V]) emit(e Event) {
	if o.params.OnEvent != nil {
		o.params.OnEvent(e)
	}
}
