package optimizer

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	// DefaultEpsilon is the improvement a move must achieve to count.
	DefaultEpsilon = 1e-11

	// DefaultPairCacheSize bounds the memo of pairwise merge losses used
	// while finalizing.
	DefaultPairCacheSize = 4096

	// DefaultStallRounds is the number of rounds without a new lowest loss
	// after which the move/split loop stops.
	DefaultStallRounds = 20
)

// Phase names a step of the run.
type Phase uint8

const (
	PhaseInitialize Phase = iota
	PhaseMoveRecords
	PhaseSplitClusters
	PhaseFinalize
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialize:
		return "INITIALIZE"
	case PhaseMoveRecords:
		return "MOVE_RECORDS"
	case PhaseSplitClusters:
		return "SPLIT_CLUSTERS"
	case PhaseFinalize:
		return "FINALIZE"
	case PhaseDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Event is emitted at every phase boundary and, when Steps is set, after
// every individual move, split and merge.
type Event struct {
	Phase    Phase
	Round    int
	Clusters int
	// Loss is the normalized total loss. It is only computed for phase events.
	Loss    float64
	Elapsed time.Duration
	// Step marks a single move, split or merge inside a phase.
	Step bool
	// Changed and Duration describe the phase that just ended.
	Changed  bool
	Duration time.Duration
}

// Params configures one run.
type Params struct {
	Alpha float64
	Omega float64

	// Rand drives the initial shuffle. It must not be shared with a
	// concurrent run.
	Rand *rand.Rand

	// Initial, if non-nil, replaces the random initial partition. It must
	// cover every record exactly once.
	Initial [][]int

	// Epsilon defaults to DefaultEpsilon when zero.
	Epsilon float64

	// MaxRounds caps the move/split loop. Zero means unlimited.
	MaxRounds int

	// TimeBudget caps the wall time of the move/split loop. Zero means unlimited.
	TimeBudget time.Duration

	// StallRounds stops the loop once that many consecutive rounds failed to
	// lower the best total loss seen so far. Forced singleton moves and
	// splits can otherwise cycle forever. Zero selects DefaultStallRounds,
	// negative disables the check.
	StallRounds int

	// RequireFixpoint turns a loop stopped by MaxRounds, TimeBudget or
	// StallRounds into a *NotConvergedError. Otherwise the best partition
	// seen is finalized and Counters.Converged is false.
	RequireFixpoint bool

	// PairCacheSize defaults to DefaultPairCacheSize when zero. Negative
	// disables the memo.
	PairCacheSize int

	// Validate re-checks the partition invariant after every phase.
	Validate bool

	// OnEvent receives progress events. Steps enables per-step events.
	OnEvent func(Event)
	Steps   bool
}

func (p *Params) check(k, numRecords int) error {
	if k < 1 {
		return &ConfigError{Name: "k", Value: k, Reason: "must be at least 1"}
	}
	if math.IsNaN(p.Alpha) || p.Alpha <= 0 || p.Alpha > 1 {
		return &ConfigError{Name: "alpha", Value: p.Alpha, Reason: "must be in (0, 1]"}
	}
	if math.IsNaN(p.Omega) || p.Omega <= 1 || p.Omega > 2 {
		return &ConfigError{Name: "omega", Value: p.Omega, Reason: "must be in (1, 2]"}
	}
	if math.IsNaN(p.Epsilon) || p.Epsilon < 0 {
		return &ConfigError{Name: "epsilon", Value: p.Epsilon, Reason: "must not be negative"}
	}
	if p.MaxRounds < 0 {
		return &ConfigError{Name: "max rounds", Value: p.MaxRounds, Reason: "must not be negative"}
	}
	if p.TimeBudget < 0 {
		return &ConfigError{Name: "time budget", Value: p.TimeBudget, Reason: "must not be negative"}
	}
	if numRecords < 1 {
		return &ConfigError{Name: "records", Value: numRecords, Reason: "table is empty"}
	}
	if p.Initial == nil && p.Rand == nil {
		return &ConfigError{Name: "rand", Value: nil, Reason: "required without an initial partition"}
	}
	if p.Initial != nil {
		return checkCover(p.Initial, numRecords)
	}
	return nil
}

// checkCover verifies that groups cover 0..n-1 exactly once.
func checkCover(groups [][]int, n int) error {
	seen := make([]bool, n)
	count := 0
	for i, g := range groups {
		if len(g) == 0 {
			return &ConfigError{Name: "initial partition", Value: i, Reason: "cluster is empty"}
		}
		for _, r := range g {
			if r < 0 || r >= n {
				return &ConfigError{Name: "initial partition", Value: r, Reason: "record out of range"}
			}
			if seen[r] {
				return &ConfigError{Name: "initial partition", Value: r, Reason: "record assigned twice"}
			}
			seen[r] = true
			count++
		}
	}
	if count != n {
		return &ConfigError{Name: "initial partition", Value: count, Reason: "does not cover every record"}
	}
	return nil
}
