package kanon

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"
)

// DefaultMaxRounds caps the move/split loop unless WithMaxRounds says
// otherwise.
const DefaultMaxRounds = 1000

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	progress         ProgressFunc

	seed    uint64
	hasSeed bool
	rand    *rand.Rand
	initial [][]int

	epsilon         float64
	maxRounds       int
	timeBudget      time.Duration
	stallRounds     int
	requireFixpoint bool
	pairCacheSize   int
	validate        bool
}

// Option configures an Anonymizer.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for run and phase
// observations.
//
// Example:
//
//	metrics := &kanon.BasicMetricsCollector{}
//	a, _ := kanon.New(oracle, 5, kanon.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, moved: %d\n", stats.RunCount, stats.RecordsMoved)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for runs.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := kanon.NewJSONLogger(slog.LevelInfo)
//	a, _ := kanon.New(oracle, 5, kanon.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithProgress registers a callback that observes every phase boundary and
// every individual move, split and merge. Wrap it in ThrottleProgress for
// large tables.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

// WithSeed makes runs reproducible. Every Execute call starts from a fresh
// generator seeded with seed, so repeated calls return the same result.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithRand supplies the generator for the initial shuffle. It takes
// precedence over WithSeed and advances across Execute calls.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rand = r
	}
}

// WithInitialPartition replaces the random initial partition. Every record
// must appear in exactly one group; alpha is then ignored for initialization.
func WithInitialPartition(groups [][]int) Option {
	return func(o *options) {
		o.initial = groups
	}
}

// WithEpsilon sets the minimum improvement a move must achieve.
// Zero selects the default of 1e-11.
func WithEpsilon(eps float64) Option {
	return func(o *options) {
		o.epsilon = eps
	}
}

// WithMaxRounds caps the number of move/split rounds. Zero removes the cap.
// Exhausting it finalizes the best partition seen and clears
// Statistics.Converged.
func WithMaxRounds(n int) Option {
	return func(o *options) {
		o.maxRounds = n
	}
}

// WithTimeBudget caps the wall time of the move/split loop. Exhausting it
// behaves like exhausting the round cap.
func WithTimeBudget(d time.Duration) Option {
	return func(o *options) {
		o.timeBudget = d
	}
}

// WithStallRounds stops the move/split loop after n consecutive rounds that
// did not improve on the best partition seen. Zero selects the default of
// 20, negative disables the check.
func WithStallRounds(n int) Option {
	return func(o *options) {
		o.stallRounds = n
	}
}

// WithRequireFixpoint fails the run with ErrNotConverged whenever the loop
// is stopped by the round cap, the time budget or the stall check.
func WithRequireFixpoint(enabled bool) Option {
	return func(o *options) {
		o.requireFixpoint = enabled
	}
}

// WithPairCacheSize sizes the memo of pairwise merge losses used while
// finalizing. Negative disables it.
func WithPairCacheSize(n int) Option {
	return func(o *options) {
		o.pairCacheSize = n
	}
}

// WithValidation re-checks the partition invariant after every phase.
// Intended for tests of custom oracles.
func WithValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		maxRounds:        DefaultMaxRounds,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o *options) check() error {
	if o.maxRounds < 0 {
		return invalidParameter("max rounds", o.maxRounds, "must not be negative")
	}
	if o.timeBudget < 0 {
		return invalidParameter("time budget", o.timeBudget, "must not be negative")
	}
	if o.epsilon < 0 || math.IsNaN(o.epsilon) {
		return invalidParameter("epsilon", o.epsilon, "must not be negative")
	}
	return nil
}
