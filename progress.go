package kanon

import (
	"time"

	"github.com/hupe1980/kanon/internal/optimizer"
	"golang.org/x/time/rate"
)

// Phase names a step of a run.
type Phase = optimizer.Phase

const (
	PhaseInitialize    = optimizer.PhaseInitialize
	PhaseMoveRecords   = optimizer.PhaseMoveRecords
	PhaseSplitClusters = optimizer.PhaseSplitClusters
	PhaseFinalize      = optimizer.PhaseFinalize
	PhaseDone          = optimizer.PhaseDone
)

// Progress is reported at every phase boundary and, for step events, after
// each individual move, split or merge.
type Progress struct {
	Phase    Phase
	Round    int
	Clusters int
	// Loss is the normalized total loss. It is zero for step events.
	Loss    float64
	Elapsed time.Duration
	Step    bool
}

// ProgressFunc observes a run. It is called synchronously from the
// optimizing goroutine and must not block for long.
type ProgressFunc func(Progress)

// ThrottleProgress returns a ProgressFunc that forwards phase events
// unconditionally and at most perSecond step events per second.
func ThrottleProgress(fn ProgressFunc, perSecond float64) ProgressFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	return func(p Progress) {
		if p.Step && !limiter.Allow() {
			return
		}
		fn(p)
	}
}

func progressFrom(e optimizer.Event) Progress {
	return Progress{
		Phase:    e.Phase,
		Round:    e.Round,
		Clusters: e.Clusters,
		Loss:     e.Loss,
		Elapsed:  e.Elapsed,
		Step:     e.Step,
	}
}
