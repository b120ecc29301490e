package kanon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThrottleProgress(t *testing.T) {
	var got []Progress
	fn := ThrottleProgress(func(p Progress) { got = append(got, p) }, 0.001)

	fn(Progress{Phase: PhaseInitialize})
	for range 100 {
		fn(Progress{Phase: PhaseMoveRecords, Step: true})
	}
	fn(Progress{Phase: PhaseMoveRecords})
	fn(Progress{Phase: PhaseDone})

	// The burst of one lets the first step through.
	assert.Len(t, got, 4)
	assert.True(t, got[1].Step)
	assert.Equal(t, PhaseDone, got[3].Phase)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "INITIALIZE", PhaseInitialize.String())
	assert.Equal(t, "SPLIT_CLUSTERS", PhaseSplitClusters.String())
	assert.Equal(t, "DONE", PhaseDone.String())
}
