package kanon

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/kanon/internal/optimizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))

	err := translateError(&optimizer.ConfigError{Name: "alpha", Value: 0.0, Reason: "must be in (0, 1]"})
	var pe *ErrInvalidParameter
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "alpha", pe.Name)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "alpha")

	err = translateError(fmt.Errorf("wrapped: %w", &optimizer.InternalError{Phase: optimizer.PhaseSplitClusters}))
	var ie *ErrInternal
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, PhaseSplitClusters, ie.Phase)
	assert.ErrorIs(t, err, ErrInconsistent)

	err = translateError(&optimizer.NotConvergedError{Reason: "no fixpoint after 3 rounds"})
	assert.ErrorIs(t, err, ErrNotConverged)
	assert.ErrorIs(t, err, optimizer.ErrNotConverged)
	assert.EqualError(t, err, "kanon: optimizer did not converge: no fixpoint after 3 rounds")

	err = translateError(fmt.Errorf("%w: after 3 rounds", optimizer.ErrNotConverged))
	assert.ErrorIs(t, err, ErrNotConverged)
	assert.ErrorIs(t, err, optimizer.ErrNotConverged)

	assert.Same(t, context.Canceled, translateError(context.Canceled))

	other := errors.New("boom")
	assert.Same(t, other, translateError(other))
}

func TestErrInvalidParameter(t *testing.T) {
	err := invalidParameter("k", 0, "must be at least 1")
	assert.Equal(t, "kanon: invalid k 0: must be at least 1", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.NotErrorIs(t, err, ErrInconsistent)
}
