package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageError(t *testing.T) {
	inner := fmt.Errorf("%w: %s", ErrMissingArtifact, "circuit/circuit.pk")
	err := AtStage(StageProve, inner)

	var se *StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, StageProve, se.Stage)
	require.ErrorIs(t, err, ErrMissingArtifact)
	require.Equal(t, "prove: missing artifact: circuit/circuit.pk", err.Error())
	require.Equal(t, ErrMissingArtifact, Kind(err))

	require.NoError(t, AtStage(StageLoad, nil))
	require.Nil(t, Kind(errors.New("other")))
}
