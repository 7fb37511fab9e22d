package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithRetryGivesUpImmediatelyOnNonTransientError(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		return errors.New("unique constraint violation")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestWithRetryRetriesTransientErrorThenSucceeds(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestIsRetryableError(t *testing.T) {
	require.True(t, isRetryableError(errors.New("i/o timeout")))
	require.False(t, isRetryableError(errors.New("duplicate key value")))
	require.False(t, isRetryableError(nil))
}
