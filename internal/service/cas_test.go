package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smkcup/kart-tournament/internal/store"
)

func TestRetryOnConflict(t *testing.T) {
	errBoom := errors.New("boom")

	testCases := []struct {
		name      string
		conflicts int
		failWith  error
		wantCalls int
		wantErr   error
	}{
		{name: "first try", conflicts: 0, wantCalls: 1},
		{name: "one conflict", conflicts: 1, wantCalls: 2},
		{name: "last attempt succeeds", conflicts: maxReportAttempts - 1, wantCalls: maxReportAttempts},
		{name: "conflicts exhausted", conflicts: maxReportAttempts, wantCalls: maxReportAttempts, wantErr: store.ErrVersionConflict},
		{name: "other errors are not retried", conflicts: 0, failWith: errBoom, wantCalls: 1, wantErr: errBoom},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			err := retryOnConflict(context.Background(), maxReportAttempts, func() error {
				calls++
				if calls <= tc.conflicts {
					return &store.VersionConflictError{Current: calls + 1}
				}
				return tc.failWith
			})

			assert.Equal(t, tc.wantCalls, calls)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestRetryOnConflictStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := retryOnConflict(ctx, maxReportAttempts, func() error {
		calls++
		return &store.VersionConflictError{Current: 2}
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}
