package accesscode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meetingspace/api/internal/errors"
)

func TestIssue_SucceedsOnFirstAttemptWhenCreatorAccepts(t *testing.T) {
	var gotCode string
	calls := 0

	err := Issue(context.Background(), func(ctx context.Context, code string) error {
		calls++
		gotCode = code
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, gotCode, 8, "codes are zero-padded to 8 digits")
	for _, r := range gotCode {
		assert.True(t, r >= '0' && r <= '9', "code must be purely numeric")
	}
}

func TestIssue_RetriesOnAccessCodeConflictWithFreshCodeEachTime(t *testing.T) {
	seen := map[string]bool{}
	attempts := 0

	err := Issue(context.Background(), func(ctx context.Context, code string) error {
		attempts++
		seen[code] = true
		if attempts < 3 {
			return apperrors.AccessCodeConflict()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Len(t, seen, 3, "each retry should have tried a distinct candidate code")
}

func TestIssue_GivesUpAfterExhaustingRetryBudget(t *testing.T) {
	attempts := 0

	err := Issue(context.Background(), func(ctx context.Context, code string) error {
		attempts++
		return apperrors.AccessCodeConflict()
	})

	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeCodeExhaustion, appErr.Code)
	assert.Equal(t, 5, attempts)
}

func TestIssue_PropagatesNonConflictErrorsWithoutRetrying(t *testing.T) {
	attempts := 0
	dbErr := apperrors.DatabaseError(assertErr("connection refused"))

	err := Issue(context.Background(), func(ctx context.Context, code string) error {
		attempts++
		return dbErr
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts, "a non-conflict error must not be retried")
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDatabaseError, appErr.Code)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
