package sessionstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingspace/api/internal/cache"
	apperrors "github.com/meetingspace/api/internal/errors"
)

// disabledCache returns a *cache.Cache with Enabled: false, giving the
// registry's in-process-only fallback path without needing a live Redis.
func disabledCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.NewCache(cache.Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, c.IsEnabled())
	return c
}

func TestRegistryRegisterAndLookup_RoundTrip(t *testing.T) {
	r := New(nil)
	state := NewSessionState("meeting-1", "ABC123", 30, "host-1", "participants-1")

	require.NoError(t, r.Register("ABC123", state))

	got, err := r.Lookup("ABC123")
	require.NoError(t, err)
	assert.Same(t, state, got)
}

func TestRegistryLookup_ReturnsSessionNotFoundForUnknownCode(t *testing.T) {
	r := New(nil)

	_, err := r.Lookup("NOPE")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, appErr.Code)
}

func TestRegistryRegister_RejectsConflictingDoubleRegistration(t *testing.T) {
	r := New(nil)
	first := NewSessionState("meeting-1", "ABC123", 30, "", "")
	second := NewSessionState("meeting-2", "ABC123", 30, "", "")

	require.NoError(t, r.Register("ABC123", first))

	err := r.Register("ABC123", second)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestRegistryUnregister_RemovesEntry(t *testing.T) {
	r := New(nil)
	state := NewSessionState("meeting-1", "ABC123", 30, "", "")
	require.NoError(t, r.Register("ABC123", state))

	r.Unregister(context.Background(), "ABC123")

	_, err := r.Lookup("ABC123")
	assert.Error(t, err)
}

func TestRegistryUnregister_ThenRegisterSameCodeSucceeds(t *testing.T) {
	r := New(nil)
	first := NewSessionState("meeting-1", "ABC123", 30, "", "")
	require.NoError(t, r.Register("ABC123", first))
	r.Unregister(context.Background(), "ABC123")

	second := NewSessionState("meeting-2", "ABC123", 30, "", "")
	assert.NoError(t, r.Register("ABC123", second))
}

func TestMarkLockedAndIsLocked_WithoutCacheFallsBackToInProcessState(t *testing.T) {
	r := New(nil)
	state := NewSessionState("meeting-1", "ABC123", 30, "", "")
	require.NoError(t, r.Register("ABC123", state))

	require.NoError(t, r.MarkLocked(context.Background(), "ABC123", true))

	locked, err := r.IsLocked(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, locked)
	assert.True(t, state.IsLocked(), "MarkLocked must also flip the SessionState's own flag")
}

func TestMarkLockedAndIsLocked_WithDisabledCacheBehaveLikeNilCache(t *testing.T) {
	r := New(disabledCache(t))
	state := NewSessionState("meeting-1", "ABC123", 30, "", "")
	require.NoError(t, r.Register("ABC123", state))

	require.NoError(t, r.MarkLocked(context.Background(), "ABC123", true))

	locked, err := r.IsLocked(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestMarkLocked_ReturnsSessionNotFoundForUnregisteredCode(t *testing.T) {
	r := New(nil)

	err := r.MarkLocked(context.Background(), "NOPE", true)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeSessionNotFound, appErr.Code)
}

func TestUnregister_ToleratesUnknownCodeWithoutCache(t *testing.T) {
	r := New(nil)
	assert.NotPanics(t, func() { r.Unregister(context.Background(), "NOPE") })
}
