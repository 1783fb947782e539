package sessionstore

import (
	"context"
	"sync"
	"time"

	"github.com/meetingspace/api/internal/cache"
	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/logger"
)

// defaultTTL is the registry entry lifetime SPEC_FULL.md §4.2 names: entries
// are purged if the host connection is absent for longer.
const defaultTTL = 1 * time.Hour

type entry struct {
	state      *SessionState
	expiresAt  time.Time
}

// Registry is the process-wide mapping from access_code to a live
// SessionState, plus a cross-process mirror of the locked flag backed by
// the Redis cache so a participant join on any API instance observes it.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	cache   *cache.Cache
}

// New constructs an empty Registry. cache may be nil or disabled; the
// registry degrades to in-process-only locked-flag visibility in that case,
// matching the cache package's own graceful-disable pattern.
func New(c *cache.Cache) *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		cache:   c,
	}
}

// Register adds a freshly created SessionState, failing if one is already
// registered for the access code (a session crash-looping reconnect under
// the same code, which should not happen but must not silently clobber
// state if it does).
func (r *Registry) Register(code string, state *SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[code]; ok && time.Now().Before(existing.expiresAt) {
		return apperrors.Conflict("a session is already registered for this access code")
	}

	r.entries[code] = &entry{state: state, expiresAt: time.Now().Add(defaultTTL)}
	return nil
}

// Lookup returns the live SessionState for an access code, or
// SessionNotFound if none is registered or the entry's TTL has elapsed.
func (r *Registry) Lookup(code string) (*SessionState, error) {
	r.mu.RLock()
	e, ok := r.entries[code]
	r.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, apperrors.SessionNotFound(code)
	}
	return e.state, nil
}

// MarkLocked flips a session's locked flag and mirrors it into the cache so
// participant joins handled by a different API instance see the change.
func (r *Registry) MarkLocked(ctx context.Context, code string, locked bool) error {
	state, err := r.Lookup(code)
	if err != nil {
		return err
	}
	state.SetLocked(locked)

	if r.cache != nil && r.cache.IsEnabled() {
		if err := r.cache.Set(ctx, cache.LockedKey(code), locked, defaultTTL); err != nil {
			logger.Session().Warn().Err(err).Str("access_code", code).
				Msg("failed to mirror locked flag to cache")
		}
	}
	return nil
}

// IsLocked reports a session's locked flag, preferring the cross-process
// cache mirror (so a participant join on any instance sees a Start issued on
// another) and falling back to the in-process value when the cache entry is
// absent or caching is disabled.
func (r *Registry) IsLocked(ctx context.Context, code string) (bool, error) {
	if r.cache != nil && r.cache.IsEnabled() {
		var locked bool
		if err := r.cache.Get(ctx, cache.LockedKey(code), &locked); err == nil {
			return locked, nil
		}
	}

	state, err := r.Lookup(code)
	if err != nil {
		return false, err
	}
	return state.IsLocked(), nil
}

// Unregister removes a session's entry, called once at END
// (SPEC_FULL.md §4.3 RUNNING -> ENDED, step 6).
func (r *Registry) Unregister(ctx context.Context, code string) {
	r.mu.Lock()
	delete(r.entries, code)
	r.mu.Unlock()

	if r.cache != nil && r.cache.IsEnabled() {
		if err := r.cache.Delete(ctx, cache.LockedKey(code)); err != nil {
			logger.Session().Warn().Err(err).Str("access_code", code).
				Msg("failed to clear locked flag from cache")
		}
	}
}
