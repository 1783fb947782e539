// Package cache provides Redis-based caching for the meetingspace API.
//
// This file defines the cache key naming conventions used by SessionRegistry
// and the Broker's locked-flag mirror (SPEC_FULL.md §4.2, §4.5).
//
// Key formats are grounded on original_source/apps/meeting/utils.py's
// get_username_cache_key ("meeting:{access_code}:names") and
// original_source/apps/meeting/constants.py's GroupPrefixes
// ("meeting_locked_{access_code}").
package cache

import "fmt"

const (
	PrefixMeeting = "meeting"
	PrefixLocked  = "meeting_locked"
	PrefixCode    = "access_code"
)

// LockedKey returns the TTL'd registry key for a session's locked flag.
func LockedKey(accessCode string) string {
	return fmt.Sprintf("%s_%s", PrefixLocked, accessCode)
}

// UsernamesKey returns the cache key original_source used to track the
// adopted participant names for a session, kept here for parity even though
// SessionState.usernames is authoritative in this implementation.
func UsernamesKey(accessCode string) string {
	return fmt.Sprintf("%s:%s:names", PrefixMeeting, accessCode)
}

// AccessCodeReservationKey formats a per-code key under the access_code
// prefix. AccessCodeIssuer does not use it: code uniqueness is enforced by
// the RepoStore insert, which reports AccessCodeConflict on a collision.
func AccessCodeReservationKey(code string) string {
	return fmt.Sprintf("%s:%s", PrefixCode, code)
}
