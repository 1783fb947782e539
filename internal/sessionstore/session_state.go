// Package sessionstore implements SessionState and SessionRegistry
// (SPEC_FULL.md §4.2): the ephemeral, in-memory per-meeting runtime object
// owned exclusively by the host task, and the process-wide map from access
// code to a live SessionState.
//
// Grounded on internal/websocket/hub.go's per-room state bookkeeping from
// the teacher, reshaped around the access-code-scoped, single-owner model
// spec.md §4.2-§4.3 describes instead of the teacher's org-scoped rooms.
package sessionstore

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SessionState is the ephemeral state of one in-progress meeting. Exactly
// one HostEndpoint owns the mutable fields; ParticipantEndpoints read
// `Locked` through SessionRegistry, mutate `usernames` under Mu, and bump the
// participant and response counters through the atomic Increment methods.
type SessionState struct {
	MeetingID                string
	AccessCode               string
	AllocatedDurationMinutes int

	// Mu guards Locked and usernames, the only fields a participant task
	// ever touches directly (SPEC_FULL.md §5 shared-resource policy).
	Mu        sync.Mutex
	Locked    bool
	usernames []string

	// Counters read by the host task at END. ParticipantEndpoint increments
	// participantCount and responsesCount itself, atomically, just before it
	// sends the matching fan-in broker message to the host; the host task does
	// not count fan-in messages (SPEC_FULL.md §5 shared-resource policy).
	participantCount   int64
	responsesCount     int64
	questionsPresented int64

	DurationStartWallclock time.Time

	// CancelTimers cancels both the auto-end timer and the duration
	// counter started at Start (SPEC_FULL.md §4.3 QUESTIONS_SENT -> RUNNING).
	CancelTimers context.CancelFunc
	DurationDone <-chan int

	HostChannel              string
	ParticipantsChannelGroup string
}

// NewSessionState constructs an unlocked SessionState for a freshly
// authenticated host connection (SPEC_FULL.md §4.3 AUTHENTICATED ->
// QUESTIONS_SENT).
func NewSessionState(meetingID, accessCode string, durationMinutes int, hostChannel, participantsGroup string) *SessionState {
	return &SessionState{
		MeetingID:                meetingID,
		AccessCode:               accessCode,
		AllocatedDurationMinutes: durationMinutes,
		HostChannel:              hostChannel,
		ParticipantsChannelGroup: participantsGroup,
	}
}

// AdoptName implements the disambiguation rule of SPEC_FULL.md §4.4: count
// existing entries equal to name or matching the prefix "name(", then adopt
// name as-is if that count is zero, else "name(k)". Appends the adopted name
// and returns it, disambiguated bool reports whether a suffix was applied.
func (s *SessionState) AdoptName(name string) (adopted string, disambiguated bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	prefix := name + "("
	k := 0
	for _, existing := range s.usernames {
		if existing == name || strings.HasPrefix(existing, prefix) {
			k++
		}
	}

	if k == 0 {
		adopted = name
	} else {
		adopted = name + "(" + strconv.Itoa(k) + ")"
		disambiguated = true
	}

	s.usernames = append(s.usernames, adopted)
	return adopted, disambiguated
}

// UsernameCount returns the number of names adopted so far, for tests and
// diagnostics; the slice itself stays private to keep Mu the single gate.
func (s *SessionState) UsernameCount() int {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return len(s.usernames)
}

// SetLocked updates the locked flag under the session's own lock. The
// SessionRegistry separately mirrors this flag into its cross-process cache
// so participant joins on other instances observe it too.
func (s *SessionState) SetLocked(locked bool) {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Locked = locked
}

// IsLocked reads the locked flag under the session's own lock.
func (s *SessionState) IsLocked() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.Locked
}

// IncrementParticipantCount records one participant reaching JOINED.
func (s *SessionState) IncrementParticipantCount() int {
	return int(atomic.AddInt64(&s.participantCount, 1))
}

// IncrementResponsesCount records one successful submit_answer.
func (s *SessionState) IncrementResponsesCount() int {
	return int(atomic.AddInt64(&s.responsesCount, 1))
}

// IncrementQuestionsPresented records one next_question event (plus the
// implicit first question, counted when the questions are sent to the host).
func (s *SessionState) IncrementQuestionsPresented() int {
	return int(atomic.AddInt64(&s.questionsPresented, 1))
}

func (s *SessionState) ParticipantCount() int   { return int(atomic.LoadInt64(&s.participantCount)) }
func (s *SessionState) ResponsesCount() int     { return int(atomic.LoadInt64(&s.responsesCount)) }
func (s *SessionState) QuestionsPresented() int { return int(atomic.LoadInt64(&s.questionsPresented)) }
