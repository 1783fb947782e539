package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/meetingspace/api/internal/broker"
	"github.com/meetingspace/api/internal/clock"
	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/logger"
	"github.com/meetingspace/api/internal/sessionstore"
)

// idleReadBound is how long a host connection may go without sending a
// message once the meeting is running, before it is treated as gone.
const idleReadBound = 1 * time.Hour

// HostDeps are the collaborators HostEndpoint needs. Repo, Auth and Clock are
// narrow interfaces over the real RepoStore/Bridge/Clock so tests can fake
// each independently; Broker and Registry are the concrete types.
type HostDeps struct {
	Repo     Repo
	Auth     AuthResolver
	Broker   *broker.Broker
	Registry *sessionstore.Registry
	Clock    clock.Clock
	// PostMeetingURLBase is prefixed to the meeting ID to build the
	// end-of-meeting redirect URL sent in the end_meeting message.
	PostMeetingURLBase string
}

// HostEndpoint drives the director's side of one meeting's state machine
// (SPEC_FULL.md §4.3).
type HostEndpoint struct {
	conn *websocket.Conn
	deps HostDeps
}

func NewHostEndpoint(conn *websocket.Conn, deps HostDeps) *HostEndpoint {
	return &HostEndpoint{conn: conn, deps: deps}
}

// Run executes the full host lifecycle for one WebSocket connection. It
// blocks until the meeting ends or the connection is lost.
func (h *HostEndpoint) Run(ctx context.Context, meetingID, sessionToken string) {
	log := logger.Session().With().Str("meeting_id", meetingID).Str("role", "host").Logger()

	// CONNECTING -> AUTHENTICATED
	if meetingID == "" {
		h.closeWith(apperrors.WSCloseNoURLRoute, "no_url_route")
		return
	}
	if sessionToken == "" {
		h.closeWith(apperrors.WSCloseNoSession, "no_session")
		return
	}
	directorID, err := h.deps.Auth.ResolveSession(ctx, sessionToken)
	if err != nil {
		log.Warn().Err(err).Msg("host auth failed")
		h.closeWith(apperrors.WSCloseAuthFailed, "auth_failed")
		return
	}

	// AUTHENTICATED -> QUESTIONS_SENT
	meeting, questions, err := h.deps.Repo.GetMeetingWithQuestions(ctx, meetingID)
	if err != nil || meeting == nil {
		h.closeWith(apperrors.WSCloseNotFound, "no_meeting")
		return
	}
	if len(questions) == 0 {
		h.closeWith(apperrors.WSCloseNotFound, "no_questions")
		return
	}

	hostGroup := broker.HostGroup(meeting.AccessCode)
	participantGroup := broker.ParticipantGroup(meeting.AccessCode)

	state := sessionstore.NewSessionState(meeting.ID, meeting.AccessCode, meeting.DurationMinutes, hostGroup, participantGroup)
	if err := h.deps.Registry.Register(meeting.AccessCode, state); err != nil {
		log.Error().Err(err).Msg("failed to register session")
		h.closeWith(websocket.CloseInternalServerErr, "session_conflict")
		return
	}

	sub := broker.NewSubscriber(uuid.New().String(), h.conn)
	h.deps.Broker.GroupAdd(hostGroup, sub)
	defer h.deps.Broker.GroupDiscard(hostGroup, sub)

	descriptions := make([]string, len(questions))
	for i, q := range questions {
		descriptions[i] = q.Description
	}
	if !sub.Send(startMeetingForHost(descriptions, meeting.AccessCode)) {
		log.Warn().Msg("host queue full before meeting start")
	}
	state.IncrementQuestionsPresented() // the first question counts once shown

	rt := &hostRuntime{
		h:          h,
		log:        &log,
		directorID: directorID,
		meetingID:  meeting.ID,
		accessCode: meeting.AccessCode,
		state:      state,
	}
	rt.readLoop(ctx)
}

// hostRuntime holds the mutable, per-connection state the read loop and its
// timer callbacks close over. Separated from HostEndpoint so one Endpoint
// value stays reusable across connections in tests.
type hostRuntime struct {
	h          *HostEndpoint
	log        *zerolog.Logger
	directorID string
	meetingID  string
	accessCode string
	state      *sessionstore.SessionState

	running      bool
	cancelTimers context.CancelFunc
	durationDone <-chan int
	endOnce      sync.Once
}

// readLoop processes inbound control messages from the host frontend
// (start_meeting, next_question, end_meeting) until the meeting ends or the
// connection drops (SPEC_FULL.md §4.3 QUESTIONS_SENT -> RUNNING -> ENDED).
func (rt *hostRuntime) readLoop(ctx context.Context) {
	h := rt.h

	for {
		h.conn.SetReadDeadline(time.Now().Add(idleReadBound))
		_, raw, err := h.conn.ReadMessage()
		if err != nil {
			rt.log.Info().Err(err).Msg("host connection closed")
			rt.end(ctx, "host_disconnect")
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Type {
		case "start_meeting":
			if rt.running {
				continue
			}
			rt.running = true
			rt.state.SetLocked(true)
			if err := h.deps.Registry.MarkLocked(ctx, rt.accessCode, true); err != nil {
				rt.log.Warn().Err(err).Msg("failed to mirror locked flag")
			}

			var timerCtx context.Context
			timerCtx, rt.cancelTimers = context.WithCancel(ctx)
			rt.durationDone = clock.DurationCounter(timerCtx, h.deps.Clock)
			clock.AutoEndTimer(timerCtx, time.Duration(rt.state.AllocatedDurationMinutes)*time.Minute, func() {
				rt.end(ctx, "auto_end")
			})

			h.deps.Broker.GroupSend(rt.state.ParticipantsChannelGroup, startMeetingBroadcast(env.Question))

		case "next_question":
			if !rt.running {
				continue
			}
			rt.state.IncrementQuestionsPresented()
			h.deps.Broker.GroupSend(rt.state.ParticipantsChannelGroup, nextQuestionBroadcast(env.Question))

		case "end_meeting":
			rt.end(ctx, "host_ended")
			return
		}
	}
}

// end performs the RUNNING -> ENDED transition exactly once
// (SPEC_FULL.md §4.3), safe to call concurrently from the read loop and the
// auto-end timer goroutine.
func (rt *hostRuntime) end(ctx context.Context, reason string) {
	rt.endOnce.Do(func() {
		h := rt.h

		if rt.cancelTimers != nil {
			rt.cancelTimers()
		}
		var finalDuration int
		if rt.durationDone != nil {
			select {
			case finalDuration = <-rt.durationDone:
			case <-time.After(5 * time.Second):
			}
		}

		if err := h.deps.Repo.SetMeetingStats(ctx, rt.meetingID, finalDuration, rt.state.ParticipantCount(), rt.state.QuestionsPresented()); err != nil {
			rt.log.Warn().Err(err).Msg("failed to persist meeting stats")
		}
		if err := h.deps.Repo.IncrementUserCounters(ctx, rt.directorID, 1, rt.state.ParticipantCount(), rt.state.ResponsesCount()); err != nil {
			rt.log.Warn().Err(err).Msg("failed to increment director counters")
		}

		url := fmt.Sprintf("%s/%s", h.deps.PostMeetingURLBase, rt.meetingID)
		h.conn.WriteMessage(websocket.TextMessage, endMeetingForHost(url))
		h.deps.Broker.GroupSendAndClose(rt.state.ParticipantsChannelGroup, endMeetingForParticipants(url),
			websocket.CloseNormalClosure, "meeting_ended")

		h.deps.Registry.Unregister(ctx, rt.accessCode)
		h.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), time.Now().Add(5*time.Second))
	})
}

func (h *HostEndpoint) closeWith(code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	h.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	h.conn.Close()
}
