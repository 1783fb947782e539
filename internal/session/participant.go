package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/meetingspace/api/internal/broker"
	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/logger"
	"github.com/meetingspace/api/internal/sessionstore"
	"github.com/meetingspace/api/internal/validator"
)

// joinHandshakeTimeout bounds how long a freshly connected participant has
// to send its first participant_joined message (SPEC_FULL.md §5).
const joinHandshakeTimeout = 10 * time.Second

// ParticipantDeps are ParticipantEndpoint's collaborators.
type ParticipantDeps struct {
	Repo     Repo
	Broker   *broker.Broker
	Registry *sessionstore.Registry
}

// ParticipantEndpoint drives one anonymous participant's side of the
// meeting (SPEC_FULL.md §4.4).
type ParticipantEndpoint struct {
	conn *websocket.Conn
	deps ParticipantDeps
}

func NewParticipantEndpoint(conn *websocket.Conn, deps ParticipantDeps) *ParticipantEndpoint {
	return &ParticipantEndpoint{conn: conn, deps: deps}
}

// Run executes the full participant lifecycle for one WebSocket connection.
func (p *ParticipantEndpoint) Run(ctx context.Context, accessCode string) {
	log := logger.Session().With().Str("access_code", accessCode).Str("role", "participant").Logger()

	if accessCode == "" {
		p.closeWith(apperrors.WSCloseNoAccessCode, "no_access_code")
		return
	}

	state, err := p.deps.Registry.Lookup(accessCode)
	if err != nil {
		p.closeWith(apperrors.WSCloseNotFound, "no_meeting")
		return
	}
	locked, err := p.deps.Registry.IsLocked(ctx, accessCode)
	if err == nil && locked {
		p.closeWith(apperrors.WSCloseLocked, "meeting_locked")
		return
	}

	// CONNECTING -> JOINED
	p.conn.SetReadDeadline(time.Now().Add(joinHandshakeTimeout))
	_, raw, err := p.conn.ReadMessage()
	if err != nil {
		p.closeWith(apperrors.WSCloseNoURLRoute, "join_timeout")
		return
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != "participant_joined" {
		p.closeWith(apperrors.WSCloseNoURLRoute, "expected_participant_joined")
		return
	}

	name, err := validator.ValidateParticipantName(env.Name)
	if err != nil {
		p.closeWith(apperrors.WSCloseNoURLRoute, "invalid_name")
		return
	}

	adopted, disambiguated := state.AdoptName(name)
	if disambiguated {
		p.conn.WriteMessage(websocket.TextMessage, updateName(adopted))
	}
	state.IncrementParticipantCount()

	sub := broker.NewSubscriber(uuid.New().String(), p.conn)
	p.deps.Broker.GroupAdd(state.ParticipantsChannelGroup, sub)
	defer func() {
		p.deps.Broker.GroupDiscard(state.ParticipantsChannelGroup, sub)
		p.deps.Broker.GroupSend(state.HostChannel, participantLeftForHost(adopted))
	}()

	p.deps.Broker.GroupSend(state.HostChannel, participantJoinedForHost(adopted))

	// ACTIVE
	p.activeLoop(ctx, &log, state, sub.ID)
}

// activeLoop handles the participant frontend's submit_answer messages until
// the connection drops or the host's end_meeting reaches this subscriber
// through the Broker and closes the connection out from under the read
// (SPEC_FULL.md §4.4 ACTIVE).
func (p *ParticipantEndpoint) activeLoop(ctx context.Context, log *zerolog.Logger, state *sessionstore.SessionState, sessionID string) {
	for {
		_, raw, err := p.conn.ReadMessage()
		if err != nil {
			log.Info().Err(err).Msg("participant connection closed")
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Type != "submit_answer" {
			continue
		}

		if env.Question == "" || env.Answer == "" {
			p.conn.WriteMessage(websocket.TextMessage, submitError())
			continue
		}

		meeting, err := p.deps.Repo.GetMeetingByAccessCode(ctx, state.AccessCode)
		if err != nil || meeting == nil {
			p.conn.WriteMessage(websocket.TextMessage, submitError())
			continue
		}

		question, err := p.deps.Repo.GetQuestionByDescription(ctx, meeting.ID, env.Question)
		if err != nil || question == nil {
			p.conn.WriteMessage(websocket.TextMessage, submitError())
			continue
		}

		answer, err := validator.ValidateResponseText(env.Answer)
		if err != nil {
			p.conn.WriteMessage(websocket.TextMessage, invalidAnswer())
			continue
		}

		if _, err := p.deps.Repo.CreateResponse(ctx, meeting.ID, question.ID, answer, sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to persist response")
			p.conn.WriteMessage(websocket.TextMessage, submitError())
			continue
		}

		state.IncrementResponsesCount()
		p.deps.Broker.GroupSend(state.HostChannel, answerSubmittedForHost())
	}
}
