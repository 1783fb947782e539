package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingspace/api/internal/broker"
	"github.com/meetingspace/api/internal/models"
	"github.com/meetingspace/api/internal/sessionstore"
)

// dialParticipant mirrors dialHost: a server-side *websocket.Conn plus the
// client end used to drive the participant side of the protocol.
func dialParticipant(t *testing.T) (*websocket.Conn, *websocket.Conn, func()) {
	t.Helper()
	upgrader := websocket.Upgrader{}

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		connCh <- conn
	}))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	server := <-connCh
	cleanup := func() {
		client.Close()
		server.Close()
		srv.Close()
	}
	return server, client, cleanup
}

func TestParticipantEndpointRun_ClosesWithoutAccessCode(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()

	p := NewParticipantEndpoint(serverConn, ParticipantDeps{})
	go p.Run(context.Background(), "")

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	closeErr, isClose := err.(*websocket.CloseError)
	require.True(t, isClose)
	assert.Equal(t, 4005, closeErr.Code) // WSCloseNoAccessCode
}

func TestParticipantEndpointRun_ClosesWhenSessionUnregistered(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()

	registry := sessionstore.New(nil)
	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Registry: registry})
	go p.Run(context.Background(), "NOPE99")

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	closeErr, isClose := err.(*websocket.CloseError)
	require.True(t, isClose)
	assert.Equal(t, 4004, closeErr.Code) // WSCloseNotFound
}

func TestParticipantEndpointRun_ClosesWhenMeetingLocked(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()

	registry := sessionstore.New(nil)
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, broker.HostGroup("ABC123"), broker.ParticipantGroup("ABC123"))
	require.NoError(t, registry.Register("ABC123", state))
	require.NoError(t, registry.MarkLocked(context.Background(), "ABC123", true))

	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Registry: registry})
	go p.Run(context.Background(), "ABC123")

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	closeErr, isClose := err.(*websocket.CloseError)
	require.True(t, isClose)
	assert.Equal(t, 4401, closeErr.Code) // WSCloseLocked
}

func TestParticipantEndpointRun_JoinFansInToHostAndIncrementsCount(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()
	hostConn, hostClient, cleanupHost := dialHost(t)
	defer cleanupHost()

	registry := sessionstore.New(nil)
	b := broker.New()
	hostGroup := broker.HostGroup("ABC123")
	participantGroup := broker.ParticipantGroup("ABC123")
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, hostGroup, participantGroup)
	require.NoError(t, registry.Register("ABC123", state))

	hostSub := broker.NewSubscriber("host-1", hostConn)
	b.GroupAdd(hostGroup, hostSub)

	repo := &fakeRepo{}
	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Repo: repo, Broker: b, Registry: registry})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "ABC123")
		close(done)
	}()

	joined, err := json.Marshal(Envelope{Type: "participant_joined", Name: "Alex"})
	require.NoError(t, err)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, joined))

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := hostClient.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "participant_joined")
	assert.Contains(t, string(data), "Alex")

	assert.Eventually(t, func() bool { return state.ParticipantCount() == 1 }, time.Second, 10*time.Millisecond)

	client.Close()
	<-done
}

func TestParticipantEndpointRun_DuplicateNameGetsDisambiguatedSuffix(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()
	hostConn, _, cleanupHost := dialHost(t)
	defer cleanupHost()

	registry := sessionstore.New(nil)
	b := broker.New()
	hostGroup := broker.HostGroup("ABC123")
	participantGroup := broker.ParticipantGroup("ABC123")
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, hostGroup, participantGroup)
	require.NoError(t, registry.Register("ABC123", state))
	state.AdoptName("Alex") // simulate an earlier participant already holding the name

	hostSub := broker.NewSubscriber("host-1", hostConn)
	b.GroupAdd(hostGroup, hostSub)

	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Repo: &fakeRepo{}, Broker: b, Registry: registry})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "ABC123")
		close(done)
	}()

	joined, err := json.Marshal(Envelope{Type: "participant_joined", Name: "Alex"})
	require.NoError(t, err)
	require.NoError(t, client.WriteMessage(websocket.TextMessage, joined))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err, "a disambiguated name must be pushed back to the participant")
	assert.Contains(t, string(data), "update_name")
	assert.Contains(t, string(data), "Alex(1)")

	client.Close()
	<-done
}

func TestParticipantEndpointActiveLoop_SubmitAnswerPersistsAndNotifiesHost(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()
	hostConn, hostClient, cleanupHost := dialHost(t)
	defer cleanupHost()

	registry := sessionstore.New(nil)
	b := broker.New()
	hostGroup := broker.HostGroup("ABC123")
	participantGroup := broker.ParticipantGroup("ABC123")
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, hostGroup, participantGroup)
	require.NoError(t, registry.Register("ABC123", state))

	hostSub := broker.NewSubscriber("host-1", hostConn)
	b.GroupAdd(hostGroup, hostSub)

	repo := &fakeRepo{
		byCode:      &models.Meeting{ID: "meeting-1", AccessCode: "ABC123"},
		question:    &models.Question{ID: "q-1", MeetingID: "meeting-1", Description: "How's it going?"},
		createdResp: &models.Response{ID: "r-1"},
	}
	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Repo: repo, Broker: b, Registry: registry})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "ABC123")
		close(done)
	}()

	joined, _ := json.Marshal(Envelope{Type: "participant_joined", Name: "Alex"})
	require.NoError(t, client.WriteMessage(websocket.TextMessage, joined))

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := hostClient.ReadMessage() // participant_joined fan-in
	require.NoError(t, err)

	answer, _ := json.Marshal(Envelope{Type: "submit_answer", Question: "How's it going?", Answer: "Pretty good!"})
	require.NoError(t, client.WriteMessage(websocket.TextMessage, answer))

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := hostClient.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "answer_submitted")

	assert.Eventually(t, func() bool { return state.ResponsesCount() == 1 }, time.Second, 10*time.Millisecond)

	client.Close()
	<-done
}

func TestParticipantEndpointActiveLoop_EmptyAnswerGetsSubmitError(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()
	hostConn, hostClient, cleanupHost := dialHost(t)
	defer cleanupHost()

	registry := sessionstore.New(nil)
	b := broker.New()
	hostGroup := broker.HostGroup("ABC123")
	participantGroup := broker.ParticipantGroup("ABC123")
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, hostGroup, participantGroup)
	require.NoError(t, registry.Register("ABC123", state))

	hostSub := broker.NewSubscriber("host-1", hostConn)
	b.GroupAdd(hostGroup, hostSub)

	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Repo: &fakeRepo{}, Broker: b, Registry: registry})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "ABC123")
		close(done)
	}()

	joined, _ := json.Marshal(Envelope{Type: "participant_joined", Name: "Alex"})
	require.NoError(t, client.WriteMessage(websocket.TextMessage, joined))

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := hostClient.ReadMessage() // participant_joined fan-in
	require.NoError(t, err)

	answer, _ := json.Marshal(Envelope{Type: "submit_answer", Question: "How's it going?", Answer: ""})
	require.NoError(t, client.WriteMessage(websocket.TextMessage, answer))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "submit_error")

	client.Close()
	<-done
}

func TestParticipantEndpointRun_DisconnectFansParticipantLeftToHost(t *testing.T) {
	serverConn, client, cleanup := dialParticipant(t)
	defer cleanup()
	hostConn, hostClient, cleanupHost := dialHost(t)
	defer cleanupHost()

	registry := sessionstore.New(nil)
	b := broker.New()
	hostGroup := broker.HostGroup("ABC123")
	participantGroup := broker.ParticipantGroup("ABC123")
	state := sessionstore.NewSessionState("meeting-1", "ABC123", 10, hostGroup, participantGroup)
	require.NoError(t, registry.Register("ABC123", state))

	hostSub := broker.NewSubscriber("host-1", hostConn)
	b.GroupAdd(hostGroup, hostSub)

	p := NewParticipantEndpoint(serverConn, ParticipantDeps{Repo: &fakeRepo{}, Broker: b, Registry: registry})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background(), "ABC123")
		close(done)
	}()

	joined, _ := json.Marshal(Envelope{Type: "participant_joined", Name: "Alex"})
	require.NoError(t, client.WriteMessage(websocket.TextMessage, joined))

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := hostClient.ReadMessage() // participant_joined fan-in
	require.NoError(t, err)

	client.Close()
	<-done

	hostClient.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := hostClient.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "participant_left")
	assert.Equal(t, 0, b.GroupSize(participantGroup))
}
