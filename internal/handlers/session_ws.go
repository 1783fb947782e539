package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/meetingspace/api/internal/logger"
	"github.com/meetingspace/api/internal/session"
)

// sessionUpgrader upgrades the two WS routes spec.md §6 names. Origin
// checking is left permissive, matching the teacher's agent WebSocket
// handler — the session endpoints authenticate via session token/access
// code in the handshake itself, not via Origin.
var sessionUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SessionWSHandler registers the host and participant WebSocket upgrade
// routes onto internal/session's endpoints (SPEC_FULL.md §6 WS routes).
type SessionWSHandler struct {
	HostDeps        session.HostDeps
	ParticipantDeps session.ParticipantDeps
}

// HandleHost upgrades /ws/meeting/:meeting_id/host and runs HostEndpoint.
func (h *SessionWSHandler) HandleHost(c *gin.Context) {
	meetingID := c.Param("id")
	sessionToken := c.Query("session")

	conn, err := sessionUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WebSocket().Warn().Err(err).Msg("host upgrade failed")
		return
	}

	endpoint := session.NewHostEndpoint(conn, h.HostDeps)
	endpoint.Run(c.Request.Context(), meetingID, sessionToken)
}

// HandleParticipant upgrades /ws/meeting/:access_code/participant and runs
// ParticipantEndpoint.
func (h *SessionWSHandler) HandleParticipant(c *gin.Context) {
	accessCode := c.Param("id")

	conn, err := sessionUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WebSocket().Warn().Err(err).Msg("participant upgrade failed")
		return
	}

	endpoint := session.NewParticipantEndpoint(conn, h.ParticipantDeps)
	endpoint.Run(c.Request.Context(), accessCode)
}
