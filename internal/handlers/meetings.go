// Package handlers wires RepoStore, AccessCodeIssuer, AuthBridge,
// SummaryOrchestrator, and ExportRenderer onto the ambient HTTP surface of
// SPEC_FULL.md §6.1, plus the two WebSocket upgrade routes onto
// internal/session's endpoints.
//
// Grounded on the teacher's internal/handlers package (one file per concern,
// *Handler structs wrapping their collaborators, c.JSON(status, gin.H{...})
// response shape), adapted from StreamSpace's session/catalog handlers to
// meetingspace's director/meeting domain.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meetingspace/api/internal/accesscode"
	"github.com/meetingspace/api/internal/auth"
	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
	"github.com/meetingspace/api/internal/validator"
)

// MeetingRepo is the subset of RepoStore the meeting CRUD handlers need.
type MeetingRepo interface {
	CreateMeeting(ctx context.Context, directorID, accessCode, title, description string, durationMinutes int) (*models.Meeting, error)
	CreateQuestions(ctx context.Context, meetingID string, descriptions []string) ([]models.Question, error)
	GetMeetingWithQuestions(ctx context.Context, meetingID string) (*models.Meeting, []models.Question, error)
}

// MeetingHandler implements POST /api/meetings and GET /api/meetings/:id
// (SPEC_FULL.md §6.1).
type MeetingHandler struct {
	Repo MeetingRepo
}

type createMeetingRequest struct {
	Title           string   `json:"title" binding:"required,max=40"`
	Description     string   `json:"description" binding:"required,max=300"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,min=1,max=60"`
	Questions       []string `json:"questions" binding:"required,min=1,dive,required"`
}

// Create handles POST /api/meetings: a director-authenticated request that
// persists a new Meeting + its Questions, issuing an access code via
// AccessCodeIssuer with its bounded retry-on-conflict behavior.
func (h *MeetingHandler) Create(c *gin.Context) {
	directorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createMeetingRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}

	var meeting *models.Meeting
	err := accesscode.Issue(c.Request.Context(), func(ctx context.Context, code string) error {
		m, err := h.Repo.CreateMeeting(ctx, directorID, code, req.Title, req.Description, req.DurationMinutes)
		if err != nil {
			return err
		}
		meeting = m
		return nil
	})
	if err != nil {
		writeAppError(c, err)
		return
	}

	if _, err := h.Repo.CreateQuestions(c.Request.Context(), meeting.ID, req.Questions); err != nil {
		writeAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": meeting.ID, "access_code": meeting.AccessCode})
}

// Get handles GET /api/meetings/:id: owner-only lookup used by the host
// frontend to render the pre-meeting screen before opening the WebSocket.
func (h *MeetingHandler) Get(c *gin.Context) {
	directorID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	meetingID := c.Param("id")
	meeting, questions, err := h.Repo.GetMeetingWithQuestions(c.Request.Context(), meetingID)
	if err != nil {
		writeAppError(c, err)
		return
	}
	if meeting.DirectorID != directorID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meeting": meeting, "questions": questions})
}

func writeAppError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.StatusCode, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.InternalServer(err.Error()).ToResponse())
}
