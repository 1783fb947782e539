package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
	"github.com/meetingspace/api/internal/validator"
)

// AuthBridge matches auth.Bridge's Register/Login contract (SPEC_FULL.md
// §4.9), a minimal email+password surface scoped down from the teacher's
// SSO/MFA stack per the non-wiring decision in DESIGN.md.
type AuthBridge interface {
	Register(ctx context.Context, email, firstName, lastName, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error)
}

// AuthHandler implements POST /api/auth/login and POST /api/auth/register
// (SPEC_FULL.md §6.1).
type AuthHandler struct {
	Bridge AuthBridge
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"required,max=80"`
	LastName  string `json:"last_name" binding:"required,max=80"`
	Password  string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}
	user, err := h.Bridge.Register(c.Request.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !validator.BindAndValidate(c, &req) {
		return
	}
	token, expiresAt, err := h.Bridge.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apperrors.InvalidCredentials().ToResponse())
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_at": expiresAt})
}
