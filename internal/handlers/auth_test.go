package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

type fakeAuthBridge struct {
	registerErr  error
	registered   *models.User
	registerCall struct{ email, firstName, lastName, password string }

	loginErr       error
	loginToken     string
	loginExpiresAt time.Time
	loginCall      struct{ email, password string }
}

func (f *fakeAuthBridge) Register(ctx context.Context, email, firstName, lastName, password string) (*models.User, error) {
	f.registerCall = struct{ email, firstName, lastName, password string }{email, firstName, lastName, password}
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	if f.registered != nil {
		return f.registered, nil
	}
	return &models.User{ID: "user-1", Email: email, FirstName: firstName, LastName: lastName}, nil
}

func (f *fakeAuthBridge) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	f.loginCall = struct{ email, password string }{email, password}
	if f.loginErr != nil {
		return "", time.Time{}, f.loginErr
	}
	return f.loginToken, f.loginExpiresAt, nil
}

func newAuthRouter(h *AuthHandler) *gin.Engine {
	router := gin.New()
	router.POST("/api/auth/register", h.Register)
	router.POST("/api/auth/login", h.Login)
	return router
}

func TestAuthHandlerRegister_ForwardsToBridgeAndReturnsCreatedUser(t *testing.T) {
	bridge := &fakeAuthBridge{}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com","first_name":"Jamie","last_name":"Lee","password":"correcthorsebatterystaple"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "jamie@example.com", bridge.registerCall.email)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp["id"])
}

func TestAuthHandlerRegister_RejectsMalformedEmail(t *testing.T) {
	bridge := &fakeAuthBridge{}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"not-an-email","first_name":"Jamie","last_name":"Lee","password":"correcthorsebatterystaple"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, bridge.registerCall.email)
}

func TestAuthHandlerRegister_RejectsShortPassword(t *testing.T) {
	bridge := &fakeAuthBridge{}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com","first_name":"Jamie","last_name":"Lee","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerRegister_PropagatesConflictFromBridge(t *testing.T) {
	bridge := &fakeAuthBridge{registerErr: apperrors.Conflict("email already registered")}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com","first_name":"Jamie","last_name":"Lee","password":"correcthorsebatterystaple"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAuthHandlerLogin_ReturnsTokenOnValidCredentials(t *testing.T) {
	expiry := time.Date(2026, time.August, 2, 10, 0, 0, 0, time.UTC)
	bridge := &fakeAuthBridge{loginToken: "jwt-token", loginExpiresAt: expiry}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com","password":"correcthorsebatterystaple"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt-token", resp["token"])
}

func TestAuthHandlerLogin_ReturnsUnauthorizedOnInvalidCredentialsWithoutLeakingBridgeError(t *testing.T) {
	bridge := &fakeAuthBridge{loginErr: apperrors.InvalidCredentials()}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeInvalidCredentials, resp.Code)
}

func TestAuthHandlerLogin_RejectsMissingPassword(t *testing.T) {
	bridge := &fakeAuthBridge{}
	h := &AuthHandler{Bridge: bridge}
	router := newAuthRouter(h)

	body := `{"email":"jamie@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
