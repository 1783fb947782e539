package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetingspace/api/internal/auth"
	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

// fakeAuthRepo backs a real *auth.Bridge for router-level auth-gating tests,
// standing in for RepoStore's user/session columns.
type fakeAuthRepo struct {
	sessions map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{sessions: map[string]string{}}
}

func (f *fakeAuthRepo) CreateUser(ctx context.Context, email, firstName, lastName, passwordHash string) (*models.User, error) {
	return &models.User{ID: "director-1", Email: email, FirstName: firstName, LastName: lastName}, nil
}

func (f *fakeAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, apperrors.NotFound("user")
}

func (f *fakeAuthRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, nil
}

func (f *fakeAuthRepo) CreateAuthSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	f.sessions[token] = userID
	return nil
}

func (f *fakeAuthRepo) ResolveSession(ctx context.Context, token string) (string, error) {
	userID, ok := f.sessions[token]
	if !ok {
		return "", apperrors.AuthFailed("unknown session token")
	}
	return userID, nil
}

func (f *fakeAuthRepo) DeleteAuthSession(ctx context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func newRouterUnderTest(t *testing.T, bridge *auth.Bridge) *gin.Engine {
	t.Helper()
	router := gin.New()
	meetingsH := &MeetingHandler{Repo: &fakeMeetingRepo{
		getMeeting: &models.Meeting{ID: "meeting-1", DirectorID: "director-1"},
	}}
	authH := &AuthHandler{Bridge: bridge}
	summaryH := &SummaryHandler{Orchestrator: &fakeSummarizer{}}
	exportH := &ExportHandler{Repo: &fakeSummaryRepo{}, Renderer: nil}
	wsH := &SessionWSHandler{}
	RegisterRoutes(router, bridge, meetingsH, authH, summaryH, exportH, wsH)
	return router
}

func TestRegisterRoutes_ProtectedMeetingsRouteRejectsMissingBearerToken(t *testing.T) {
	bridge := auth.New(newFakeAuthRepo(), auth.Config{SecretKey: "test-secret"})
	router := newRouterUnderTest(t, bridge)

	req := httptest.NewRequest(http.MethodPost, "/api/meetings", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRoutes_ProtectedMeetingsRouteRejectsUnknownToken(t *testing.T) {
	bridge := auth.New(newFakeAuthRepo(), auth.Config{SecretKey: "test-secret"})
	router := newRouterUnderTest(t, bridge)

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/meeting-1", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRoutes_ProtectedMeetingsRouteAcceptsValidSessionToken(t *testing.T) {
	repo := newFakeAuthRepo()
	bridge := auth.New(repo, auth.Config{SecretKey: "test-secret"})
	router := newRouterUnderTest(t, bridge)

	// Bridge.ResolveSession verifies the JWT before the auth_sessions lookup,
	// so the seeded token must be signed with the bridge's secret.
	seeded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
		UserID:           "director-1",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	require.NoError(t, repo.CreateAuthSession(context.Background(), seeded, "director-1", time.Now().Add(time.Hour)))

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/meeting-1", nil)
	req.Header.Set("Authorization", "Bearer "+seeded)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// fakeMeetingRepo.GetMeetingWithQuestions returns meeting-1 owned by
	// director-1, so once RequireAuth lets the request through the handler
	// serves it to its owner - a 401 here would mean auth gating failed.
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRoutes_SummarizeAndExportRoutesAreUnauthenticated(t *testing.T) {
	bridge := auth.New(newFakeAuthRepo(), auth.Config{SecretKey: "test-secret"})
	router := newRouterUnderTest(t, bridge)

	req := httptest.NewRequest(http.MethodPost, "/api/meeting-1/summarize/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "summarize has no RequireAuth gate per SPEC_FULL.md §6")

	req = httptest.NewRequest(http.MethodPost, "/api/meeting-1/export/", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "export has no RequireAuth gate per SPEC_FULL.md §6")
}
