package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type createMeetingCall struct {
	directorID, accessCode, title, description string
	durationMinutes                            int
}

type createQuestionsCall struct {
	meetingID    string
	descriptions []string
}

type fakeMeetingRepo struct {
	createErr     error
	createdMeeting *models.Meeting
	createCalls   []createMeetingCall

	createQuestionsErr error
	questionCalls      []createQuestionsCall

	getMeeting   *models.Meeting
	getQuestions []models.Question
	getErr       error
}

func (f *fakeMeetingRepo) CreateMeeting(ctx context.Context, directorID, accessCode, title, description string, durationMinutes int) (*models.Meeting, error) {
	f.createCalls = append(f.createCalls, createMeetingCall{directorID, accessCode, title, description, durationMinutes})
	if f.createErr != nil {
		return nil, f.createErr
	}
	m := f.createdMeeting
	if m == nil {
		m = &models.Meeting{ID: "meeting-1", AccessCode: accessCode, DirectorID: directorID, Title: title, Description: description, DurationMinutes: durationMinutes}
	}
	return m, nil
}

func (f *fakeMeetingRepo) CreateQuestions(ctx context.Context, meetingID string, descriptions []string) ([]models.Question, error) {
	f.questionCalls = append(f.questionCalls, createQuestionsCall{meetingID, descriptions})
	if f.createQuestionsErr != nil {
		return nil, f.createQuestionsErr
	}
	questions := make([]models.Question, len(descriptions))
	for i, d := range descriptions {
		questions[i] = models.Question{ID: d, MeetingID: meetingID, Description: d}
	}
	return questions, nil
}

func (f *fakeMeetingRepo) GetMeetingWithQuestions(ctx context.Context, meetingID string) (*models.Meeting, []models.Question, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	return f.getMeeting, f.getQuestions, nil
}

// withUser builds a gin.Engine that injects userID (when non-empty) into the
// request context before delegating to register, mirroring what
// auth.RequireAuth would have done without needing a real *auth.Bridge.
func withUser(userID string, register func(*gin.Engine)) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
		}
		c.Next()
	})
	register(router)
	return router
}

func TestMeetingHandlerCreate_PersistsMeetingAndQuestionsForAuthenticatedDirector(t *testing.T) {
	repo := &fakeMeetingRepo{}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.POST("/api/meetings", h.Create) })

	body := `{"title":"Sprint Retro","description":"Weekly retro","duration_minutes":30,"questions":["What went well?","What didn't?"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, repo.createCalls, 1)
	assert.Equal(t, "director-1", repo.createCalls[0].directorID)
	assert.Equal(t, "Sprint Retro", repo.createCalls[0].title)
	require.Len(t, repo.questionCalls, 1)
	assert.Equal(t, []string{"What went well?", "What didn't?"}, repo.questionCalls[0].descriptions)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "meeting-1", resp["id"])
}

func TestMeetingHandlerCreate_RejectsMissingTitleBeforeTouchingRepo(t *testing.T) {
	repo := &fakeMeetingRepo{}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.POST("/api/meetings", h.Create) })

	body := `{"description":"Weekly retro","duration_minutes":30,"questions":["What went well?"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.createCalls)
}

func TestMeetingHandlerCreate_RejectsEmptyQuestionsList(t *testing.T) {
	repo := &fakeMeetingRepo{}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.POST("/api/meetings", h.Create) })

	body := `{"title":"Sprint Retro","description":"Weekly retro","duration_minutes":30,"questions":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.createCalls)
}

func TestMeetingHandlerCreate_UnauthorizedWithoutUserID(t *testing.T) {
	repo := &fakeMeetingRepo{}
	h := &MeetingHandler{Repo: repo}
	router := withUser("", func(r *gin.Engine) { r.POST("/api/meetings", h.Create) })

	body := `{"title":"Sprint Retro","description":"Weekly retro","duration_minutes":30,"questions":["Q1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, repo.createCalls)
}

func TestMeetingHandlerCreate_ExhaustedAccessCodeIssuerReturnsAppErrorStatus(t *testing.T) {
	repo := &fakeMeetingRepo{createErr: apperrors.AccessCodeConflict()}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.POST("/api/meetings", h.Create) })

	body := `{"title":"Sprint Retro","description":"Weekly retro","duration_minutes":30,"questions":["Q1"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/meetings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInsufficientStorage, w.Code, "every attempt collided, so Issue gives up with CodeExhaustion")
}

func TestMeetingHandlerGet_ReturnsMeetingAndQuestionsForOwningDirector(t *testing.T) {
	repo := &fakeMeetingRepo{
		getMeeting:   &models.Meeting{ID: "meeting-1", DirectorID: "director-1", Title: "Sprint Retro"},
		getQuestions: []models.Question{{ID: "q1", Description: "What went well?"}},
	}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.GET("/api/meetings/:id", h.Get) })

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/meeting-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMeetingHandlerGet_ForbiddenWhenRequesterIsNotTheDirector(t *testing.T) {
	repo := &fakeMeetingRepo{
		getMeeting: &models.Meeting{ID: "meeting-1", DirectorID: "someone-else"},
	}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.GET("/api/meetings/:id", h.Get) })

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/meeting-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMeetingHandlerGet_UnauthorizedWithoutUserID(t *testing.T) {
	repo := &fakeMeetingRepo{}
	h := &MeetingHandler{Repo: repo}
	router := withUser("", func(r *gin.Engine) { r.GET("/api/meetings/:id", h.Get) })

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/meeting-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeetingHandlerGet_PropagatesNotFoundThroughWriteAppError(t *testing.T) {
	repo := &fakeMeetingRepo{getErr: apperrors.MeetingNotFound()}
	h := &MeetingHandler{Repo: repo}
	router := withUser("director-1", func(r *gin.Engine) { r.GET("/api/meetings/:id", h.Get) })

	req := httptest.NewRequest(http.MethodGet, "/api/meetings/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeMeetingNotFound, resp.Code)
}
