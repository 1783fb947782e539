package session

import (
	"context"

	"github.com/meetingspace/api/internal/models"
)

// Repo is the subset of RepoStore the session endpoints depend on
// (SPEC_FULL.md §4.1).
type Repo interface {
	GetMeetingWithQuestions(ctx context.Context, meetingID string) (*models.Meeting, []models.Question, error)
	GetMeetingByAccessCode(ctx context.Context, accessCode string) (*models.Meeting, error)
	GetQuestionByDescription(ctx context.Context, meetingID, description string) (*models.Question, error)
	CreateResponse(ctx context.Context, meetingID, questionID, text, sessionID string) (*models.Response, error)
	SetMeetingStats(ctx context.Context, meetingID string, durationSeconds, participants, questionsAsked int) error
	IncrementUserCounters(ctx context.Context, userID string, dMeetings, dParticipants, dResponses int) error
}

// AuthResolver is the subset of AuthBridge HostEndpoint depends on.
type AuthResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}
