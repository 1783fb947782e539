// Package db — response repository methods (SPEC_FULL.md §4.1 RepoStore).
package db

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
	"github.com/meetingspace/api/internal/validator"
)

// sanitizer strips any markup a participant answer might carry before
// persistence. original_source relies on Django's template autoescaping at
// render time; this is the Go-native equivalent defensive layer applied at
// write time instead (SPEC_FULL.md §4.11 domain stack table).
var sanitizer = bluemonday.StrictPolicy()

// CreateResponse validates and persists one participant answer. Returns
// InvalidResponse if the trimmed text is empty or exceeds 500 characters,
// per the centralized validation spec.md §9 requires.
func (d *Database) CreateResponse(ctx context.Context, meetingID, questionID, text, sessionID string) (*models.Response, error) {
	clean, err := validator.ValidateResponseText(text)
	if err != nil {
		return nil, err
	}
	clean = sanitizer.Sanitize(clean)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, apperrors.InvalidResponse("response is empty after sanitization")
	}

	r := &models.Response{
		ID:           uuid.New().String(),
		MeetingID:    meetingID,
		QuestionID:   questionID,
		ResponseText: clean,
		SessionID:    sessionID,
		CreatedAt:    time.Now(),
	}

	query := `
		INSERT INTO responses (id, meeting_id, question_id, response_text, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = d.db.ExecContext(ctx, query, r.ID, r.MeetingID, r.QuestionID, r.ResponseText, r.SessionID, r.CreatedAt)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return r, nil
}

// ListResponsesForMeeting returns every response for a meeting ordered by
// created_at, used by SummaryOrchestrator to build its per-question mapping.
func (d *Database) ListResponsesForMeeting(ctx context.Context, meetingID string) ([]models.Response, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, meeting_id, question_id, response_text, session_id, created_at
		 FROM responses WHERE meeting_id = $1 ORDER BY created_at ASC`,
		meetingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.MeetingID, &r.QuestionID, &r.ResponseText, &r.SessionID, &r.CreatedAt); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		responses = append(responses, r)
	}
	return responses, nil
}
