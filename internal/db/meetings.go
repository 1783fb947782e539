// Package db — meeting repository methods (SPEC_FULL.md §4.1 RepoStore).
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

// CreateMeeting persists a new meeting with the given access code. Returns
// AccessCodeConflict if the code collides with another currently-active
// meeting, so AccessCodeIssuer can retry with a fresh code.
func (d *Database) CreateMeeting(ctx context.Context, directorID, accessCode, title, description string, durationMinutes int) (*models.Meeting, error) {
	m := &models.Meeting{
		ID:              uuid.New().String(),
		AccessCode:      accessCode,
		DirectorID:      directorID,
		Title:           title,
		Description:     description,
		DurationMinutes: durationMinutes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	query := `
		INSERT INTO meetings (id, access_code, director_id, title, description, duration_minutes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := d.db.ExecContext(ctx, query, m.ID, m.AccessCode, m.DirectorID, m.Title, m.Description, m.DurationMinutes, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.AccessCodeConflict()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return m, nil
}

const meetingSelectColumns = `
	id, access_code, director_id, title, description, duration_minutes,
	duration_seconds_actual, total_questions_asked, participants_count,
	summary, created_at, updated_at, ended_at
`

func (d *Database) scanMeeting(row *sql.Row) (*models.Meeting, error) {
	var m models.Meeting
	var summaryRaw []byte
	err := row.Scan(&m.ID, &m.AccessCode, &m.DirectorID, &m.Title, &m.Description, &m.DurationMinutes,
		&m.DurationSecondsActual, &m.TotalQuestionsAsked, &m.ParticipantsCount,
		&summaryRaw, &m.CreatedAt, &m.UpdatedAt, &m.EndedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.MeetingNotFound()
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	if len(summaryRaw) > 0 {
		var blob models.SummaryBlob
		if err := json.Unmarshal(summaryRaw, &blob); err == nil {
			m.Summary = &blob
		}
	}
	return &m, nil
}

// GetMeetingByAccessCode fetches the active meeting for an access code, used
// by the participant join path.
func (d *Database) GetMeetingByAccessCode(ctx context.Context, accessCode string) (*models.Meeting, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+meetingSelectColumns+" FROM meetings WHERE access_code = $1 AND ended_at IS NULL", accessCode)
	return d.scanMeeting(row)
}

// GetMeetingByID fetches a meeting by its primary key.
func (d *Database) GetMeetingByID(ctx context.Context, id string) (*models.Meeting, error) {
	row := d.db.QueryRowContext(ctx, "SELECT "+meetingSelectColumns+" FROM meetings WHERE id = $1", id)
	return d.scanMeeting(row)
}

// GetMeetingWithQuestions performs the single lookup spec.md §4.1 asks for:
// the Meeting row plus its Questions, ordered by position ascending.
func (d *Database) GetMeetingWithQuestions(ctx context.Context, meetingID string) (*models.Meeting, []models.Question, error) {
	meeting, err := d.GetMeetingByID(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := d.ListQuestions(ctx, meetingID)
	if err != nil {
		return nil, nil, err
	}
	return meeting, questions, nil
}

// SetMeetingStats persists the end-of-meeting counters
// (SPEC_FULL.md §4.3 HostEndpoint RUNNING -> ENDED, step 2).
func (d *Database) SetMeetingStats(ctx context.Context, meetingID string, durationSeconds, participants, questionsAsked int) error {
	query := `
		UPDATE meetings
		SET duration_seconds_actual = $2, participants_count = $3, total_questions_asked = $4,
			ended_at = now(), updated_at = now()
		WHERE id = $1
	`
	res, err := d.db.ExecContext(ctx, query, meetingID, durationSeconds, participants, questionsAsked)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.MeetingNotFound()
	}
	return nil
}

// SetMeetingSummary persists the reconstructed SummaryBlob
// (SPEC_FULL.md §4.6 SummaryOrchestrator step 7).
func (d *Database) SetMeetingSummary(ctx context.Context, meetingID string, summary models.SummaryBlob) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return apperrors.InternalServer("failed to marshal summary")
	}
	query := `UPDATE meetings SET summary = $2, updated_at = now() WHERE id = $1`
	res, err := d.db.ExecContext(ctx, query, meetingID, raw)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.MeetingNotFound()
	}
	return nil
}
