// Package db — question repository methods (SPEC_FULL.md §4.1 RepoStore).
package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

// CreateQuestions inserts the ordered question descriptions for a meeting in
// a single transaction, assigning positions 1..N (SPEC_FULL.md §4.1).
func (d *Database) CreateQuestions(ctx context.Context, meetingID string, descriptions []string) ([]models.Question, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	defer tx.Rollback()

	var maxPos int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), 0) FROM questions WHERE meeting_id = $1", meetingID).Scan(&maxPos); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	questions := make([]models.Question, 0, len(descriptions))
	for i, desc := range descriptions {
		desc = strings.TrimSpace(desc)
		if desc == "" {
			return nil, apperrors.ValidationFailed("question description cannot be empty")
		}
		q := models.Question{
			ID:          uuid.New().String(),
			MeetingID:   meetingID,
			Description: desc,
			Position:    maxPos + i + 1,
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO questions (id, meeting_id, description, position) VALUES ($1, $2, $3, $4)",
			q.ID, q.MeetingID, q.Description, q.Position)
		if err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		questions = append(questions, q)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return questions, nil
}

// ListQuestions returns a meeting's questions ordered by position ascending.
func (d *Database) ListQuestions(ctx context.Context, meetingID string) ([]models.Question, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, meeting_id, description, position FROM questions WHERE meeting_id = $1 ORDER BY position ASC",
		meetingID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.MeetingID, &q.Description, &q.Position); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// GetQuestionByDescription attaches a submitted answer to its question by
// exact description match within the meeting (SPEC_FULL.md §4.1).
func (d *Database) GetQuestionByDescription(ctx context.Context, meetingID, description string) (*models.Question, error) {
	var q models.Question
	err := d.db.QueryRowContext(ctx,
		"SELECT id, meeting_id, description, position FROM questions WHERE meeting_id = $1 AND description = $2",
		meetingID, description,
	).Scan(&q.ID, &q.MeetingID, &q.Description, &q.Position)
	if err == sql.ErrNoRows {
		return nil, apperrors.QuestionNotFound()
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &q, nil
}
