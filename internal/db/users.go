// Package db — user repository methods (SPEC_FULL.md §4.1 RepoStore).
package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

// pqUniqueViolation is the Postgres SQLSTATE for a unique_violation.
const pqUniqueViolation = "23505"

// CreateUser inserts a new director account. Returns AccessCodeConflict's
// sibling error shape (Conflict) on a duplicate email.
func (d *Database) CreateUser(ctx context.Context, email, firstName, lastName, passwordHash string) (*models.User, error) {
	u := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (id, email, first_name, last_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := d.db.ExecContext(ctx, query, u.ID, u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, apperrors.DatabaseError(err)
	}
	return u, nil
}

// GetUserByEmail looks up a director by email, used by the login flow.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return d.scanUser(d.db.QueryRowContext(ctx, userSelectQuery+" WHERE email = $1", email))
}

// GetUserByID looks up a director by ID.
func (d *Database) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return d.scanUser(d.db.QueryRowContext(ctx, userSelectQuery+" WHERE id = $1", id))
}

const userSelectQuery = `
	SELECT id, email, first_name, last_name, password_hash,
		meetings_created, total_participants, total_responses, created_at, updated_at
	FROM users
`

func (d *Database) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.MeetingsCreated, &u.TotalParticipants, &u.TotalResponses, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("user")
	}
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return &u, nil
}

// IncrementUserCounters bumps the director's aggregate counters by the given
// deltas, applied exactly once per meeting on HostEndpoint END
// (SPEC_FULL.md §4.3 step 3).
func (d *Database) IncrementUserCounters(ctx context.Context, userID string, dMeetings, dParticipants, dResponses int) error {
	query := `
		UPDATE users
		SET meetings_created = meetings_created + $2,
			total_participants = total_participants + $3,
			total_responses = total_responses + $4,
			updated_at = now()
		WHERE id = $1
	`
	res, err := d.db.ExecContext(ctx, query, userID, dMeetings, dParticipants, dResponses)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperrors.NotFound("user")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == pqUniqueViolation
}
