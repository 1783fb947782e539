// Package db — session-token repository backing AuthBridge (SPEC_FULL.md §4.9).
package db

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/meetingspace/api/internal/errors"
)

// CreateAuthSession persists a newly issued session token with its expiry,
// mirroring the teacher's JWT-issuance flow but backed by a server-side
// table so ResolveSession can reject revoked/expired tokens without relying
// on JWT expiry claims alone.
func (d *Database) CreateAuthSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := d.db.ExecContext(ctx,
		"INSERT INTO auth_sessions (token, user_id, expires_at) VALUES ($1, $2, $3)",
		token, userID, expiresAt)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// ResolveSession returns the user ID for a live session token, or AuthFailed
// for a missing, expired, or already-deleted-user token (SPEC_FULL.md §4.9).
func (d *Database) ResolveSession(ctx context.Context, token string) (string, error) {
	var userID string
	var expiresAt time.Time
	err := d.db.QueryRowContext(ctx,
		"SELECT user_id, expires_at FROM auth_sessions WHERE token = $1", token,
	).Scan(&userID, &expiresAt)
	if err == sql.ErrNoRows {
		return "", apperrors.AuthFailed("unknown session token")
	}
	if err != nil {
		return "", apperrors.DatabaseError(err)
	}
	if time.Now().After(expiresAt) {
		return "", apperrors.AuthFailed("session token expired")
	}

	// Confirm the user still exists (account deletion revokes all sessions).
	if _, err := d.GetUserByID(ctx, userID); err != nil {
		return "", apperrors.AuthFailed("session user no longer exists")
	}

	return userID, nil
}

// DeleteAuthSession revokes a session token (logout).
func (d *Database) DeleteAuthSession(ctx context.Context, token string) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM auth_sessions WHERE token = $1", token)
	if err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}
