package auth

import (
	"context"
	"time"

	apperrors "github.com/meetingspace/api/internal/errors"
	"github.com/meetingspace/api/internal/models"
)

// Repo is the subset of RepoStore AuthBridge depends on.
type Repo interface {
	CreateUser(ctx context.Context, email, firstName, lastName, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateAuthSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	ResolveSession(ctx context.Context, token string) (string, error)
	DeleteAuthSession(ctx context.Context, token string) error
}

// Bridge implements SPEC_FULL.md §4.9's AuthBridge: ResolveSession(token) ->
// UserId, plus the login/register flows that issue tokens in the first
// place. The core treats tokens as opaque strings; Bridge is the only
// component that understands their JWT structure.
type Bridge struct {
	repo    Repo
	manager *manager
}

func New(repo Repo, config Config) *Bridge {
	return &Bridge{repo: repo, manager: newManager(config)}
}

// Register creates a new director account with a bcrypt-hashed password.
func (b *Bridge) Register(ctx context.Context, email, firstName, lastName, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.InternalServer("failed to hash password")
	}
	return b.repo.CreateUser(ctx, email, firstName, lastName, hash)
}

// Login verifies credentials and issues a fresh session token, persisting it
// to auth_sessions so ResolveSession and logout both have a durable record.
func (b *Bridge) Login(ctx context.Context, email, password string) (token string, expiresAt time.Time, err error) {
	user, err := b.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, apperrors.InvalidCredentials()
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return "", time.Time{}, apperrors.InvalidCredentials()
	}

	token, expiresAt, err = b.manager.issue(user.ID)
	if err != nil {
		return "", time.Time{}, apperrors.InternalServer("failed to issue session token")
	}
	if err := b.repo.CreateAuthSession(ctx, token, user.ID, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Logout revokes a session token immediately.
func (b *Bridge) Logout(ctx context.Context, token string) error {
	return b.repo.DeleteAuthSession(ctx, token)
}

// ResolveSession is the function HostEndpoint's CONNECTING -> AUTHENTICATED
// transition calls with the `session` query parameter (SPEC_FULL.md §4.3).
// It verifies the JWT signature and expiry, then confirms the token has not
// been revoked by checking it is still present in auth_sessions.
func (b *Bridge) ResolveSession(ctx context.Context, token string) (userID string, err error) {
	claims, err := b.manager.verify(token)
	if err != nil {
		return "", apperrors.AuthFailed("invalid or expired session token")
	}

	resolvedUserID, err := b.repo.ResolveSession(ctx, token)
	if err != nil {
		return "", err
	}
	if resolvedUserID != claims.UserID {
		return "", apperrors.AuthFailed("session token subject mismatch")
	}
	return resolvedUserID, nil
}
