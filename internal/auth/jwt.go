// Package auth implements AuthBridge (SPEC_FULL.md §4.9): JWT-backed
// session tokens, bcrypt password hashing for director login/registration,
// and the ResolveSession(token) -> UserId bridge the host endpoint calls on
// WebSocket upgrade.
//
// Grounded on the teacher's internal/auth/jwt.go HS256 signing pattern,
// trimmed to what a single-role, session-token-only domain needs: no role
// claims, no group claims, no refresh window. Revocation is delegated to
// internal/db's auth_sessions table rather than a second Redis-backed
// session store, since RepoStore already gives AuthBridge a durable place
// to check token liveness.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds the HMAC signing configuration for session tokens.
type Config struct {
	// SecretKey signs and verifies tokens. Must be loaded from environment,
	// never hardcoded.
	SecretKey string
	Issuer    string
	// TokenDuration is how long an issued token remains valid.
	TokenDuration time.Duration
}

// Claims is the JWT payload for a director session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// manager signs and verifies session tokens with HS256.
type manager struct {
	config Config
}

func newManager(config Config) *manager {
	if config.TokenDuration == 0 {
		config.TokenDuration = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "meetingspace-api"
	}
	return &manager{config: config}
}

// issue signs a new token for userID, returning the token string and its
// expiry so the caller can persist a matching auth_sessions row.
func (m *manager) issue(userID string) (token string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(m.config.TokenDuration)

	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString([]byte(m.config.SecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// verify checks the token's signature, algorithm, and expiry, returning its
// claims. The caller (AuthBridge) additionally confirms the token is still
// present in auth_sessions to honor logout/revocation.
func (m *manager) verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.SecretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
