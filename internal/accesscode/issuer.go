// Package accesscode implements AccessCodeIssuer (SPEC_FULL.md §4.10):
// 8-digit numeric meeting codes generated with a cryptographic RNG, with a
// bounded retry against RepoStore's AccessCodeConflict.
//
// Grounded on original_source/apps/director/models.py's access_code field
// (unique, numeric) — the original has no generator of its own (Django's
// admin/forms assign it), so the retry-on-conflict pattern here is modeled
// on the teacher's general unique-constraint-then-retry style used across
// internal/db for other unique columns.
package accesscode

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	apperrors "github.com/meetingspace/api/internal/errors"
)

const (
	codeDigits  = 8
	maxAttempts = 5
)

// Creator is the subset of RepoStore the issuer needs: an attempt to create
// a meeting with a candidate code, returning AccessCodeConflict on collision.
type Creator func(ctx context.Context, code string) error

// Issue generates a fresh 8-digit code and calls create with it, retrying on
// AccessCodeConflict for at most maxAttempts attempts in total. Returns
// CodeExhaustion if every attempt collides (SPEC_FULL.md §4.10, end-to-end scenario 6).
func Issue(ctx context.Context, create Creator) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := generate()
		if err != nil {
			return apperrors.InternalServer("failed to generate access code")
		}

		lastErr = create(ctx, code)
		if lastErr == nil {
			return nil
		}

		appErr, ok := lastErr.(*apperrors.AppError)
		if !ok || appErr.Code != apperrors.ErrCodeAccessCodeConflict {
			return lastErr
		}
		// Collision: loop and try a fresh code.
	}
	return apperrors.CodeExhaustion()
}

// generate produces a uniformly random 8-digit numeric string, digits 0-9,
// via crypto/rand — including values with leading zeros.
func generate() (string, error) {
	max := big.NewInt(100000000) // 10^8, exclusive upper bound
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
