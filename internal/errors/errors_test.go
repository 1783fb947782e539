package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping_CoversEachErrorFamily(t *testing.T) {
	cases := map[*AppError]int{
		BadRequest("x"):          http.StatusBadRequest,
		ValidationFailed("x"):    http.StatusBadRequest,
		InvalidResponse("x"):     http.StatusBadRequest,
		Unauthorized("x"):        http.StatusUnauthorized,
		InvalidCredentials():     http.StatusUnauthorized,
		TokenExpired():           http.StatusUnauthorized,
		TokenInvalid():           http.StatusUnauthorized,
		AuthFailed("x"):          http.StatusUnauthorized,
		Forbidden("x"):           http.StatusForbidden,
		Locked("x"):              http.StatusForbidden,
		NotFound("meeting"):      http.StatusNotFound,
		MeetingNotFound():        http.StatusNotFound,
		QuestionNotFound():       http.StatusNotFound,
		SessionNotFound("ABC"):   http.StatusNotFound,
		Conflict("x"):            http.StatusConflict,
		AccessCodeConflict():     http.StatusConflict,
		CodeExhaustion():         http.StatusInsufficientStorage,
		ServiceUnavailable("x"):  http.StatusServiceUnavailable,
		SummarizationError(nil):  http.StatusServiceUnavailable,
		ExportError(nil):         http.StatusServiceUnavailable,
		InternalServer("x"):      http.StatusInternalServerError,
		DatabaseError(nil):       http.StatusInternalServerError,
	}

	for err, want := range cases {
		assert.Equal(t, want, err.StatusCode, "code=%s", err.Code)
	}
}

func TestWSCloseCode_MapsSessionDomainErrorsToTheirCloseCodes(t *testing.T) {
	assert.Equal(t, WSCloseAuthFailed, AuthFailed("x").WSCloseCode())
	assert.Equal(t, WSCloseLocked, Locked("x").WSCloseCode())
	assert.Equal(t, WSCloseNotFound, MeetingNotFound().WSCloseCode())
	assert.Equal(t, WSCloseNotFound, SessionNotFound("ABC").WSCloseCode())
	assert.Equal(t, WSCloseNormal, BadRequest("x").WSCloseCode(), "codes with no WS meaning fall back to normal closure")
}

func TestError_IncludesDetailsOnlyWhenPresent(t *testing.T) {
	plain := New(ErrCodeNotFound, "meeting not found")
	assert.Equal(t, "NOT_FOUND: meeting not found", plain.Error())

	withDetails := Wrap(ErrCodeDatabaseError, "query failed", assertErr("connection refused"))
	assert.Equal(t, "DATABASE_ERROR: query failed - connection refused", withDetails.Error())
}

func TestToResponse_CarriesCodeInBothErrorAndCodeFields(t *testing.T) {
	err := NotFound("meeting")
	resp := err.ToResponse()

	assert.Equal(t, ErrCodeNotFound, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Code)
	assert.Equal(t, "meeting not found", resp.Message)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
