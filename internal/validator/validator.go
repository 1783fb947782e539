// Package validator centralizes request and domain-object validation for
// the meetingspace API, per spec.md §9: "Response validation. Centralize in
// a single function... All paths... MUST funnel through it."
package validator

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/meetingspace/api/internal/errors"
)

// validate is the singleton validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct validates a struct and returns the raw validator error.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateRequest validates a request struct and returns formatted errors.
// Returns nil if validation passes.
func ValidateRequest(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors := make(map[string]string)
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			field := strings.ToLower(e.Field())
			fieldErrors[field] = formatValidationError(e)
		}
	}
	return fieldErrors
}

// BindAndValidate binds JSON and validates in one step. Returns true if
// successful, false if validation failed (and sets the error response).
func BindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return false
	}

	if errs := ValidateRequest(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"fields": errs,
		})
		return false
	}

	return true
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", e.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", e.Param())
	default:
		return fmt.Sprintf("Validation failed: %s", e.Tag())
	}
}

// Domain-specific validation, the single funnel spec.md §9 requires.
//
// ValidateResponseText trims and checks a candidate answer's length bounds
// (1-500 chars after trim), per spec.md §3's Response invariant. Every path
// that can produce a Response — WS submit_answer today, any future HTTP
// endpoint tomorrow — calls this before CreateResponse.
func ValidateResponseText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperrors.InvalidResponse("response text is empty")
	}
	if len(trimmed) > 500 {
		return "", apperrors.InvalidResponse("response text exceeds 500 characters")
	}
	return trimmed, nil
}

// ValidateParticipantName checks the 1-30 char bound spec.md §4.4 requires
// for the first participant_joined message.
func ValidateParticipantName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || len(trimmed) > 30 {
		return "", apperrors.ValidationFailed("participant name must be 1-30 characters")
	}
	return trimmed, nil
}

// MeetingCreateRequest is a validator-tagged meeting-creation payload. The
// POST /api/meetings handler does not use it: it binds its own
// createMeetingRequest, with gin binding tags and a duration_minutes key.
type MeetingCreateRequest struct {
	Title           string   `json:"title" validate:"required,max=40"`
	Description     string   `json:"description" validate:"max=300"`
	DurationMinutes int      `json:"durationMinutes" validate:"gte=1,lte=60"`
	Questions       []string `json:"questions" validate:"max=20,dive,required,max=300"`
}
