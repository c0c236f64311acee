package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code. API clients branch on the
// code, never on the message text.
type Code string

const (
	CodeMissingPetID         Code = "MISSING_PET_ID"
	CodeMissingScheduledAt   Code = "MISSING_SCHEDULED_AT"
	CodeInvalidScheduledAt   Code = "INVALID_SCHEDULED_AT"
	CodeTooSoon              Code = "TOO_SOON"
	CodeTooFar               Code = "TOO_FAR"
	CodePetNotFound          Code = "PET_NOT_FOUND"
	CodeNotPetOwner          Code = "NOT_PET_OWNER"
	CodeNoVetAvailable       Code = "NO_VET_AVAILABLE"
	CodeSlotTaken            Code = "SLOT_TAKEN"
	CodeInvalidTransition    Code = "INVALID_TRANSITION"
	CodeAlreadyCancelled     Code = "ALREADY_CANCELLED"
	CodeJoinTooEarly         Code = "JOIN_TOO_EARLY"
	CodeJoinExpired          Code = "JOIN_EXPIRED"
	CodeConsultationNotFound Code = "CONSULTATION_NOT_FOUND"
	CodeNotConsultationOwner Code = "NOT_CONSULTATION_OWNER"
	CodeInvalidSchedule      Code = "INVALID_SCHEDULE"
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeForbidden            Code = "FORBIDDEN"
	CodeInternal             Code = "INTERNAL_ERROR"
)

// AppError is the application error type carried across service boundaries.
type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func Internal(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal server error", Err: err}
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeMissingPetID, CodeMissingScheduledAt, CodeInvalidScheduledAt,
		CodeTooSoon, CodeTooFar, CodeValidation, CodeInvalidSchedule,
		CodeJoinTooEarly, CodeJoinExpired:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotPetOwner, CodeNotConsultationOwner, CodeForbidden:
		return http.StatusForbidden
	case CodePetNotFound, CodeConsultationNotFound:
		return http.StatusNotFound
	case CodeNoVetAvailable, CodeSlotTaken, CodeInvalidTransition, CodeAlreadyCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
