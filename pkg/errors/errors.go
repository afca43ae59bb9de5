package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnavailable        = New("UNAVAILABLE", http.StatusServiceUnavailable, "service temporarily unavailable")

	ErrInvalidNationalID = New("INVALID_NATIONAL_ID", http.StatusBadRequest, "national id must have 8 digits")
	ErrTooManySlots      = New("TOO_MANY_SLOTS", http.StatusBadRequest, "too many schedule slots in a single enrollment")
	ErrInvalidSlots      = New("INVALID_SLOTS", http.StatusBadRequest, "every schedule slot must reference a valid slot id")
	ErrDuplicateEnroll   = New("DUPLICATE_ENROLLMENT", http.StatusConflict, "student already has an open enrollment for this sport")
	ErrAccountInactive   = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account has been deactivated, please contact the administrator")
	ErrLocalPersistence  = New("LOCAL_PERSISTENCE_ERROR", http.StatusInternalServerError, "the enrollment could not be saved, please try again")
	ErrRemoteSync        = New("REMOTE_SYNC_ERROR", http.StatusBadGateway, "the enrollment could not be completed, please try again in a few moments")
	ErrRemoteTimeout     = New("REMOTE_SYNC_TIMEOUT", http.StatusGatewayTimeout, "the enrollment could not be confirmed in time, please try again in a few moments")

	// ErrCacheMiss signals an absent or expired cache entry.
	ErrCacheMiss = errors.New("cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying client-facing details.
func WithDetails(err *Error, message string, details interface{}) *Error {
	clone := Clone(err, message)
	if clone != nil {
		clone.Details = details
	}
	return clone
}
