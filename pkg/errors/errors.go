package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
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

// Is matches errors by code so predefined kinds survive Clone and Wrap.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && t != nil && e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined domain error kinds. Every registrar operation surfaces exactly
// one of these per call.
var (
	ErrRecordNotFound        = New("RECORD_NOT_FOUND", http.StatusNotFound, "record not found")
	ErrDuplicateEnrollment   = New("DUPLICATE_ENROLLMENT", http.StatusConflict, "student already has an active enrollment for this section")
	ErrCapacityExceeded      = New("CAPACITY_EXCEEDED", http.StatusConflict, "section is at capacity")
	ErrPrerequisiteNotMet    = New("PREREQUISITE_NOT_MET", http.StatusPreconditionFailed, "course prerequisites not satisfied")
	ErrInvalidEmail          = New("INVALID_EMAIL", http.StatusBadRequest, "email address is not valid")
	ErrUnsupportedDateFormat = New("UNSUPPORTED_DATE_FORMAT", http.StatusBadRequest, "date must be in YYYY-MM-DD format")
	ErrIncorrectTimeslot     = New("INCORRECT_TIMESLOT", http.StatusBadRequest, "time slot is not of the form '<days> <HH:MM>-<HH:MM>'")
	ErrIncorrectValue        = New("INCORRECT_VALUE", http.StatusBadRequest, "value is not valid for field")
	ErrNoGradedCourses       = New("NO_GRADED_COURSES", http.StatusNotFound, "student has no graded courses")
	ErrDatabase              = New("DATABASE_ERROR", http.StatusInternalServerError, "database error")
	ErrValidation            = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal              = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")

	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Postgres error classes relevant to the adapter's declared constraints.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// FromSQL classifies a store-level failure. Known constraint classes keep a
// stable message; anything else surfaces as DATABASE_ERROR so store-specific
// text never leaks to callers.
func FromSQL(err error, context string) *Error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Clone(ErrRecordNotFound, context+" not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return Wrap(err, ErrDatabase.Code, http.StatusConflict, context+" already exists")
		case pgForeignKeyViolation:
			return Wrap(err, ErrDatabase.Code, http.StatusConflict, context+" violates a referential constraint")
		case pgCheckViolation:
			return Wrap(err, ErrDatabase.Code, http.StatusConflict, context+" violates a check constraint")
		}
	}
	return Wrap(err, ErrDatabase.Code, ErrDatabase.Status, context+" failed")
}

// IsForeignKeyViolation reports whether the error is a referential-integrity
// rejection, e.g. deleting a department that still owns rows.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation
}

// IsUniqueViolation reports whether the error is a uniqueness rejection.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
}

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
